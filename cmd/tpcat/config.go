package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Output       string `toml:"output"`
	StorageBytes int    `toml:"storage_bytes"`
	LogLevel     string `toml:"log_level"`
}

// replayConfig controls one tpcat run.
type replayConfig struct {
	Output       string // reassembled payload destination; empty = stdout
	StorageBytes int    // >0 replays into a fixed region of this size
	LogLevel     string
}

func defaultReplayConfig() replayConfig {
	return replayConfig{}
}

func loadReplayConfig(path string) (replayConfig, error) {
	cfg := defaultReplayConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return replayConfig{}, fmt.Errorf("load tpcat config: %w", err)
	}

	if meta.IsDefined("output") {
		cfg.Output = strings.TrimSpace(raw.Output)
	}

	if meta.IsDefined("storage_bytes") {
		if raw.StorageBytes < 0 {
			return replayConfig{}, fmt.Errorf("storage_bytes must not be negative: %d", raw.StorageBytes)
		}
		cfg.StorageBytes = raw.StorageBytes
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	return cfg, nil
}
