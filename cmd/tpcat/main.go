// tpcat replays a transport frame log through a reassembly session.
//
// The log holds one frame per line: a CM or DT tag followed by eight hex
// bytes. The first CM frame must be the RequestToSend that opened the
// transfer. Emitted flow-control frames are printed to stderr; the
// reassembled payload goes to stdout or the configured output file.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/umi-eng/saelient/internal/logging"
	"github.com/umi-eng/saelient/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "tpcat: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("tpcat", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a TOML config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := defaultReplayConfig()
	if *configPath != "" {
		loaded, err := loadReplayConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if cfg.LogLevel != "" {
		os.Setenv(logging.EnvLogLevel, cfg.LogLevel)
	}
	logging.ConfigureRuntime()
	log := logging.Logger()

	input := io.Reader(os.Stdin)
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	payload, err := replay(input, cfg)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(payload); err != nil {
		return err
	}
	log.Info().Int("bytes", len(payload)).Msg("transfer reassembled")
	return nil
}

func replay(input io.Reader, cfg replayConfig) ([]byte, error) {
	log := logging.Logger()

	var session *transport.Transfer
	scanner := bufio.NewScanner(input)
	line := 0
	for scanner.Scan() {
		line++
		tag, frame, err := parseFrame(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if tag == "" {
			continue
		}

		switch tag {
		case "CM":
			if session != nil {
				// Only the opening RTS is meaningful when replaying the
				// receiver side; responses in a captured log are ours.
				log.Debug().Int("line", line).Msg("skipping connection-management frame mid-transfer")
				continue
			}
			rts, err := transport.DecodeRequestToSend(frame)
			if err != nil {
				return nil, fmt.Errorf("line %d: expected request to send: %w", line, err)
			}
			session, err = newSession(rts, cfg)
			if err != nil {
				return nil, err
			}
			session.SetLogger(log)

		case "DT":
			if session == nil {
				return nil, fmt.Errorf("line %d: data transfer before request to send", line)
			}
			dt, err := transport.DecodeDataTransfer(frame)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			resp, err := session.Next(dt)
			if err != nil {
				var abort *transport.AbortError
				if errors.As(err, &abort) {
					f := abort.Abort.Encode()
					fmt.Fprintf(os.Stderr, "abort %s\n", hex.EncodeToString(f[:]))
				}
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if resp != nil {
				f := resp.Encode()
				fmt.Fprintf(os.Stderr, "response %s\n", hex.EncodeToString(f[:]))
			}

		default:
			return nil, fmt.Errorf("line %d: unknown frame tag %q", line, tag)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("no request to send in input")
	}

	payload, ok := session.Finished()
	if !ok {
		return nil, errors.New("input ended before the transfer completed")
	}
	return payload, nil
}

func newSession(rts transport.RequestToSend, cfg replayConfig) (*transport.Transfer, error) {
	if cfg.StorageBytes > 0 {
		region := make([]byte, cfg.StorageBytes)
		return transport.NewTransferWithStorage(rts, transport.NewFixedStorage(region))
	}
	return transport.NewTransfer(rts)
}

// parseFrame splits a log line into its tag and frame bytes. Blank lines
// and comments yield an empty tag.
func parseFrame(line string) (string, []byte, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, nil
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", nil, fmt.Errorf("malformed frame line %q", line)
	}
	frame, err := hex.DecodeString(strings.Join(fields[1:], ""))
	if err != nil {
		return "", nil, fmt.Errorf("malformed frame hex: %w", err)
	}
	return strings.ToUpper(fields[0]), frame, nil
}
