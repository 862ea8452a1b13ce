package testlog

import (
	"testing"

	"github.com/umi-eng/saelient/internal/logging"
)

func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log := logging.Logger()
	log.Info().Str("test", t.Name()).Msg("start")
}
