package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Dev gets a human console writer,
// everything else gets JSON lines on stderr.
func NewLogger(env string) zerolog.Logger {
	var w io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if env == "dev" {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
