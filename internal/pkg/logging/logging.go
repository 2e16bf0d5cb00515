// Package logging configures the global zerolog logger shared by the API and nexarctl.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup writes JSON lines in production and colored console output elsewhere.
func Setup(production bool) {
	SetupWriter(production, os.Stderr)
}

// SetupWriter is Setup with an explicit destination.
func SetupWriter(production bool, w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339
	if production {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
}
