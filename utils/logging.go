package utils

import (
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/coinbase/smart-wallet/textbookrsa/keys"
)

// NewLogger returns a console logger on w at the given level ("debug", "info", ...).
func NewLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if w == nil {
		w = os.Stderr
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// PrimeSearchLogger logs rejected candidates at trace and the accepted prime at debug.
func PrimeSearchLogger(log zerolog.Logger) keys.SearchObserver {
	return func(bitLength, iteration int, candidate *big.Int, probablyPrime bool) {
		if !probablyPrime {
			log.Trace().Int("bits", bitLength).Int("iteration", iteration).Msg("candidate rejected")
			return
		}
		log.Debug().Int("bits", bitLength).Int("iterations", iteration).Msg("probable prime found")
	}
}
