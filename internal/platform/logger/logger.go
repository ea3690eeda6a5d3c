package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New construye el logger de la aplicación.
// En local escribe formato consola legible; en cualquier otro env, JSON plano.
func New(level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if env == "local" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		l = zerolog.New(os.Stdout)
	}

	return l.Level(lvl).With().
		Timestamp().
		Str("app", "granjas-del-carmen").
		Logger()
}
