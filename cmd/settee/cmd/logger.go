package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"go.elastic.co/ecszerolog"

	"github.com/setteedb/settee/pkg/logger"
)

// zerologLogger bridges the library's logger interface onto zerolog.
type zerologLogger struct {
	log zerolog.Logger
}

func (z zerologLogger) Error(msg string, args ...any) { z.log.Error().Fields(fields(args)).Msg(msg) }
func (z zerologLogger) Warn(msg string, args ...any)  { z.log.Warn().Fields(fields(args)).Msg(msg) }
func (z zerologLogger) Info(msg string, args ...any)  { z.log.Info().Fields(fields(args)).Msg(msg) }
func (z zerologLogger) Debug(msg string, args ...any) { z.log.Debug().Fields(fields(args)).Msg(msg) }

// fields folds slog-style alternating key/value args into a field map.
// A dangling value is kept under "arg".
func fields(args []any) map[string]any {
	out := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		out[key] = args[i+1]
	}
	if len(args)%2 != 0 {
		out["arg"] = args[len(args)-1]
	}
	return out
}

// newLogger builds the CLI logger from the configured level and
// format: pretty console output by default, ECS JSON for shipping.
func newLogger() logger.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var zl zerolog.Logger
	switch viper.GetString("log-format") {
	case "ecs":
		zl = ecszerolog.New(os.Stderr).Level(level)
	default:
		zl = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).
			With().Timestamp().Logger()
	}
	return zerologLogger{log: zl}
}
