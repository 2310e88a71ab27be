package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Logger holds CLI flags for the process wide logger
type Logger struct {
	level  string
	format string
	output string
}

func (x *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Aliases:     []string{"l"},
			Usage:       "Log level (debug, info, warn, error)",
			Category:    "Logging",
			Value:       "info",
			Destination: &x.level,
			Sources:     cli.EnvVars("RISKCOMPASS_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Category:    "Logging",
			Value:       "console",
			Destination: &x.format,
			Sources:     cli.EnvVars("RISKCOMPASS_LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:        "log-output",
			Usage:       "Log output (stdout, stderr, or a file path)",
			Category:    "Logging",
			Value:       "stdout",
			Destination: &x.output,
			Sources:     cli.EnvVars("RISKCOMPASS_LOG_OUTPUT"),
		},
	}
}

func (x Logger) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("level", x.level),
		slog.String("format", x.format),
		slog.String("output", x.output),
	)
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Configure builds the logger, installs it as logging.Default and returns a
// closer for the output file, if any.
func (x *Logger) Configure() (func(), error) {
	handler, closer, err := x.newHandler()
	if err != nil {
		return nil, err
	}
	logging.SetDefault(slog.New(handler))
	return closer, nil
}

func (x *Logger) newHandler() (slog.Handler, func(), error) {
	level, ok := logLevels[strings.ToLower(x.level)]
	if !ok {
		return nil, nil, goerr.New("invalid log level", goerr.V("level", x.level))
	}

	closer := func() {}
	var w io.Writer
	switch x.output {
	case "stdout", "-", "":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		// #nosec G304 - path is provided by the operator
		f, err := os.OpenFile(x.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open log file", goerr.V("path", x.output))
		}
		w = f
		closer = func() {
			if err := f.Close(); err != nil {
				logging.Default().Error("failed to close log file", "error", err)
			}
		}
	}

	filter := masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Token"),
		masq.WithFieldName("JWTSecret"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldPrefix("secret"),
	)

	switch x.format {
	case "console":
		return clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithSource(true),
			clog.WithColor(w == os.Stdout || w == os.Stderr),
		), closer, nil

	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: filter,
		}), closer, nil

	default:
		closer()
		return nil, nil, goerr.New("invalid log format", goerr.V("format", x.format))
	}
}
