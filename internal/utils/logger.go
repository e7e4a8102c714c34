package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const logTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ParseLogLevel accepts debug, info, warn and error, empty means info
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
}

// NewConsoleHandler returns a tint handler, colored only when w is a terminal
func NewConsoleHandler(w io.Writer, level slog.Level) slog.Handler {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd())
	}

	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: logTimeFormat,
		NoColor:    noColor,
	})
}

// SetupLogger installs the console handler on stdout as the default logger
func SetupLogger(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(NewConsoleHandler(os.Stdout, lvl)))
	return nil
}
