// Package logging builds the console logger shared by all components.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a console logger on stderr at the given level.
func New(level string) (zerolog.Logger, error) {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter returns a console logger writing to w. Colors are used only
// when w is a terminal.
func NewWithWriter(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}
	return zerolog.New(out).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

// Must returns logger, panicking if err is set. It is meant for levels
// known at compile time.
func Must(logger zerolog.Logger, err error) zerolog.Logger {
	if err != nil {
		panic(err)
	}
	return logger
}

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return lvl, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
