// Package logging builds the logrus logger shared by the CLI and the
// orchestration packages.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the level, format ("text" or "json") and output
// ("stderr", "stdout" or a file path) of a logger.
type Options struct {
	Level  string
	Format string
	Output string
}

// New builds a logger from opts. An invalid level falls back to info and an
// unopenable file falls back to stderr; both are reported on the returned
// logger. The returned closer releases the log file, if any.
func New(opts Options) (*logrus.Logger, io.Closer) {
	logger := logrus.New()
	var warnings []string

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		if opts.Level != "" {
			warnings = append(warnings, "invalid log level '"+opts.Level+"', using 'info'")
		}
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	var closer io.Closer = nopCloser{}
	switch strings.ToLower(opts.Output) {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			warnings = append(warnings, "failed to open log file '"+opts.Output+"', using stderr: "+err.Error())
			logger.SetOutput(os.Stderr)
		} else {
			logger.SetOutput(file)
			closer = file
		}
	}

	for _, w := range warnings {
		logger.Warn(w)
	}
	return logger, closer
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
