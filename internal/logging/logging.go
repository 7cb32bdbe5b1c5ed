// Package logging builds the logrus loggers handed to the pipeline and CLI.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects level, format and destination.
type Options struct {
	Level  string // panic|fatal|error|warn|info|debug|trace
	Format string // text|json
	Output io.Writer
}

// New returns a configured logger. Unknown levels fall back to info.
func New(opt Options) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(opt.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(opt.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if opt.Output != nil {
		logger.SetOutput(opt.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// Discard returns a logger that drops every entry.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
