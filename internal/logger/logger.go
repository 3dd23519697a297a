package logger

import (
	"io"
	"os"

	"github.com/Domenick1991/bookingadmin/config"
	"github.com/sirupsen/logrus"
)

// New builds the process logger. Output defaults to stdout.
func New(cfg config.LogConfig, service string, out io.Writer) *logrus.Entry {
	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	return log.WithField("service", service)
}
