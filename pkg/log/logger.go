package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New builds the process-wide logger. An unknown level falls back to info with a warning.
func New(levelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	log.SetLevel(logrus.InfoLevel)
	if out != nil {
		log.SetOutput(out)
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
	} else {
		log.SetLevel(level)
		log.Debugf("Log level set to: %s", level.String())
	}

	return log
}

// Component returns an entry tagged with the component name
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
