package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the structured logger used across the service.
type Logger = *logrus.Logger

// Fields is an alias for structured log fields.
type Fields = logrus.Fields

// New creates a JSON logger with the level taken from LOG_LEVEL
// (debug|info|warn|error, default info) and a service field on every entry.
func New(serviceName string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(levelFromEnv())
	logger.AddHook(&serviceHook{service: serviceName})
	return logger
}

func levelFromEnv() logrus.Level {
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type serviceHook struct {
	service string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.service
	return nil
}
