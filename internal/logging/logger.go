package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/sirupsen/logrus"
)

// Init configures the global slog logger.
// In production it uses JSON output for log aggregation, otherwise the human-readable text handler.
func Init(production bool) {
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// NewServiceLogger returns the structured logger used by the roadmap services
func NewServiceLogger(production bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	if production {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// Discard returns a logger that drops everything, for tests
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// WithRoadmap returns an entry scoped to one roadmap operation
func WithRoadmap(logger *logrus.Logger, op, roadmapID, userEmail string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"op":         op,
		"roadmap_id": roadmapID,
		"user_email": userEmail,
	})
}
