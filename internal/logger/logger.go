package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Option func(*logrus.Logger)

// WithLevel задает уровень логирования. Применяется после настроек окружения.
func WithLevel(level logrus.Level) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// New инициализирует логгер.
func New(output io.Writer, opts ...Option) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output)
	l.SetFormatter(new(logrus.JSONFormatter))
	l.SetLevel(logrus.InfoLevel)

	// перезаписываем ряд настроек для окружений отличных от продакшн
	if os.Getenv("GIN_MODE") != "release" {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(new(logrus.TextFormatter))
	}

	for _, opt := range opts {
		opt(l)
	}
	return l
}
