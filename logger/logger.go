// Package logger holds the process wide logger.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// L is the global logger. It logs at info level until InitLogger is called.
var L = newLogger(logrus.InfoLevel)

func newLogger(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}

// ParseLevel returns the level named s, case insensitively. Unknown names
// yield info and ok false.
func ParseLevel(s string) (level logrus.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return logrus.DebugLevel, true
	case "info", "":
		return logrus.InfoLevel, true
	case "warn", "warning":
		return logrus.WarnLevel, true
	case "error":
		return logrus.ErrorLevel, true
	}
	return logrus.InfoLevel, false
}

// InitLogger sets the level of L.
// Call this once at startup, after loading the configuration.
func InitLogger(levelStr string) {
	level, ok := ParseLevel(levelStr)
	L.SetLevel(level)
	if !ok {
		L.WithField("configuredLevel", levelStr).Warn("invalid log level, defaulting to info")
	}
	L.WithField("level", level.String()).Debug("logger initialized")
}
