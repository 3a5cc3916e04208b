package log

import (
	logrus "github.com/sirupsen/logrus"
)

// Log levels as strings, matching the configuration file values.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

type Fields = logrus.Fields

var logger = logrus.New()

// FromString converts a configuration level string to a logrus level.
// Unknown values default to info.
func FromString(level string) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case InfoLevel:
		return logrus.InfoLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func SetLogLevel(level logrus.Level) {
	logger.SetLevel(level)
}

func SetLogFormatter(formatter logrus.Formatter) {
	logger.SetFormatter(formatter)
}

func Debug(args ...interface{}) {
	logger.Debug(args...)
}

func Info(args ...interface{}) {
	logger.Info(args...)
}

func Warn(args ...interface{}) {
	logger.Warn(args...)
}

func Error(args ...interface{}) {
	logger.Error(args...)
}

func Fatal(args ...interface{}) {
	logger.Fatal(args...)
}

func DebugWithFields(msg string, fields Fields) {
	logger.WithFields(fields).Debug(msg)
}

func InfoWithFields(msg string, fields Fields) {
	logger.WithFields(fields).Info(msg)
}

func WarnWithFields(msg string, fields Fields) {
	logger.WithFields(fields).Warn(msg)
}

func ErrorWithFields(msg string, fields Fields) {
	logger.WithFields(fields).Error(msg)
}
