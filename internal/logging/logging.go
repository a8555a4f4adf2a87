// Package logging provides the structured logger used throughout the
// helper. All output goes to stderr; stdout is reserved for the git
// remote-helper protocol.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging capability consumed by every other package.
// Implementations are expected to be safe for concurrent use.
type Logger interface {
	SetToDebug()
	SetToInfo()
	SetToError()
	Module(ns string) Logger
	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Warn(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
	Fatal(msg string, keyValues ...interface{})
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New creates a Logger that writes to stderr.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	l.SetLevel(logrus.InfoLevel)
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) SetToDebug() { l.entry.Logger.SetLevel(logrus.DebugLevel) }
func (l *logrusLogger) SetToInfo()  { l.entry.Logger.SetLevel(logrus.InfoLevel) }
func (l *logrusLogger) SetToError() { l.entry.Logger.SetLevel(logrus.ErrorLevel) }

// Module returns a logger scoped to ns, carried as a "module" field.
func (l *logrusLogger) Module(ns string) Logger {
	return &logrusLogger{entry: l.entry.WithField("module", ns)}
}

func fields(keyValues []interface{}) logrus.Fields {
	f := make(logrus.Fields, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			continue
		}
		f[key] = keyValues[i+1]
	}
	return f
}

func (l *logrusLogger) Debug(msg string, keyValues ...interface{}) {
	l.entry.WithFields(fields(keyValues)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, keyValues ...interface{}) {
	l.entry.WithFields(fields(keyValues)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, keyValues ...interface{}) {
	l.entry.WithFields(fields(keyValues)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, keyValues ...interface{}) {
	l.entry.WithFields(fields(keyValues)).Error(msg)
}

func (l *logrusLogger) Fatal(msg string, keyValues ...interface{}) {
	l.entry.WithFields(fields(keyValues)).Fatal(msg)
}
