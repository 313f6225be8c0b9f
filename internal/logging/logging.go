// Package logging defines the minimal logger contract metricsd's internal
// packages depend on, backed by logrus the way the teacher wires a
// telegraf.Logger field into its plugin.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the surface every internal package that logs depends on,
// satisfied by both *Logrus and test doubles.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Logrus adapts a *logrus.Entry to the Logger interface.
type Logrus struct {
	entry *logrus.Entry
}

// New builds a Logrus logger writing to stderr at the given level
// ("debug", "info", "warn", "error"); an unrecognized level, which
// logrus.ParseLevel rejects with an error, falls back to info.
func New(level string) *Logrus {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return &Logrus{entry: logrus.NewEntry(log)}
}

// With returns a derived logger carrying an additional structured field,
// e.g. the connection id or rotation trace id.
func (l *Logrus) With(key string, value interface{}) *Logrus {
	return &Logrus{entry: l.entry.WithField(key, value)}
}

func (l *Logrus) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logrus) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logrus) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logrus) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

var _ Logger = (*Logrus)(nil)
