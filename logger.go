package rsocket

import "github.com/sirupsen/logrus"

// Logger is the structured-logging seam used throughout the engine,
// generalizing the teacher's injectable fasthttp.Logger + debug bool
// pair (serverConn.logger / sc.debug in the original http2 engine)
// into a small interface any structured logger can satisfy.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// logrusLogger adapts a *logrus.Logger to Logger; used when a
// Connection/Client/Server is built without an explicit Logger.
type logrusLogger struct {
	log *logrus.Logger
}

// NewDefaultLogger returns the logrus-backed Logger used when no
// Logger is supplied to NewClient/NewServer/NewConnection.
func NewDefaultLogger() Logger {
	return &logrusLogger{log: logrus.New()}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.log.Debugf(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.log.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.log.Errorf(format, args...) }

// nopLogger discards everything; useful in tests.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
