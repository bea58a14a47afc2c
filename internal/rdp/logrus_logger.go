package rdp

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogrusLogger renders each Event as the §4.5 line through a *logrus.Logger,
// grounded on runZeroInc-conniver/runZeroInc-sockstats's use of logrus for
// structured CLI output. It replaces the C original's fprintf-to-stdout
// global sink with an injected, swappable handle (Design Notes §9).
type LogrusLogger struct {
	log *logrus.Logger
}

// NewLogrusLogger builds a Logger that writes through log at Debug level,
// so per-packet lines only surface when the caller raises log's level
// (the CLI front-ends' -debug flag) and stay quiet otherwise.
func NewLogrusLogger(log *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{log: log}
}

// Log implements Logger.
func (l *LogrusLogger) Log(e Event) {
	l.log.Debug(Line(e, time.Now()))
}
