package logger

import (
	"github.com/op/go-logging"
)

// EncodeProgressLogger logs transcode progress into the worker log,
// trying not to be too verbose. The transcoder reports percentages
// continuously; this only prints when progress has advanced by at
// least Step percentage points since the last line.
type EncodeProgressLogger struct {
	logger         *logging.Logger
	prefix         string
	step           int
	lastPctPrinted int
}

// NewEncodeProgressLogger creates a new EncodeProgressLogger. Param
// prefix identifies the asset being encoded, typically the object path.
func NewEncodeProgressLogger(logger *logging.Logger, prefix string, step int) *EncodeProgressLogger {
	if step < 1 {
		step = 10
	}
	return &EncodeProgressLogger{
		logger:         logger,
		prefix:         prefix,
		step:           step,
		lastPctPrinted: -1,
	}
}

// Observe fulfills the progress observer signature the transcoder
// expects. Progress is observability only; nothing downstream makes
// control decisions from it.
func (e *EncodeProgressLogger) Observe(pct int) {
	if pct >= 100 || e.lastPctPrinted < 0 || pct-e.lastPctPrinted >= e.step {
		e.logger.Infof("%s: encoding %d%% complete", e.prefix, pct)
		e.lastPctPrinted = pct
	}
}
