package filefd

import "github.com/calvinalkan/filefd/internal/logging"

// Severity classifies a record handed to a [LogSink].
type Severity int

const (
	// SeverityError marks unexpected native failures. The library is
	// required to emit these before the error result escapes, because the
	// caller may discard it.
	SeverityError Severity = iota

	// SeverityWarn marks recoverable anomalies.
	SeverityWarn

	// SeverityDebug marks per-operation diagnostics.
	SeverityDebug
)

// LogSink receives the diagnostics filefd emits. Implementations must be
// cheap: Log is called on I/O paths.
type LogSink interface {
	Log(sev Severity, msg string)
}

// defaultLogSink routes to the process-wide leveled logger.
var defaultLogSink LogSink = loggerSink{}

type loggerSink struct{}

func (loggerSink) Log(sev Severity, msg string) {
	l := logging.Default()

	switch sev {
	case SeverityError:
		l.Error("%s", msg)
	case SeverityWarn:
		l.Warn("%s", msg)
	case SeverityDebug:
		l.Debug("%s", msg)
	}
}
