package charred

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the structured logging sink used for diagnostics that are not
// themselves parse errors: async-producer lifecycle events and secondary
// errors swallowed during Close (spec.md section 7 -- "logging secondary
// ones via an optional callback"). A nil Logger silences all logging,
// mirroring the *log.Logger pointer-or-nil convention the pack's CSV-to-JSON
// converter uses for its own skipped-row diagnostics.
type Logger = log.Logger

// NewNopLogger returns a Logger that discards everything, for callers who
// want to pass a non-nil value without wiring a real sink.
func NewNopLogger() Logger {
	return log.NewNopLogger()
}

func logSecondaryError(logger Logger, op string, err error) {
	if logger == nil || err == nil {
		return
	}
	level.Warn(logger).Log("msg", "secondary error during close", "op", op, "err", err)
}

func logProducerEvent(logger Logger, msg string, keyvals ...interface{}) {
	if logger == nil {
		return
	}
	level.Debug(logger).Log(append([]interface{}{"msg", msg}, keyvals...)...)
}

func logProducerError(logger Logger, err error) {
	if logger == nil || err == nil {
		return
	}
	level.Error(logger).Log("msg", "async producer error", "err", err)
}
