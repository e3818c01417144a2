package sexp

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/reglet-dev/sexpbridge/domain/entities"
	"github.com/reglet-dev/sexpbridge/domain/errors"
)

// TruncationSuffix is appended to diagnostics cut at the warning length.
const TruncationSuffix = " [... truncated]"

// truncate cuts msg to at most limit bytes without splitting a UTF-8
// sequence.
func truncate(msg string, limit int) (string, bool) {
	if limit <= 0 || len(msg) <= limit {
		return msg, false
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut] + TruncationSuffix, true
}

func (r *Runtime) emit(ctx context.Context, d entities.Diagnostic) {
	if r.sink != nil {
		r.sink.Emit(ctx, d)
	}
}

// Warning records a non-fatal diagnostic and returns. Once MaxWarnings are
// pending, further warnings still reach the sink but are only counted.
func (r *Runtime) Warning(ctx context.Context, msg string) {
	msg, truncated := truncate(msg, r.cfg.WarningLength)
	d := entities.Diagnostic{
		Time:      time.Now(),
		Severity:  entities.SeverityWarning,
		Message:   msg,
		Truncated: truncated,
	}
	if len(r.warnings) < r.cfg.MaxWarnings {
		r.warnings = append(r.warnings, d)
	} else {
		r.droppedWarnings++
	}
	r.emit(ctx, d)
}

// Error raises a fatal diagnostic. It never returns: after the sink has
// seen the diagnostic it panics with *errors.RError, which unwinds to the
// nearest TopLevel.
func (r *Runtime) Error(ctx context.Context, msg string) {
	msg, truncated := truncate(msg, r.cfg.WarningLength)
	r.emit(ctx, entities.Diagnostic{
		Time:      time.Now(),
		Severity:  entities.SeverityError,
		Message:   msg,
		Truncated: truncated,
	})
	panic(&errors.RError{Message: msg, Truncated: truncated})
}

// Warnings returns the pending warnings and clears them.
func (r *Runtime) Warnings() []entities.Diagnostic {
	w := r.warnings
	r.warnings = nil
	return w
}

// DroppedWarnings returns how many warnings arrived while the pending list
// was full.
func (r *Runtime) DroppedWarnings() int {
	return r.droppedWarnings
}

// TopLevel runs fn and returns the *errors.RError it raised, if any. On an
// error the protection stack is unwound to its depth at entry. Panics other
// than RError are not recovered.
func (r *Runtime) TopLevel(fn func()) (err error) {
	depth := len(r.protect)
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		rerr, ok := errors.AsRError(rec)
		if !ok {
			panic(rec)
		}
		if depth < len(r.protect) {
			r.protect = r.protect[:depth]
		}
		err = rerr
	}()
	fn()
	return nil
}
