// Package besteffort runs side effects whose failure must not fail the
// request that triggered them.
package besteffort

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/pkg/logger"
)

// Outcome reports how a side effect ended. Callers usually drop it.
type Outcome struct {
	Name     string
	Err      error
	Panicked bool
	Duration time.Duration
}

// OK reports whether the side effect completed
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Runner executes side effects, logging and counting failures
type Runner struct {
	log *logger.Logger
}

// NewRunner creates a runner logging to log
func NewRunner(log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{log: log}
}

// Do runs fn and converts an error or panic into a failed Outcome
func (r *Runner) Do(ctx context.Context, name string, fn func(ctx context.Context) error) (out Outcome) {
	out.Name = name
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			out.Err = fmt.Errorf("panic: %v", rec)
			out.Panicked = true
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			r.log.WarnContext(ctx, "Best-effort side effect failed",
				zap.String("name", name),
				zap.Bool("panic", out.Panicked),
				zap.Duration("duration", out.Duration),
				zap.Error(out.Err))
			metrics.RecordBestEffortFailure(ctx, name, out.Panicked)
		}
	}()

	out.Err = fn(ctx)
	return out
}
