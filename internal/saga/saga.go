// Package saga runs compensations for multi-step writes that cannot share a
// transaction.
package saga

import (
	"context"

	"github.com/dmitrijs2005/pairjournal/internal/logging"
)

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// Saga collects compensations in the order their steps succeed.
// It is not safe for concurrent use.
type Saga struct {
	name   string
	logger logging.Logger
	undo   []compensation
}

func New(name string, l logging.Logger) *Saga {
	return &Saga{name: name, logger: l}
}

// OnFailure registers undo for the step that just succeeded.
func (s *Saga) OnFailure(step string, undo func(ctx context.Context) error) {
	s.undo = append(s.undo, compensation{name: step, undo: undo})
}

// Rollback runs every compensation in reverse order, even if some fail, and
// returns how many succeeded. Cancellation of ctx is ignored.
func (s *Saga) Rollback(ctx context.Context, cause error) int {
	ctx = context.WithoutCancel(ctx)

	ok := 0
	for i := len(s.undo) - 1; i >= 0; i-- {
		c := s.undo[i]
		if err := c.undo(ctx); err != nil {
			s.logger.Error(ctx, "compensation failed", "saga", s.name, "step", c.name, "cause", cause, "error", err)
			continue
		}
		ok++
	}
	s.logger.Error(ctx, "saga rolled back", "saga", s.name, "cause", cause, "compensated", ok, "total", len(s.undo))
	s.undo = nil
	return ok
}

// Len returns the number of registered compensations.
func (s *Saga) Len() int {
	return len(s.undo)
}
