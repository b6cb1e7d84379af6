package ledger

import (
	"context"
	"errors"
	"time"
)

// ResolveCycle returns the id of a cycle whose inclusive [start, end] window
// contains at, or nil when none does.
//
// Cycles may overlap. The store breaks ties by lowest id, but callers must
// not depend on which of several matching cycles is returned.
func (l *Ledger) ResolveCycle(ctx context.Context, at time.Time) (*int64, error) {
	if at.IsZero() {
		return nil, invalid("transaction_date", "is required")
	}
	var out *int64
	err := l.unitOfWork(ctx, "resolve cycle", func(tx Tx) error {
		c, err := tx.FindCycleContaining(ctx, at.UTC())
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		out = &c.ID
		return nil
	})
	return out, err
}
