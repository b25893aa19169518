// Package saga runs ordered multi-step writes with compensating rollback.
//
// The remote store has no cross-table transactions, so flows that must keep
// two tables consistent (participant + profile) register each forward write
// together with the action that undoes it. When a later step fails, the
// compensations of every completed step run in reverse order.
package saga

import (
	"context"
	"fmt"
	"log"
)

// Step is one forward action paired with its compensation. Compensate may
// be nil for steps that need no rollback (an upsert replaced by a later
// delete, a mark that is harmless to leave behind).
type Step struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga is an ordered list of steps. The zero value is usable.
type Saga struct {
	steps []Step
}

// Add appends a step.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps in order. Cancellation is checked before every
// step, so a timed-out context stops the flow before the next write rather
// than racing it. On failure the compensations of all completed steps run
// in reverse order, best-effort: a compensation error is logged and does
// not mask the causing error.
func (s *Saga) Run(ctx context.Context) error {
	completed := make([]Step, 0, len(s.steps))
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			s.rollback(completed)
			return fmt.Errorf("saga halted before step %s: %w", step.Name, err)
		}
		if err := step.Run(ctx); err != nil {
			s.rollback(completed)
			return fmt.Errorf("saga step %s: %w", step.Name, err)
		}
		completed = append(completed, step)
	}
	return nil
}

func (s *Saga) rollback(completed []Step) {
	// Compensations run on a fresh context: the original may already be
	// cancelled, and rollback writes still have to go out.
	ctx := context.Background()
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx); err != nil {
			log.Printf("saga: compensation for step %s failed: %v", step.Name, err)
		}
	}
}
