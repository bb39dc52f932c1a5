// Package fsm checks lease status changes with looplab/fsm.
package fsm

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/rentiq/internal/domain"
)

var _ domain.TransitionValidator = (*Validator)(nil)

// Validator replays a single lease event on a looplab/fsm machine seeded with
// the lease's current status. Machines are never shared between calls.
type Validator struct {
	events []loopfsm.EventDesc
}

// New returns a validator for the lease lifecycle in domain.Transitions.
func New() *Validator {
	return NewFromTable(domain.Transitions)
}

// NewFromTable returns a validator that accepts only the transitions in table.
func NewFromTable(table []domain.Transition) *Validator {
	return &Validator{events: eventDescs(table)}
}

// eventDescs folds transitions sharing an event and a destination into one
// EventDesc with several sources, keeping table order.
func eventDescs(table []domain.Transition) []loopfsm.EventDesc {
	type edge struct {
		event domain.LeaseEvent
		dst   domain.LeaseStatus
	}
	seen := make(map[edge]int)
	var descs []loopfsm.EventDesc

	for _, t := range table {
		e := edge{t.Event, t.Dst}
		if i, ok := seen[e]; ok {
			descs[i].Src = append(descs[i].Src, string(t.Src))
			continue
		}
		seen[e] = len(descs)
		descs = append(descs, loopfsm.EventDesc{
			Name: string(t.Event),
			Src:  []string{string(t.Src)},
			Dst:  string(t.Dst),
		})
	}
	return descs
}

// Apply returns the status a lease in current reaches through event. Events
// the lifecycle does not allow yield a *domain.TransitionError.
func (v *Validator) Apply(ctx context.Context, current domain.LeaseStatus, event domain.LeaseEvent) (domain.LeaseStatus, error) {
	var entered domain.LeaseStatus
	lease := loopfsm.NewFSM(string(current), v.events, loopfsm.Callbacks{
		"enter_state": func(_ context.Context, e *loopfsm.Event) {
			entered = domain.LeaseStatus(e.Dst)
		},
	})

	if err := lease.Event(ctx, string(event)); err != nil {
		if rejected(err) {
			return "", &domain.TransitionError{Event: event, Current: current}
		}
		return "", fmt.Errorf("applying %s to a %s lease: %w", event, current, err)
	}
	return entered, nil
}

func rejected(err error) bool {
	var (
		invalid      loopfsm.InvalidEventError
		unknown      loopfsm.UnknownEventError
		noTransition loopfsm.NoTransitionError
	)
	return errors.As(err, &invalid) || errors.As(err, &unknown) || errors.As(err, &noTransition)
}
