package fsm_test

import (
	"context"
	"errors"
	"testing"

	adapter "github.com/neomorfeo/rentiq/internal/adapter/fsm"
	"github.com/neomorfeo/rentiq/internal/domain"
)

func TestValidator_AllTransitions(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, tr := range domain.Transitions {
		dst, err := v.Apply(ctx, tr.Src, tr.Event)
		if err != nil {
			t.Errorf("Apply(%q, %q) unexpected error: %v", tr.Src, tr.Event, err)
			continue
		}
		if dst != tr.Dst {
			t.Errorf("Apply(%q, %q) = %q, want %q", tr.Src, tr.Event, dst, tr.Dst)
		}
	}
}

func TestValidator_InvalidTransition(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	// A terminated lease is final.
	_, err := v.Apply(ctx, domain.StatusTerminated, domain.EventConfirm)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Event != domain.EventConfirm {
		t.Errorf("event = %q, want %q", trErr.Event, domain.EventConfirm)
	}
	if trErr.Current != domain.StatusTerminated {
		t.Errorf("current = %q, want %q", trErr.Current, domain.StatusTerminated)
	}
}

func TestValidator_UnknownEvent(t *testing.T) {
	v := adapter.New()

	_, err := v.Apply(context.Background(), domain.StatusPending, domain.LeaseEvent("renew"))
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestValidator_TerminalStates(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	for _, status := range []domain.LeaseStatus{domain.StatusTerminated, domain.StatusExpired} {
		for _, tr := range domain.Transitions {
			if _, err := v.Apply(ctx, status, tr.Event); err == nil {
				t.Errorf("Apply(%q, %q) should fail", status, tr.Event)
			}
		}
	}
}

func TestValidator_PrebookedLifecycle(t *testing.T) {
	v := adapter.New()
	ctx := context.Background()

	steps := []struct {
		from  domain.LeaseStatus
		event domain.LeaseEvent
		want  domain.LeaseStatus
	}{
		{domain.StatusPrebooked, domain.EventActivate, domain.StatusActive},
		{domain.StatusActive, domain.EventExpire, domain.StatusExpired},
	}

	for _, step := range steps {
		got, err := v.Apply(ctx, step.from, step.event)
		if err != nil {
			t.Fatalf("Apply(%q, %q) error: %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", step.from, step.event, got, step.want)
		}
	}
}

func TestValidator_ActivateOnlyFromPrebooked(t *testing.T) {
	v := adapter.New()

	_, err := v.Apply(context.Background(), domain.StatusPending, domain.EventActivate)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
}

func TestNewFromTable_OnlyListedEvents(t *testing.T) {
	v := adapter.NewFromTable([]domain.Transition{
		{Event: domain.EventConfirm, Src: domain.StatusPending, Dst: domain.StatusActive},
		{Event: domain.EventTerminate, Src: domain.StatusActive, Dst: domain.StatusTerminated},
		{Event: domain.EventTerminate, Src: domain.StatusPrebooked, Dst: domain.StatusTerminated},
	})
	ctx := context.Background()

	got, err := v.Apply(ctx, domain.StatusPrebooked, domain.EventTerminate)
	if err != nil {
		t.Fatalf("Apply(PREBOOKED, terminate) error: %v", err)
	}
	if got != domain.StatusTerminated {
		t.Errorf("Apply(PREBOOKED, terminate) = %q, want %q", got, domain.StatusTerminated)
	}

	_, err = v.Apply(ctx, domain.StatusPrebooked, domain.EventCancel)
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError for an event outside the table, got %v", err)
	}
}
