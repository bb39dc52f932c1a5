package app

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// errNotDue marks a lease that stopped being due between listing and activation.
var errNotDue = errors.New("lease is no longer due")

// Activator promotes pre-booked leases to ACTIVE on their start date.
type Activator struct {
	leases    domain.LeaseRepository
	validator domain.TransitionValidator
	logger    *zap.Logger
	clock     clock
}

// NewActivator creates an activator with the given adapters.
func NewActivator(leases domain.LeaseRepository, validator domain.TransitionValidator, logger *zap.Logger, opts ...Option) *Activator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := defaultClock()
	for _, opt := range opts {
		opt(&c)
	}
	return &Activator{leases: leases, validator: validator, logger: logger, clock: c}
}

// Today returns the current calendar day in the activator's time zone.
func (a *Activator) Today() civil.Date {
	return a.clock.today()
}

// ActivateDue activates every PREBOOKED lease starting on day. Each lease runs
// in its own transaction; a failure is logged and the lease reported as
// skipped without stopping the run. Running twice for the same day is a no-op.
func (a *Activator) ActivateDue(ctx context.Context, day civil.Date) (domain.ActivationReport, error) {
	report := domain.ActivationReport{Day: day, Activated: []string{}, Skipped: []string{}}

	due, err := a.leases.ListDueForActivation(ctx, domain.StatusPrebooked, day)
	if err != nil {
		return report, fmt.Errorf("listing leases due on %s: %w", day, err)
	}

	for _, l := range due {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger := a.logger.With(zap.String("lease_id", l.ID), zap.String("property_id", l.PropertyID))
		if err := a.activate(ctx, l.ID, day); err != nil {
			report.Skipped = append(report.Skipped, l.ID)
			if errors.Is(err, errNotDue) {
				logger.Debug("lease skipped", zap.Error(err))
			} else {
				logger.Error("lease activation failed", zap.Error(err))
			}
			continue
		}

		report.Activated = append(report.Activated, l.ID)
		logger.Info("lease activated")
	}

	a.logger.Info("activation run finished",
		zap.Stringer("day", day),
		zap.Int("activated", len(report.Activated)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

// activate promotes one lease. A predecessor ACTIVE lease that ended before
// the successor starts is expired in the same transaction.
func (a *Activator) activate(ctx context.Context, leaseID string, day civil.Date) error {
	return a.leases.Atomic(ctx, func(tx domain.LeaseTx) error {
		l, err := tx.GetLease(ctx, leaseID)
		if err != nil {
			return err
		}
		if l.Status != domain.StatusPrebooked || l.StartDate != day {
			return errNotDue
		}

		at := a.clock.now()

		current, err := tx.FindLease(ctx, l.PropertyID, domain.StatusActive)
		switch {
		case err == nil:
			if current.EndDate.Before(l.StartDate) {
				dst, err := a.validator.Apply(ctx, current.Status, domain.EventExpire)
				if err != nil {
					return err
				}
				if err := tx.UpdateLeaseStatus(ctx, current.ID, dst, at); err != nil {
					return err
				}
			}
		case !errors.Is(err, domain.ErrLeaseNotFound):
			return err
		}

		dst, err := a.validator.Apply(ctx, l.Status, domain.EventActivate)
		if err != nil {
			return err
		}
		if err := tx.UpdateLeaseStatus(ctx, l.ID, dst, at); err != nil {
			return err
		}
		_, err = tx.RefreshAvailability(ctx, l.PropertyID, at)
		return err
	})
}
