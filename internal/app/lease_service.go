package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// LeaseRequest asks for a lease on a property covering whole calendar months
// of the current year.
type LeaseRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	StartMonth int    `json:"start_month" validate:"min=1,max=12"`
	EndMonth   int    `json:"end_month" validate:"min=1,max=12,gtefield=StartMonth"`
}

// LeaseService orchestrates lease lifecycle operations.
type LeaseService struct {
	leases    domain.LeaseRepository
	accounts  domain.AccountDirectory
	notifier  domain.Notifier
	validator domain.TransitionValidator
	renderer  domain.ContractRenderer
	logger    *zap.Logger
	clock     clock
}

// NewLeaseService creates a service with the given adapters.
func NewLeaseService(
	leases domain.LeaseRepository,
	accounts domain.AccountDirectory,
	notifier domain.Notifier,
	validator domain.TransitionValidator,
	renderer domain.ContractRenderer,
	logger *zap.Logger,
	opts ...Option,
) *LeaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := defaultClock()
	for _, opt := range opts {
		opt(&c)
	}
	return &LeaseService{
		leases:    leases,
		accounts:  accounts,
		notifier:  notifier,
		validator: validator,
		renderer:  renderer,
		logger:    logger,
		clock:     c,
	}
}

// RequestLease creates a lease for the calling tenant. A property that is
// free gets a PENDING lease awaiting owner confirmation. A property with an
// ACTIVE lease ending soon gets a PREBOOKED successor that the activation job
// promotes on its start date; the ACTIVE lease is left untouched.
func (s *LeaseService) RequestLease(ctx context.Context, caller domain.Caller, req LeaseRequest) (domain.Lease, error) {
	if !caller.Authenticated() {
		return domain.Lease{}, domain.ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return domain.Lease{}, err
	}

	tenant, err := s.resolveTenant(ctx, caller)
	if err != nil {
		return domain.Lease{}, err
	}

	now := s.clock.now()
	today := domain.Today(now, s.clock.loc)

	term, err := domain.MonthTerm(today.Year, req.StartMonth, req.EndMonth)
	if err != nil {
		return domain.Lease{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Lease{}, fmt.Errorf("generating lease id: %w", err)
	}

	var (
		lease    domain.Lease
		property domain.Property
	)
	err = s.leases.Atomic(ctx, func(tx domain.LeaseTx) error {
		p, err := tx.GetProperty(ctx, req.PropertyID)
		if err != nil {
			return err
		}

		// One queued successor per property.
		if _, err := tx.FindLease(ctx, p.ID, domain.StatusPrebooked); err == nil {
			return &domain.LeaseConflictError{PropertyID: p.ID, Status: domain.StatusPrebooked}
		} else if !errors.Is(err, domain.ErrLeaseNotFound) {
			return err
		}

		status := domain.StatusPending
		active, err := tx.FindLease(ctx, p.ID, domain.StatusActive)
		switch {
		case err == nil:
			if err := domain.CheckPrebooking(active, term.Start, today); err != nil {
				return err
			}
			status = domain.StatusPrebooked
		case !errors.Is(err, domain.ErrLeaseNotFound):
			return err
		}

		l := domain.NewLease(id, p, tenant.ID, term, status, now)
		if err := tx.InsertLease(ctx, l); err != nil {
			return err
		}
		if _, err := tx.RefreshAvailability(ctx, p.ID, now); err != nil {
			return err
		}

		lease, property = l, p
		return nil
	})
	if err != nil {
		return domain.Lease{}, fmt.Errorf("requesting lease on property %q: %w", req.PropertyID, err)
	}

	s.logger.Info("lease requested",
		zap.String("lease_id", lease.ID),
		zap.String("property_id", lease.PropertyID),
		zap.String("tenant_id", lease.TenantID),
		zap.String("status", string(lease.Status)),
	)

	s.notify(ctx, domain.Notification{
		RecipientID: property.OwnerID,
		Title:       "Lease request",
		Message:     fmt.Sprintf("New lease request from %s!", tenant.FullName()),
		Type:        domain.NotificationRentalRequest,
	})

	return lease, nil
}

// UpdateLeaseStatus moves a lease to target on behalf of the property owner.
// Only owner-driven transitions are accepted; activation of pre-booked leases
// belongs to the activation job.
func (s *LeaseService) UpdateLeaseStatus(ctx context.Context, caller domain.Caller, leaseID string, target domain.LeaseStatus) (domain.Lease, error) {
	if !caller.Authenticated() {
		return domain.Lease{}, domain.ErrUnauthenticated
	}
	if !target.Valid() {
		return domain.Lease{}, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown lease status %q", target)}
	}

	detail, err := s.leases.GetLeaseDetail(ctx, leaseID)
	if err != nil {
		return domain.Lease{}, err
	}
	if detail.Owner.Email != caller.Email {
		return domain.Lease{}, domain.ErrNotPropertyOwner
	}

	var (
		updated domain.Lease
		event   domain.LeaseEvent
	)
	err = s.leases.Atomic(ctx, func(tx domain.LeaseTx) error {
		// Re-read inside the transaction; the status may have moved since.
		l, err := tx.GetLease(ctx, leaseID)
		if err != nil {
			return err
		}

		ev, ok := domain.OwnerEventFor(l.Status, target)
		if !ok {
			return &domain.TransitionError{Current: l.Status, Target: target}
		}

		if ev == domain.EventConfirm {
			if err := requireNoPrebooking(ctx, tx, l.PropertyID); err != nil {
				return err
			}
		}

		dst, err := s.validator.Apply(ctx, l.Status, ev)
		if err != nil {
			return err
		}

		at := s.clock.now()
		if err := tx.UpdateLeaseStatus(ctx, l.ID, dst, at); err != nil {
			return err
		}
		if _, err := tx.RefreshAvailability(ctx, l.PropertyID, at); err != nil {
			return err
		}

		l.Status = dst
		l.UpdatedAt = at.UTC()
		updated, event = l, ev
		return nil
	})
	if err != nil {
		return domain.Lease{}, fmt.Errorf("updating lease %q: %w", leaseID, err)
	}

	s.logger.Info("lease status updated",
		zap.String("lease_id", updated.ID),
		zap.String("event", string(event)),
		zap.String("status", string(updated.Status)),
	)

	if n, ok := tenantNotice(event, detail.Property); ok {
		n.RecipientID = detail.Tenant.ID
		s.notify(ctx, n)
	}

	return updated, nil
}

// requireNoPrebooking fails while propertyID has a PREBOOKED lease. A lease
// confirmed ahead of it would block its activation for good, so the owner
// has to cancel the pre-booking first.
func requireNoPrebooking(ctx context.Context, tx domain.LeaseTx, propertyID string) error {
	_, err := tx.FindLease(ctx, propertyID, domain.StatusPrebooked)
	switch {
	case err == nil:
		return &domain.LeaseConflictError{PropertyID: propertyID, Status: domain.StatusPrebooked}
	case errors.Is(err, domain.ErrLeaseNotFound):
		return nil
	default:
		return err
	}
}

// LeasesByOwnerAndStatus lists the leases on ownerID's properties in status.
func (s *LeaseService) LeasesByOwnerAndStatus(ctx context.Context, caller domain.Caller, ownerID string, status domain.LeaseStatus) ([]domain.Lease, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown lease status %q", status)}
	}
	if ownerID == "" {
		return nil, &domain.ValidationError{Field: "owner_id", Reason: "is required"}
	}
	return s.leases.ListByOwnerAndStatus(ctx, ownerID, status)
}

// GetLease returns a lease with its parties to its tenant, its owner or an admin.
func (s *LeaseService) GetLease(ctx context.Context, caller domain.Caller, leaseID string) (domain.LeaseDetail, error) {
	if !caller.Authenticated() {
		return domain.LeaseDetail{}, domain.ErrUnauthenticated
	}

	detail, err := s.leases.GetLeaseDetail(ctx, leaseID)
	if err != nil {
		return domain.LeaseDetail{}, err
	}
	if !detail.Involves(caller) && caller.Role != domain.RoleAdmin {
		return domain.LeaseDetail{}, domain.ErrNotLeaseParty
	}
	return detail, nil
}

// ExportLease renders the contract document of a lease.
func (s *LeaseService) ExportLease(ctx context.Context, caller domain.Caller, leaseID string) (domain.Document, error) {
	detail, err := s.GetLease(ctx, caller, leaseID)
	if err != nil {
		return domain.Document{}, err
	}

	doc, err := s.renderer.Render(ctx, detail)
	if err != nil {
		var incomplete *domain.IncompleteContractError
		var exportErr *domain.ExportError
		if !errors.As(err, &incomplete) && !errors.As(err, &exportErr) {
			err = &domain.ExportError{LeaseID: leaseID, Err: err}
		}
		return domain.Document{}, err
	}

	s.logger.Info("lease exported",
		zap.String("lease_id", leaseID),
		zap.String("filename", doc.Filename),
		zap.Int("bytes", len(doc.Data)),
	)
	return doc, nil
}

func (s *LeaseService) resolveTenant(ctx context.Context, caller domain.Caller) (domain.Account, error) {
	account, err := s.accounts.GetAccountByEmail(ctx, caller.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, domain.ErrTenantNotFound
		}
		return domain.Account{}, fmt.Errorf("resolving tenant: %w", err)
	}
	if account.Role != domain.RoleTenant {
		return domain.Account{}, domain.ErrTenantNotFound
	}
	return account, nil
}

// notify hands n to the notifier. Delivery is best effort: the lease change
// has already committed, so failures are logged and dropped.
func (s *LeaseService) notify(ctx context.Context, n domain.Notification) {
	id, err := generateID()
	if err != nil {
		s.logger.Warn("notification dropped", zap.Error(err))
		return
	}
	n.ID = id
	n.CreatedAt = s.clock.now().UTC()

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("notification dropped",
			zap.String("recipient_id", n.RecipientID),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
	}
}

// tenantNotice builds the notification telling the tenant about event.
func tenantNotice(event domain.LeaseEvent, p domain.Property) (domain.Notification, bool) {
	switch event {
	case domain.EventConfirm:
		return domain.Notification{
			Title:   "Lease confirmed",
			Message: fmt.Sprintf("Your lease request for %s has been confirmed.", p.Title),
			Type:    domain.NotificationRentalConfirmation,
		}, true
	case domain.EventReject, domain.EventCancel:
		return domain.Notification{
			Title:   "Lease cancelled",
			Message: fmt.Sprintf("Your lease for %s has been cancelled by the owner.", p.Title),
			Type:    domain.NotificationRentalCancellation,
		}, true
	case domain.EventTerminate, domain.EventExpire:
		return domain.Notification{
			Title:   "Lease ended",
			Message: fmt.Sprintf("Your lease for %s has ended.", p.Title),
			Type:    domain.NotificationRentalCompletion,
		}, true
	default:
		return domain.Notification{}, false
	}
}
