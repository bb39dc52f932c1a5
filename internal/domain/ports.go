package domain

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
)

// LeaseRepository defines the persistence contract for leases.
type LeaseRepository interface {
	GetLease(ctx context.Context, id string) (Lease, error)
	GetLeaseDetail(ctx context.Context, id string) (LeaseDetail, error)
	ListByOwnerAndStatus(ctx context.Context, ownerID string, status LeaseStatus) ([]Lease, error)
	ListDueForActivation(ctx context.Context, status LeaseStatus, day civil.Date) ([]Lease, error)

	// Atomic runs fn inside a single transaction. Units of work never
	// interleave, so a read-decide-write sequence in fn observes no
	// concurrent writer. The transaction commits only if fn returns nil.
	Atomic(ctx context.Context, fn func(tx LeaseTx) error) error
}

// LeaseTx is the view of the store available inside a unit of work.
type LeaseTx interface {
	GetProperty(ctx context.Context, id string) (Property, error)
	GetLease(ctx context.Context, id string) (Lease, error)
	// FindLease returns the lease of propertyID in status, or ErrLeaseNotFound.
	FindLease(ctx context.Context, propertyID string, status LeaseStatus) (Lease, error)
	InsertLease(ctx context.Context, lease Lease) error
	UpdateLeaseStatus(ctx context.Context, id string, status LeaseStatus, at time.Time) error
	// RefreshAvailability recomputes the availability flag of a property from
	// its leases and returns the stored value.
	RefreshAvailability(ctx context.Context, propertyID string, at time.Time) (bool, error)
}

// AccountDirectory resolves marketplace accounts.
type AccountDirectory interface {
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
}

// ListFilter holds pagination for list queries.
type ListFilter struct {
	Limit  int
	Offset int
}

// NotificationRepository persists notifications.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, recipientID string, filter ListFilter) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

// Notifier hands a notification over for asynchronous delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotificationPusher delivers a stored notification to a live session.
type NotificationPusher interface {
	Push(ctx context.Context, n Notification) error
}

// TransitionValidator checks lease state transitions.
type TransitionValidator interface {
	Apply(ctx context.Context, current LeaseStatus, event LeaseEvent) (LeaseStatus, error)
}

// Document is a rendered file ready for download.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ContractRenderer produces the contract document of a lease.
type ContractRenderer interface {
	Render(ctx context.Context, detail LeaseDetail) (Document, error)
}
