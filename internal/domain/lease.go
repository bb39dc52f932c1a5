package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// LeaseStatus represents the lifecycle state of a lease.
type LeaseStatus string

const (
	StatusPending    LeaseStatus = "PENDING"
	StatusPrebooked  LeaseStatus = "PREBOOKED"
	StatusActive     LeaseStatus = "ACTIVE"
	StatusTerminated LeaseStatus = "TERMINATED"
	StatusExpired    LeaseStatus = "EXPIRED"
)

// Statuses lists every lease status in lifecycle order.
var Statuses = []LeaseStatus{
	StatusPending,
	StatusPrebooked,
	StatusActive,
	StatusTerminated,
	StatusExpired,
}

// Valid reports whether s is a known lease status.
func (s LeaseStatus) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// HoldsProperty reports whether a lease in this status keeps its property
// unavailable to other tenants.
func (s LeaseStatus) HoldsProperty() bool {
	return s == StatusPending || s == StatusActive || s == StatusPrebooked
}

// LeaseEvent represents an action that triggers a lease state transition.
type LeaseEvent string

const (
	EventConfirm   LeaseEvent = "confirm"
	EventReject    LeaseEvent = "reject"
	EventActivate  LeaseEvent = "activate"
	EventCancel    LeaseEvent = "cancel"
	EventTerminate LeaseEvent = "terminate"
	EventExpire    LeaseEvent = "expire"
)

// Transition defines a valid state change: an event moves a lease from Src to Dst.
// Scheduled transitions are driven only by the activation job, never by a caller.
type Transition struct {
	Event     LeaseEvent
	Src       LeaseStatus
	Dst       LeaseStatus
	Scheduled bool
}

// Transitions defines all valid state changes in the lease lifecycle.
var Transitions = []Transition{
	{Event: EventConfirm, Src: StatusPending, Dst: StatusActive},
	{Event: EventReject, Src: StatusPending, Dst: StatusTerminated},
	{Event: EventActivate, Src: StatusPrebooked, Dst: StatusActive, Scheduled: true},
	{Event: EventCancel, Src: StatusPrebooked, Dst: StatusTerminated},
	{Event: EventTerminate, Src: StatusActive, Dst: StatusTerminated},
	{Event: EventExpire, Src: StatusActive, Dst: StatusExpired},
}

// OwnerEventFor returns the caller-driven event that moves a lease from src to dst.
func OwnerEventFor(src, dst LeaseStatus) (LeaseEvent, bool) {
	for _, t := range Transitions {
		if t.Src == src && t.Dst == dst && !t.Scheduled {
			return t.Event, true
		}
	}
	return "", false
}

// Lease is a time-bounded occupancy contract between one tenant and one property.
// Pricing is a snapshot taken from the property when the lease is created.
type Lease struct {
	ID              string
	PropertyID      string
	TenantID        string
	StartDate       civil.Date
	EndDate         civil.Date
	MonthlyRent     decimal.Decimal
	SecurityDeposit decimal.Decimal
	Status          LeaseStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewLease creates a lease for tenantID on property p, copying its pricing.
func NewLease(id string, p Property, tenantID string, term Term, status LeaseStatus, now time.Time) Lease {
	now = now.UTC()
	return Lease{
		ID:              id,
		PropertyID:      p.ID,
		TenantID:        tenantID,
		StartDate:       term.Start,
		EndDate:         term.End,
		MonthlyRent:     p.PricePerMonth,
		SecurityDeposit: p.SecurityDeposit,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// LeaseDetail is a lease together with the parties and property it binds.
type LeaseDetail struct {
	Lease    Lease
	Property Property
	Tenant   Account
	Owner    Account
}

// Involves reports whether the caller is the tenant or the owner of the lease.
func (d LeaseDetail) Involves(c Caller) bool {
	return c.Email != "" && (c.Email == d.Tenant.Email || c.Email == d.Owner.Email)
}

// ActivationReport summarises a single run of the activation job.
type ActivationReport struct {
	Day       civil.Date
	Activated []string
	Skipped   []string
}
