package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrPropertyNotFound     = errors.New("property not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrLeaseNotFound        = errors.New("lease not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrNotPropertyOwner     = errors.New("caller does not own the property")
	ErrNotLeaseParty        = errors.New("caller is not a party to the lease")
)

// Kind groups errors by how callers should react to them.
type Kind string

const (
	KindNotFound         Kind = "NotFound"
	KindConflict         Kind = "Conflict"
	KindForbidden        Kind = "Forbidden"
	KindValidationFailed Kind = "ValidationFailed"
	KindIOFailure        Kind = "IOFailure"
	KindUnauthenticated  Kind = "Unauthenticated"
	KindInternal         Kind = "Internal"
)

// LeaseConflictError is returned when a property already holds a lease in a
// status that allows only one lease per property.
type LeaseConflictError struct {
	PropertyID string
	Status     LeaseStatus
}

func (e *LeaseConflictError) Error() string {
	return fmt.Sprintf("property %q already has a %s lease", e.PropertyID, e.Status)
}

// PrebookingError is returned when a request falls outside the pre-booking window.
type PrebookingError struct {
	LeaseID string
	Reason  string
}

func (e *PrebookingError) Error() string {
	return fmt.Sprintf("not eligible for pre-booking behind lease %q: %s", e.LeaseID, e.Reason)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   LeaseEvent
	Current LeaseStatus
	Target  LeaseStatus
}

func (e *TransitionError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("lease cannot move from %q to %q", e.Current, e.Target)
	}
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ValidationError is returned for malformed input. Code overrides the
// default INVALID_REQUEST client code.
type ValidationError struct {
	Field  string
	Reason string
	Code   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IncompleteContractError is returned when a lease lacks data the contract needs.
type IncompleteContractError struct {
	LeaseID string
	Fields  []string
}

func (e *IncompleteContractError) Error() string {
	return fmt.Sprintf("lease %q is missing contract fields: %s", e.LeaseID, strings.Join(e.Fields, ", "))
}

// ExportError wraps a failure while producing a contract document.
type ExportError struct {
	LeaseID string
	Err     error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("exporting lease %q: %v", e.LeaseID, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// KindOf classifies err.
func KindOf(err error) Kind {
	return classify(err).kind
}

// Code returns the stable, client-facing code for err.
func Code(err error) string {
	return classify(err).code
}

// Message returns a client-facing explanation of err. It never includes
// identifiers carried by the error chain.
func Message(err error) string {
	return classify(err).message
}

type class struct {
	kind    Kind
	code    string
	message string
}

func classify(err error) class {
	var (
		conflictErr   *LeaseConflictError
		prebookErr    *PrebookingError
		transitionErr *TransitionError
		validationErr *ValidationError
		contractErr   *IncompleteContractError
		exportErr     *ExportError
	)

	switch {
	case errors.Is(err, ErrPropertyNotFound):
		return class{KindNotFound, "PROPERTY_NOT_EXISTED", "Property does not exist"}
	case errors.Is(err, ErrTenantNotFound):
		return class{KindNotFound, "TENANT_NOT_EXISTED", "Tenant does not exist"}
	case errors.Is(err, ErrLeaseNotFound):
		return class{KindNotFound, "LEASE_NOT_EXISTED", "Lease does not exist"}
	case errors.Is(err, ErrAccountNotFound):
		return class{KindNotFound, "ACCOUNT_NOT_EXISTED", "Account does not exist"}
	case errors.Is(err, ErrNotificationNotFound):
		return class{KindNotFound, "NOTIFICATION_NOT_EXISTED", "Notification does not exist"}
	case errors.Is(err, ErrUnauthenticated):
		return class{KindUnauthenticated, "UNAUTHENTICATED", "Authentication is required"}
	case errors.Is(err, ErrNotPropertyOwner):
		return class{KindForbidden, "NOT_AUTHORIZED", "Only the property owner can do this"}
	case errors.Is(err, ErrNotLeaseParty):
		return class{KindForbidden, "NOT_AUTHORIZED", "Only the parties to the lease can do this"}
	case errors.As(err, &conflictErr):
		return class{KindConflict, "LEASE_ALREADY_EXISTS",
			fmt.Sprintf("Property already has a %s lease", conflictErr.Status)}
	case errors.As(err, &prebookErr):
		return class{KindForbidden, "NOT_ELIGIBLE_FOR_PREBOOKING",
			"Property is not eligible for pre-booking: " + prebookErr.Reason}
	case errors.As(err, &transitionErr):
		msg := fmt.Sprintf("Lease cannot %s while %s", transitionErr.Event, transitionErr.Current)
		if transitionErr.Event == "" {
			msg = fmt.Sprintf("Lease cannot move from %s to %s", transitionErr.Current, transitionErr.Target)
		}
		return class{KindValidationFailed, "INVALID_TRANSITION", msg}
	case errors.As(err, &contractErr):
		return class{KindValidationFailed, "CONTRACT_INCOMPLETE",
			"Lease is missing contract fields: " + strings.Join(contractErr.Fields, ", ")}
	case errors.As(err, &validationErr):
		code := validationErr.Code
		if code == "" {
			code = "INVALID_REQUEST"
		}
		return class{KindValidationFailed, code, validationErr.Error()}
	case errors.As(err, &exportErr):
		return class{KindIOFailure, "CAN_NOT_SAVE_FILE", "Could not produce the contract file"}
	default:
		return class{KindInternal, "UNCATEGORIZED_EXCEPTION", "Internal server error"}
	}
}
