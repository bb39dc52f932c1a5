package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Role is the marketplace role of an account.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleTenant Role = "TENANT"
	RoleAdmin  Role = "ADMIN"
)

// Account holds the identity data of an owner, tenant or admin.
// The identity document fields are required to print a lease contract.
type Account struct {
	ID               string
	Email            string
	Role             Role
	FirstName        string
	LastName         string
	IDNumber         string
	IssuedBy         string
	IssueDate        civil.Date
	PermanentAddress string
	CreatedAt        time.Time
}

// FullName returns the name in "Last First" order used on contracts.
func (a Account) FullName() string {
	return strings.TrimSpace(a.LastName + " " + a.FirstName)
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	AccountID string
	Email     string
	Role      Role
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.Email != ""
}
