package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Property is a rentable unit. IsAvailable is maintained by the lease engine.
type Property struct {
	ID              string
	OwnerID         string
	Title           string
	Address         string
	PricePerMonth   decimal.Decimal
	SecurityDeposit decimal.Decimal
	IsAvailable     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
