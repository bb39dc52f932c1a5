package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// CreateProperty inserts a property listing. Listings are managed outside the
// lease engine; this exists for seeding and tests.
func (s *Store) CreateProperty(ctx context.Context, p domain.Property) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO properties (id, owner_id, title, address, price_per_month,
		                         security_deposit, is_available, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Title, p.Address,
		p.PricePerMonth.String(), p.SecurityDeposit.String(), p.IsAvailable,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}
	return nil
}

func (q *queries) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	var p domain.Property
	var price, deposit, createdAt, updatedAt string

	err := q.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, address, price_per_month, security_deposit,
		        is_available, created_at, updated_at
		 FROM properties WHERE id = ?`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &p.Address, &price, &deposit,
		&p.IsAvailable, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Property{}, domain.ErrPropertyNotFound
		}
		return domain.Property{}, fmt.Errorf("scanning property: %w", err)
	}

	if p.PricePerMonth, err = decimal.NewFromString(price); err != nil {
		return domain.Property{}, fmt.Errorf("parsing property %s price: %w", p.ID, err)
	}
	if p.SecurityDeposit, err = decimal.NewFromString(deposit); err != nil {
		return domain.Property{}, fmt.Errorf("parsing property %s deposit: %w", p.ID, err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Property{}, fmt.Errorf("property %s created_at: %w", p.ID, err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Property{}, fmt.Errorf("property %s updated_at: %w", p.ID, err)
	}

	return p, nil
}
