package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/rentiq/internal/domain"
)

const leaseColumns = `l.id, l.property_id, l.tenant_id, l.start_date, l.end_date,
	l.monthly_rent, l.security_deposit, l.status, l.created_at, l.updated_at`

func (q *queries) GetLease(ctx context.Context, id string) (domain.Lease, error) {
	l, err := scanLease(q.db.QueryRowContext(ctx,
		`SELECT `+leaseColumns+` FROM leases l WHERE l.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, err
}

func (q *queries) FindLease(ctx context.Context, propertyID string, status domain.LeaseStatus) (domain.Lease, error) {
	l, err := scanLease(q.db.QueryRowContext(ctx,
		`SELECT `+leaseColumns+` FROM leases l
		 WHERE l.property_id = ? AND l.status = ?
		 ORDER BY l.created_at DESC LIMIT 1`,
		propertyID, string(status),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lease{}, domain.ErrLeaseNotFound
	}
	return l, err
}

// GetLeaseDetail loads a lease with its property, tenant and owner.
func (q *queries) GetLeaseDetail(ctx context.Context, id string) (domain.LeaseDetail, error) {
	lease, err := q.GetLease(ctx, id)
	if err != nil {
		return domain.LeaseDetail{}, err
	}

	property, err := q.GetProperty(ctx, lease.PropertyID)
	if err != nil {
		return domain.LeaseDetail{}, err
	}

	tenant, err := q.getAccount(ctx, lease.TenantID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.LeaseDetail{}, domain.ErrTenantNotFound
		}
		return domain.LeaseDetail{}, err
	}

	owner, err := q.getAccount(ctx, property.OwnerID)
	if err != nil {
		return domain.LeaseDetail{}, err
	}

	return domain.LeaseDetail{Lease: lease, Property: property, Tenant: tenant, Owner: owner}, nil
}

func (q *queries) ListByOwnerAndStatus(ctx context.Context, ownerID string, status domain.LeaseStatus) ([]domain.Lease, error) {
	return q.listLeases(ctx,
		`SELECT `+leaseColumns+` FROM leases l
		 JOIN properties p ON p.id = l.property_id
		 WHERE p.owner_id = ? AND l.status = ?
		 ORDER BY l.start_date, l.id`,
		ownerID, string(status),
	)
}

func (q *queries) ListDueForActivation(ctx context.Context, status domain.LeaseStatus, day civil.Date) ([]domain.Lease, error) {
	return q.listLeases(ctx,
		`SELECT `+leaseColumns+` FROM leases l
		 WHERE l.status = ? AND l.start_date = ?
		 ORDER BY l.created_at, l.id`,
		string(status), day.String(),
	)
}

func (q *queries) InsertLease(ctx context.Context, l domain.Lease) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO leases (id, property_id, tenant_id, start_date, end_date,
		                     monthly_rent, security_deposit, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.PropertyID, l.TenantID, l.StartDate.String(), l.EndDate.String(),
		l.MonthlyRent.String(), l.SecurityDeposit.String(), string(l.Status),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.LeaseConflictError{PropertyID: l.PropertyID, Status: l.Status}
		}
		return fmt.Errorf("inserting lease: %w", err)
	}
	return nil
}

func (q *queries) UpdateLeaseStatus(ctx context.Context, id string, status domain.LeaseStatus, at time.Time) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE leases SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(at), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			conflict := &domain.LeaseConflictError{Status: status}
			if l, getErr := q.GetLease(ctx, id); getErr == nil {
				conflict.PropertyID = l.PropertyID
			}
			return conflict
		}
		return fmt.Errorf("updating lease status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrLeaseNotFound
	}

	return nil
}

// holdingStatuses is the SQL list of statuses that keep a property occupied.
var holdingStatuses = func() string {
	var quoted []string
	for _, s := range domain.Statuses {
		if s.HoldsProperty() {
			quoted = append(quoted, "'"+string(s)+"'")
		}
	}
	return strings.Join(quoted, ", ")
}()

func (q *queries) RefreshAvailability(ctx context.Context, propertyID string, at time.Time) (bool, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE properties
		 SET is_available = NOT EXISTS (
		         SELECT 1 FROM leases
		         WHERE property_id = ? AND status IN (`+holdingStatuses+`)
		     ),
		     updated_at = ?
		 WHERE id = ?`,
		propertyID, formatTime(at), propertyID,
	)
	if err != nil {
		return false, fmt.Errorf("refreshing availability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return false, domain.ErrPropertyNotFound
	}

	var available bool
	if err := q.db.QueryRowContext(ctx,
		`SELECT is_available FROM properties WHERE id = ?`, propertyID,
	).Scan(&available); err != nil {
		return false, fmt.Errorf("reading availability: %w", err)
	}
	return available, nil
}

func (q *queries) listLeases(ctx context.Context, query string, args ...any) ([]domain.Lease, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	defer rows.Close()

	leases := make([]domain.Lease, 0)
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, l)
	}

	return leases, rows.Err()
}

func scanLease(row scanner) (domain.Lease, error) {
	var l domain.Lease
	var start, end, rent, deposit, status, createdAt, updatedAt string

	err := row.Scan(&l.ID, &l.PropertyID, &l.TenantID, &start, &end,
		&rent, &deposit, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lease{}, err
		}
		return domain.Lease{}, fmt.Errorf("scanning lease: %w", err)
	}

	if l.StartDate, err = civil.ParseDate(start); err != nil {
		return domain.Lease{}, fmt.Errorf("parsing lease %s start date: %w", l.ID, err)
	}
	if l.EndDate, err = civil.ParseDate(end); err != nil {
		return domain.Lease{}, fmt.Errorf("parsing lease %s end date: %w", l.ID, err)
	}
	if l.MonthlyRent, err = decimal.NewFromString(rent); err != nil {
		return domain.Lease{}, fmt.Errorf("parsing lease %s rent: %w", l.ID, err)
	}
	if l.SecurityDeposit, err = decimal.NewFromString(deposit); err != nil {
		return domain.Lease{}, fmt.Errorf("parsing lease %s deposit: %w", l.ID, err)
	}

	l.Status = domain.LeaseStatus(status)
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Lease{}, fmt.Errorf("lease %s created_at: %w", l.ID, err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Lease{}, fmt.Errorf("lease %s updated_at: %w", l.ID, err)
	}

	return l, nil
}
