package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/neomorfeo/rentiq/internal/domain"
)

const accountColumns = `id, email, role, first_name, last_name, id_number,
	issued_by, issue_date, permanent_address, created_at`

// CreateAccount inserts an account. Registration lives elsewhere; this exists
// for seeding and tests.
func (s *Store) CreateAccount(ctx context.Context, a domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, string(a.Role), a.FirstName, a.LastName, a.IDNumber,
		a.IssuedBy, formatDate(a.IssueDate), a.PermanentAddress, formatTime(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (q *queries) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email,
	))
}

func (q *queries) getAccount(ctx context.Context, id string) (domain.Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id,
	))
}

func scanAccount(row scanner) (domain.Account, error) {
	var a domain.Account
	var role, issueDate, createdAt string

	err := row.Scan(&a.ID, &a.Email, &role, &a.FirstName, &a.LastName, &a.IDNumber,
		&a.IssuedBy, &issueDate, &a.PermanentAddress, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, domain.ErrAccountNotFound
		}
		return domain.Account{}, fmt.Errorf("scanning account: %w", err)
	}

	a.Role = domain.Role(role)
	if issueDate != "" {
		if a.IssueDate, err = civil.ParseDate(issueDate); err != nil {
			return domain.Account{}, fmt.Errorf("parsing account %s issue date: %w", a.ID, err)
		}
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("account %s created_at: %w", a.ID, err)
	}

	return a, nil
}

// formatDate stores the zero date as an empty string.
func formatDate(d civil.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}
