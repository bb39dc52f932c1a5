package sqlite

import (
	"context"
	"fmt"

	"github.com/neomorfeo/rentiq/internal/domain"
)

func (q *queries) CreateNotification(ctx context.Context, n domain.Notification) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, title, message, type, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		n.ID, n.RecipientID, n.Title, n.Message, string(n.Type), n.IsRead,
		formatTime(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (q *queries) ListNotifications(ctx context.Context, recipientID string, filter domain.ListFilter) ([]domain.Notification, error) {
	query := `SELECT id, recipient_id, title, message, type, is_read, created_at
		FROM notifications WHERE recipient_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{recipientID}

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0)
	for rows.Next() {
		var n domain.Notification
		var typ, createdAt string
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Message, &typ, &n.IsRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		if n.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("notification %s created_at: %w", n.ID, err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (q *queries) MarkNotificationRead(ctx context.Context, id, recipientID string) error {
	result, err := q.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND recipient_id = ?`,
		id, recipientID,
	)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
