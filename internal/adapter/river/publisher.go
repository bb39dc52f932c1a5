package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// Compile-time check: Publisher implements domain.Notifier.
var _ domain.Notifier = (*Publisher)(nil)

// NotificationJobArgs carries a snapshot of a notification. River serializes
// it as JSON into its job table, so the worker never reads the lease again.
type NotificationJobArgs struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (NotificationJobArgs) Kind() string { return "notification.deliver" }

func (a NotificationJobArgs) notification() domain.Notification {
	return domain.Notification{
		ID:          a.ID,
		RecipientID: a.RecipientID,
		Title:       a.Title,
		Message:     a.Message,
		Type:        domain.NotificationType(a.Type),
		CreatedAt:   a.CreatedAt,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.Notifier by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Notify enqueues n for asynchronous delivery.
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) error {
	_, err := p.client.Insert(ctx, NotificationJobArgs{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Type:        string(n.Type),
		CreatedAt:   n.CreatedAt,
	}, &river.InsertOpts{MaxAttempts: 5})
	if err != nil {
		return fmt.Errorf("enqueuing notification job: %w", err)
	}
	return nil
}
