// Package push forwards delivered notifications to live client sessions.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
)

// Compile-time checks.
var (
	_ domain.NotificationPusher = (*RedisPusher)(nil)
	_ domain.NotificationPusher = (*LogPusher)(nil)
)

// Channel returns the pub/sub channel carrying accountID's notifications.
func Channel(accountID string) string {
	return "notifications:" + accountID
}

// Message is the JSON payload published for each notification.
type Message struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Encode builds the payload published for n.
func Encode(n domain.Notification) ([]byte, error) {
	return json.Marshal(Message{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt.UTC(),
	})
}

// RedisPusher publishes notifications on Redis pub/sub. A gateway holding the
// client's socket subscribes to the recipient's channel.
type RedisPusher struct {
	client *redis.Client
}

// NewRedisPusher creates a pusher on client.
func NewRedisPusher(client *redis.Client) *RedisPusher {
	return &RedisPusher{client: client}
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Push publishes n on its recipient's channel. Nobody listening is not an error.
func (p *RedisPusher) Push(ctx context.Context, n domain.Notification) error {
	payload, err := Encode(n)
	if err != nil {
		return fmt.Errorf("encoding notification %q: %w", n.ID, err)
	}
	if err := p.client.Publish(ctx, Channel(n.RecipientID), payload).Err(); err != nil {
		return fmt.Errorf("publishing notification %q: %w", n.ID, err)
	}
	return nil
}

// LogPusher writes notifications to the log. Used when no Redis is configured.
type LogPusher struct {
	logger *zap.Logger
}

// NewLogPusher creates a pusher that logs through logger.
func NewLogPusher(logger *zap.Logger) *LogPusher {
	return &LogPusher{logger: logger}
}

func (p *LogPusher) Push(_ context.Context, n domain.Notification) error {
	p.logger.Info("notification pushed",
		zap.String("channel", Channel(n.RecipientID)),
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
	)
	return nil
}
