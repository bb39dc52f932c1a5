package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/neomorfeo/rentiq/internal/domain"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationService stores notifications and reads them back for their recipient.
type NotificationService struct {
	repo     domain.NotificationRepository
	accounts domain.AccountDirectory
	pusher   domain.NotificationPusher
	logger   *zap.Logger
}

// NewNotificationService creates a service with the given adapters.
func NewNotificationService(repo domain.NotificationRepository, accounts domain.AccountDirectory, pusher domain.NotificationPusher, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, accounts: accounts, pusher: pusher, logger: logger}
}

// Deliver persists n and pushes it to any live session of the recipient.
// Only a persistence failure is returned, so the job queue retries it.
func (s *NotificationService) Deliver(ctx context.Context, n domain.Notification) error {
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("storing notification %q: %w", n.ID, err)
	}

	if s.pusher == nil {
		return nil
	}
	if err := s.pusher.Push(ctx, n); err != nil {
		s.logger.Warn("notification push failed",
			zap.String("notification_id", n.ID),
			zap.String("recipient_id", n.RecipientID),
			zap.Error(err),
		)
	}
	return nil
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, caller domain.Caller, filter domain.ListFilter) ([]domain.Notification, error) {
	account, err := s.resolve(ctx, caller)
	if err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultNotificationLimit
	}
	if filter.Limit > maxNotificationLimit {
		filter.Limit = maxNotificationLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.ListNotifications(ctx, account.ID, filter)
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, caller domain.Caller, id string) error {
	account, err := s.resolve(ctx, caller)
	if err != nil {
		return err
	}
	return s.repo.MarkNotificationRead(ctx, id, account.ID)
}

func (s *NotificationService) resolve(ctx context.Context, caller domain.Caller) (domain.Account, error) {
	if !caller.Authenticated() {
		return domain.Account{}, domain.ErrUnauthenticated
	}
	account, err := s.accounts.GetAccountByEmail(ctx, caller.Email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.Account{}, domain.ErrUnauthenticated
		}
		return domain.Account{}, fmt.Errorf("resolving caller: %w", err)
	}
	return account, nil
}
