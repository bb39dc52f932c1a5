package domain

import "time"

// NotificationType classifies a notification for the client.
type NotificationType string

const (
	NotificationRentalRequest      NotificationType = "RENTAL_REQUEST"
	NotificationRentalConfirmation NotificationType = "RENTAL_CONFIRMATION"
	NotificationRentalCompletion   NotificationType = "RENTAL_COMPLETION"
	NotificationRentalCancellation NotificationType = "RENTAL_CANCELLATION"
)

// Notification is a message addressed to one account.
type Notification struct {
	ID          string
	RecipientID string
	Title       string
	Message     string
	Type        NotificationType
	IsRead      bool
	CreatedAt   time.Time
}
