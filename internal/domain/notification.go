package domain

import "time"

// NotificationType tags the in-app notification kind.
type NotificationType string

const (
	NotificationVerificationApproved NotificationType = "verification_approved"
	NotificationAnnouncement         NotificationType = "announcement"
)

// Notification is an append-only in-app message for a user.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]any
	CreatedAt time.Time
	ReadAt    *time.Time
}

// NotificationWithUser is a notification joined with its recipient's summary.
type NotificationWithUser struct {
	Notification
	User UserSummary
}
