package dto

import (
	"time"

	"github.com/eventra-app/admin-service/internal/domain"
)

// BroadcastRequest payload for announcements to every user.
type BroadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=4000"`
	Type    string `json:"type" validate:"omitempty,max=64"`
}

// BroadcastResponse reports how many users were notified.
type BroadcastResponse struct {
	Sent int64 `json:"sent"`
}

// NotificationListQuery query string for the notification feed.
type NotificationListQuery struct {
	UserID   string `query:"user_id" validate:"omitempty,uuid"`
	Type     string `query:"type" validate:"omitempty,max=64"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// NotificationResponse describes a stored notification and its recipient.
type NotificationResponse struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Type      string               `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Data      map[string]any       `json:"data"`
	CreatedAt time.Time            `json:"created_at"`
	ReadAt    *time.Time           `json:"read_at"`
	User      *UserSummaryResponse `json:"user"`
}

// NewNotificationListResponse converts joined rows.
func NewNotificationListResponse(items []domain.NotificationWithUser) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NotificationResponse{
			ID:        item.ID,
			UserID:    item.UserID,
			Type:      string(item.Type),
			Title:     item.Title,
			Message:   item.Message,
			Data:      item.Data,
			CreatedAt: item.CreatedAt,
			ReadAt:    item.ReadAt,
			User: &UserSummaryResponse{
				Username:        item.User.Username,
				Email:           item.User.Email,
				FullName:        item.User.FullName,
				ProfileImageURL: item.User.ProfileImageURL,
			},
		})
	}
	return out
}
