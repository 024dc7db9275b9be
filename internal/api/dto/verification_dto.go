package dto

import (
	"time"

	"github.com/eventra-app/admin-service/internal/domain"
)

// VerificationActionRequest payload for approve and reject.
type VerificationActionRequest struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
}

// VerificationListQuery query string for the review queue.
type VerificationListQuery struct {
	Status   string `query:"status" validate:"omitempty,oneof=pending approved all"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// UserSummaryResponse is the submitter projection.
type UserSummaryResponse struct {
	Username        string  `json:"username"`
	Email           string  `json:"email"`
	FullName        string  `json:"full_name"`
	ProfileImageURL *string `json:"profile_image_url"`
}

// VerificationResponse describes a verification request.
type VerificationResponse struct {
	ID               string               `json:"id"`
	UserID           string               `json:"user_id"`
	VerificationType string               `json:"verification_type"`
	VerificationData map[string]any       `json:"verification_data"`
	Status           string               `json:"status"`
	IsVerified       bool                 `json:"is_verified"`
	CreatedAt        time.Time            `json:"created_at"`
	VerifiedAt       *time.Time           `json:"verified_at"`
	User             *UserSummaryResponse `json:"user,omitempty"`
}

// NewVerificationResponse converts a domain request.
func NewVerificationResponse(req *domain.VerificationRequest) VerificationResponse {
	return VerificationResponse{
		ID:               req.ID,
		UserID:           req.UserID,
		VerificationType: req.VerificationType,
		VerificationData: req.VerificationData,
		Status:           string(req.State()),
		IsVerified:       req.IsVerified,
		CreatedAt:        req.CreatedAt,
		VerifiedAt:       req.VerifiedAt,
	}
}

// NewVerificationListResponse converts joined rows.
func NewVerificationListResponse(items []domain.VerificationWithUser) []VerificationResponse {
	out := make([]VerificationResponse, 0, len(items))
	for i := range items {
		resp := NewVerificationResponse(&items[i].VerificationRequest)
		resp.User = &UserSummaryResponse{
			Username:        items[i].User.Username,
			Email:           items[i].User.Email,
			FullName:        items[i].User.FullName,
			ProfileImageURL: items[i].User.ProfileImageURL,
		}
		out = append(out, resp)
	}
	return out
}
