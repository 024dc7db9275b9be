package dto

import (
	"time"

	"github.com/eventra-app/admin-service/internal/domain"
)

// PremiumGrantRequest payload for granting a plan.
type PremiumGrantRequest struct {
	UserID      string     `json:"user_id" validate:"required,uuid"`
	PlanType    string     `json:"plan_type" validate:"required,max=32"`
	StartDate   *time.Time `json:"start_date"`
	AmountMinor int64      `json:"amount_minor" validate:"gte=0"`
	Currency    string     `json:"currency" validate:"omitempty,len=3,alpha"`
}

// PremiumExtendRequest payload for extending a grant.
type PremiumExtendRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Months int    `json:"months" validate:"required,gt=0,lte=120"`
}

// PremiumRevokeRequest payload for revoking a grant.
type PremiumRevokeRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// PremiumListQuery query string for premium user listings.
type PremiumListQuery struct {
	State    string `query:"state" validate:"omitempty,oneof=active expiring_soon unlimited expired"`
	Page     int    `query:"page" validate:"omitempty,min=1"`
	PageSize int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// LedgerEntryResponse describes one ledger row.
type LedgerEntryResponse struct {
	ID          string     `json:"id"`
	PlanType    string     `json:"plan_type"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	AmountMinor int64      `json:"amount_minor"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	GrantedBy   string     `json:"granted_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// PremiumResponse describes a user's entitlement.
type PremiumResponse struct {
	UserID           string                `json:"user_id"`
	Username         string                `json:"username,omitempty"`
	Email            string                `json:"email,omitempty"`
	IsPremium        bool                  `json:"is_premium"`
	PremiumExpiresAt *time.Time            `json:"premium_expires_at"`
	State            string                `json:"state"`
	Entry            *LedgerEntryResponse  `json:"ledger_entry,omitempty"`
	History          []LedgerEntryResponse `json:"history,omitempty"`
}

// NewLedgerEntryResponse converts a ledger row.
func NewLedgerEntryResponse(entry *domain.PremiumLedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          entry.ID,
		PlanType:    string(entry.PlanType),
		StartDate:   entry.StartDate,
		EndDate:     entry.EndDate,
		AmountMinor: entry.AmountMinor,
		Currency:    entry.Currency,
		Status:      string(entry.Status),
		GrantedBy:   entry.GrantedBy,
		CreatedAt:   entry.CreatedAt,
	}
}

// NewPremiumResponse converts an entitlement view.
func NewPremiumResponse(user domain.User, state domain.PremiumState, entry *domain.PremiumLedgerEntry, history []domain.PremiumLedgerEntry) PremiumResponse {
	resp := PremiumResponse{
		UserID:           user.ID,
		Username:         user.Username,
		Email:            user.Email,
		IsPremium:        user.IsPremium,
		PremiumExpiresAt: user.PremiumExpiresAt,
		State:            string(state),
	}
	if entry != nil {
		e := NewLedgerEntryResponse(entry)
		resp.Entry = &e
	}
	for i := range history {
		resp.History = append(resp.History, NewLedgerEntryResponse(&history[i]))
	}
	return resp
}
