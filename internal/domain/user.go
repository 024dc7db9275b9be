package domain

import "time"

// UserStatus represents lifecycle states for an end-user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusPending   UserStatus = "pending"
	UserStatusSuspended UserStatus = "suspended"
)

// User is the subset of the platform user record this service mutates.
// IsVerified mirrors the latest approved verification request; IsPremium and
// PremiumExpiresAt mirror the active ledger entry. A nil PremiumExpiresAt on a
// premium user is an unlimited grant.
type User struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	ProfileImageURL  *string
	Status           UserStatus
	IsVerified       bool
	IsPremium        bool
	PremiumExpiresAt *time.Time
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UserSummary is the user projection joined onto listings.
type UserSummary struct {
	Username        string
	Email           string
	FullName        string
	ProfileImageURL *string
}
