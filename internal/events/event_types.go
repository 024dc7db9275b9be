package events

import (
	"time"

	"github.com/eventra-app/admin-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventVerificationApproved EventType = "verification_approved"
	EventVerificationRejected EventType = "verification_rejected"
	EventPremiumGranted       EventType = "premium_granted"
	EventPremiumExtended      EventType = "premium_extended"
	EventPremiumRevoked       EventType = "premium_revoked"
	EventPremiumExpired       EventType = "premium_expired"
)

// AllEventTypes lists every event the services publish.
var AllEventTypes = []EventType{
	EventVerificationApproved,
	EventVerificationRejected,
	EventPremiumGranted,
	EventPremiumExtended,
	EventPremiumRevoked,
	EventPremiumExpired,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.AdminRole `json:"role,omitempty"`
}

// ActorFrom converts the operator performing a mutation.
func ActorFrom(a domain.Actor) Actor {
	return Actor{ID: a.ID, Role: a.Role}
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// VerificationPayload payload.
type VerificationPayload struct {
	VerificationID   string     `json:"verification_id"`
	VerificationType string     `json:"verification_type"`
	VerifiedAt       *time.Time `json:"verified_at,omitempty"`
}

// PremiumPayload payload. A nil ExpiresAt is an unlimited grant.
type PremiumPayload struct {
	PlanType         domain.PlanType `json:"plan_type,omitempty"`
	LedgerEntryID    string          `json:"ledger_entry_id,omitempty"`
	ExpiresAt        *time.Time      `json:"expires_at"`
	PreviousExpiry   *time.Time      `json:"previous_expires_at,omitempty"`
	AdditionalMonths int             `json:"additional_months,omitempty"`
}
