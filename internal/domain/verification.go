package domain

import "time"

// VerificationState is derived from a request row; rejected requests are deleted.
type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationApproved VerificationState = "approved"
)

// VerificationRequest is a user-submitted identity claim awaiting review.
// VerifiedAt is non-nil exactly when IsVerified is true.
type VerificationRequest struct {
	ID               string
	UserID           string
	VerificationType string
	VerificationData map[string]any
	IsVerified       bool
	CreatedAt        time.Time
	VerifiedAt       *time.Time
}

// State reports where the request sits in its lifecycle.
func (r *VerificationRequest) State() VerificationState {
	if r.IsVerified {
		return VerificationApproved
	}
	return VerificationPending
}

// VerificationWithUser is a request joined with its submitter's summary.
type VerificationWithUser struct {
	VerificationRequest
	User UserSummary
}
