package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/pkg/util/errorutil"
)

// VerificationService reviews identity verification requests.
type VerificationService struct {
	runner
}

// VerificationListFilter describes listing filters.
type VerificationListFilter struct {
	State  *domain.VerificationState
	Limit  int
	Offset int
}

// NewVerificationService constructs the service.
func NewVerificationService(deps Dependencies) *VerificationService {
	return &VerificationService{runner: newRunner(deps)}
}

// Approve moves a pending request to approved and marks its user verified
// and active in the same transaction. Approving an approved request returns
// it unchanged and publishes nothing.
func (s *VerificationService) Approve(ctx context.Context, actor domain.Actor, requestID string) (req *domain.VerificationRequest, err error) {
	defer func() { s.record("verification.approve", err) }()
	if err := requireID("request_id", requestID); err != nil {
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.VerificationKey(requestID))
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.store.Verifications().GetByID(opCtx, requestID)
	if err != nil {
		return nil, storeError(err, "verification request", map[string]any{"request_id": requestID})
	}
	if current.IsVerified {
		return current, nil
	}

	releaseUser, err := s.acquire(opCtx, lock.UserKey(current.UserID))
	if err != nil {
		return nil, err
	}
	defer releaseUser()

	approved := false
	err = s.store.WithinTx(opCtx, func(tx repository.Store) error {
		row, err := tx.Verifications().GetByID(opCtx, requestID)
		if err != nil {
			return storeError(err, "verification request", map[string]any{"request_id": requestID})
		}
		if row.IsVerified {
			req = row
			return nil
		}

		verifiedAt := s.now()
		if err := tx.Verifications().MarkApproved(opCtx, requestID, verifiedAt); err != nil {
			return storeError(err, "verification request", map[string]any{"request_id": requestID})
		}
		row.IsVerified = true
		row.VerifiedAt = &verifiedAt

		user, err := tx.Users().GetByID(opCtx, row.UserID)
		if err != nil {
			return storeError(err, "user", map[string]any{"user_id": row.UserID})
		}
		active := domain.UserStatusActive
		if err := tx.Users().SetVerified(opCtx, user.ID, true, &active, user.Version); err != nil {
			return storeError(err, "user", map[string]any{"user_id": user.ID})
		}

		req = row
		approved = true
		return nil
	})
	if err != nil {
		return nil, storeError(err, "verification request", nil)
	}
	if !approved {
		return req, nil
	}

	s.logger.Info("verification approved",
		zap.String("request_id", req.ID),
		zap.String("user_id", req.UserID),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, events.Event{
		Type:   events.EventVerificationApproved,
		UserID: req.UserID,
		Actor:  events.ActorFrom(actor),
		Payload: events.VerificationPayload{
			VerificationID:   req.ID,
			VerificationType: req.VerificationType,
			VerifiedAt:       req.VerifiedAt,
		},
	})
	return req, nil
}

// Reject deletes the request and clears the user's verified flag, even when
// another approved request verified the user. A missing user is logged and
// tolerated.
func (s *VerificationService) Reject(ctx context.Context, actor domain.Actor, requestID string) (err error) {
	defer func() { s.record("verification.reject", err) }()
	if err := requireID("request_id", requestID); err != nil {
		return err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.VerificationKey(requestID))
	if err != nil {
		return err
	}
	defer release()

	current, err := s.store.Verifications().GetByID(opCtx, requestID)
	if err != nil {
		return storeError(err, "verification request", map[string]any{"request_id": requestID})
	}

	releaseUser, err := s.acquire(opCtx, lock.UserKey(current.UserID))
	if err != nil {
		return err
	}
	defer releaseUser()

	err = s.store.WithinTx(opCtx, func(tx repository.Store) error {
		if err := tx.Verifications().Delete(opCtx, requestID); err != nil {
			return storeError(err, "verification request", map[string]any{"request_id": requestID})
		}

		user, err := tx.Users().GetByID(opCtx, current.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("rejected request references missing user",
				zap.String("request_id", requestID),
				zap.String("user_id", current.UserID))
			return nil
		}
		if err != nil {
			return storeError(err, "user", map[string]any{"user_id": current.UserID})
		}
		if err := tx.Users().SetVerified(opCtx, user.ID, false, nil, user.Version); err != nil {
			return storeError(err, "user", map[string]any{"user_id": user.ID})
		}
		return nil
	})
	if err != nil {
		return storeError(err, "verification request", nil)
	}

	s.logger.Info("verification rejected",
		zap.String("request_id", requestID),
		zap.String("user_id", current.UserID),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, events.Event{
		Type:   events.EventVerificationRejected,
		UserID: current.UserID,
		Actor:  events.ActorFrom(actor),
		Payload: events.VerificationPayload{
			VerificationID:   requestID,
			VerificationType: current.VerificationType,
		},
	})
	return nil
}

// List returns requests newest first with their submitter's summary.
func (s *VerificationService) List(ctx context.Context, filter VerificationListFilter) ([]domain.VerificationWithUser, error) {
	if filter.State != nil && *filter.State != domain.VerificationPending && *filter.State != domain.VerificationApproved {
		return nil, errorutil.NewValidationError("unknown verification state", map[string]any{"state": *filter.State})
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.store.Verifications().ListWithUsers(opCtx, repository.VerificationFilter{
		State:  filter.State,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, storeError(err, "verification request", nil)
	}
	return items, nil
}
