package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/pkg/util/errorutil"
)

const sweepBatchSize = 100

// PremiumService owns the premium entitlement of users. Ledger writes and
// the user's premium fields always commit together.
type PremiumService struct {
	runner
	sweepBatch int
}

// GrantInput describes a grant. A nil StartDate starts the plan now.
type GrantInput struct {
	UserID      string
	PlanType    domain.PlanType
	StartDate   *time.Time
	// AmountMinor is the price paid in minor currency units.
	AmountMinor int64
	Currency    string
}

// PremiumListFilter selects premium users by derived state.
type PremiumListFilter struct {
	State  domain.PremiumState
	Limit  int
	Offset int
}

// Entitlement is a user's premium view after a mutation or lookup.
type Entitlement struct {
	User  domain.User
	State domain.PremiumState
	// Entry is the ledger row written by the mutation, if any.
	Entry *domain.PremiumLedgerEntry
	// History is filled by Status, newest first.
	History []domain.PremiumLedgerEntry
}

// NewPremiumService constructs the service.
func NewPremiumService(deps Dependencies) *PremiumService {
	return &PremiumService{runner: newRunner(deps), sweepBatch: sweepBatchSize}
}

// IsActive reports whether user holds an unexpired or unlimited grant now.
func (s *PremiumService) IsActive(user *domain.User) bool {
	return user.IsActive(s.now())
}

// Grant starts a new plan for the user, superseding any active ledger rows.
// Monthly and yearly plans are dated; every other plan is unlimited.
func (s *PremiumService) Grant(ctx context.Context, actor domain.Actor, in GrantInput) (result *Entitlement, err error) {
	defer func() { s.record("premium.grant", err) }()
	if err := requireID("user_id", in.UserID); err != nil {
		return nil, err
	}
	plan := domain.PlanType(strings.ToLower(strings.TrimSpace(string(in.PlanType))))
	if plan == "" {
		return nil, errorutil.NewValidationError("plan_type is required", map[string]any{"field": "plan_type"})
	}
	if plan == domain.PlanExtension {
		return nil, errorutil.NewValidationError("plan_type extension is reserved", map[string]any{"field": "plan_type"})
	}
	if in.AmountMinor < 0 {
		return nil, errorutil.NewValidationError("amount_minor must not be negative", map[string]any{"field": "amount_minor"})
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.UserKey(in.UserID))
	if err != nil {
		return nil, err
	}
	defer release()

	start := s.now()
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	end := domain.EndDateFor(plan, start)

	err = s.store.WithinTx(opCtx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(opCtx, in.UserID)
		if err != nil {
			return storeError(err, "user", map[string]any{"user_id": in.UserID})
		}
		if _, err := tx.Ledger().UpdateAllStatus(opCtx, user.ID, domain.LedgerStatusActive, domain.LedgerStatusSuperseded); err != nil {
			return storeError(err, "premium ledger", nil)
		}
		entry := &domain.PremiumLedgerEntry{
			UserID:      user.ID,
			PlanType:    plan,
			StartDate:   start,
			EndDate:     end,
			AmountMinor: in.AmountMinor,
			Currency:    currency,
			Status:      domain.LedgerStatusActive,
			GrantedBy:   actor.ID,
		}
		if err := tx.Ledger().Insert(opCtx, entry); err != nil {
			return storeError(err, "premium ledger", nil)
		}
		if err := tx.Users().SetPremium(opCtx, user.ID, true, end, user.Version); err != nil {
			return storeError(err, "user", map[string]any{"user_id": user.ID})
		}
		user.IsPremium = true
		user.PremiumExpiresAt = end
		user.Version++
		result = s.entitlement(user, entry)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "user", nil)
	}

	s.logger.Info("premium granted",
		zap.String("user_id", in.UserID),
		zap.String("plan_type", string(plan)),
		zap.Timep("expires_at", end),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, events.Event{
		Type:   events.EventPremiumGranted,
		UserID: in.UserID,
		Actor:  events.ActorFrom(actor),
		Payload: events.PremiumPayload{
			PlanType:      plan,
			LedgerEntryID: result.Entry.ID,
			ExpiresAt:     end,
		},
	})
	return result, nil
}

// Extend adds months to an active dated grant, or starts from now when the
// grant has lapsed or never existed. Unlimited grants cannot be extended.
func (s *PremiumService) Extend(ctx context.Context, actor domain.Actor, userID string, months int) (result *Entitlement, err error) {
	defer func() { s.record("premium.extend", err) }()
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	if months <= 0 {
		return nil, errorutil.NewValidationError("months must be a positive integer", map[string]any{"field": "months"})
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	var previous *time.Time
	err = s.store.WithinTx(opCtx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(opCtx, userID)
		if err != nil {
			return storeError(err, "user", map[string]any{"user_id": userID})
		}

		now := s.now()
		base := now
		if user.IsActive(now) {
			if user.PremiumExpiresAt == nil {
				return errorutil.NewConflict("premium grant is unlimited", map[string]any{"user_id": userID})
			}
			base = *user.PremiumExpiresAt
		}
		end := domain.AddMonths(base, months)
		previous = user.PremiumExpiresAt

		if _, err := tx.Ledger().UpdateAllStatus(opCtx, user.ID, domain.LedgerStatusActive, domain.LedgerStatusSuperseded); err != nil {
			return storeError(err, "premium ledger", nil)
		}
		entry := &domain.PremiumLedgerEntry{
			UserID:    user.ID,
			PlanType:  domain.PlanExtension,
			StartDate: base,
			EndDate:   &end,
			Currency:  s.cfg.DefaultCurrency,
			Status:    domain.LedgerStatusActive,
			GrantedBy: actor.ID,
		}
		if err := tx.Ledger().Insert(opCtx, entry); err != nil {
			return storeError(err, "premium ledger", nil)
		}
		if err := tx.Users().SetPremium(opCtx, user.ID, true, &end, user.Version); err != nil {
			return storeError(err, "user", map[string]any{"user_id": user.ID})
		}
		user.IsPremium = true
		user.PremiumExpiresAt = &end
		user.Version++
		result = s.entitlement(user, entry)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "user", nil)
	}

	s.logger.Info("premium extended",
		zap.String("user_id", userID),
		zap.Int("months", months),
		zap.Timep("expires_at", result.User.PremiumExpiresAt),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, events.Event{
		Type:   events.EventPremiumExtended,
		UserID: userID,
		Actor:  events.ActorFrom(actor),
		Payload: events.PremiumPayload{
			PlanType:         domain.PlanExtension,
			LedgerEntryID:    result.Entry.ID,
			ExpiresAt:        result.User.PremiumExpiresAt,
			PreviousExpiry:   previous,
			AdditionalMonths: months,
		},
	})
	return result, nil
}

// Revoke cancels the latest active ledger row and clears both premium
// fields of the user.
func (s *PremiumService) Revoke(ctx context.Context, actor domain.Actor, userID string) (result *Entitlement, err error) {
	defer func() { s.record("premium.revoke", err) }()
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.UserKey(userID))
	if err != nil {
		return nil, err
	}
	defer release()

	result, previous, err := s.clear(opCtx, userID, domain.LedgerStatusCancelled, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("premium revoked", zap.String("user_id", userID), zap.String("actor_id", actor.ID))
	s.publish(ctx, events.Event{
		Type:    events.EventPremiumRevoked,
		UserID:  userID,
		Actor:   events.ActorFrom(actor),
		Payload: events.PremiumPayload{PreviousExpiry: previous},
	})
	return result, nil
}

// clear ends the user's entitlement, moving active ledger rows to status.
// With all set every active row moves, otherwise only the latest one. The
// caller holds the user lock.
func (s *PremiumService) clear(ctx context.Context, userID string, status domain.LedgerStatus, all bool) (*Entitlement, *time.Time, error) {
	var (
		result   *Entitlement
		previous *time.Time
	)
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			return storeError(err, "user", map[string]any{"user_id": userID})
		}
		if all {
			_, err = tx.Ledger().UpdateAllStatus(ctx, user.ID, domain.LedgerStatusActive, status)
		} else {
			_, err = tx.Ledger().UpdateLatestStatus(ctx, user.ID, domain.LedgerStatusActive, status)
		}
		if err != nil {
			return storeError(err, "premium ledger", nil)
		}
		if err := tx.Users().SetPremium(ctx, user.ID, false, nil, user.Version); err != nil {
			return storeError(err, "user", map[string]any{"user_id": user.ID})
		}
		previous = user.PremiumExpiresAt
		user.IsPremium = false
		user.PremiumExpiresAt = nil
		user.Version++
		result = s.entitlement(user, nil)
		return nil
	})
	if err != nil {
		return nil, nil, storeError(err, "user", nil)
	}
	return result, previous, nil
}

// Status reports the derived premium state and ledger history of a user.
func (s *PremiumService) Status(ctx context.Context, userID string) (*Entitlement, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.store.Users().GetByID(opCtx, userID)
	if err != nil {
		return nil, storeError(err, "user", map[string]any{"user_id": userID})
	}
	history, err := s.store.Ledger().ListByUser(opCtx, userID)
	if err != nil {
		return nil, storeError(err, "premium ledger", nil)
	}
	result := s.entitlement(user, nil)
	result.History = history
	return result, nil
}

// ListPremiumUsers lists premium-flagged users, optionally by derived state.
// The none state is not a premium state and is rejected.
func (s *PremiumService) ListPremiumUsers(ctx context.Context, filter PremiumListFilter) ([]Entitlement, error) {
	switch filter.State {
	case "", domain.PremiumStateActive, domain.PremiumStateExpiringSoon, domain.PremiumStateUnlimited, domain.PremiumStateExpired:
	default:
		return nil, errorutil.NewValidationError("unknown premium state", map[string]any{"state": filter.State})
	}

	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	users, err := s.store.Users().ListPremium(opCtx, repository.PremiumUserFilter{
		State:  filter.State,
		Now:    s.now(),
		Window: s.cfg.ExpiringSoonWindow(),
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, storeError(err, "user", nil)
	}

	result := make([]Entitlement, 0, len(users))
	for i := range users {
		result = append(result, *s.entitlement(&users[i], nil))
	}
	return result, nil
}

// ExpireLapsed revokes every premium user whose dated grant has passed and
// marks their active ledger rows expired. Failures for one user are logged
// and the sweep moves on.
func (s *PremiumService) ExpireLapsed(ctx context.Context) (expired int, err error) {
	defer func() { s.record("premium.expire", err) }()

	now := s.now()
	var cursor *repository.LapsedCursor
	for {
		listCtx, cancel := s.withTimeout(ctx)
		users, err := s.store.Users().ListLapsedPremium(listCtx, now, cursor, s.sweepBatch)
		cancel()
		if err != nil {
			return expired, storeError(err, "user", nil)
		}

		for _, user := range users {
			ok, err := s.expireOne(ctx, user.ID)
			if err != nil {
				s.logger.Error("premium expiry failed", zap.String("user_id", user.ID), zap.Error(err))
				continue
			}
			if ok {
				expired++
			}
		}
		if len(users) < s.sweepBatch {
			return expired, nil
		}
		cursor = repository.CursorAfter(users[len(users)-1])
	}
}

func (s *PremiumService) expireOne(ctx context.Context, userID string) (bool, error) {
	opCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	release, err := s.acquire(opCtx, lock.UserKey(userID))
	if err != nil {
		return false, err
	}
	defer release()

	// an operator may have extended the grant since it was listed
	user, err := s.store.Users().GetByID(opCtx, userID)
	if err != nil {
		return false, storeError(err, "user", map[string]any{"user_id": userID})
	}
	if !user.IsExpired(s.now()) {
		return false, nil
	}

	_, previous, err := s.clear(opCtx, userID, domain.LedgerStatusExpired, true)
	if err != nil {
		return false, err
	}

	s.logger.Info("premium expired", zap.String("user_id", userID), zap.Timep("expired_at", previous))
	s.publish(ctx, events.Event{
		Type:    events.EventPremiumExpired,
		UserID:  userID,
		Actor:   events.ActorFrom(domain.SystemActor),
		Payload: events.PremiumPayload{PreviousExpiry: previous},
	})
	return true, nil
}

func (s *PremiumService) entitlement(user *domain.User, entry *domain.PremiumLedgerEntry) *Entitlement {
	return &Entitlement{
		User:  *user,
		State: user.PremiumState(s.now(), s.cfg.ExpiringSoonWindow()),
		Entry: entry,
	}
}
