// Package memory is an in-process Store used by tests and by local runs
// without a Postgres DSN.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/repository"
)

type state struct {
	users         map[string]domain.User
	verifications map[string]domain.VerificationRequest
	ledger        []domain.PremiumLedgerEntry
	notifications []domain.Notification
}

func newState() *state {
	return &state{
		users:         make(map[string]domain.User),
		verifications: make(map[string]domain.VerificationRequest),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         make(map[string]domain.User, len(s.users)),
		verifications: make(map[string]domain.VerificationRequest, len(s.verifications)),
		ledger:        append([]domain.PremiumLedgerEntry(nil), s.ledger...),
		notifications: append([]domain.Notification(nil), s.notifications...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.verifications {
		c.verifications[k] = v
	}
	return c
}

// Store keeps every table in maps guarded by one mutex. A transaction holds
// the mutex for its whole duration and restores a snapshot on error.
type Store struct {
	mu    sync.Mutex
	st    *state
	fail  error
	clock func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{st: newState(), clock: time.Now}
}

// SetClock replaces the timestamp source for rows the store stamps itself.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// PutUser seeds or replaces a user. Missing ids and versions are filled in.
func (s *Store) PutUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Version == 0 {
		u.Version = 1
	}
	if u.Status == "" {
		u.Status = domain.UserStatusPending
	}
	now := s.clock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	s.st.users[u.ID] = u
	return u
}

// PutVerification seeds or replaces a verification request.
func (s *Store) PutVerification(r domain.VerificationRequest) domain.VerificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock()
	}
	s.st.verifications[r.ID] = r
	return r
}

func (s *Store) Users() repository.UserRepository {
	return userView{&view{s: s}}
}

func (s *Store) Verifications() repository.VerificationRepository {
	return verificationView{&view{s: s}}
}

func (s *Store) Ledger() repository.PremiumLedgerRepository {
	return ledgerView{&view{s: s}}
}

func (s *Store) Notifications() repository.NotificationRepository {
	return notificationView{&view{s: s}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	snapshot := s.st.clone()
	if err := fn(&txStore{v: &view{s: s, inTx: true}}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

type txStore struct {
	v *view
}

func (t *txStore) Users() repository.UserRepository {
	return userView{t.v}
}

func (t *txStore) Verifications() repository.VerificationRepository {
	return verificationView{t.v}
}

func (t *txStore) Ledger() repository.PremiumLedgerRepository {
	return ledgerView{t.v}
}

func (t *txStore) Notifications() repository.NotificationRepository {
	return notificationView{t.v}
}

func (t *txStore) WithinTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

// view gives the repositories access to the shared state. Inside a
// transaction the mutex is already held.
type view struct {
	s    *Store
	inTx bool
}

func (v *view) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	if v.s.fail != nil {
		return v.s.fail
	}
	return fn(v.s.st)
}

func (v *view) now() time.Time {
	return v.s.clock()
}

type (
	userView         struct{ *view }
	verificationView struct{ *view }
	ledgerView       struct{ *view }
	notificationView struct{ *view }
)

func (v userView) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := v.do(ctx, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (v userView) SetVerified(ctx context.Context, id string, verified bool, status *domain.UserStatus, expectedVersion int64) error {
	return v.do(ctx, func(st *state) error {
		u, err := userForWrite(st, id, expectedVersion)
		if err != nil {
			return err
		}
		u.IsVerified = verified
		if status != nil {
			u.Status = *status
		}
		u.Version++
		u.UpdatedAt = v.now()
		st.users[id] = u
		return nil
	})
}

func (v userView) SetPremium(ctx context.Context, id string, isPremium bool, expiresAt *time.Time, expectedVersion int64) error {
	return v.do(ctx, func(st *state) error {
		u, err := userForWrite(st, id, expectedVersion)
		if err != nil {
			return err
		}
		u.IsPremium = isPremium
		u.PremiumExpiresAt = copyTime(expiresAt)
		u.Version++
		u.UpdatedAt = v.now()
		st.users[id] = u
		return nil
	})
}

func (v userView) ListPremium(ctx context.Context, filter repository.PremiumUserFilter) ([]domain.User, error) {
	var out []domain.User
	err := v.do(ctx, func(st *state) error {
		var matched []domain.User
		for _, u := range st.users {
			u := u
			if filter.Matches(&u) {
				matched = append(matched, *copyUser(u))
			}
		}
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		limit, offset := repository.NormalizePage(filter.Limit, filter.Offset)
		out = page(matched, limit, offset)
		return nil
	})
	return out, err
}

func (v userView) ListLapsedPremium(ctx context.Context, now time.Time, after *repository.LapsedCursor, limit int) ([]domain.User, error) {
	var out []domain.User
	err := v.do(ctx, func(st *state) error {
		for _, u := range st.users {
			u := u
			if u.IsExpired(now) && !after.Before(&u) {
				out = append(out, *copyUser(u))
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if !out[i].PremiumExpiresAt.Equal(*out[j].PremiumExpiresAt) {
				return out[i].PremiumExpiresAt.Before(*out[j].PremiumExpiresAt)
			}
			return out[i].ID < out[j].ID
		})
		if limit > 0 && len(out) > limit {
			out = out[:limit]
		}
		return nil
	})
	return out, err
}

func userForWrite(st *state, id string, expectedVersion int64) (domain.User, error) {
	u, ok := st.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	if u.Version != expectedVersion {
		return domain.User{}, repository.ErrVersionConflict
	}
	return u, nil
}

func (v verificationView) GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	var out *domain.VerificationRequest
	err := v.do(ctx, func(st *state) error {
		r, ok := st.verifications[id]
		if !ok {
			return repository.ErrNotFound
		}
		r.VerifiedAt = copyTime(r.VerifiedAt)
		out = &r
		return nil
	})
	return out, err
}

func (v verificationView) MarkApproved(ctx context.Context, id string, verifiedAt time.Time) error {
	return v.do(ctx, func(st *state) error {
		r, ok := st.verifications[id]
		if !ok {
			return repository.ErrNotFound
		}
		r.IsVerified = true
		r.VerifiedAt = &verifiedAt
		st.verifications[id] = r
		return nil
	})
}

func (v verificationView) Delete(ctx context.Context, id string) error {
	return v.do(ctx, func(st *state) error {
		if _, ok := st.verifications[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.verifications, id)
		return nil
	})
}

func (v verificationView) ListWithUsers(ctx context.Context, filter repository.VerificationFilter) ([]domain.VerificationWithUser, error) {
	var out []domain.VerificationWithUser
	err := v.do(ctx, func(st *state) error {
		var matched []domain.VerificationWithUser
		for _, r := range st.verifications {
			r := r
			if !filter.Matches(&r) {
				continue
			}
			item := domain.VerificationWithUser{VerificationRequest: r}
			if u, ok := st.users[r.UserID]; ok {
				item.User = domain.UserSummary{
					Username:        u.Username,
					Email:           u.Email,
					FullName:        u.FullName,
					ProfileImageURL: u.ProfileImageURL,
				}
			}
			matched = append(matched, item)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
				return matched[i].ID < matched[j].ID
			}
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		limit, offset := repository.NormalizePage(filter.Limit, filter.Offset)
		out = page(matched, limit, offset)
		return nil
	})
	return out, err
}

func (v ledgerView) Insert(ctx context.Context, entry *domain.PremiumLedgerEntry) error {
	return v.do(ctx, func(st *state) error {
		entry.ID = uuid.NewString()
		entry.CreatedAt = v.now()
		entry.UpdatedAt = entry.CreatedAt
		st.ledger = append(st.ledger, *entry)
		return nil
	})
}

func (v ledgerView) UpdateLatestStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error) {
	var n int64
	err := v.do(ctx, func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			if st.ledger[i].UserID == userID && st.ledger[i].Status == from {
				st.ledger[i].Status = to
				st.ledger[i].UpdatedAt = v.now()
				n = 1
				return nil
			}
		}
		return nil
	})
	return n, err
}

func (v ledgerView) UpdateAllStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error) {
	var n int64
	err := v.do(ctx, func(st *state) error {
		for i := range st.ledger {
			if st.ledger[i].UserID == userID && st.ledger[i].Status == from {
				st.ledger[i].Status = to
				st.ledger[i].UpdatedAt = v.now()
				n++
			}
		}
		return nil
	})
	return n, err
}

func (v ledgerView) ListByUser(ctx context.Context, userID string) ([]domain.PremiumLedgerEntry, error) {
	var out []domain.PremiumLedgerEntry
	err := v.do(ctx, func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			if st.ledger[i].UserID == userID {
				out = append(out, st.ledger[i])
			}
		}
		return nil
	})
	return out, err
}

func (v notificationView) Insert(ctx context.Context, n *domain.Notification) error {
	return v.do(ctx, func(st *state) error {
		n.ID = uuid.NewString()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = v.now()
		}
		st.notifications = append(st.notifications, *n)
		return nil
	})
}

func (v notificationView) Broadcast(ctx context.Context, t domain.Notification) (int64, error) {
	var n int64
	err := v.do(ctx, func(st *state) error {
		ids := make([]string, 0, len(st.users))
		for id := range st.users {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			row := t
			row.ID = uuid.NewString()
			row.UserID = id
			if row.CreatedAt.IsZero() {
				row.CreatedAt = v.now()
			}
			st.notifications = append(st.notifications, row)
			n++
		}
		return nil
	})
	return n, err
}

func (v notificationView) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.NotificationWithUser, error) {
	var out []domain.NotificationWithUser
	err := v.do(ctx, func(st *state) error {
		var matched []domain.NotificationWithUser
		for i := len(st.notifications) - 1; i >= 0; i-- {
			n := st.notifications[i]
			if !filter.Matches(&n) {
				continue
			}
			item := domain.NotificationWithUser{Notification: n}
			if u, ok := st.users[n.UserID]; ok {
				item.User = domain.UserSummary{
					Username:        u.Username,
					Email:           u.Email,
					FullName:        u.FullName,
					ProfileImageURL: u.ProfileImageURL,
				}
			}
			matched = append(matched, item)
		}
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		})
		limit, offset := repository.NormalizePage(filter.Limit, filter.Offset)
		out = page(matched, limit, offset)
		return nil
	})
	return out, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func copyUser(u domain.User) *domain.User {
	u.PremiumExpiresAt = copyTime(u.PremiumExpiresAt)
	return &u
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
