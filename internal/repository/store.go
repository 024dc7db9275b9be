package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventra-app/admin-service/internal/persistence"
)

var (
	// ErrNotFound is returned when a row addressed by id does not exist.
	ErrNotFound = pgx.ErrNoRows
	// ErrVersionConflict is returned when a conditional user update lost a race.
	ErrVersionConflict = errors.New("version conflict")
)

// Store bundles the repositories used by the workflows.
type Store interface {
	Users() UserRepository
	Verifications() VerificationRepository
	Ledger() PremiumLedgerRepository
	Notifications() NotificationRepository
	// WithinTx runs fn against a Store whose writes commit together or not at all.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

type pgStore struct {
	db   persistence.DBTX
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &pgStore{db: pool, pool: pool}
}

func (s *pgStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *pgStore) Verifications() VerificationRepository {
	return NewVerificationRepository(s.db)
}

func (s *pgStore) Ledger() PremiumLedgerRepository {
	return NewPremiumLedgerRepository(s.db)
}

func (s *pgStore) Notifications() NotificationRepository {
	return NewNotificationRepository(s.db)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgStore{db: tx})
	})
}
