package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/persistence"
)

// PremiumUserFilter selects premium-flagged users by derived state.
// An empty State selects every user with is_premium set.
type PremiumUserFilter struct {
	State  domain.PremiumState
	Now    time.Time
	Window time.Duration
	Limit  int
	Offset int
}

// Matches applies the filter to a single user.
func (f PremiumUserFilter) Matches(u *domain.User) bool {
	if !u.IsPremium {
		return false
	}
	switch f.State {
	case "":
		return true
	case domain.PremiumStateActive:
		return u.IsActive(f.Now)
	default:
		return u.PremiumState(f.Now, f.Window) == f.State
	}
}

// UserRepository is the user directory. Mutations are conditional on the
// version read by the caller.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SetVerified(ctx context.Context, id string, verified bool, status *domain.UserStatus, expectedVersion int64) error
	SetPremium(ctx context.Context, id string, isPremium bool, expiresAt *time.Time, expectedVersion int64) error
	ListPremium(ctx context.Context, filter PremiumUserFilter) ([]domain.User, error)
	// ListLapsedPremium pages through expired dated grants ordered by
	// (premium_expires_at, id), starting after the cursor when one is given.
	ListLapsedPremium(ctx context.Context, now time.Time, after *LapsedCursor, limit int) ([]domain.User, error)
}

// LapsedCursor is the position of the last user returned by ListLapsedPremium.
type LapsedCursor struct {
	ExpiresAt time.Time
	ID        string
}

// CursorAfter returns the cursor positioned at u.
func CursorAfter(u domain.User) *LapsedCursor {
	c := &LapsedCursor{ID: u.ID}
	if u.PremiumExpiresAt != nil {
		c.ExpiresAt = *u.PremiumExpiresAt
	}
	return c
}

// Before reports whether u sorts at or before the cursor.
func (c *LapsedCursor) Before(u *domain.User) bool {
	if c == nil || u.PremiumExpiresAt == nil {
		return false
	}
	if !u.PremiumExpiresAt.Equal(c.ExpiresAt) {
		return u.PremiumExpiresAt.Before(c.ExpiresAt)
	}
	return u.ID <= c.ID
}

type userRepository struct {
	db persistence.DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db persistence.DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id::text, username, email, full_name, profile_image_url, status,
               is_verified, is_premium, premium_expires_at, version, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) SetVerified(ctx context.Context, id string, verified bool, status *domain.UserStatus, expectedVersion int64) error {
	const query = `
        UPDATE users SET is_verified=$2, status=COALESCE($3, status), version=version+1, updated_at=NOW()
        WHERE id=$1 AND version=$4`

	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	cmd, err := r.db.Exec(ctx, query, id, verified, statusArg, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *userRepository) SetPremium(ctx context.Context, id string, isPremium bool, expiresAt *time.Time, expectedVersion int64) error {
	const query = `
        UPDATE users SET is_premium=$2, premium_expires_at=$3, version=version+1, updated_at=NOW()
        WHERE id=$1 AND version=$4`

	cmd, err := r.db.Exec(ctx, query, id, isPremium, expiresAt, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *userRepository) missOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}

func (r *userRepository) ListPremium(ctx context.Context, filter PremiumUserFilter) ([]domain.User, error) {
	clauses := []string{"is_premium = TRUE"}
	args := []any{}

	switch filter.State {
	case domain.PremiumStateActive:
		args = append(args, filter.Now)
		clauses = append(clauses, fmt.Sprintf("(premium_expires_at IS NULL OR premium_expires_at > $%d)", len(args)))
	case domain.PremiumStateUnlimited:
		clauses = append(clauses, "premium_expires_at IS NULL")
	case domain.PremiumStateExpired:
		args = append(args, filter.Now)
		clauses = append(clauses, fmt.Sprintf("premium_expires_at <= $%d", len(args)))
	case domain.PremiumStateExpiringSoon:
		args = append(args, filter.Now, filter.Now.Add(filter.Window))
		clauses = append(clauses, fmt.Sprintf("premium_expires_at > $%d AND premium_expires_at <= $%d", len(args)-1, len(args)))
	}

	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		userColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func (r *userRepository) ListLapsedPremium(ctx context.Context, now time.Time, after *LapsedCursor, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	where := "is_premium = TRUE AND premium_expires_at IS NOT NULL AND premium_expires_at <= $1"
	args := []any{now, limit}
	if after != nil {
		args = append(args, after.ExpiresAt, after.ID)
		where += " AND (premium_expires_at, id) > ($3, $4::uuid)"
	}
	query := `SELECT ` + userColumns + ` FROM users
        WHERE ` + where + `
        ORDER BY premium_expires_at ASC, id ASC LIMIT $2`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	var status string
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.ProfileImageURL,
		&status,
		&user.IsVerified,
		&user.IsPremium,
		&user.PremiumExpiresAt,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.Status = domain.UserStatus(status)
	return &user, nil
}

func scanUsers(rows pgx.Rows) ([]domain.User, error) {
	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// NormalizePage applies the default and maximum page size.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
