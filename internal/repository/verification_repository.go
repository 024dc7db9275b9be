package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/persistence"
)

// VerificationFilter narrows the review queue. A nil State lists every request.
type VerificationFilter struct {
	State  *domain.VerificationState
	Limit  int
	Offset int
}

// Matches applies the filter to a single request.
func (f VerificationFilter) Matches(r *domain.VerificationRequest) bool {
	return f.State == nil || r.State() == *f.State
}

// VerificationRepository persists user_verification rows.
type VerificationRepository interface {
	GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error)
	MarkApproved(ctx context.Context, id string, verifiedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListWithUsers(ctx context.Context, filter VerificationFilter) ([]domain.VerificationWithUser, error)
}

type verificationRepository struct {
	db persistence.DBTX
}

// NewVerificationRepository builds repository.
func NewVerificationRepository(db persistence.DBTX) VerificationRepository {
	return &verificationRepository{db: db}
}

func (r *verificationRepository) GetByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	const query = `
        SELECT id::text, user_id::text, verification_type, verification_data, is_verified, created_at, verified_at
        FROM user_verification WHERE id=$1`

	var req domain.VerificationRequest
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.UserID,
		&req.VerificationType,
		&req.VerificationData,
		&req.IsVerified,
		&req.CreatedAt,
		&req.VerifiedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *verificationRepository) MarkApproved(ctx context.Context, id string, verifiedAt time.Time) error {
	const query = `
        UPDATE user_verification SET is_verified=TRUE, verified_at=$2
        WHERE id=$1`

	cmd, err := r.db.Exec(ctx, query, id, verifiedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *verificationRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM user_verification WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *verificationRepository) ListWithUsers(ctx context.Context, filter VerificationFilter) ([]domain.VerificationWithUser, error) {
	where := "1=1"
	args := []any{}
	if filter.State != nil {
		args = append(args, *filter.State == domain.VerificationApproved)
		where = fmt.Sprintf("v.is_verified = $%d", len(args))
	}

	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
        SELECT v.id::text, v.user_id::text, v.verification_type, v.verification_data, v.is_verified,
               v.created_at, v.verified_at,
               COALESCE(u.username, ''), COALESCE(u.email, ''), COALESCE(u.full_name, ''), u.profile_image_url
        FROM user_verification v
        LEFT JOIN users u ON u.id = v.user_id
        WHERE %s
        ORDER BY v.created_at DESC
        LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVerificationsWithUsers(rows)
}

func scanVerificationsWithUsers(rows pgx.Rows) ([]domain.VerificationWithUser, error) {
	var result []domain.VerificationWithUser
	for rows.Next() {
		var item domain.VerificationWithUser
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.VerificationType,
			&item.VerificationData,
			&item.IsVerified,
			&item.CreatedAt,
			&item.VerifiedAt,
			&item.User.Username,
			&item.User.Email,
			&item.User.FullName,
			&item.User.ProfileImageURL,
		); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
