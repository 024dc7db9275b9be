package repository

import (
	"context"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/persistence"
)

// PremiumLedgerRepository stores premium_subscriptions entries.
type PremiumLedgerRepository interface {
	Insert(ctx context.Context, entry *domain.PremiumLedgerEntry) error
	// UpdateLatestStatus moves the newest entry in status from to status to.
	UpdateLatestStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error)
	UpdateAllStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PremiumLedgerEntry, error)
}

type premiumLedgerRepository struct {
	db persistence.DBTX
}

// NewPremiumLedgerRepository builds repository.
func NewPremiumLedgerRepository(db persistence.DBTX) PremiumLedgerRepository {
	return &premiumLedgerRepository{db: db}
}

func (r *premiumLedgerRepository) Insert(ctx context.Context, entry *domain.PremiumLedgerEntry) error {
	const query = `
        INSERT INTO premium_subscriptions (user_id, plan_type, start_date, end_date, amount, currency, status, granted_by)
        VALUES ($1,$2,$3,$4,$5::numeric / 100,$6,$7,$8)
        RETURNING id::text, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		entry.UserID,
		string(entry.PlanType),
		entry.StartDate,
		entry.EndDate,
		entry.AmountMinor,
		entry.Currency,
		string(entry.Status),
		entry.GrantedBy,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
}

func (r *premiumLedgerRepository) UpdateLatestStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error) {
	const query = `
        UPDATE premium_subscriptions SET status=$3, updated_at=NOW()
        WHERE id = (
            SELECT id FROM premium_subscriptions
            WHERE user_id=$1 AND status=$2
            ORDER BY created_at DESC
            LIMIT 1
        )`
	cmd, err := r.db.Exec(ctx, query, userID, string(from), string(to))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *premiumLedgerRepository) UpdateAllStatus(ctx context.Context, userID string, from, to domain.LedgerStatus) (int64, error) {
	const query = `
        UPDATE premium_subscriptions SET status=$3, updated_at=NOW()
        WHERE user_id=$1 AND status=$2`
	cmd, err := r.db.Exec(ctx, query, userID, string(from), string(to))
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *premiumLedgerRepository) ListByUser(ctx context.Context, userID string) ([]domain.PremiumLedgerEntry, error) {
	const query = `
        SELECT id::text, user_id::text, plan_type, start_date, end_date, (amount * 100)::bigint, currency, status,
               granted_by, created_at, updated_at
        FROM premium_subscriptions WHERE user_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PremiumLedgerEntry
	for rows.Next() {
		var entry domain.PremiumLedgerEntry
		var plan, status string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&plan,
			&entry.StartDate,
			&entry.EndDate,
			&entry.AmountMinor,
			&entry.Currency,
			&status,
			&entry.GrantedBy,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entry.PlanType = domain.PlanType(plan)
		entry.Status = domain.LedgerStatus(status)
		result = append(result, entry)
	}
	return result, rows.Err()
}
