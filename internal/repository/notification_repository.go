package repository

import (
	"context"
	"fmt"

	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/persistence"
)

// NotificationFilter narrows the notification feed. Empty fields match everything.
type NotificationFilter struct {
	UserID string
	Type   domain.NotificationType
	Limit  int
	Offset int
}

// Matches applies the filter to a single notification.
func (f NotificationFilter) Matches(n *domain.Notification) bool {
	if f.UserID != "" && n.UserID != f.UserID {
		return false
	}
	return f.Type == "" || n.Type == f.Type
}

// NotificationRepository is the append-only notification sink.
type NotificationRepository interface {
	Insert(ctx context.Context, notification *domain.Notification) error
	// Broadcast copies template to every user and returns the number of rows written.
	Broadcast(ctx context.Context, template domain.Notification) (int64, error)
	// List returns notifications newest first, joined with the recipient.
	List(ctx context.Context, filter NotificationFilter) ([]domain.NotificationWithUser, error)
}

type notificationRepository struct {
	db persistence.DBTX
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(db persistence.DBTX) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Insert(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (user_id, type, title, message, data, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id::text`
	return r.db.QueryRow(ctx, query,
		n.UserID,
		string(n.Type),
		n.Title,
		n.Message,
		dataOrEmpty(n.Data),
		n.CreatedAt,
	).Scan(&n.ID)
}

func (r *notificationRepository) Broadcast(ctx context.Context, t domain.Notification) (int64, error) {
	const query = `
        INSERT INTO notifications (user_id, type, title, message, data, created_at)
        SELECT id, $1, $2, $3, $4, $5 FROM users`
	cmd, err := r.db.Exec(ctx, query, string(t.Type), t.Title, t.Message, dataOrEmpty(t.Data), t.CreatedAt)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]domain.NotificationWithUser, error) {
	where := "1=1"
	args := []any{}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where += fmt.Sprintf(" AND n.user_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where += fmt.Sprintf(" AND n.type = $%d", len(args))
	}

	limit, offset := NormalizePage(filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
        SELECT n.id::text, n.user_id::text, n.type, n.title, n.message, n.data, n.created_at, n.read_at,
               COALESCE(u.username, ''), COALESCE(u.email, ''), COALESCE(u.full_name, ''), u.profile_image_url
        FROM notifications n
        LEFT JOIN users u ON u.id = n.user_id
        WHERE %s
        ORDER BY n.created_at DESC, n.id DESC
        LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.NotificationWithUser
	for rows.Next() {
		var item domain.NotificationWithUser
		var kind string
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&kind,
			&item.Title,
			&item.Message,
			&item.Data,
			&item.CreatedAt,
			&item.ReadAt,
			&item.User.Username,
			&item.User.Email,
			&item.User.FullName,
			&item.User.ProfileImageURL,
		); err != nil {
			return nil, err
		}
		item.Type = domain.NotificationType(kind)
		result = append(result, item)
	}
	return result, rows.Err()
}

func dataOrEmpty(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
