package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/pkg/util/errorutil"
)

// approvalMessages are written once per locale when a request is approved.
var approvalMessages = []struct {
	Locale  string
	Title   string
	Message string
}{
	{
		Locale:  "tr",
		Title:   "Hesabınız Onaylandı ✓",
		Message: "Tebrikler! Hesabınız onaylandı. Artık etkinliklere katılabilir ve etkinlik oluşturabilirsiniz.",
	},
	{
		Locale:  "en",
		Title:   "Your Account Has Been Approved ✓",
		Message: "Congratulations! Your account has been approved. You can now participate in events and create events.",
	},
}

// NotificationService handles emitting notifications for domain events.
// Every failure here is logged and swallowed.
type NotificationService struct {
	runner
	cfg     config.NotificationConfig
	webhook WebhookSender
}

// BroadcastInput describes an announcement sent to every user.
type BroadcastInput struct {
	Title   string
	Message string
	Type    domain.NotificationType
}

// NotificationListFilter narrows the notification feed.
type NotificationListFilter struct {
	UserID string
	Type   domain.NotificationType
	Limit  int
	Offset int
}

// NewNotificationService creates the service. A nil webhook sender posts
// with the fiber client.
func NewNotificationService(deps Dependencies, cfg config.NotificationConfig, webhook WebhookSender) *NotificationService {
	if webhook == nil {
		webhook = NewFiberWebhookSender(cfg.WebhookTimeout())
	}
	return &NotificationService{
		runner:  newRunner(deps),
		cfg:     cfg,
		webhook: webhook,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventVerificationApproved, n.handleVerificationApproved)
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.forwardWebhook)
	}
}

func (n *NotificationService) handleVerificationApproved(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.VerificationPayload)
	if !ok {
		n.logger.Warn("unexpected payload", zap.String("event_type", string(event.Type)))
		return nil
	}

	opCtx, cancel := n.withTimeout(ctx)
	defer cancel()

	for _, msg := range approvalMessages {
		notification := &domain.Notification{
			UserID:    event.UserID,
			Type:      domain.NotificationVerificationApproved,
			Title:     msg.Title,
			Message:   msg.Message,
			Data:      map[string]any{"verification_id": payload.VerificationID},
			CreatedAt: n.now(),
		}
		if err := n.store.Notifications().Insert(opCtx, notification); err != nil {
			n.metrics.RecordOperation("notification.insert", "failed")
			n.logger.Warn("approval notification not stored",
				zap.String("user_id", event.UserID),
				zap.String("locale", msg.Locale),
				zap.Error(err))
			continue
		}
		n.metrics.RecordOperation("notification.insert", "ok")
	}
	return nil
}

func (n *NotificationService) forwardWebhook(ctx context.Context, event events.Event) error {
	url := strings.TrimSpace(n.cfg.WebhookURL)
	if url == "" {
		return nil
	}
	if err := n.webhook.Send(ctx, url, event); err != nil {
		n.metrics.RecordOperation("notification.webhook", "failed")
		n.logger.Warn("webhook delivery failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return nil
	}
	n.metrics.RecordOperation("notification.webhook", "ok")
	n.logger.Debug("webhook delivered",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
	return nil
}

// Broadcast writes one notification per user and returns how many were written.
func (n *NotificationService) Broadcast(ctx context.Context, actor domain.Actor, in BroadcastInput) (count int64, err error) {
	defer func() { n.record("notification.broadcast", err) }()

	title := strings.TrimSpace(in.Title)
	message := strings.TrimSpace(in.Message)
	if title == "" || message == "" {
		return 0, errorutil.NewValidationError("title and message are required", nil)
	}
	kind := in.Type
	if kind == "" {
		kind = domain.NotificationAnnouncement
	}

	opCtx, cancel := n.withTimeout(ctx)
	defer cancel()

	count, err = n.store.Notifications().Broadcast(opCtx, domain.Notification{
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      map[string]any{"sent_by": actor.ID},
		CreatedAt: n.now(),
	})
	if err != nil {
		return 0, storeError(err, "notification", nil)
	}
	n.logger.Info("notification broadcast",
		zap.Int64("recipients", count),
		zap.String("type", string(kind)),
		zap.String("actor_id", actor.ID))
	return count, nil
}

// List returns notifications newest first with their recipient's summary.
func (n *NotificationService) List(ctx context.Context, filter NotificationListFilter) ([]domain.NotificationWithUser, error) {
	if filter.UserID != "" {
		if err := requireID("user_id", filter.UserID); err != nil {
			return nil, err
		}
	}

	opCtx, cancel := n.withTimeout(ctx)
	defer cancel()

	items, err := n.store.Notifications().List(opCtx, repository.NotificationFilter{
		UserID: filter.UserID,
		Type:   filter.Type,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, storeError(err, "notification", nil)
	}
	return items, nil
}
