package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/api/dto"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/service"
)

// NotificationsHandler exposes the notification feed and announcement broadcasts.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notifications *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notifications}
}

// Broadcast handles POST /admin/notifications/broadcast.
func (h *NotificationsHandler) Broadcast(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.BroadcastRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	sent, err := h.notifications.Broadcast(c.UserContext(), actor, service.BroadcastInput{
		Title:   req.Title,
		Message: req.Message,
		Type:    domain.NotificationType(req.Type),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BroadcastResponse{Sent: sent}})
}

// List handles GET /admin/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	var q dto.NotificationListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	filter := service.NotificationListFilter{
		UserID: q.UserID,
		Type:   domain.NotificationType(q.Type),
	}
	filter.Limit, filter.Offset = pageBounds(q.Page, q.PageSize)

	items, err := h.notifications.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationListResponse(items)})
}
