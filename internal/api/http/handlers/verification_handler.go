package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/api/dto"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/service"
)

// VerificationHandler exposes the verification review queue.
type VerificationHandler struct {
	verifications *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verifications *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifications: verifications}
}

// List handles GET /admin/verifications.
func (h *VerificationHandler) List(c *fiber.Ctx) error {
	var q dto.VerificationListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	filter := service.VerificationListFilter{}
	filter.Limit, filter.Offset = pageBounds(q.Page, q.PageSize)
	switch q.Status {
	case "pending":
		state := domain.VerificationPending
		filter.State = &state
	case "approved":
		state := domain.VerificationApproved
		filter.State = &state
	}

	items, err := h.verifications.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVerificationListResponse(items)})
}

// Approve handles POST /admin/verifications/approve.
func (h *VerificationHandler) Approve(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.VerificationActionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	approved, err := h.verifications.Approve(c.UserContext(), actor, req.RequestID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVerificationResponse(approved)})
}

// Reject handles POST /admin/verifications/reject.
func (h *VerificationHandler) Reject(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.VerificationActionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.verifications.Reject(c.UserContext(), actor, req.RequestID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"request_id": req.RequestID, "status": "rejected"}})
}
