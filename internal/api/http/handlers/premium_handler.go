package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/api/dto"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/service"
)

// PremiumHandler exposes premium entitlement management.
type PremiumHandler struct {
	premium *service.PremiumService
}

// NewPremiumHandler constructs handler.
func NewPremiumHandler(premium *service.PremiumService) *PremiumHandler {
	return &PremiumHandler{premium: premium}
}

// Grant handles POST /admin/premium/grant.
func (h *PremiumHandler) Grant(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.PremiumGrantRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.premium.Grant(c.UserContext(), actor, service.GrantInput{
		UserID:      req.UserID,
		PlanType:    domain.PlanType(req.PlanType),
		StartDate:   req.StartDate,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": toPremiumResponse(result)})
}

// Extend handles POST /admin/premium/extend.
func (h *PremiumHandler) Extend(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.PremiumExtendRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.premium.Extend(c.UserContext(), actor, req.UserID, req.Months)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toPremiumResponse(result)})
}

// Revoke handles POST /admin/premium/revoke.
func (h *PremiumHandler) Revoke(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.PremiumRevokeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.premium.Revoke(c.UserContext(), actor, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toPremiumResponse(result)})
}

// List handles GET /admin/premium/users.
func (h *PremiumHandler) List(c *fiber.Ctx) error {
	var q dto.PremiumListQuery
	if err := bindQuery(c, &q); err != nil {
		return err
	}

	filter := service.PremiumListFilter{State: domain.PremiumState(q.State)}
	filter.Limit, filter.Offset = pageBounds(q.Page, q.PageSize)

	items, err := h.premium.ListPremiumUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.PremiumResponse, 0, len(items))
	for i := range items {
		out = append(out, toPremiumResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Status handles GET /admin/users/:id/premium.
func (h *PremiumHandler) Status(c *fiber.Ctx) error {
	result, err := h.premium.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": toPremiumResponse(result)})
}

func toPremiumResponse(e *service.Entitlement) dto.PremiumResponse {
	return dto.NewPremiumResponse(e.User, e.State, e.Entry, e.History)
}
