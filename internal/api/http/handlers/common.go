package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/api/dto"
	"github.com/eventra-app/admin-service/internal/auth"
	"github.com/eventra-app/admin-service/internal/domain"
	apperrors "github.com/eventra-app/admin-service/pkg/util/errorutil"
)

// bindJSON parses and validates a request body.
func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(out)
}

// bindQuery parses and validates query parameters.
func bindQuery(c *fiber.Ctx, out any) error {
	if err := c.QueryParser(out); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	return dto.Validate(out)
}

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

// pageBounds turns 1-based page numbers into limit and offset.
func pageBounds(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return 0, 0
	}
	return pageSize, (page - 1) * pageSize
}
