package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/eventra-app/admin-service/internal/api/http/handlers"
	"github.com/eventra-app/admin-service/internal/auth"
	"github.com/eventra-app/admin-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Verifications  *handlers.VerificationHandler
	Premium        *handlers.PremiumHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
	// MutationRPS and MutationBurst throttle POST routes per operator.
	MutationRPS   float64
	MutationBurst int
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.AdminRoleAdmin, domain.AdminRoleModerator))
	throttle := MutationRateLimit(cfg.MutationRPS, cfg.MutationBurst)

	admin.Get("/verifications", cfg.Verifications.List)
	admin.Post("/verifications/approve", throttle, cfg.Verifications.Approve)
	admin.Post("/verifications/reject", throttle, cfg.Verifications.Reject)

	admin.Get("/premium/users", cfg.Premium.List)
	admin.Post("/premium/grant", throttle, cfg.Premium.Grant)
	admin.Post("/premium/extend", throttle, cfg.Premium.Extend)
	admin.Post("/premium/revoke", throttle, cfg.Premium.Revoke)
	admin.Get("/users/:id/premium", cfg.Premium.Status)

	admin.Get("/notifications", cfg.Notifications.List)
	admin.Post("/notifications/broadcast", auth.RequireRole(domain.AdminRoleAdmin), throttle, cfg.Notifications.Broadcast)
}
