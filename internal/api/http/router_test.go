package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/api/http/handlers"
	"github.com/eventra-app/admin-service/internal/auth"
	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/observability"
	"github.com/eventra-app/admin-service/internal/persistence"
	"github.com/eventra-app/admin-service/internal/repository/memory"
	"github.com/eventra-app/admin-service/internal/service"
	apperrors "github.com/eventra-app/admin-service/pkg/util/errorutil"
)

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T, rps float64, burst int) *testServer {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.NewStore()
	deps := service.Dependencies{
		Store:      store,
		Locker:     lock.NewLocalLocker(),
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Logger:     logger,
		Metrics:    metrics,
		Config: config.EntitlementConfig{
			OperationTimeoutSeconds: 5,
			ExpiringSoonDays:        7,
			DefaultCurrency:         "TRY",
		},
	}
	tokens := auth.NewTokenManager("test-secret", 30)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("admin-service", "test", nil, nil, metrics),
		Verifications:  handlers.NewVerificationHandler(service.NewVerificationService(deps)),
		Premium:        handlers.NewPremiumHandler(service.NewPremiumService(deps)),
		Notifications:  handlers.NewNotificationsHandler(service.NewNotificationService(deps, config.NotificationConfig{}, nil)),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		MutationRPS:    rps,
		MutationBurst:  burst,
	})
	return &testServer{app: app, store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, role domain.AdminRole) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken("op-"+strings.ToLower(string(role)), "ops@example.com", role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthRoutesArePublic(t *testing.T) {
	s := newTestServer(t, 0, 0)

	status, body := s.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "memory", deps["store"])
	assert.Equal(t, "local", deps["locks"])
}

func TestReadyReportsUnavailableStore(t *testing.T) {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), nil, 0)
	health := handlers.NewHealthHandler("admin-service", "test", &persistence.Postgres{}, nil, nil)
	app.Get("/health/ready", health.Ready)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, apperrors.CodeDependencyUnavailable, errorCode(body))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, 0, 0)

	status, body := s.do(t, fiber.MethodGet, "/admin/verifications", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, body = s.do(t, fiber.MethodGet, "/admin/verifications", "not-a-jwt", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}

func TestBroadcastRequiresAdmin(t *testing.T) {
	s := newTestServer(t, 0, 0)
	s.store.PutUser(domain.User{})
	payload := `{"title":"Maintenance","message":"Tonight"}`

	status, body := s.do(t, fiber.MethodPost, "/admin/notifications/broadcast", s.token(t, domain.AdminRoleModerator), payload)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, fiber.MethodPost, "/admin/notifications/broadcast", s.token(t, domain.AdminRoleAdmin), payload)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["data"].(map[string]any)["sent"])
}

func TestValidationErrorShape(t *testing.T) {
	s := newTestServer(t, 0, 0)

	status, body := s.do(t, fiber.MethodPost, "/admin/premium/grant", s.token(t, domain.AdminRoleAdmin), `{"user_id":"u2"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	details := body["error"].(map[string]any)["details"].(map[string]any)
	fields := details["fields"].(map[string]any)
	assert.Equal(t, "uuid", fields["user_id"])
	assert.Equal(t, "required", fields["plan_type"])

	status, body = s.do(t, fiber.MethodPost, "/admin/premium/extend", s.token(t, domain.AdminRoleAdmin), `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t, 0, 0)

	status, body := s.do(t, fiber.MethodGet, "/nowhere", "", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestGrantAndStatusOverHTTP(t *testing.T) {
	s := newTestServer(t, 0, 0)
	u := s.store.PutUser(domain.User{Username: "alice"})
	token := s.token(t, domain.AdminRoleModerator)

	status, body := s.do(t, fiber.MethodPost, "/admin/premium/grant", token, `{"user_id":"`+u.ID+`","plan_type":"lifetime"}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, true, data["is_premium"])
	assert.Nil(t, data["premium_expires_at"])
	assert.Equal(t, "unlimited", data["state"])
	assert.Equal(t, "op-moderator", data["ledger_entry"].(map[string]any)["granted_by"])

	status, body = s.do(t, fiber.MethodGet, "/admin/users/"+u.ID+"/premium", token, "")
	require.Equal(t, fiber.StatusOK, status)
	data = body["data"].(map[string]any)
	assert.Equal(t, "unlimited", data["state"])
	assert.Len(t, data["history"], 1)

	status, body = s.do(t, fiber.MethodPost, "/admin/premium/extend", token, `{"user_id":"`+u.ID+`","months":1}`)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))
}

func TestGrantAmountIsMinorUnits(t *testing.T) {
	s := newTestServer(t, 0, 0)
	u := s.store.PutUser(domain.User{})
	token := s.token(t, domain.AdminRoleAdmin)

	status, body := s.do(t, fiber.MethodPost, "/admin/premium/grant", token,
		`{"user_id":"`+u.ID+`","plan_type":"monthly","amount_minor":4999,"currency":"USD"}`)
	require.Equal(t, fiber.StatusCreated, status, body)
	entry := body["data"].(map[string]any)["ledger_entry"].(map[string]any)
	assert.Equal(t, float64(4999), entry["amount_minor"])
	assert.Equal(t, "USD", entry["currency"])

	status, body = s.do(t, fiber.MethodPost, "/admin/premium/grant", token,
		`{"user_id":"`+u.ID+`","plan_type":"monthly","amount_minor":49.99}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestNotificationFeedOverHTTP(t *testing.T) {
	s := newTestServer(t, 0, 0)
	alice := s.store.PutUser(domain.User{Username: "alice", Email: "alice@example.com"})
	s.store.PutUser(domain.User{Username: "bob"})
	admin := s.token(t, domain.AdminRoleAdmin)

	status, _ := s.do(t, fiber.MethodPost, "/admin/notifications/broadcast", admin, `{"title":"Maintenance","message":"Tonight"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, body := s.do(t, fiber.MethodGet, "/admin/notifications", s.token(t, domain.AdminRoleModerator), "")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Len(t, body["data"], 2)

	status, body = s.do(t, fiber.MethodGet, "/admin/notifications?user_id="+alice.ID+"&type=announcement", admin, "")
	require.Equal(t, fiber.StatusOK, status, body)
	items := body["data"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, alice.ID, item["user_id"])
	assert.Equal(t, "Maintenance", item["title"])
	assert.Equal(t, "op-admin", item["data"].(map[string]any)["sent_by"])
	user := item["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "alice@example.com", user["email"])

	status, body = s.do(t, fiber.MethodGet, "/admin/notifications?user_id=nope", admin, "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
}

func TestApproveUnknownRequestIsNotFound(t *testing.T) {
	s := newTestServer(t, 0, 0)

	status, body := s.do(t, fiber.MethodPost, "/admin/verifications/approve", s.token(t, domain.AdminRoleAdmin),
		`{"request_id":"7d0c3f5e-1d77-4d0b-a0c4-3b6d2f2f0e55"}`)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMutationsAreRateLimited(t *testing.T) {
	s := newTestServer(t, 0.001, 1)
	token := s.token(t, domain.AdminRoleAdmin)
	payload := `{"request_id":"7d0c3f5e-1d77-4d0b-a0c4-3b6d2f2f0e55"}`

	status, _ := s.do(t, fiber.MethodPost, "/admin/verifications/reject", token, payload)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body := s.do(t, fiber.MethodPost, "/admin/verifications/reject", token, payload)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, apperrors.CodeRateLimited, errorCode(body))

	status, _ = s.do(t, fiber.MethodGet, "/admin/verifications", token, "")
	assert.Equal(t, fiber.StatusOK, status)
}
