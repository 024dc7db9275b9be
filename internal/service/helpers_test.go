package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/domain"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/observability"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/internal/repository/memory"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var operator = domain.Actor{ID: "op-1", Role: domain.AdminRoleAdmin}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingWebhook struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (w *recordingWebhook) Send(_ context.Context, _ string, event events.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, event)
	return w.err
}

type fixture struct {
	store         *memory.Store
	clock         *fakeClock
	metrics       *observability.Metrics
	publishedMu   sync.Mutex
	published     []events.Event
	webhook       *recordingWebhook
	verifications *VerificationService
	premium       *PremiumService
	notifications *NotificationService
}

func testEntitlementConfig() config.EntitlementConfig {
	return config.EntitlementConfig{
		OperationTimeoutSeconds: 8,
		LockTTLSeconds:          15,
		ExpiringSoonDays:        7,
		DefaultCurrency:         "TRY",
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore wires the services over wrap(store) when wrap is set.
func newFixtureWithStore(t *testing.T, wrap func(repository.Store) repository.Store) *fixture {
	t.Helper()

	f := &fixture{
		store:   memory.NewStore(),
		clock:   &fakeClock{now: t0},
		metrics: observability.NewMetrics(),
		webhook: &recordingWebhook{},
	}
	f.store.SetClock(f.clock.Now)

	var store repository.Store = f.store
	if wrap != nil {
		store = wrap(f.store)
	}

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			f.publishedMu.Lock()
			defer f.publishedMu.Unlock()
			f.published = append(f.published, e)
			return nil
		})
	}

	deps := Dependencies{
		Store:      store,
		Locker:     lock.NewLocalLocker(),
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    f.metrics,
		Config:     testEntitlementConfig(),
		Clock:      f.clock.Now,
	}
	f.verifications = NewVerificationService(deps)
	f.premium = NewPremiumService(deps)
	f.notifications = NewNotificationService(deps, config.NotificationConfig{WebhookURL: "http://hooks.test/admin"}, f.webhook)
	f.notifications.RegisterHandlers()
	return f
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.store.Users().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (f *fixture) ledger(t *testing.T, userID string) []domain.PremiumLedgerEntry {
	t.Helper()
	entries, err := f.store.Ledger().ListByUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("load ledger %s: %v", userID, err)
	}
	return entries
}

func (f *fixture) eventsOf(eventType events.EventType) []events.Event {
	f.publishedMu.Lock()
	defer f.publishedMu.Unlock()
	var out []events.Event
	for _, e := range f.published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// staleStore hands out users one version behind, as if another writer
// committed between the read and the conditional update.
type staleStore struct {
	repository.Store
}

func (s staleStore) Users() repository.UserRepository {
	return staleUsers{s.Store.Users()}
}

func (s staleStore) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(staleStore{tx})
	})
}

type staleUsers struct {
	repository.UserRepository
}

func (u staleUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := u.UserRepository.GetByID(ctx, id)
	if err == nil {
		user.Version--
	}
	return user, err
}

func timePtr(t time.Time) *time.Time { return &t }
