package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventra-app/admin-service/internal/config"
	"github.com/eventra-app/admin-service/internal/events"
	"github.com/eventra-app/admin-service/internal/lock"
	"github.com/eventra-app/admin-service/internal/observability"
	"github.com/eventra-app/admin-service/internal/repository"
	"github.com/eventra-app/admin-service/pkg/util/errorutil"
)

// Dependencies bundles collaborators shared by the workflow services.
type Dependencies struct {
	Store      repository.Store
	Locker     lock.Locker
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Config     config.EntitlementConfig
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// runner executes one workflow call: bounded by the operation timeout,
// serialized on entity locks, with outcomes counted.
type runner struct {
	store      repository.Store
	locker     lock.Locker
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.EntitlementConfig
	clock      func() time.Time
}

func newRunner(deps Dependencies) runner {
	r := runner{
		store:      deps.Store,
		locker:     deps.Locker,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        deps.Config,
		clock:      deps.Clock,
	}
	if r.locker == nil {
		r.locker = lock.NewLocalLocker()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.cfg.OperationTimeoutSeconds <= 0 {
		r.cfg.OperationTimeoutSeconds = 8
	}
	return r
}

func (r runner) now() time.Time {
	return r.clock().UTC()
}

// withTimeout derives the per-operation context.
func (r runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.cfg.OperationTimeout())
}

// acquire takes the entity lock for key.
func (r runner) acquire(ctx context.Context, key string) (func(), error) {
	release, err := r.locker.Acquire(ctx, key)
	if err != nil {
		r.logger.Warn("entity lock unavailable", zap.String("key", key), zap.Error(err))
		return nil, errorutil.NewInfrastructureError(err)
	}
	return release, nil
}

func (r runner) record(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = errorutil.ToDomainError(err).Code
	}
	r.metrics.RecordOperation(operation, outcome)
}

func (r runner) publish(ctx context.Context, event events.Event) {
	if r.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if err := r.dispatcher.Publish(ctx, event); err != nil {
		r.logger.Warn("publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// storeError classifies a repository error. Missing rows become NOT_FOUND
// for resource, lost version races become CONFLICT and everything else is an
// infrastructure failure.
func storeError(err error, resource string, details map[string]any) error {
	var domainErr *errorutil.DomainError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &domainErr):
		return domainErr
	case errors.Is(err, repository.ErrNotFound):
		return errorutil.NewNotFound(resource, details)
	case errors.Is(err, repository.ErrVersionConflict):
		return errorutil.NewConflict(resource+" was modified concurrently", details)
	default:
		return errorutil.NewInfrastructureError(err)
	}
}

// requireID validates a row identifier.
func requireID(field, value string) error {
	if value == "" {
		return errorutil.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	if _, err := uuid.Parse(value); err != nil {
		return errorutil.NewValidationError(field+" must be a UUID", map[string]any{"field": field})
	}
	return nil
}
