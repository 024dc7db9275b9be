package worker

import (
	"context"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer revokes lapsed premium grants.
type Expirer interface {
	ExpireLapsed(ctx context.Context) (int, error)
}

// ExpirySweep runs Expirer on a cron schedule.
type ExpirySweep struct {
	cron    *cron.Cron
	expirer Expirer
	logger  *zap.Logger
	timeout time.Duration
}

// StartExpirySweep schedules the sweep with a standard five field cron spec.
// An empty spec disables the sweep and returns nil.
func StartExpirySweep(spec string, expirer Expirer, timeout time.Duration, logger *zap.Logger) (*ExpirySweep, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" || expirer == nil {
		logger.Info("premium expiry sweep disabled")
		return nil, nil
	}

	sweep := &ExpirySweep{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		expirer: expirer,
		logger:  logger,
		timeout: timeout,
	}
	if _, err := sweep.cron.AddFunc(spec, sweep.Run); err != nil {
		return nil, err
	}
	sweep.cron.Start()
	logger.Info("premium expiry sweep scheduled", zap.String("schedule", spec))
	return sweep, nil
}

// Run performs one sweep.
func (s *ExpirySweep) Run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	count, err := s.expirer.ExpireLapsed(ctx)
	if err != nil {
		s.logger.Error("premium expiry sweep failed", zap.Int("expired", count), zap.Error(err))
		return
	}
	s.logger.Info("premium expiry sweep finished",
		zap.Int("expired", count),
		zap.Duration("took", time.Since(start)))
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *ExpirySweep) Stop() {
	if s == nil {
		return
	}
	<-s.cron.Stop().Done()
}
