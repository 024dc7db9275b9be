package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("PREMIUM_EXPIRY_SWEEP_SCHEDULE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 8*time.Second, cfg.Entitlement.OperationTimeout())
	assert.Equal(t, 15*time.Second, cfg.Entitlement.LockTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Entitlement.ExpiringSoonWindow())
	assert.Equal(t, "TRY", cfg.Entitlement.DefaultCurrency)
	assert.Equal(t, 5*time.Second, cfg.Notification.WebhookTimeout())
	assert.Equal(t, 5.0, cfg.App.MutationRPS)
	assert.Equal(t, 10, cfg.App.MutationBurst)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 5*time.Minute, cfg.Entitlement.ExpirySweepTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENTITLEMENT_OPERATION_TIMEOUT_SECONDS", "5")
	t.Setenv("PREMIUM_EXPIRING_SOON_DAYS", "3")
	t.Setenv("PREMIUM_EXPIRY_SWEEP_SCHEDULE", "@every 1h")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PREMIUM_EXPIRY_SWEEP_TIMEOUT_SECONDS", "90")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Entitlement.OperationTimeout())
	assert.Equal(t, 3*24*time.Hour, cfg.Entitlement.ExpiringSoonWindow())
	assert.Equal(t, "@every 1h", cfg.Entitlement.ExpirySweepSchedule)
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 90*time.Second, cfg.Entitlement.ExpirySweepTimeout())
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	t.Setenv("PREMIUM_EXPIRY_SWEEP_SCHEDULE", "every now and then")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREMIUM_EXPIRY_SWEEP_SCHEDULE")
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("ENTITLEMENT_OPERATION_TIMEOUT_SECONDS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveSweepTimeout(t *testing.T) {
	t.Setenv("PREMIUM_EXPIRY_SWEEP_TIMEOUT_SECONDS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PREMIUM_EXPIRY_SWEEP_TIMEOUT_SECONDS")
}
