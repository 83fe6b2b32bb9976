package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.True(t, cfg.GuestStartBalance.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 5*time.Second, cfg.SettlementTimeout)
	assert.Equal(t, 4, cfg.ReportWorkers)
	assert.Zero(t, cfg.SessionIdleTTL)
	assert.False(t, cfg.PlatformEnabled())
}

func TestParse_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Parse()
	assert.Error(t, err)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SETTLEMENT_URL", "http://platform.local")
	t.Setenv("SETTLEMENT_TIMEOUT", "2s")
	t.Setenv("MIN_BET", "1")
	t.Setenv("MAX_BET", "500")
	t.Setenv("GUEST_START_BALANCE", "250.50")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.PlatformEnabled())
	assert.Equal(t, 2*time.Second, cfg.SettlementTimeout)
	assert.True(t, cfg.MaxBet.Equal(decimal.NewFromInt(500)))
	assert.True(t, cfg.GuestStartBalance.Equal(decimal.RequireFromString("250.5")))
}

func TestValidate_BetLimits(t *testing.T) {
	cfg := Config{
		MinBet:               decimal.NewFromInt(10),
		MaxBet:               decimal.NewFromInt(5),
		SettlementTimeout:    time.Second,
		ReportWorkers:        1,
		ReportMaxAttempts:    1,
		SessionSweepInterval: time.Minute,
	}
	assert.Error(t, cfg.Validate())

	cfg.MaxBet = decimal.NewFromInt(50)
	assert.NoError(t, cfg.Validate())

	cfg.SessionIdleTTL = -time.Second
	assert.Error(t, cfg.Validate())
}
