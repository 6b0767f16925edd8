package factory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yuqi1124/TownRecord/internal/testutil"
)

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VIDEO_TOKEN_TTL", "15m")
	t.Setenv("TOWN_CAPACITY", "8")
	t.Setenv("DEFAULT_TOWN_NAME", "Lobby")

	cfg := DefaultConfig()
	_, err := env.UnmarshalFromEnviron(&cfg)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 15*time.Minute, cfg.VideoTokenTTL)
	assert.Equal(t, 8, cfg.TownCapacity)
	assert.Equal(t, "Lobby", cfg.DefaultTownName)
	assert.Equal(t, 9090, cfg.ServerConfig().Port)
}

func TestUnknownLogLevelFallsBackToInfo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "chatty"

	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestNewWithoutSigningKeyWarns(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	app, err := New(DefaultConfig(), logger)
	require.NoError(t, err)
	require.NotNil(t, app.Registry)

	assert.Contains(t, logs.Messages(), "VIDEO_SIGNING_KEY not set, using an ephemeral key")
}

func TestNewAppliesTownCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VideoSigningKey = "test-key"
	cfg.TownCapacity = 2

	app, err := New(cfg, testutil.NopLogger())
	require.NoError(t, err)

	created, err := app.CreateDefaultTown(context.Background(), "Square")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 2, created.Controller.Info().Capacity)
	assert.True(t, created.Controller.Info().IsPubliclyListed)
}

func TestCreateDefaultTownSkipsBlankName(t *testing.T) {
	app := NewTestApp()

	created, err := app.CreateDefaultTown(context.Background(), "  ")
	require.NoError(t, err)
	assert.Nil(t, created)
}
