package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Yuqi1124/TownRecord/internal/api"
	"github.com/Yuqi1124/TownRecord/internal/api/request"
	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
	"github.com/Yuqi1124/TownRecord/internal/dependencies/random"
	"github.com/Yuqi1124/TownRecord/internal/observability"
	"github.com/Yuqi1124/TownRecord/internal/services/registry"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
	"github.com/Yuqi1124/TownRecord/internal/services/video"
	"github.com/Yuqi1124/TownRecord/internal/storage"
	"github.com/Yuqi1124/TownRecord/internal/storage/memory"
	"github.com/Yuqi1124/TownRecord/internal/web/ws"
)

// ephemeralKeyLength is the length of the signing key generated when none is configured
const ephemeralKeyLength = 48

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.TownStore

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Video  video.Issuer

	// Services
	Registry  *registry.Registry
	Metrics   *observability.Metrics
	Gatherer  prometheus.Gatherer
	Validate  *validator.Validate
	WSHandler *ws.Handler

	Logger *slog.Logger
}

// Config holds configuration for the application, read from the environment
type Config struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	// VideoSigningKey is shared with the video provider; if empty an
	// ephemeral key is generated and issued credentials die with the process
	VideoSigningKey string        `env:"VIDEO_SIGNING_KEY"`
	VideoTokenTTL   time.Duration `env:"VIDEO_TOKEN_TTL,default=1h"`

	// DefaultTownName, when set, creates one public town at startup
	DefaultTownName string `env:"DEFAULT_TOWN_NAME"`
	TownCapacity    int    `env:"TOWN_CAPACITY,default=50"`
}

// DefaultConfig returns the configuration used when nothing is set
func DefaultConfig() Config {
	return Config{
		Port:          8080,
		LogLevel:      "INFO",
		VideoTokenTTL: time.Hour,
		TownCapacity:  town.DefaultCapacity,
	}
}

// SlogLevel parses LogLevel, defaulting to info
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ServerConfig returns the HTTP server settings for this configuration
func (c Config) ServerConfig() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	return cfg
}

// New creates a new application with all dependencies wired.
// If logger is nil, a no-op logger is used.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	videoCfg := video.DefaultConfig()
	videoCfg.SigningKey = []byte(cfg.VideoSigningKey)
	if len(videoCfg.SigningKey) == 0 {
		logger.Warn("VIDEO_SIGNING_KEY not set, using an ephemeral key")
		videoCfg.SigningKey = []byte(rnd.String(ephemeralKeyLength, registry.PasswordAlphabet))
	}
	if cfg.VideoTokenTTL > 0 {
		videoCfg.TTL = cfg.VideoTokenTTL
	}
	issuer, err := video.NewJWTIssuer(videoCfg, clk)
	if err != nil {
		return nil, fmt.Errorf("create video issuer: %w", err)
	}

	registryCfg := registry.DefaultConfig()
	if cfg.TownCapacity > 0 {
		registryCfg.TownCapacity = cfg.TownCapacity
	}

	return newWithDependencies(memory.New(), clk, rnd, issuer, registryCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.TownStore,
	clk clock.Clock,
	rnd random.Random,
	issuer video.Issuer,
	registryCfg registry.Config,
	logger *slog.Logger,
) *App {
	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	validate := request.NewValidator()

	return &App{
		Storage:   store,
		Clock:     clk,
		Random:    rnd,
		Video:     issuer,
		Registry:  registry.New(registryCfg, store, issuer, clk, rnd, metrics, logger),
		Metrics:   metrics,
		Gatherer:  promRegistry,
		Validate:  validate,
		WSHandler: ws.NewHandler(validate, clk, logger),
		Logger:    logger,
	}
}

// Router returns the HTTP handler serving the API, websocket and metrics routes
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:    a.Logger,
		Registry:  a.Registry,
		WSHandler: a.WSHandler,
		Validate:  a.Validate,
		Gatherer:  a.Gatherer,
	})
}

// CreateDefaultTown creates the startup town when one is configured.
// It returns nil when no name is configured.
func (a *App) CreateDefaultTown(ctx context.Context, name string) (*registry.CreatedTown, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	return a.Registry.Create(ctx, name, true)
}
