package registry

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/crypto/bcrypt"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
	"github.com/Yuqi1124/TownRecord/internal/dependencies/random"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
	"github.com/Yuqi1124/TownRecord/internal/services/video"
	"github.com/Yuqi1124/TownRecord/internal/storage"
)

const (
	// TownIDLength is the length of generated town ids
	TownIDLength = 6
	// TownIDAlphabet is the characters used in town ids (avoid confusing chars)
	TownIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// PasswordLength is the length of generated town update passwords
	PasswordLength = 24
	// PasswordAlphabet is the characters used in town update passwords
	PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// Config holds registry settings applied to every town it creates
type Config struct {
	// TownCapacity is the player limit of new towns; 0 uses the town default
	TownCapacity int
	// PasswordCost is the bcrypt cost for update passwords
	PasswordCost int
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		TownCapacity: town.DefaultCapacity,
		PasswordCost: bcrypt.DefaultCost,
	}
}

// Hooks observes the lifecycle of towns
type Hooks interface {
	TownCreated()
	TownDeleted(occupancy int)
	JoinFailed(reason string)
	// Listener is subscribed to every new town
	Listener() town.Listener
}

// CreatedTown is the result of creating a town
type CreatedTown struct {
	Controller *town.Controller
	// Password is the town update password; it is only available here
	Password string
}

// Registry creates, finds and destroys town controllers
type Registry struct {
	config  Config
	storage storage.TownStore
	video   video.Issuer
	clock   clock.Clock
	random  random.Random
	hooks   Hooks
	logger  *slog.Logger
}

// New creates a new Registry. hooks may be nil.
func New(
	config Config,
	storage storage.TownStore,
	videoIssuer video.Issuer,
	clock clock.Clock,
	random random.Random,
	hooks Hooks,
	logger *slog.Logger,
) *Registry {
	if config.PasswordCost == 0 {
		config.PasswordCost = bcrypt.DefaultCost
	}
	return &Registry{
		config:  config,
		storage: storage,
		video:   videoIssuer,
		clock:   clock,
		random:  random,
		hooks:   hooks,
		logger:  logger,
	}
}

// Create starts a new town with a fresh id and update password
func (r *Registry) Create(ctx context.Context, friendlyName string, isPubliclyListed bool) (*CreatedTown, error) {
	friendlyName = strings.TrimSpace(friendlyName)
	if friendlyName == "" {
		return nil, model.ErrInvalidTownName
	}

	// Generate unique town id
	var id model.TownID
	for {
		id = model.TownID(r.random.String(TownIDLength, TownIDAlphabet))
		exists, err := r.storage.TownExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	password := r.random.String(PasswordLength, PasswordAlphabet)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.config.PasswordCost)
	if err != nil {
		return nil, err
	}

	controller := town.NewController(town.Config{
		ID:               id,
		FriendlyName:     friendlyName,
		IsPubliclyListed: isPubliclyListed,
		Capacity:         r.config.TownCapacity,
		PasswordHash:     hash,
	}, r.video, r.clock, r.random, r.logger)

	if r.hooks != nil {
		controller.Subscribe(r.hooks.Listener())
	}

	if err := r.storage.SaveTown(ctx, controller); err != nil {
		return nil, err
	}
	if r.hooks != nil {
		r.hooks.TownCreated()
	}

	r.logger.Info("town created",
		slog.String("town", string(id)),
		slog.String("friendly_name", friendlyName),
		slog.Bool("is_publicly_listed", isPubliclyListed),
	)

	return &CreatedTown{Controller: controller, Password: password}, nil
}

// Find returns the controller for a town
func (r *Registry) Find(ctx context.Context, id model.TownID) (*town.Controller, error) {
	return r.storage.GetTown(ctx, id)
}

// Join adds a new player with a generated id to a town
func (r *Registry) Join(ctx context.Context, id model.TownID, userName string) (*town.Controller, *model.Session, error) {
	controller, err := r.storage.GetTown(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	player := model.NewPlayer(model.PlayerID(r.random.UUID()), strings.TrimSpace(userName))
	session, err := controller.Join(ctx, player)
	if err != nil {
		if r.hooks != nil {
			r.hooks.JoinFailed(joinFailureReason(err))
		}
		return nil, nil, err
	}
	return controller, session, nil
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, model.ErrTownFull):
		return "town_full"
	case errors.Is(err, model.ErrVideoUnavailable):
		return "video_unavailable"
	case errors.Is(err, model.ErrPlayerAlreadyJoined):
		return "already_joined"
	default:
		return "other"
	}
}

// List returns the publicly listed towns with their current occupancy
func (r *Registry) List(ctx context.Context) ([]model.TownInfo, error) {
	towns, err := r.storage.ListTowns(ctx)
	if err != nil {
		return nil, err
	}
	infos := lo.Map(towns, func(c *town.Controller, _ int) model.TownInfo {
		return c.Info()
	})
	return lo.Filter(infos, func(info model.TownInfo, _ int) bool {
		return info.IsPubliclyListed
	}), nil
}

// Update changes a town's name and listing after checking its password
func (r *Registry) Update(ctx context.Context, id model.TownID, password string, friendlyName *string, isPubliclyListed *bool) error {
	controller, err := r.storage.GetTown(ctx, id)
	if err != nil {
		return err
	}
	if friendlyName != nil {
		trimmed := strings.TrimSpace(*friendlyName)
		if trimmed == "" {
			return model.ErrInvalidTownName
		}
		friendlyName = &trimmed
	}
	return controller.UpdateSettings(password, friendlyName, isPubliclyListed)
}

// Delete disconnects everyone from a town and discards it
func (r *Registry) Delete(ctx context.Context, id model.TownID, password string) error {
	controller, err := r.storage.GetTown(ctx, id)
	if err != nil {
		return err
	}
	if !controller.CheckPassword(password) {
		return model.ErrInvalidPassword
	}

	occupancy := controller.DisconnectAll()
	if err := r.storage.DeleteTown(ctx, id); err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.TownDeleted(occupancy)
	}

	r.logger.Info("town deleted", slog.String("town", string(id)))
	return nil
}

// Shutdown disconnects every town
func (r *Registry) Shutdown(ctx context.Context) error {
	towns, err := r.storage.ListTowns(ctx)
	if err != nil {
		return err
	}
	for _, c := range towns {
		c.DisconnectAll()
	}
	return nil
}
