package town

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
	"github.com/Yuqi1124/TownRecord/internal/dependencies/random"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/video"
)

const (
	// SessionTokenLength is the length of generated session tokens
	SessionTokenLength = 32
	// SessionTokenAlphabet is the characters used in session tokens
	SessionTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultCapacity is the maximum number of players in a town
	DefaultCapacity = 50
)

// Config holds the townwide attributes of a controller
type Config struct {
	ID               model.TownID
	FriendlyName     string
	IsPubliclyListed bool
	// Capacity is the maximum number of connected players; 0 uses DefaultCapacity
	Capacity int
	// PasswordHash is the bcrypt hash of the town update password
	PasswordHash []byte
}

// Controller is the authoritative state of a single town.
// Every exported method locks the town for its whole duration, so the
// town behaves as if all commands ran on one thread.
type Controller struct {
	id     model.TownID
	video  video.Issuer
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu           sync.Mutex
	friendlyName string
	isListed     bool
	capacity     int
	passwordHash []byte

	players     map[model.PlayerID]*model.Player
	playerOrder []model.PlayerID
	sessions    map[string]*model.Session

	areas        map[string]*model.ConversationArea
	areaOrder    []string
	joinRequests map[model.JoinRequestID]model.JoinRequest

	listenersMu      sync.RWMutex
	listeners        []subscriber
	nextSubscription Subscription
}

// NewController creates a new town Controller
func NewController(
	cfg Config,
	videoIssuer video.Issuer,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Controller{
		id:           cfg.ID,
		video:        videoIssuer,
		clock:        clock,
		random:       random,
		logger:       logger.With(slog.String("town", string(cfg.ID))),
		friendlyName: cfg.FriendlyName,
		isListed:     cfg.IsPubliclyListed,
		capacity:     capacity,
		passwordHash: cfg.PasswordHash,
		players:      make(map[model.PlayerID]*model.Player),
		sessions:     make(map[string]*model.Session),
		areas:        make(map[string]*model.ConversationArea),
		joinRequests: make(map[model.JoinRequestID]model.JoinRequest),
	}
}

// ID returns the town's unique identifier
func (c *Controller) ID() model.TownID {
	return c.id
}

// Info returns the town's public summary
func (c *Controller) Info() model.TownInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info()
}

func (c *Controller) info() model.TownInfo {
	return model.TownInfo{
		ID:               c.id,
		FriendlyName:     c.friendlyName,
		IsPubliclyListed: c.isListed,
		Occupancy:        len(c.players),
		Capacity:         c.capacity,
	}
}

// CheckPassword reports whether password matches the town update password
func (c *Controller) CheckPassword(password string) bool {
	c.mu.Lock()
	hash := c.passwordHash
	c.mu.Unlock()

	if len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// UpdateSettings changes the friendly name and listing flag after checking
// the update password. Nil fields are left unchanged.
func (c *Controller) UpdateSettings(password string, friendlyName *string, isPubliclyListed *bool) error {
	if !c.CheckPassword(password) {
		return model.ErrInvalidPassword
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if friendlyName != nil && *friendlyName != "" {
		c.friendlyName = *friendlyName
	}
	if isPubliclyListed != nil {
		c.isListed = *isPubliclyListed
	}

	c.logger.Info("town settings updated",
		slog.String("friendly_name", c.friendlyName),
		slog.Bool("is_publicly_listed", c.isListed),
	)
	return nil
}

// Join registers a new player and session. The video credential is
// requested before anything becomes visible; if it cannot be issued the
// town is left untouched.
func (c *Controller) Join(ctx context.Context, player model.Player) (*model.Session, error) {
	c.mu.Lock()
	err := c.checkCanJoin(player.ID)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	videoToken, err := c.video.IssueToken(ctx, string(c.id), string(player.ID))
	if err != nil {
		c.logger.Warn("video credential unavailable",
			slog.String("player_id", string(player.ID)),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", model.ErrVideoUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another join may have completed while the credential was outstanding
	if err := c.checkCanJoin(player.ID); err != nil {
		return nil, err
	}

	p := player
	p.ConversationLabel = ""
	p.ActiveJoinRequest = ""
	p.Permission = model.PermissionNormal
	if p.Location.Rotation == "" {
		p.Location.Rotation = model.DirectionFront
	}
	p.Location.ConversationLabel = ""

	session := &model.Session{
		Token:      c.newSessionToken(),
		PlayerID:   p.ID,
		VideoToken: videoToken,
		CreatedAt:  c.clock.Now(),
	}

	c.players[p.ID] = &p
	c.playerOrder = append(c.playerOrder, p.ID)
	c.sessions[session.Token] = session

	c.logger.Info("player joined",
		slog.String("player_id", string(p.ID)),
		slog.String("user_name", p.UserName),
		slog.Int("occupancy", len(c.players)),
	)

	c.emit(model.EventPlayerJoined, model.PlayerJoinedPayload{Player: p})

	result := *session
	return &result, nil
}

func (c *Controller) checkCanJoin(playerID model.PlayerID) error {
	if _, exists := c.players[playerID]; exists {
		return model.ErrPlayerAlreadyJoined
	}
	if len(c.players) >= c.capacity {
		return model.ErrTownFull
	}
	return nil
}

func (c *Controller) newSessionToken() string {
	for {
		token := c.random.String(SessionTokenLength, SessionTokenAlphabet)
		if _, exists := c.sessions[token]; !exists {
			return token
		}
	}
}

// Leave tears down the session with the given token and removes its player
func (c *Controller) Leave(sessionToken string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[sessionToken]
	if !ok {
		return false
	}
	delete(c.sessions, sessionToken)

	player, ok := c.players[session.PlayerID]
	if !ok {
		return true
	}
	delete(c.players, player.ID)
	c.playerOrder = removeID(c.playerOrder, player.ID)

	c.logger.Info("player left",
		slog.String("player_id", string(player.ID)),
		slog.Int("occupancy", len(c.players)),
	)

	c.emit(model.EventPlayerDisconnected, model.PlayerDisconnectedPayload{Player: *player})

	if player.HasJoinRequest() {
		c.withdrawJoinRequest(player.ActiveJoinRequest)
		player.ActiveJoinRequest = ""
	}
	if player.InConversation() {
		if area, ok := c.areas[player.ConversationLabel]; ok {
			c.removeFromConversationArea(player, area)
		}
	}
	return true
}

// DisconnectAll tells every listener the town is going away, then detaches
// them all so later teardown stays silent. It returns the occupancy at the
// moment of destruction. Player state is kept; the owner discards the
// controller afterwards.
func (c *Controller) DisconnectAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	occupancy := len(c.players)
	c.logger.Info("town destroyed", slog.Int("occupancy", occupancy))
	c.emit(model.EventTownDestroyed, model.TownDestroyedPayload{TownID: c.id})

	c.listenersMu.Lock()
	c.listeners = nil
	c.listenersMu.Unlock()
	return occupancy
}

// SendChatMessage relays a chat message to every listener
func (c *Controller) SendChatMessage(msg model.ChatMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.SentAt.IsZero() {
		msg.SentAt = c.clock.Now()
	}
	c.emit(model.EventChatMessage, model.ChatMessagePayload{Message: msg})
}

// SessionByToken returns a copy of the session with the given token
func (c *Controller) SessionByToken(token string) (*model.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, ok := c.sessions[token]
	if !ok {
		return nil, false
	}
	result := *session
	return &result, true
}

// Player returns a copy of the player with the given ID
func (c *Controller) Player(id model.PlayerID) (model.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, ok := c.players[id]
	if !ok {
		return model.Player{}, false
	}
	return *player, true
}

// Players returns copies of all players in join order
func (c *Controller) Players() []model.Player {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playersSnapshot()
}

func (c *Controller) playersSnapshot() []model.Player {
	players := make([]model.Player, 0, len(c.playerOrder))
	for _, id := range c.playerOrder {
		players = append(players, *c.players[id])
	}
	return players
}

// ConversationArea returns a copy of the area with the given label
func (c *Controller) ConversationArea(label string) (model.ConversationArea, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	area, ok := c.areas[label]
	if !ok {
		return model.ConversationArea{}, false
	}
	return area.Clone(), true
}

// ConversationAreas returns copies of all active areas in creation order
func (c *Controller) ConversationAreas() []model.ConversationArea {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.areasSnapshot()
}

func (c *Controller) areasSnapshot() []model.ConversationArea {
	areas := make([]model.ConversationArea, 0, len(c.areaOrder))
	for _, label := range c.areaOrder {
		areas = append(areas, c.areas[label].Clone())
	}
	return areas
}

// Snapshot returns the full town state as handed to a joining client
func (c *Controller) Snapshot() model.TownSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) snapshot() model.TownSnapshot {
	return model.TownSnapshot{
		Info:              c.info(),
		Players:           c.playersSnapshot(),
		ConversationAreas: c.areasSnapshot(),
	}
}

// setPermission changes a player's permission and announces it
func (c *Controller) setPermission(player *model.Player, permission model.Permission) {
	if player.Permission == permission {
		return
	}
	old := player.Permission
	player.Permission = permission
	c.emit(model.EventPlayerPermissionChanged, model.PlayerPermissionChangedPayload{
		Player:        *player,
		OldPermission: old,
	})
}

func removeID[T comparable](ids []T, id T) []T {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
