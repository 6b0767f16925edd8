package model

// PlayerID uniquely identifies a player within a town
type PlayerID string

// Direction is the way a player's avatar is facing
type Direction string

const (
	DirectionFront Direction = "front"
	DirectionBack  Direction = "back"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Permission is the player's permission level.
// It is stored on the player but only has effect inside the conversation
// area the player administers.
type Permission string

const (
	PermissionNormal Permission = "normal"
	PermissionAdmin  Permission = "admin"
)

// UserLocation is the position a client reports for its player
type UserLocation struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Rotation Direction `json:"rotation"`
	Moving   bool      `json:"moving"`
	// ConversationLabel is the area the client believes the player is in.
	// Empty when the client reports no conversation.
	ConversationLabel string `json:"conversation_label,omitempty"`
}

// DefaultLocation is where new players spawn
func DefaultLocation() UserLocation {
	return UserLocation{
		X:        0,
		Y:        0,
		Rotation: DirectionFront,
		Moving:   false,
	}
}

// Player is a participant connected to a town.
// Relationships are kept as identifiers; the town controller owns the
// entities they point to.
type Player struct {
	ID         PlayerID     `json:"id"`
	UserName   string       `json:"user_name"`
	Location   UserLocation `json:"location"`
	Permission Permission   `json:"permission"`

	// ConversationLabel is the area the player is an occupant of, or empty
	ConversationLabel string `json:"active_conversation_label,omitempty"`
	// ActiveJoinRequest is the player's pending join request, or empty
	ActiveJoinRequest JoinRequestID `json:"active_join_request,omitempty"`
}

// NewPlayer creates a player at the default location with normal permission
func NewPlayer(id PlayerID, userName string) Player {
	return Player{
		ID:         id,
		UserName:   userName,
		Location:   DefaultLocation(),
		Permission: PermissionNormal,
	}
}

// IsAdmin returns true if the player holds admin permission
func (p Player) IsAdmin() bool {
	return p.Permission == PermissionAdmin
}

// InConversation returns true if the player is an occupant of some area
func (p Player) InConversation() bool {
	return p.ConversationLabel != ""
}

// HasJoinRequest returns true if the player has a pending join request
func (p Player) HasJoinRequest() bool {
	return p.ActiveJoinRequest != ""
}
