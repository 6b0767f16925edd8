package model

import "slices"

// ConversationAreaStatus controls how players may enter an area
type ConversationAreaStatus string

const (
	// StatusPublic areas are joined by walking in
	StatusPublic ConversationAreaStatus = "public"
	// StatusAvailableToRequest areas are joined only through an accepted join request
	StatusAvailableToRequest ConversationAreaStatus = "available_to_request"
	// StatusDoNotDisturb areas cannot be joined at all
	StatusDoNotDisturb ConversationAreaStatus = "do_not_disturb"
)

// IsValid returns true for a known status
func (s ConversationAreaStatus) IsValid() bool {
	switch s {
	case StatusPublic, StatusAvailableToRequest, StatusDoNotDisturb:
		return true
	default:
		return false
	}
}

// JoinRequestID uniquely identifies a pending join request
type JoinRequestID string

// JoinRequest is a pending petition by a player to enter a gated area
type JoinRequest struct {
	ID                JoinRequestID `json:"id"`
	PlayerID          PlayerID      `json:"player_id"`
	ConversationLabel string        `json:"conversation_label"`
}

// JoinRequestInfo is a join request enriched for display to the area admin
type JoinRequestInfo struct {
	JoinRequest
	UserName string `json:"user_name"`
	Topic    string `json:"topic"`
}

// ConversationArea is a labeled region of the map that groups players
type ConversationArea struct {
	Label       string                 `json:"label"`
	Topic       string                 `json:"topic"`
	BoundingBox BoundingBox            `json:"bounding_box"`
	Status      ConversationAreaStatus `json:"status"`
	// Capacity is nil when the area is unlimited
	Capacity      *int          `json:"capacity,omitempty"`
	OccupantsByID []PlayerID    `json:"occupants_by_id"`
	JoinRequests  []JoinRequest `json:"join_requests"`
}

// Clone returns a deep copy safe to hand outside the controller
func (a *ConversationArea) Clone() ConversationArea {
	c := *a
	if a.Capacity != nil {
		capacity := *a.Capacity
		c.Capacity = &capacity
	}
	c.OccupantsByID = slices.Clone(a.OccupantsByID)
	if c.OccupantsByID == nil {
		c.OccupantsByID = []PlayerID{}
	}
	c.JoinRequests = slices.Clone(a.JoinRequests)
	if c.JoinRequests == nil {
		c.JoinRequests = []JoinRequest{}
	}
	return c
}

// IsFull returns true if the area has a capacity and has reached it
func (a *ConversationArea) IsFull() bool {
	return a.Capacity != nil && len(a.OccupantsByID) >= *a.Capacity
}

// HasOccupant returns true if the player is an occupant of the area
func (a *ConversationArea) HasOccupant(playerID PlayerID) bool {
	return slices.Contains(a.OccupantsByID, playerID)
}

// HasJoinRequest returns true if the request is pending on the area
func (a *ConversationArea) HasJoinRequest(id JoinRequestID) bool {
	return slices.ContainsFunc(a.JoinRequests, func(r JoinRequest) bool {
		return r.ID == id
	})
}

// Capacity returns a pointer to n, for building areas with a capacity
func Capacity(n int) *int {
	return &n
}
