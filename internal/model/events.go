package model

import "time"

// EventType identifies the type of event
type EventType string

const (
	EventPlayerJoined            EventType = "player_joined"
	EventPlayerMoved             EventType = "player_moved"
	EventPlayerDisconnected      EventType = "player_disconnected"
	EventPlayerPermissionChanged EventType = "player_permission_changed"

	EventConversationAreaUpdated   EventType = "conversation_area_updated"
	EventConversationAreaDestroyed EventType = "conversation_area_destroyed"

	EventChatMessage   EventType = "chat_message"
	EventTownDestroyed EventType = "town_destroyed"
)

// Event is the base structure for all town events.
// Payloads carry copies of the affected entity, never references into
// controller state.
type Event struct {
	Type      EventType
	Timestamp time.Time
	TownID    TownID
	Payload   any // Type-specific data
}

// PlayerJoinedPayload contains data for player joined events
type PlayerJoinedPayload struct {
	Player Player `json:"player"`
}

// PlayerMovedPayload contains data for player moved events
type PlayerMovedPayload struct {
	Player Player `json:"player"`
}

// PlayerDisconnectedPayload contains data for player disconnected events
type PlayerDisconnectedPayload struct {
	Player Player `json:"player"`
}

// PlayerPermissionChangedPayload contains data for permission changed events
type PlayerPermissionChangedPayload struct {
	Player        Player     `json:"player"`
	OldPermission Permission `json:"old_permission"`
}

// ConversationAreaUpdatedPayload contains data for area updated events
type ConversationAreaUpdatedPayload struct {
	Area ConversationArea `json:"area"`
}

// ConversationAreaDestroyedPayload contains data for area destroyed events
type ConversationAreaDestroyedPayload struct {
	Area ConversationArea `json:"area"`
}

// ChatMessagePayload contains data for chat message events
type ChatMessagePayload struct {
	Message ChatMessage `json:"message"`
}

// TownDestroyedPayload contains data for town destroyed events
type TownDestroyedPayload struct {
	TownID TownID `json:"town_id"`
}
