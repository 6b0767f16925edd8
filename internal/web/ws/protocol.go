package ws

import (
	"encoding/json"
	"time"

	"github.com/Yuqi1124/TownRecord/internal/model"
)

// Inbound command types
const (
	CommandPlayerMovement         = "player_movement"
	CommandChatMessage            = "chat_message"
	CommandCreateConversationArea = "create_conversation_area"
	CommandUpdateConversationArea = "update_conversation_area"
	CommandCreateJoinRequest      = "create_join_request"
	CommandResolveJoinRequest     = "resolve_join_request"
	CommandListJoinRequests       = "list_join_requests"
)

// Outbound message types that are not town events
const (
	MessageWelcome       = "welcome"
	MessageCommandResult = "command_result"
	MessageJoinRequests  = "join_requests"
	MessageError         = "error"
)

// Envelope is the frame of every message in both directions
type Envelope struct {
	Type string `json:"type"`
	// ID is chosen by the client and echoed in the reply to a command
	ID        string          `json:"id,omitempty"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// PlayerMovementCommand reports the player's new location
type PlayerMovementCommand struct {
	Location model.UserLocation `json:"location"`
}

// ChatMessageCommand sends a chat message
type ChatMessageCommand struct {
	Body              string `json:"body" validate:"required,max=2000"`
	ConversationLabel string `json:"conversation_label,omitempty"`
}

// CreateConversationAreaCommand creates an area around the player
type CreateConversationAreaCommand struct {
	Label       string                       `json:"label" validate:"required,max=100"`
	Topic       string                       `json:"topic" validate:"required,max=200"`
	BoundingBox model.BoundingBox            `json:"bounding_box"`
	Status      model.ConversationAreaStatus `json:"status,omitempty"`
	Capacity    *int                         `json:"capacity,omitempty"`
}

// UpdateConversationAreaCommand changes the status or capacity of an area
type UpdateConversationAreaCommand struct {
	Label         string                        `json:"label" validate:"required"`
	Status        *model.ConversationAreaStatus `json:"status,omitempty"`
	Capacity      *int                          `json:"capacity,omitempty"`
	ClearCapacity bool                          `json:"clear_capacity,omitempty"`
}

// CreateJoinRequestCommand asks to join a gated area
type CreateJoinRequestCommand struct {
	Label string `json:"label" validate:"required"`
}

// ResolveJoinRequestCommand accepts or denies a join request
type ResolveJoinRequestCommand struct {
	RequestID model.JoinRequestID `json:"request_id" validate:"required"`
	Accept    bool                `json:"accept"`
}

// ListJoinRequestsCommand asks for the requests pending on an area
type ListJoinRequestsCommand struct {
	Label string `json:"label" validate:"required"`
}

// WelcomePayload is sent once when the connection is established
type WelcomePayload struct {
	PlayerID model.PlayerID     `json:"player_id"`
	Snapshot model.TownSnapshot `json:"snapshot"`
}

// CommandResultPayload reports whether a command was carried out
type CommandResultPayload struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
}

// JoinRequestsPayload answers a list_join_requests command
type JoinRequestsPayload struct {
	Label    string                  `json:"label"`
	OK       bool                    `json:"ok"`
	Requests []model.JoinRequestInfo `json:"requests,omitempty"`
}

// ErrorPayload reports a frame that could not be understood
type ErrorPayload struct {
	Message string `json:"message"`
}

// encode renders a message as a JSON envelope
func encode(messageType, id string, timestamp *time.Time, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Type:      messageType,
		ID:        id,
		Timestamp: timestamp,
		Payload:   raw,
	})
}

// encodeEvent renders a town event as a JSON envelope
func encodeEvent(event model.Event) ([]byte, error) {
	ts := event.Timestamp
	return encode(string(event.Type), "", &ts, event.Payload)
}
