package model

import "time"

// ChatMessage is a message relayed to everyone connected to a town
type ChatMessage struct {
	Author PlayerID `json:"author"`
	Body   string   `json:"body"`
	// ConversationLabel scopes the message to an area when set.
	// The server relays it to all listeners either way; clients filter.
	ConversationLabel string    `json:"conversation_label,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}
