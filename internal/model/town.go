package model

// TownID uniquely identifies a town
type TownID string

// TownInfo is the public summary of a town
type TownInfo struct {
	ID               TownID `json:"id"`
	FriendlyName     string `json:"friendly_name"`
	IsPubliclyListed bool   `json:"is_publicly_listed"`
	Occupancy        int    `json:"current_occupancy"`
	Capacity         int    `json:"maximum_occupancy"`
}

// TownSnapshot is the state handed to a newly joined player
type TownSnapshot struct {
	Info              TownInfo           `json:"info"`
	Players           []Player           `json:"players"`
	ConversationAreas []ConversationArea `json:"conversation_areas"`
}
