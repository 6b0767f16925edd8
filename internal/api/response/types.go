package response

import (
	"github.com/Yuqi1124/TownRecord/internal/model"
)

// Town represents a listed town in API responses
type Town struct {
	TownID           string `json:"town_id"`
	FriendlyName     string `json:"friendly_name"`
	CurrentOccupancy int    `json:"current_occupancy"`
	MaximumOccupancy int    `json:"maximum_occupancy"`
	IsPubliclyListed bool   `json:"is_publicly_listed"`
}

// TownFromModel converts a model.TownInfo
func TownFromModel(info model.TownInfo) Town {
	return Town{
		TownID:           string(info.ID),
		FriendlyName:     info.FriendlyName,
		CurrentOccupancy: info.Occupancy,
		MaximumOccupancy: info.Capacity,
		IsPubliclyListed: info.IsPubliclyListed,
	}
}

// ListTownsResponse is the response for listing towns
type ListTownsResponse struct {
	Towns []Town `json:"towns"`
}

// CreateTownResponse is the response after creating a town.
// The password is only ever returned here.
type CreateTownResponse struct {
	TownID             string `json:"town_id"`
	TownUpdatePassword string `json:"town_update_password"`
}

// JoinTownResponse is the response after joining a town
type JoinTownResponse struct {
	PlayerID          string                   `json:"player_id"`
	SessionToken      string                   `json:"session_token"`
	VideoToken        string                   `json:"video_token"`
	FriendlyName      string                   `json:"friendly_name"`
	IsPubliclyListed  bool                     `json:"is_publicly_listed"`
	Players           []model.Player           `json:"players"`
	ConversationAreas []model.ConversationArea `json:"conversation_areas"`
}

// JoinTownResponseFromModel builds a join response from the new session and
// the town state at the time of joining
func JoinTownResponseFromModel(session *model.Session, snapshot model.TownSnapshot) JoinTownResponse {
	return JoinTownResponse{
		PlayerID:          string(session.PlayerID),
		SessionToken:      session.Token,
		VideoToken:        session.VideoToken,
		FriendlyName:      snapshot.Info.FriendlyName,
		IsPubliclyListed:  snapshot.Info.IsPubliclyListed,
		Players:           snapshot.Players,
		ConversationAreas: snapshot.ConversationAreas,
	}
}
