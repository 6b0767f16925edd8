package model

import "time"

// Session binds a connected player to its authentication token and the
// video credential issued for it
type Session struct {
	Token      string    `json:"token"`
	PlayerID   PlayerID  `json:"player_id"`
	VideoToken string    `json:"video_token"`
	CreatedAt  time.Time `json:"created_at"`
}
