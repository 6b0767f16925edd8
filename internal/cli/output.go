package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	if _, ok := data.(EventLine); !ok {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case TownList:
		o.printTownList(v)
	case CreatedTown:
		o.printCreatedTown(v)
	case JoinResult:
		o.printJoinResult(v)
	case EventLine:
		o.printEventLine(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Town response type (matches API)
type Town struct {
	TownID           string `json:"town_id"`
	FriendlyName     string `json:"friendly_name"`
	CurrentOccupancy int    `json:"current_occupancy"`
	MaximumOccupancy int    `json:"maximum_occupancy"`
	IsPubliclyListed bool   `json:"is_publicly_listed"`
}

// TownList response type
type TownList struct {
	Towns []Town `json:"towns"`
}

// CreatedTown response type
type CreatedTown struct {
	TownID             string `json:"town_id"`
	TownUpdatePassword string `json:"town_update_password"`
}

// Player is the subset of a player shown by the CLI
type Player struct {
	ID       string `json:"id"`
	UserName string `json:"user_name"`
}

// ConversationArea is the subset of an area shown by the CLI
type ConversationArea struct {
	Label         string   `json:"label"`
	Topic         string   `json:"topic"`
	Status        string   `json:"status"`
	OccupantsByID []string `json:"occupants_by_id"`
}

// JoinResult response type
type JoinResult struct {
	PlayerID          string             `json:"player_id"`
	SessionToken      string             `json:"session_token"`
	VideoToken        string             `json:"video_token"`
	FriendlyName      string             `json:"friendly_name"`
	Players           []Player           `json:"players"`
	ConversationAreas []ConversationArea `json:"conversation_areas"`
}

// EventLine is one message received while watching a town
type EventLine struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Server  string `json:"server"`
	Latency string `json:"latency"`
}

func (o *Output) printTownList(l TownList) {
	if len(l.Towns) == 0 {
		fmt.Fprintln(o.w, "No public towns")
		return
	}
	for _, t := range l.Towns {
		fmt.Fprintf(o.w, "%s  %-24s %d/%d\n", t.TownID, t.FriendlyName, t.CurrentOccupancy, t.MaximumOccupancy)
	}
}

func (o *Output) printCreatedTown(c CreatedTown) {
	fmt.Fprintf(o.w, "Town: %s\n", c.TownID)
	fmt.Fprintf(o.w, "Update password: %s\n", c.TownUpdatePassword)
}

func (o *Output) printJoinResult(j JoinResult) {
	fmt.Fprintf(o.w, "Joined %s as %s\n", j.FriendlyName, j.PlayerID)
	fmt.Fprintf(o.w, "Token: %s\n", j.SessionToken)
	fmt.Fprintf(o.w, "Players (%d):\n", len(j.Players))
	for _, p := range j.Players {
		fmt.Fprintf(o.w, "  - %s (%s)\n", p.UserName, p.ID)
	}
	if len(j.ConversationAreas) > 0 {
		fmt.Fprintf(o.w, "Conversation areas (%d):\n", len(j.ConversationAreas))
		for _, a := range j.ConversationAreas {
			fmt.Fprintf(o.w, "  - %s: %s [%s] %s\n", a.Label, a.Topic, a.Status, strings.Join(a.OccupantsByID, ", "))
		}
	}
}

func (o *Output) printEventLine(e EventLine) {
	// Truncate payload if it's too long for display
	payload := string(e.Payload)
	if len(payload) > 100 {
		payload = payload[:100] + "..."
	}
	fmt.Fprintf(o.w, "[%s] %s: %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Type, payload)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Server: %s (%s)\n", h.Server, h.Latency)
}
