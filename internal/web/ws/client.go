package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/Yuqi1124/TownRecord/internal/dependencies/clock"
	"github.com/Yuqi1124/TownRecord/internal/model"
	"github.com/Yuqi1124/TownRecord/internal/services/town"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Time between pings; must be less than pongWait
	pingPeriod = 30 * time.Second

	// Maximum inbound message size
	maxMessageSize = 64 * 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one player's websocket connection to a town. It is a town
// listener: events are encoded as they happen and queued for the write pump.
type Client struct {
	conn     *websocket.Conn
	town     *town.Controller
	session  model.Session
	validate *validator.Validate
	clock    clock.Clock
	logger   *slog.Logger

	send chan []byte

	// destroyed is closed once the town announces it is going away
	destroyed   chan struct{}
	destroyOnce sync.Once

	// quit is closed when the read pump stops
	quit chan struct{}

	connectedAt time.Time
}

func newClient(
	conn *websocket.Conn,
	controller *town.Controller,
	session model.Session,
	validate *validator.Validate,
	clk clock.Clock,
	logger *slog.Logger,
) *Client {
	return &Client{
		conn:        conn,
		town:        controller,
		session:     session,
		validate:    validate,
		clock:       clk,
		logger:      logger.With(slog.String("player_id", string(session.PlayerID))),
		send:        make(chan []byte, sendBufferSize),
		destroyed:   make(chan struct{}),
		quit:        make(chan struct{}),
		connectedAt: clk.Now(),
	}
}

// HandleEvent queues the event for delivery to the peer
func (c *Client) HandleEvent(event model.Event) {
	msg, err := encodeEvent(event)
	if err != nil {
		c.logger.Error("ws failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return
	}
	c.enqueue(msg)

	if event.Type == model.EventTownDestroyed {
		c.destroyOnce.Do(func() { close(c.destroyed) })
	}
}

func (c *Client) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("ws message dropped - client buffer full")
	}
}

func (c *Client) reply(messageType, id string, payload any) {
	msg, err := encode(messageType, id, nil, payload)
	if err != nil {
		c.logger.Error("ws failed to encode reply",
			slog.String("type", messageType),
			slog.Any("error", err))
		return
	}
	c.enqueue(msg)
}

// run serves the connection until either side closes it
func (c *Client) run() {
	// The welcome is queued ahead of every event that follows its snapshot
	sub := c.town.SubscribeWithSnapshot(c, func(snapshot model.TownSnapshot) {
		c.reply(MessageWelcome, "", WelcomePayload{
			PlayerID: c.session.PlayerID,
			Snapshot: snapshot,
		})
	})

	done := make(chan struct{})
	go c.writePump(done)

	c.readPump()
	close(c.quit)
	<-done

	c.town.Unsubscribe(sub)

	select {
	case <-c.destroyed:
		// The town is being discarded; its players go with it
	default:
		c.town.Leave(c.session.Token)
	}

	c.logger.Info("ws client disconnected",
		slog.Duration("connection_duration", c.clock.Since(c.connectedAt)))
}

func (c *Client) writePump(done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
		close(done)
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.destroyed:
			c.flush()
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "town destroyed"),
				time.Now().Add(writeWait))
			return

		case <-c.quit:
			return
		}
	}
}

// flush writes whatever is already queued
func (c *Client) flush() {
	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(msg []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", slog.Any("error", err))
			}
			return
		}
		c.handleCommand(msg)
	}
}

func (c *Client) handleCommand(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.reply(MessageError, "", ErrorPayload{Message: "malformed message"})
		return
	}

	playerID := c.session.PlayerID

	switch env.Type {
	case CommandPlayerMovement:
		var cmd PlayerMovementCommand
		if c.decode(env, &cmd) {
			c.town.Move(playerID, cmd.Location)
		}

	case CommandChatMessage:
		var cmd ChatMessageCommand
		if c.decode(env, &cmd) {
			c.town.SendChatMessage(model.ChatMessage{
				Author:            playerID,
				Body:              cmd.Body,
				ConversationLabel: cmd.ConversationLabel,
			})
		}

	case CommandCreateConversationArea:
		var cmd CreateConversationAreaCommand
		if c.decode(env, &cmd) {
			ok := c.town.CreateConversationArea(model.ConversationArea{
				Label:       cmd.Label,
				Topic:       cmd.Topic,
				BoundingBox: cmd.BoundingBox,
				Status:      cmd.Status,
				Capacity:    cmd.Capacity,
			}, playerID)
			c.result(env, ok)
		}

	case CommandUpdateConversationArea:
		var cmd UpdateConversationAreaCommand
		if c.decode(env, &cmd) {
			ok := c.town.UpdateConversationArea(cmd.Label, playerID, town.AreaUpdate{
				Status:        cmd.Status,
				Capacity:      cmd.Capacity,
				ClearCapacity: cmd.ClearCapacity,
			})
			c.result(env, ok)
		}

	case CommandCreateJoinRequest:
		var cmd CreateJoinRequestCommand
		if c.decode(env, &cmd) {
			c.result(env, c.town.CreateJoinRequest(cmd.Label, playerID))
		}

	case CommandResolveJoinRequest:
		var cmd ResolveJoinRequestCommand
		if c.decode(env, &cmd) {
			c.result(env, c.town.ResolveJoinRequest(playerID, cmd.Accept, cmd.RequestID))
		}

	case CommandListJoinRequests:
		var cmd ListJoinRequestsCommand
		if c.decode(env, &cmd) {
			requests, ok := c.town.ListJoinRequests(cmd.Label, playerID)
			c.reply(MessageJoinRequests, env.ID, JoinRequestsPayload{
				Label:    cmd.Label,
				OK:       ok,
				Requests: requests,
			})
		}

	default:
		c.reply(MessageError, env.ID, ErrorPayload{Message: "unknown command: " + env.Type})
	}
}

// decode unmarshals and validates a command payload, replying with an
// error when it is unusable
func (c *Client) decode(env Envelope, cmd any) bool {
	if len(env.Payload) == 0 {
		c.reply(MessageError, env.ID, ErrorPayload{Message: "missing payload"})
		return false
	}
	if err := json.Unmarshal(env.Payload, cmd); err != nil {
		c.reply(MessageError, env.ID, ErrorPayload{Message: "invalid payload"})
		return false
	}
	if err := c.validate.Struct(cmd); err != nil {
		c.reply(MessageError, env.ID, ErrorPayload{Message: err.Error()})
		return false
	}
	return true
}

func (c *Client) result(env Envelope, ok bool) {
	c.reply(MessageCommandResult, env.ID, CommandResultPayload{Command: env.Type, OK: ok})
}
