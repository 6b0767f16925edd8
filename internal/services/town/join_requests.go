package town

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/Yuqi1124/TownRecord/internal/model"
)

// CreateJoinRequest asks to join a gated area. The request is linked from
// both the player and the area. If the area is already full it is denied
// straight away, which listeners see as a second area update.
func (c *Controller) CreateJoinRequest(label string, playerID model.PlayerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	area, ok := c.areas[label]
	if !ok || area.Status != model.StatusAvailableToRequest {
		return false
	}
	player, ok := c.players[playerID]
	if !ok {
		return false
	}
	if player.InConversation() || player.HasJoinRequest() {
		return false
	}
	if !area.BoundingBox.Contains(player.Location.X, player.Location.Y) {
		return false
	}

	req := model.JoinRequest{
		ID:                model.JoinRequestID(c.random.UUID()),
		PlayerID:          playerID,
		ConversationLabel: label,
	}
	c.joinRequests[req.ID] = req
	area.JoinRequests = append(area.JoinRequests, req)
	player.ActiveJoinRequest = req.ID

	c.logger.Info("join request created",
		slog.String("request_id", string(req.ID)),
		slog.String("player_id", string(playerID)),
		slog.String("label", label),
	)

	c.emitAreaUpdated(area)

	if area.IsFull() {
		c.denyJoinRequest(req.ID)
	}
	return true
}

// AcceptJoinRequest admits the requesting player to the area
func (c *Controller) AcceptJoinRequest(id model.JoinRequestID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acceptJoinRequest(id)
}

// DenyJoinRequest discards a pending request without granting membership
func (c *Controller) DenyJoinRequest(id model.JoinRequestID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.denyJoinRequest(id)
}

// ResolveJoinRequest accepts or denies a request on behalf of a player.
// A normal player may only deny their own request. An admin may accept or
// deny requests pending on the area they occupy.
func (c *Controller) ResolveJoinRequest(actorID model.PlayerID, accept bool, id model.JoinRequestID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	actor, ok := c.players[actorID]
	if !ok {
		return false
	}
	req, ok := c.joinRequests[id]
	if !ok {
		return false
	}

	if !actor.IsAdmin() {
		if accept || req.PlayerID != actorID || actor.ActiveJoinRequest != id {
			return false
		}
		return c.denyJoinRequest(id)
	}

	area, ok := c.areas[actor.ConversationLabel]
	if !ok || !area.HasOccupant(actorID) || area.Label != req.ConversationLabel || !area.HasJoinRequest(id) {
		return false
	}
	if accept {
		return c.acceptJoinRequest(id)
	}
	return c.denyJoinRequest(id)
}

// ListJoinRequests returns the requests pending on an area. Only an admin
// occupying the area may list them; anyone else gets false.
func (c *Controller) ListJoinRequests(label string, playerID model.PlayerID) ([]model.JoinRequestInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	area, ok := c.areas[label]
	if !ok {
		return nil, false
	}
	player, ok := c.players[playerID]
	if !ok || !player.IsAdmin() || !area.HasOccupant(playerID) {
		return nil, false
	}

	return lo.Map(area.JoinRequests, func(req model.JoinRequest, _ int) model.JoinRequestInfo {
		info := model.JoinRequestInfo{JoinRequest: req, Topic: area.Topic}
		if requester, ok := c.players[req.PlayerID]; ok {
			info.UserName = requester.UserName
		}
		return info
	}), true
}

func (c *Controller) acceptJoinRequest(id model.JoinRequestID) bool {
	req, area, player, ok := c.lookupJoinRequest(id)
	if !ok {
		return false
	}
	if area.IsFull() {
		// Full since the request was made; the request cannot be honored
		c.denyJoinRequest(id)
		return false
	}

	c.unlinkJoinRequest(req)

	if player.InConversation() && player.ConversationLabel != area.Label {
		if prev, ok := c.areas[player.ConversationLabel]; ok {
			c.removeFromConversationArea(player, prev)
		}
	}
	if !area.HasOccupant(player.ID) {
		area.OccupantsByID = append(area.OccupantsByID, player.ID)
	}
	player.ConversationLabel = area.Label
	player.Location.ConversationLabel = area.Label

	c.logger.Info("join request accepted",
		slog.String("request_id", string(id)),
		slog.String("player_id", string(player.ID)),
		slog.String("label", area.Label),
	)

	c.emitPlayerMoved(player)

	if area.IsFull() {
		c.denyAllJoinRequests(area)
	}
	c.emitAreaUpdated(area)
	return true
}

func (c *Controller) denyJoinRequest(id model.JoinRequestID) bool {
	req, area, player, ok := c.lookupJoinRequest(id)
	if !ok {
		return false
	}

	c.unlinkJoinRequest(req)

	c.logger.Info("join request denied",
		slog.String("request_id", string(id)),
		slog.String("player_id", string(player.ID)),
		slog.String("label", area.Label),
	)

	c.emitPlayerMoved(player)
	c.emitAreaUpdated(area)
	return true
}

// withdrawJoinRequest drops a request because its player has moved on or
// left. Only the area is announced; the caller reports the player.
func (c *Controller) withdrawJoinRequest(id model.JoinRequestID) {
	req, ok := c.joinRequests[id]
	if !ok {
		return
	}
	c.unlinkJoinRequest(req)
	if area, ok := c.areas[req.ConversationLabel]; ok {
		c.emitAreaUpdated(area)
	}
}

func (c *Controller) acceptAllJoinRequests(area *model.ConversationArea) {
	for len(area.JoinRequests) > 0 {
		req := area.JoinRequests[0]
		if !c.acceptJoinRequest(req.ID) {
			c.unlinkJoinRequest(req)
		}
	}
}

func (c *Controller) denyAllJoinRequests(area *model.ConversationArea) {
	for len(area.JoinRequests) > 0 {
		req := area.JoinRequests[0]
		if !c.denyJoinRequest(req.ID) {
			c.unlinkJoinRequest(req)
		}
	}
}

// lookupJoinRequest resolves a request and both of its ends
func (c *Controller) lookupJoinRequest(id model.JoinRequestID) (model.JoinRequest, *model.ConversationArea, *model.Player, bool) {
	req, ok := c.joinRequests[id]
	if !ok {
		return model.JoinRequest{}, nil, nil, false
	}
	area, ok := c.areas[req.ConversationLabel]
	if !ok || !area.HasJoinRequest(id) {
		return model.JoinRequest{}, nil, nil, false
	}
	player, ok := c.players[req.PlayerID]
	if !ok {
		return model.JoinRequest{}, nil, nil, false
	}
	return req, area, player, true
}

// unlinkJoinRequest removes a request from the index, its area and its
// player. Safe to call on a request that is already gone.
func (c *Controller) unlinkJoinRequest(req model.JoinRequest) {
	delete(c.joinRequests, req.ID)
	if area, ok := c.areas[req.ConversationLabel]; ok {
		area.JoinRequests = lo.Reject(area.JoinRequests, func(r model.JoinRequest, _ int) bool {
			return r.ID == req.ID
		})
	}
	if player, ok := c.players[req.PlayerID]; ok && player.ActiveJoinRequest == req.ID {
		player.ActiveJoinRequest = ""
	}
}
