package town

import (
	"log/slog"

	"github.com/samber/lo"

	"github.com/Yuqi1124/TownRecord/internal/model"
)

// AreaUpdate holds the changes an admin can make to their area.
// Nil fields are left unchanged.
type AreaUpdate struct {
	Status   *model.ConversationAreaStatus
	Capacity *int
	// ClearCapacity removes the capacity limit
	ClearCapacity bool
}

// CreateConversationArea creates a new area on behalf of a player.
// Every player standing inside the new box becomes an occupant, so a box
// with nobody in it is refused. A gated area must contain its creator,
// who becomes its admin.
func (c *Controller) CreateConversationArea(area model.ConversationArea, creatorID model.PlayerID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	creator, ok := c.players[creatorID]
	if !ok {
		return false
	}
	if area.Label == "" || area.Topic == "" {
		return false
	}
	if _, exists := c.areas[area.Label]; exists {
		return false
	}
	if area.Capacity != nil && *area.Capacity <= 0 {
		return false
	}
	if !area.BoundingBox.IsValid() {
		return false
	}
	if area.Status == "" {
		area.Status = model.StatusPublic
	}
	if !area.Status.IsValid() {
		return false
	}
	for _, label := range c.areaOrder {
		if c.areas[label].BoundingBox.Overlaps(area.BoundingBox) {
			return false
		}
	}

	contained := lo.Filter(c.playerOrder, func(id model.PlayerID, _ int) bool {
		loc := c.players[id].Location
		return area.BoundingBox.Contains(loc.X, loc.Y)
	})
	if len(contained) == 0 {
		return false
	}
	if area.Capacity != nil && len(contained) > *area.Capacity {
		return false
	}
	if area.Status == model.StatusAvailableToRequest && !lo.Contains(contained, creatorID) {
		return false
	}

	newArea := &model.ConversationArea{
		Label:         area.Label,
		Topic:         area.Topic,
		BoundingBox:   area.BoundingBox,
		Status:        area.Status,
		OccupantsByID: []model.PlayerID{},
		JoinRequests:  []model.JoinRequest{},
	}
	if area.Capacity != nil {
		newArea.Capacity = model.Capacity(*area.Capacity)
	}
	c.areas[newArea.Label] = newArea
	c.areaOrder = append(c.areaOrder, newArea.Label)

	for _, id := range contained {
		player := c.players[id]
		if player.HasJoinRequest() {
			c.withdrawJoinRequest(player.ActiveJoinRequest)
		}
		if player.InConversation() {
			if prev, ok := c.areas[player.ConversationLabel]; ok {
				c.removeFromConversationArea(player, prev)
			}
		}
		newArea.OccupantsByID = append(newArea.OccupantsByID, id)
		player.ConversationLabel = newArea.Label
	}

	if newArea.Status == model.StatusAvailableToRequest {
		c.setPermission(creator, model.PermissionAdmin)
	}

	c.logger.Info("conversation area created",
		slog.String("label", newArea.Label),
		slog.String("status", string(newArea.Status)),
		slog.String("creator_id", string(creatorID)),
		slog.Int("occupants", len(newArea.OccupantsByID)),
	)

	c.emitAreaUpdated(newArea)
	return true
}

// UpdateConversationArea changes an area's status or capacity. Only an
// admin occupying the area may do this.
func (c *Controller) UpdateConversationArea(label string, playerID model.PlayerID, update AreaUpdate) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	area, ok := c.areas[label]
	if !ok {
		return false
	}
	player, ok := c.players[playerID]
	if !ok {
		return false
	}
	if !player.IsAdmin() || player.ConversationLabel != label || !area.HasOccupant(playerID) {
		return false
	}
	if update.Status != nil && !update.Status.IsValid() {
		return false
	}
	if update.ClearCapacity && update.Capacity != nil {
		return false
	}
	if update.Capacity != nil && (*update.Capacity <= 0 || *update.Capacity < len(area.OccupantsByID)) {
		return false
	}

	if update.Status != nil {
		area.Status = *update.Status
	}
	if update.ClearCapacity {
		area.Capacity = nil
	} else if update.Capacity != nil {
		area.Capacity = model.Capacity(*update.Capacity)
	}

	switch {
	case area.Status == model.StatusDoNotDisturb:
		c.denyAllJoinRequests(area)
	case area.Status == model.StatusAvailableToRequest && area.IsFull():
		c.denyAllJoinRequests(area)
	case area.Status == model.StatusPublic:
		c.setPermission(player, model.PermissionNormal)
	}

	c.emitAreaUpdated(area)
	return true
}

// removeFromConversationArea takes a player out of an area. When the
// player was its admin the area reopens: the admin is demoted, the status
// becomes public and every pending request is accepted. An area left
// without occupants is destroyed.
func (c *Controller) removeFromConversationArea(player *model.Player, area *model.ConversationArea) {
	area.OccupantsByID = removeID(area.OccupantsByID, player.ID)
	if player.ConversationLabel == area.Label {
		player.ConversationLabel = ""
	}

	if player.HasJoinRequest() {
		if req, ok := c.joinRequests[player.ActiveJoinRequest]; ok && req.ConversationLabel == area.Label {
			c.denyJoinRequest(req.ID)
		}
	}

	if player.IsAdmin() {
		c.setPermission(player, model.PermissionNormal)
		area.Status = model.StatusPublic
		c.acceptAllJoinRequests(area)
	}

	if len(area.OccupantsByID) == 0 {
		c.destroyConversationArea(area)
		return
	}
	c.emitAreaUpdated(area)
}

func (c *Controller) destroyConversationArea(area *model.ConversationArea) {
	// Normally empty already; an unattended area cannot keep requests
	c.denyAllJoinRequests(area)

	delete(c.areas, area.Label)
	c.areaOrder = removeID(c.areaOrder, area.Label)

	c.logger.Info("conversation area destroyed", slog.String("label", area.Label))
	c.emit(model.EventConversationAreaDestroyed, model.ConversationAreaDestroyedPayload{Area: area.Clone()})
}

// Move updates a player's location. Area membership follows the label the
// client declares, subject to the area's status.
func (c *Controller) Move(playerID model.PlayerID, location model.UserLocation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	player, ok := c.players[playerID]
	if !ok {
		return false
	}

	declared := location.ConversationLabel
	declaredArea, declaredExists := c.areas[declared]
	if declared == "" {
		declaredExists = false
	}

	if declaredExists && declaredArea.Status == model.StatusDoNotDisturb {
		location.ConversationLabel = player.Location.ConversationLabel
		player.Location = location
		c.emitPlayerMoved(player)
		return true
	}

	player.Location = location

	var target *model.ConversationArea
	if declaredExists {
		switch {
		case declaredArea.HasOccupant(player.ID):
			target = declaredArea
		case declaredArea.Status == model.StatusPublic && !declaredArea.IsFull():
			target = declaredArea
		}
	}

	targetLabel := ""
	if target != nil {
		targetLabel = target.Label
	}
	if player.ConversationLabel != targetLabel {
		if prev, ok := c.areas[player.ConversationLabel]; ok && player.InConversation() {
			c.removeFromConversationArea(player, prev)
		}
		player.ConversationLabel = ""
		if target != nil {
			target.OccupantsByID = append(target.OccupantsByID, player.ID)
			player.ConversationLabel = target.Label
			c.emitAreaUpdated(target)
		}
	}

	if player.HasJoinRequest() {
		req, ok := c.joinRequests[player.ActiveJoinRequest]
		if ok && (req.ConversationLabel != declared || req.ConversationLabel == player.ConversationLabel) {
			c.withdrawJoinRequest(req.ID)
		}
	}

	c.emitPlayerMoved(player)
	return true
}
