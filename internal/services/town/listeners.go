package town

import (
	"github.com/Yuqi1124/TownRecord/internal/model"
)

// Listener receives every event a town emits.
// HandleEvent runs synchronously while the town is locked, so it must not
// call back into the controller and should return quickly.
type Listener interface {
	HandleEvent(event model.Event)
}

// ListenerFunc adapts a function to the Listener interface
type ListenerFunc func(event model.Event)

// HandleEvent calls f(event)
func (f ListenerFunc) HandleEvent(event model.Event) {
	f(event)
}

// Subscription is the handle returned by Subscribe
type Subscription uint64

type subscriber struct {
	id       Subscription
	listener Listener
}

// Subscribe registers a listener. Listeners observe events in the order
// they were registered.
func (c *Controller) Subscribe(listener Listener) Subscription {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	c.nextSubscription++
	id := c.nextSubscription
	c.listeners = append(c.listeners, subscriber{id: id, listener: listener})
	return id
}

// SubscribeWithSnapshot registers a listener and hands the current town
// state to baseline before any event can reach the listener. baseline runs
// under the town lock, with the same restrictions as HandleEvent.
func (c *Controller) SubscribeWithSnapshot(listener Listener, baseline func(model.TownSnapshot)) Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	baseline(c.snapshot())
	return c.Subscribe(listener)
}

// Unsubscribe removes a listener. It is safe to call from inside HandleEvent;
// the removal applies from the next event on.
func (c *Controller) Unsubscribe(id Subscription) bool {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()

	for i, sub := range c.listeners {
		if sub.id == id {
			c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// ListenerCount returns the number of registered listeners
func (c *Controller) ListenerCount() int {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()
	return len(c.listeners)
}

// emit delivers an event to a snapshot of the registered listeners
func (c *Controller) emit(eventType model.EventType, payload any) {
	c.listenersMu.RLock()
	snapshot := make([]subscriber, len(c.listeners))
	copy(snapshot, c.listeners)
	c.listenersMu.RUnlock()

	event := model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		TownID:    c.id,
		Payload:   payload,
	}
	for _, sub := range snapshot {
		sub.listener.HandleEvent(event)
	}
}

func (c *Controller) emitPlayerMoved(player *model.Player) {
	c.emit(model.EventPlayerMoved, model.PlayerMovedPayload{Player: *player})
}

func (c *Controller) emitAreaUpdated(area *model.ConversationArea) {
	c.emit(model.EventConversationAreaUpdated, model.ConversationAreaUpdatedPayload{Area: area.Clone()})
}
