package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationAreaCloneIsIndependent(t *testing.T) {
	area := &ConversationArea{
		Label:         "L1",
		Topic:         "chat",
		Status:        StatusPublic,
		Capacity:      Capacity(3),
		OccupantsByID: []PlayerID{"p1"},
		JoinRequests:  []JoinRequest{{ID: "r1", PlayerID: "p2", ConversationLabel: "L1"}},
	}

	clone := area.Clone()
	clone.OccupantsByID[0] = "changed"
	clone.JoinRequests[0].ID = "changed"
	*clone.Capacity = 10

	assert.Equal(t, PlayerID("p1"), area.OccupantsByID[0])
	assert.Equal(t, JoinRequestID("r1"), area.JoinRequests[0].ID)
	assert.Equal(t, 3, *area.Capacity)
}

func TestConversationAreaCloneOfEmptyAreaHasEmptySlices(t *testing.T) {
	area := &ConversationArea{Label: "L1"}

	clone := area.Clone()

	assert.NotNil(t, clone.OccupantsByID)
	assert.NotNil(t, clone.JoinRequests)
	assert.Nil(t, clone.Capacity)
}

func TestConversationAreaIsFull(t *testing.T) {
	area := &ConversationArea{OccupantsByID: []PlayerID{"p1", "p2"}}
	assert.False(t, area.IsFull(), "unlimited area is never full")

	area.Capacity = Capacity(3)
	assert.False(t, area.IsFull())

	area.Capacity = Capacity(2)
	assert.True(t, area.IsFull())
}

func TestConversationAreaMembershipLookups(t *testing.T) {
	area := &ConversationArea{
		OccupantsByID: []PlayerID{"p1"},
		JoinRequests:  []JoinRequest{{ID: "r1", PlayerID: "p2"}},
	}

	assert.True(t, area.HasOccupant("p1"))
	assert.False(t, area.HasOccupant("p2"))
	assert.True(t, area.HasJoinRequest("r1"))
	assert.False(t, area.HasJoinRequest("r2"))
}

func TestConversationAreaStatusIsValid(t *testing.T) {
	assert.True(t, StatusPublic.IsValid())
	assert.True(t, StatusAvailableToRequest.IsValid())
	assert.True(t, StatusDoNotDisturb.IsValid())
	assert.False(t, ConversationAreaStatus("closed").IsValid())
}
