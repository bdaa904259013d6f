package dbmysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedPair(t *testing.T) {
	tests := []struct {
		name      string
		x, y      string
		expectedA string
		expectedB string
	}{
		{name: "already ordered", x: "alice", y: "bob", expectedA: "alice", expectedB: "bob"},
		{name: "reversed", x: "bob", y: "alice", expectedA: "alice", expectedB: "bob"},
		{name: "uid strings", x: "zQ91", y: "Ab07", expectedA: "Ab07", expectedB: "zQ91"},
		{name: "same id", x: "carol", y: "carol", expectedA: "carol", expectedB: "carol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := OrderedPair(tt.x, tt.y)
			assert.Equal(t, tt.expectedA, a)
			assert.Equal(t, tt.expectedB, b)

			ra, rb := OrderedPair(tt.y, tt.x)
			assert.Equal(t, a, ra)
			assert.Equal(t, b, rb)
		})
	}
}

func TestConversation_OtherParticipant(t *testing.T) {
	c := &Conversation{ParticipantAID: "alice", ParticipantBID: "bob"}
	assert.Equal(t, "bob", c.OtherParticipant("alice"))
	assert.Equal(t, "alice", c.OtherParticipant("bob"))
}
