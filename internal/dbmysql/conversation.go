package dbmysql

import (
	"time"
)

// Conversation is one unordered pair of users. The pair is stored sorted so
// the unique index covers both orderings.
type Conversation struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ParticipantAID string     `gorm:"size:128;not null;uniqueIndex:idx_conversation_pair,priority:1" json:"participantAId"`
	ParticipantBID string     `gorm:"size:128;not null;uniqueIndex:idx_conversation_pair,priority:2;index" json:"participantBId"`
	LastMessageAt  *time.Time `gorm:"index" json:"lastMessageAt"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (c *Conversation) HasParticipant(userID string) bool {
	return userID != "" && (c.ParticipantAID == userID || c.ParticipantBID == userID)
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.ParticipantAID == userID {
		return c.ParticipantBID
	}
	return c.ParticipantAID
}

// OrderedPair sorts two user ids into (a, b) storage order.
func OrderedPair(x, y string) (string, string) {
	if x > y {
		return y, x
	}
	return x, y
}
