package dbmysql

import (
	"time"
)

// Message rows are append-only. Read only moves from false to true.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_conversation,priority:1" json:"conversationId"`
	SenderID       string    `gorm:"size:128;not null;index" json:"senderId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Read           bool      `gorm:"not null" json:"read"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation,priority:2" json:"createdAt"`
}
