package dbmysql

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is one delivered event for one recipient. ReadAt moves from
// nil to a timestamp once and never back.
type Notification struct {
	ID          uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      string            `gorm:"size:128;not null;index:idx_notifications_user,priority:1" json:"userId"`
	ActorID     *string           `gorm:"size:128" json:"actorId,omitempty"`
	Type        string            `gorm:"size:64;not null" json:"type"`
	Category    string            `gorm:"size:32;not null;index" json:"category"`
	Subcategory string            `gorm:"size:32;not null" json:"subcategory"`
	Title       string            `gorm:"size:255;not null" json:"title"`
	Body        string            `gorm:"type:text" json:"body"`
	ActionURL   string            `gorm:"size:512" json:"actionUrl,omitempty"`
	Icon        string            `gorm:"size:64" json:"icon,omitempty"`
	Payload     datatypes.JSONMap `gorm:"type:json" json:"payload"`
	ReadAt      *time.Time        `gorm:"index" json:"readAt"`
	CreatedAt   time.Time         `gorm:"index:idx_notifications_user,priority:2" json:"createdAt"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// NotificationPreference is one cell of a user's preference matrix. The
// "all" subcategory row is the category master switch.
type NotificationPreference struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         string    `gorm:"size:128;not null;uniqueIndex:idx_preference_cell,priority:1" json:"userId"`
	Category       string    `gorm:"size:32;not null;uniqueIndex:idx_preference_cell,priority:2" json:"category"`
	Subcategory    string    `gorm:"size:32;not null;uniqueIndex:idx_preference_cell,priority:3" json:"subcategory"`
	InAppEnabled   bool      `gorm:"not null" json:"inAppEnabled"`
	EmailEnabled   bool      `gorm:"not null" json:"emailEnabled"`
	EmailFrequency string    `gorm:"size:16;not null" json:"emailFrequency"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// EmailDigestItem is a notification waiting for the next daily or weekly
// digest of its recipient.
type EmailDigestItem struct {
	ID             uint       `gorm:"primaryKey;autoIncrement"`
	UserID         string     `gorm:"size:128;not null;index:idx_digest_pending,priority:2"`
	NotificationID uint       `gorm:"index"`
	Type           string     `gorm:"size:64;not null"`
	Category       string     `gorm:"size:32;not null"`
	Title          string     `gorm:"size:255;not null"`
	Body           string     `gorm:"type:text"`
	ActionURL      string     `gorm:"size:512"`
	Frequency      string     `gorm:"size:16;not null;index:idx_digest_pending,priority:1"`
	SentAt         *time.Time `gorm:"index"`
	CreatedAt      time.Time
}

func (EmailDigestItem) TableName() string {
	return "notification_email_queue"
}
