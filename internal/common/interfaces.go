package common

import (
	"context"
	"time"
)

type Observer interface {
	Update(ctx context.Context, event NotificationEvent) error
	Name() string
}

type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(ctx context.Context, event NotificationEvent)
	NotifyAsync(event NotificationEvent)
}

type EmailService interface {
	SendEmail(ctx context.Context, email EmailData) error
}

type EmailData struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	IsHTML  bool     `json:"is_html"`
}

// NotificationEvent is what the router hands to delivery observers after the
// preference decision has been made.
type NotificationEvent struct {
	NotificationID uint
	Type           NotificationType
	Classification Classification
	UserID         string
	ActorID        *string
	Title          string
	Body           string
	ActionURL      string
	Icon           string
	Payload        map[string]interface{}
	InApp          bool
	Email          bool
	Frequency      EmailFrequency
	CreatedAt      time.Time
}
