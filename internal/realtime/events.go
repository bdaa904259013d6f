package realtime

import "context"

const (
	EventNewMessage   = "new_message"
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
	EventSubscribed   = "subscribed"
	EventUnsubscribed = "unsubscribed"
	EventPong         = "pong"
	EventError        = "error"
)

// Scopes of an unread_count event.
const (
	ScopeMessages      = "messages"
	ScopeNotifications = "notifications"
)

// Event is a server frame pushed to live connections.
type Event struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversationId,omitempty"`
	Message        interface{} `json:"message,omitempty"`
	Notification   interface{} `json:"notification,omitempty"`
	Scope          string      `json:"scope,omitempty"`
	Count          *int64      `json:"count,omitempty"`
	Error          string      `json:"error,omitempty"`
}

func UnreadCountEvent(scope string, count int64) Event {
	return Event{Type: EventUnreadCount, Scope: scope, Count: &count}
}

// ClientFrame is what a connection may send.
type ClientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
}

// Publisher pushes events to whoever is connected. Delivery is best effort:
// an error means the event could not be handed off, not that a peer missed it.
type Publisher interface {
	PublishToConversation(ctx context.Context, conversationID string, event Event) error
	PublishToUser(ctx context.Context, userID string, event Event) error
}
