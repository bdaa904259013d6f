package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"nirala/internal/common"
)

// SubscriptionAuthorizer decides whether userID may watch a conversation.
type SubscriptionAuthorizer interface {
	AuthorizeSubscription(ctx context.Context, userID, conversationID string) error
}

// TokenValidator turns a bearer token into claims.
type TokenValidator interface {
	Validate(token string) (*common.Claims, error)
}

type Handler struct {
	hub        *Hub
	validator  TokenValidator
	authorizer SubscriptionAuthorizer
	upgrader   websocket.Upgrader
	log        zerolog.Logger
}

func NewHandler(hub *Hub, validator TokenValidator, authorizer SubscriptionAuthorizer, allowedOrigins []string, log zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		validator:  validator,
		authorizer: authorizer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws").Logger(),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP authenticates the request, upgrades it and runs the connection
// until the peer goes away. Browsers cannot set headers on a websocket
// handshake, so the token may also come from the "token" query parameter.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = common.BearerToken(r.Header.Get("Authorization"))
	}
	if token == "" {
		common.WriteError(w, common.ErrUnauthorized, h.log)
		return
	}
	claims, err := h.validator.Validate(token)
	if err != nil {
		common.WriteError(w, err, h.log)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", claims.UserID).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, claims.UserID)
	h.hub.Register(client)
	go client.writePump()
	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("user_id", c.userID).Msg("websocket closed")
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.hub.SendTo(c, Event{Type: EventError, Error: "malformed frame"})
			continue
		}
		h.handleFrame(c, frame)
	}
}

func (h *Handler) handleFrame(c *Client, frame ClientFrame) {
	switch frame.Type {
	case "ping":
		h.hub.SendTo(c, Event{Type: EventPong})

	case "subscribe":
		if frame.ConversationID == "" {
			h.hub.SendTo(c, Event{Type: EventError, Error: "conversationId is required"})
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := h.authorizer.AuthorizeSubscription(ctx, c.userID, frame.ConversationID)
		cancel()
		if err != nil {
			h.hub.SendTo(c, Event{Type: EventError, ConversationID: frame.ConversationID, Error: subscribeError(err)})
			return
		}
		if h.hub.Subscribe(c, frame.ConversationID) {
			h.hub.SendTo(c, Event{Type: EventSubscribed, ConversationID: frame.ConversationID})
		}

	case "unsubscribe":
		h.hub.Unsubscribe(c, frame.ConversationID)
		h.hub.SendTo(c, Event{Type: EventUnsubscribed, ConversationID: frame.ConversationID})

	default:
		h.hub.SendTo(c, Event{Type: EventError, Error: "unknown frame type"})
	}
}

func subscribeError(err error) string {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, common.ErrNotParticipant), errors.Is(err, common.ErrForbidden):
		return "not a participant"
	default:
		return "subscribe failed"
	}
}
