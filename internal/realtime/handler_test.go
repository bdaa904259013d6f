package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/common"
	"nirala/internal/config"
)

type stubAuthorizer struct {
	allowed map[string]bool
}

func (a stubAuthorizer) AuthorizeSubscription(_ context.Context, userID, conversationID string) error {
	if a.allowed[userID+"/"+conversationID] {
		return nil
	}
	return fmt.Errorf("conversation %s: %w", conversationID, common.ErrNotParticipant)
}

func setupWSServer(t *testing.T) (*httptest.Server, *Hub, *common.TokenValidator) {
	t.Helper()
	validator := common.NewTokenValidator(&config.Config{
		Auth: config.AuthConfig{JWTSecret: "ws-secret", Issuer: "nirala", TokenCacheTTL: time.Minute},
	})
	hub := NewHub(zerolog.Nop())
	auth := stubAuthorizer{allowed: map[string]bool{"alice/conv-1": true}}
	server := httptest.NewServer(NewHandler(hub, validator, auth, []string{"*"}, zerolog.Nop()))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})
	return server, hub, validator
}

func wsURL(server *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(server.URL, "http")
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestHandler_RejectsMissingOrBadToken(t *testing.T) {
	server, _, _ := setupWSServer(t)

	for _, token := range []string{"", "garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
	}
}

func TestHandler_SubscribeAndReceive(t *testing.T) {
	server, hub, validator := setupWSServer(t)
	token, err := validator.GenerateToken("alice", "alice", time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "ping"}))
	assert.Equal(t, EventPong, readEvent(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "subscribe", ConversationID: "conv-1"}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventSubscribed, ev.Type)
	assert.Equal(t, "conv-1", ev.ConversationID)

	require.NoError(t, hub.PublishToConversation(context.Background(), "conv-1",
		Event{Type: EventNewMessage, ConversationID: "conv-1", Message: map[string]string{"content": "hi"}}))
	ev = readEvent(t, conn)
	assert.Equal(t, EventNewMessage, ev.Type)

	require.NoError(t, hub.PublishToUser(context.Background(), "alice", Event{Type: EventNotification}))
	assert.Equal(t, EventNotification, readEvent(t, conn).Type)
}

func TestHandler_SubscribeDenied(t *testing.T) {
	server, hub, validator := setupWSServer(t)
	token, err := validator.GenerateToken("mallory", "mallory", time.Hour)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(server, token), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "subscribe", ConversationID: "conv-1"}))
	ev := readEvent(t, conn)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "not a participant", ev.Error)
	assert.Zero(t, hub.SubscriberCount("conv-1"))

	require.NoError(t, conn.WriteJSON(ClientFrame{Type: "shout"}))
	assert.Equal(t, "unknown frame type", readEvent(t, conn).Error)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.nirala.in"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.nirala.in")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
