package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/chat/handler"
	"nirala/internal/chat/handler/mocks"
	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/notif"
	"nirala/internal/realtime"
	"nirala/internal/wire"
)

func testApplication(t *testing.T, chat *mocks.MockChatService) *wire.Application {
	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "router-test-secret"
	cfg.Server.AllowedOrigins = []string{"https://app.nirala.test"}

	log := zerolog.Nop()
	hub := realtime.NewHub(log)
	validator := common.NewTokenValidator(cfg)
	return &wire.Application{
		Config:              cfg,
		Log:                 log,
		Hub:                 hub,
		Validator:           validator,
		ChatHandler:         handler.NewChatHandler(chat, log),
		NotificationHandler: notif.NewNotificationHandler(nil, log),
		WSHandler:           realtime.NewHandler(hub, validator, chat, cfg.Server.AllowedOrigins, log),
	}
}

func TestSetupRouter_Health(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := setupRouter(testApplication(t, mocks.NewMockChatService(ctrl)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get(common.RequestIDHeader))
}

func TestSetupRouter_APIRequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := setupRouter(testApplication(t, mocks.NewMockChatService(ctrl)))

	for _, path := range []string{"/api/conversations", "/api/notifications", "/api/notifications/preferences"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestSetupRouter_AuthenticatedChatRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockChatService(ctrl)
	app := testApplication(t, chat)
	router := setupRouter(app)

	token, err := app.Validator.GenerateToken("user-1", "asha", time.Hour)
	require.NoError(t, err)

	chat.EXPECT().UnreadCount(gomock.Any(), "user-1").Return(int64(3), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/unread/count", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}

func TestSetupRouter_Preflight(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := setupRouter(testApplication(t, mocks.NewMockChatService(ctrl)))

	req := httptest.NewRequest(http.MethodOptions, "/api/messages/send", nil)
	req.Header.Set("Origin", "https://app.nirala.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.nirala.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, []int{http.StatusOK, http.StatusNoContent}, rec.Code)
}

func TestSetupRouter_Metrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	router := setupRouter(testApplication(t, mocks.NewMockChatService(ctrl)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
