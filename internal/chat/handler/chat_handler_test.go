package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/chat/handler/mocks"
	"nirala/internal/chat/repository"
	"nirala/internal/chat/service"
	"nirala/internal/common"
	"nirala/internal/dbmysql"
)

func setupRouter(t *testing.T) (*mux.Router, *mocks.MockChatService) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockChatService(ctrl)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	NewChatHandler(mockService, zerolog.Nop()).RegisterRoutes(api)
	return r, mockService
}

func authed(req *http.Request, userID string) *http.Request {
	claims := &common.Claims{UserID: userID}
	return req.WithContext(common.WithUser(req.Context(), claims))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.HTTPErrorResponse {
	t.Helper()
	var body common.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestChatHandler_SendMessage(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		mockSetup    func(m *mocks.MockChatService)
		expectedCode int
		errorType    string
	}{
		{
			name: "successful_message_send",
			body: `{"conversationId":"conv-123","content":"Hello World!"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					SendMessage(gomock.Any(), "conv-123", "user-456", "Hello World!").
					Return(&dbmysql.Message{
						ID:             1,
						ConversationID: "conv-123",
						SenderID:       "user-456",
						Content:        "Hello World!",
						CreatedAt:      time.Now().UTC(),
					}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "missing_conversation_id",
			body:         `{"content":"hi"}`,
			mockSetup:    func(m *mocks.MockChatService) {},
			expectedCode: http.StatusBadRequest,
			errorType:    "validation_error",
		},
		{
			name:         "malformed_json",
			body:         `{"conversationId":`,
			mockSetup:    func(m *mocks.MockChatService) {},
			expectedCode: http.StatusBadRequest,
			errorType:    "validation_error",
		},
		{
			name: "empty_content",
			body: `{"conversationId":"conv-123","content":"   "}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().SendMessage(gomock.Any(), "conv-123", "user-456", "   ").Return(nil, common.ErrEmptyContent)
			},
			expectedCode: http.StatusBadRequest,
			errorType:    "validation_error",
		},
		{
			name: "not_participant",
			body: `{"conversationId":"conv-123","content":"hi"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().SendMessage(gomock.Any(), "conv-123", "user-456", "hi").Return(nil, common.ErrNotParticipant)
			},
			expectedCode: http.StatusForbidden,
			errorType:    "forbidden_error",
		},
		{
			name: "unknown_conversation",
			body: `{"conversationId":"conv-404","content":"hi"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().SendMessage(gomock.Any(), "conv-404", "user-456", "hi").Return(nil, common.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
			errorType:    "not_found_error",
		},
		{
			name: "service_failure",
			body: `{"conversationId":"conv-123","content":"hi"}`,
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().SendMessage(gomock.Any(), "conv-123", "user-456", "hi").Return(nil, errors.New("deadlock"))
			},
			expectedCode: http.StatusInternalServerError,
			errorType:    "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockService := setupRouter(t)
			tt.mockSetup(mockService)

			req := authed(httptest.NewRequest(http.MethodPost, "/api/messages/send", strings.NewReader(tt.body)), "user-456")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
			if tt.errorType != "" {
				assert.Equal(t, tt.errorType, decodeError(t, rec).Error.Type)
				return
			}
			var msg dbmysql.Message
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&msg))
			assert.Equal(t, uint(1), msg.ID)
			assert.Equal(t, "Hello World!", msg.Content)
		})
	}
}

func TestChatHandler_Unauthenticated(t *testing.T) {
	router, _ := setupRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChatHandler_CreateConversation(t *testing.T) {
	router, mockService := setupRouter(t)
	mockService.EXPECT().
		CreateOrGetConversation(gomock.Any(), "alice", "bob").
		Return(&dbmysql.Conversation{ID: "conv-1", ParticipantAID: "alice", ParticipantBID: "bob"}, nil)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/conversations/create", strings.NewReader(`{"otherUserId":"bob"}`)), "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Conversation dbmysql.Conversation `json:"conversation"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "conv-1", body.Conversation.ID)
}

func TestChatHandler_CreateConversation_Self(t *testing.T) {
	router, mockService := setupRouter(t)
	mockService.EXPECT().CreateOrGetConversation(gomock.Any(), "alice", "alice").Return(nil, common.ErrInvalidParticipant)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/conversations/create", strings.NewReader(`{"otherUserId":"alice"}`)), "alice")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatHandler_ListConversations(t *testing.T) {
	router, mockService := setupRouter(t)
	mockService.EXPECT().ListConversations(gomock.Any(), "alice").Return([]*service.ConversationSummary{
		{
			Conversation: &dbmysql.Conversation{ID: "conv-1", ParticipantAID: "alice", ParticipantBID: "bob"},
			UnreadCount:  2,
			OtherUser:    service.UserSummary{ID: "bob", DisplayName: "Bob"},
		},
	}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/conversations", nil), "alice"))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Conversations []map[string]interface{} `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Conversations, 1)
	assert.Equal(t, "conv-1", body.Conversations[0]["id"])
	assert.Equal(t, float64(2), body.Conversations[0]["unreadCount"])
	assert.Equal(t, "Bob", body.Conversations[0]["otherUser"].(map[string]interface{})["displayName"])
}

func TestChatHandler_GetMessages(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		mockSetup    func(m *mocks.MockChatService)
		expectedCode int
	}{
		{
			name: "paged_history",
			url:  "/api/messages/conv-1?limit=10&before=50",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					GetMessageHistory(gomock.Any(), "conv-1", "bob", repository.HistoryQuery{Limit: 10, BeforeID: 50}).
					Return([]*dbmysql.Message{{ID: 48}, {ID: 49}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "default_limit",
			url:  "/api/messages/conv-1",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().
					GetMessageHistory(gomock.Any(), "conv-1", "bob", repository.HistoryQuery{Limit: service.DefaultHistoryLimit}).
					Return([]*dbmysql.Message{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "bad_limit",
			url:          "/api/messages/conv-1?limit=abc",
			mockSetup:    func(m *mocks.MockChatService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "outsider",
			url:  "/api/messages/conv-1",
			mockSetup: func(m *mocks.MockChatService) {
				m.EXPECT().GetMessageHistory(gomock.Any(), "conv-1", "bob", gomock.Any()).Return(nil, common.ErrNotParticipant)
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, mockService := setupRouter(t)
			tt.mockSetup(mockService)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, tt.url, nil), "bob"))
			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestChatHandler_MarkReadAndUnreadCount(t *testing.T) {
	router, mockService := setupRouter(t)
	mockService.EXPECT().MarkConversationRead(gomock.Any(), "conv-1", "bob").Return(int64(3), nil)
	mockService.EXPECT().UnreadCount(gomock.Any(), "bob").Return(int64(0), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodPost, "/api/messages/conv-1/read", nil), "bob"))
	require.Equal(t, http.StatusOK, rec.Code)
	var marked map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&marked))
	assert.Equal(t, true, marked["success"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/api/conversations/unread/count", nil), "bob"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}
