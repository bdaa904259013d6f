package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/common"
	"nirala/internal/dbmysql"
	"nirala/internal/notif"
)

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_Notifications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/notifications", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "jobs", r.URL.Query().Get("category"))
		assert.Equal(t, "true", r.URL.Query().Get("unread"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"notifications": []*dbmysql.Notification{{ID: 3, UserID: "bob", Title: "New job: SRE"}},
		})
	}))
	defer server.Close()

	list, err := New(server.URL, "tok").Notifications(context.Background(), NotificationQuery{Limit: 5, Category: "jobs", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "New job: SRE", list[0].Title)
}

func TestClient_ErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, common.HTTPErrorResponse{
			Error: common.HTTPErrorDetail{Message: "not a participant", Type: "forbidden_error"},
		})
	}))
	defer server.Close()

	_, err := New(server.URL, "tok").SendMessage(context.Background(), "conv-1", "hi")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "forbidden_error", apiErr.Type)
	assert.Equal(t, "not a participant", apiErr.Message)
	assert.True(t, errors.Is(err, common.ErrForbidden))
	assert.True(t, IsStatus(err, http.StatusForbidden))
}

func TestClient_MessageCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/messages/conv-1":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			assert.Equal(t, "9", r.URL.Query().Get("before"))
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"messages": []*dbmysql.Message{{ID: 1, Content: "a"}, {ID: 2, Content: "b"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/messages/conv-1/read":
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": 2})
		case r.Method == http.MethodGet && r.URL.Path == "/api/conversations/unread/count":
			writeJSON(w, http.StatusOK, map[string]int64{"count": 7})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := New(server.URL, "tok")
	msgs, err := c.Messages(context.Background(), "conv-1", 50, 9)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	require.NoError(t, c.MarkConversationRead(context.Background(), "conv-1"))

	count, err := c.MessageUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	_, err = c.Conversations(context.Background())
	assert.True(t, IsStatus(err, http.StatusNotFound))
}

func TestPreferenceCache_Apply(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": []*dbmysql.NotificationPreference{
				{ID: 1, Category: "jobs", Subcategory: "all", InAppEnabled: true, EmailFrequency: "instant"},
				{ID: 2, Category: "jobs", Subcategory: "postings", InAppEnabled: true, EmailFrequency: "instant"},
			}})
		case http.MethodPut:
			if fail.Load() {
				writeJSON(w, http.StatusInternalServerError, common.HTTPErrorResponse{
					Error: common.HTTPErrorDetail{Message: "internal server error", Type: "internal_error"},
				})
				return
			}
			var req notif.UpdatePreferencesRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Preferences, 1)
			writeJSON(w, http.StatusOK, map[string]interface{}{"preferences": []*dbmysql.NotificationPreference{
				{ID: 2, Category: "jobs", Subcategory: "postings", InAppEnabled: true, EmailEnabled: true, EmailFrequency: "weekly"},
			}})
		}
	}))
	defer server.Close()

	cache := NewPreferenceCache(New(server.URL, "tok"))
	require.NoError(t, cache.Load(context.Background()))
	before := cache.Snapshot()

	on := true
	require.NoError(t, cache.Apply(context.Background(), []notif.PreferenceUpdateRequest{{ID: 2, EmailEnabled: &on}}, nil))
	snap := cache.Snapshot()
	require.Len(t, snap, 2)
	assert.True(t, snap[1].EmailEnabled)
	assert.Equal(t, "weekly", snap[1].EmailFrequency, "server value wins")
	assert.False(t, before[1].EmailEnabled, "earlier snapshots are not mutated")

	fail.Store(true)
	off := false
	var rollbackErr error
	err := cache.Apply(context.Background(), []notif.PreferenceUpdateRequest{{ID: 1, InAppEnabled: &off}},
		func(err error) { rollbackErr = err })
	require.Error(t, err)
	assert.Equal(t, err, rollbackErr)
	assert.True(t, cache.Snapshot()[0].InAppEnabled)
	assert.Equal(t, snap, cache.Snapshot())
}
