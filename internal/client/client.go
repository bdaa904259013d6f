// Package client is a Go client for the REST API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"nirala/internal/chat/service"
	"nirala/internal/common"
	"nirala/internal/dbmysql"
	"nirala/internal/notif"
)

// APIError is a failed call decoded from the server's error envelope.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Type, e.Message)
}

// Unwrap lets callers match API failures with errors.Is against the common
// sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusForbidden:
		return common.ErrForbidden
	case http.StatusNotFound:
		return common.ErrNotFound
	case http.StatusBadRequest:
		return common.ErrValidation
	}
	return nil
}

type Client struct {
	http *resty.Client
}

// New returns a client for baseURL that authenticates with token.
func New(baseURL, token string) *Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second).
		SetError(&common.HTTPErrorResponse{})
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}, query map[string]string) error {
	req := c.http.R().SetContext(ctx).SetQueryParams(query)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Message: strings.TrimSpace(resp.String())}
		if env, ok := resp.Error().(*common.HTTPErrorResponse); ok && env.Error.Type != "" {
			apiErr.Type = env.Error.Type
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}
	return nil
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func (c *Client) CreateConversation(ctx context.Context, otherUserID string) (*dbmysql.Conversation, error) {
	var out struct {
		Conversation *dbmysql.Conversation `json:"conversation"`
	}
	err := c.do(ctx, http.MethodPost, "/api/conversations/create",
		map[string]string{"otherUserId": otherUserID}, &out, nil)
	return out.Conversation, err
}

func (c *Client) Conversations(ctx context.Context) ([]*service.ConversationSummary, error) {
	var out struct {
		Conversations []*service.ConversationSummary `json:"conversations"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out, nil)
	return out.Conversations, err
}

func (c *Client) Messages(ctx context.Context, conversationID string, limit int, beforeID uint) ([]*dbmysql.Message, error) {
	query := map[string]string{}
	if limit > 0 {
		query["limit"] = strconv.Itoa(limit)
	}
	if beforeID > 0 {
		query["before"] = strconv.FormatUint(uint64(beforeID), 10)
	}
	var out struct {
		Messages []*dbmysql.Message `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/api/messages/"+conversationID, nil, &out, query)
	return out.Messages, err
}

func (c *Client) SendMessage(ctx context.Context, conversationID, content string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := c.do(ctx, http.MethodPost, "/api/messages/send",
		map[string]string{"conversationId": conversationID, "content": content}, &msg, nil)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/api/messages/"+conversationID+"/read", nil, nil, nil)
}

func (c *Client) MessageUnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/conversations/unread/count", nil, &out, nil)
	return out.Count, err
}

// NotificationQuery mirrors the listing filters of the server.
type NotificationQuery struct {
	Limit      int
	Category   string
	UnreadOnly bool
}

func (c *Client) Notifications(ctx context.Context, q NotificationQuery) ([]*dbmysql.Notification, error) {
	query := map[string]string{}
	if q.Limit > 0 {
		query["limit"] = strconv.Itoa(q.Limit)
	}
	if q.Category != "" {
		query["category"] = q.Category
	}
	if q.UnreadOnly {
		query["unread"] = "true"
	}
	var out struct {
		Notifications []*dbmysql.Notification `json:"notifications"`
	}
	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &out, query)
	return out.Notifications, err
}

func (c *Client) NotificationUnreadCount(ctx context.Context, category string) (int64, error) {
	query := map[string]string{}
	if category != "" {
		query["category"] = category
	}
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.do(ctx, http.MethodGet, "/api/notifications/unread/count", nil, &out, query)
	return out.Count, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), nil, nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.do(ctx, http.MethodPost, "/api/notifications/mark-all-read", nil, &out, nil)
	return out.Updated, err
}

func (c *Client) Preferences(ctx context.Context) ([]*dbmysql.NotificationPreference, error) {
	var out struct {
		Preferences []*dbmysql.NotificationPreference `json:"preferences"`
	}
	err := c.do(ctx, http.MethodGet, "/api/notifications/preferences", nil, &out, nil)
	return out.Preferences, err
}

// UpdatePreferences sends a partial batch and returns the rows as stored.
func (c *Client) UpdatePreferences(ctx context.Context, updates []notif.PreferenceUpdateRequest) ([]*dbmysql.NotificationPreference, error) {
	var out struct {
		Preferences []*dbmysql.NotificationPreference `json:"preferences"`
	}
	err := c.do(ctx, http.MethodPut, "/api/notifications/preferences",
		notif.UpdatePreferencesRequest{Preferences: updates}, &out, nil)
	return out.Preferences, err
}

func (c *Client) RegisterDevice(ctx context.Context, token, platform string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/devices",
		notif.RegisterDeviceRequest{Token: token, Platform: platform}, nil, nil)
}

func (c *Client) RemoveDevice(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/devices/"+token, nil, nil, nil)
}
