package notif

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/dbmysql"
)

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func sendGridConfig(baseURL string) config.EmailConfig {
	return config.EmailConfig{
		Provider:        "sendgrid",
		SendGridAPIKey:  "sg-key",
		SendGridBaseURL: baseURL,
		FromEmail:       "no-reply@nirala.test",
		FromName:        "Nirala Techie",
		Enabled:         true,
	}
}

func TestSendGridSender_SendEmail(t *testing.T) {
	var got sendGridMail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendGridPath, r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	sender := NewSendGridSender(sendGridConfig(server.URL+"/"), zerolog.Nop())
	err := sender.SendEmail(context.Background(), common.EmailData{
		To:      []string{"bob@example.com"},
		Subject: "Hi",
		Body:    "<p>hello</p>",
		IsHTML:  true,
	})
	require.NoError(t, err)

	require.Len(t, got.Personalizations, 1)
	assert.Equal(t, "bob@example.com", got.Personalizations[0].To[0].Email)
	assert.Equal(t, "no-reply@nirala.test", got.From.Email)
	assert.Equal(t, "Hi", got.Subject)
	require.Len(t, got.Content, 1)
	assert.Equal(t, "text/html", got.Content[0].Type)
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer server.Close()

	sender := NewSendGridSender(sendGridConfig(server.URL), zerolog.Nop())
	err := sender.SendEmail(context.Background(), common.EmailData{To: []string{"bob@example.com"}, Subject: "Hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSendGridSender_NoRecipients(t *testing.T) {
	sender := NewSendGridSender(sendGridConfig("http://127.0.0.1:1"), zerolog.Nop())
	err := sender.SendEmail(context.Background(), common.EmailData{Subject: "Hi"})
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestNewEmailService(t *testing.T) {
	cfg := &config.Config{Email: sendGridConfig("https://api.sendgrid.com")}
	assert.IsType(t, &SendGridSender{}, NewEmailService(cfg, zerolog.Nop()))

	cfg.Email.Enabled = false
	assert.IsType(t, &LogSender{}, NewEmailService(cfg, zerolog.Nop()))

	assert.NoError(t, NewLogSender(zerolog.Nop()).SendEmail(context.Background(), common.EmailData{To: []string{"x@y"}}))
}

func TestRenderDigestEmail_EscapesContent(t *testing.T) {
	body, err := renderDigestEmail(common.FrequencyWeekly, []*dbmysql.EmailDigestItem{
		{Title: "<script>alert(1)</script>", ActionURL: "/events/1"},
		{Title: "Second", Body: "more"},
	}, "https://nirala.test")
	require.NoError(t, err)

	assert.NotContains(t, body, "<script>")
	assert.True(t, containsAll(body, "weekly summary", "2 new notifications", "https://nirala.test/events/1", "https://nirala.test/notifications"))
}

func TestAbsoluteURL(t *testing.T) {
	assert.Equal(t, "https://a.test/x", absoluteURL("https://a.test/", "/x"))
	assert.Equal(t, "https://a.test/notifications", absoluteURL("https://a.test", ""))
	assert.Equal(t, "https://other.test/y", absoluteURL("https://a.test", "https://other.test/y"))
}
