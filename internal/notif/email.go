package notif

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/dbmysql"
)

const sendGridPath = "/v3/mail/send"

// NewEmailService picks the sender configured by EMAIL_PROVIDER. With email
// disabled every message is only logged.
func NewEmailService(cfg *config.Config, log zerolog.Logger) common.EmailService {
	if cfg.Email.Enabled && cfg.Email.Provider == "sendgrid" {
		return NewSendGridSender(cfg.Email, log)
	}
	return NewLogSender(log)
}

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	client    *resty.Client
	fromEmail string
	fromName  string
	log       zerolog.Logger
}

func NewSendGridSender(cfg config.EmailConfig, log zerolog.Logger) *SendGridSender {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.SendGridBaseURL, "/")).
		SetAuthToken(cfg.SendGridAPIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		log:       log.With().Str("component", "sendgrid").Logger(),
	}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (s *SendGridSender) SendEmail(ctx context.Context, email common.EmailData) error {
	if len(email.To) == 0 {
		return fmt.Errorf("%w: email has no recipients", common.ErrValidation)
	}

	to := make([]sendGridAddress, len(email.To))
	for i, addr := range email.To {
		to[i] = sendGridAddress{Email: addr}
	}
	contentType := "text/plain"
	if email.IsHTML {
		contentType = "text/html"
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(sendGridMail{
			Personalizations: []sendGridPersonalization{{To: to}},
			From:             sendGridAddress{Email: s.fromEmail, Name: s.fromName},
			Subject:          email.Subject,
			Content:          []sendGridContent{{Type: contentType, Value: email.Body}},
		}).
		Post(sendGridPath)
	if err != nil {
		return fmt.Errorf("failed to call SendGrid: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("SendGrid returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	s.log.Debug().Int("recipients", len(email.To)).Str("subject", email.Subject).Msg("email sent")
	return nil
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "email_log").Logger()}
}

func (s *LogSender) SendEmail(_ context.Context, email common.EmailData) error {
	s.log.Info().Strs("to", email.To).Str("subject", email.Subject).Msg("email (not sent)")
	return nil
}

var instantTemplate = template.Must(template.New("instant").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>{{.Title}}</h2>
{{if .Body}}<p>{{.Body}}</p>{{end}}
<p><a href="{{.Link}}">Open in Nirala Techie</a></p>
<p style="color:#888;font-size:12px">You can change how we email you in <a href="{{.SettingsLink}}">notification settings</a>.</p>
</body></html>`))

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>Your {{.Period}} summary</h2>
<p>You have {{len .Items}} new notification{{if ne (len .Items) 1}}s{{end}}.</p>
<ul>
{{range .Items}}<li><a href="{{.Link}}"><strong>{{.Title}}</strong></a>{{if .Body}}<br>{{.Body}}{{end}}</li>
{{end}}</ul>
<p style="color:#888;font-size:12px">You can change how we email you in <a href="{{.SettingsLink}}">notification settings</a>.</p>
</body></html>`))

type emailLine struct {
	Title, Body, Link string
}

func renderInstantEmail(event common.NotificationEvent, baseURL string) (string, error) {
	var buf bytes.Buffer
	err := instantTemplate.Execute(&buf, struct {
		Title, Body, Link, SettingsLink string
	}{
		Title:        event.Title,
		Body:         event.Body,
		Link:         absoluteURL(baseURL, event.ActionURL),
		SettingsLink: absoluteURL(baseURL, "/settings/notifications"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

func renderDigestEmail(freq common.EmailFrequency, items []*dbmysql.EmailDigestItem, baseURL string) (string, error) {
	lines := make([]emailLine, len(items))
	for i, it := range items {
		lines[i] = emailLine{Title: it.Title, Body: it.Body, Link: absoluteURL(baseURL, it.ActionURL)}
	}
	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Period       string
		Items        []emailLine
		SettingsLink string
	}{
		Period:       string(freq),
		Items:        lines,
		SettingsLink: absoluteURL(baseURL, "/settings/notifications"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render digest: %w", err)
	}
	return buf.String(), nil
}

func absoluteURL(base, path string) string {
	if path == "" {
		path = "/notifications"
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
