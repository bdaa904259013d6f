package notif

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"

	"nirala/internal/common"
	"nirala/internal/dbmongo"
	"nirala/internal/dbmysql"
	"nirala/internal/metrics"
	"nirala/internal/realtime"
)

// LiveObserver pushes stored notifications and the fresh unread count to
// the recipient's open connections.
type LiveObserver struct {
	publisher     realtime.Publisher
	notifications NotificationStore
	log           zerolog.Logger
}

func NewLiveObserver(publisher realtime.Publisher, notifications NotificationStore, log zerolog.Logger) *LiveObserver {
	return &LiveObserver{
		publisher:     publisher,
		notifications: notifications,
		log:           log.With().Str("observer", "live").Logger(),
	}
}

func (o *LiveObserver) Name() string {
	return "live_observer"
}

func (o *LiveObserver) Update(ctx context.Context, event common.NotificationEvent) error {
	if !event.InApp || event.NotificationID == 0 {
		return nil
	}

	err := o.publisher.PublishToUser(ctx, event.UserID, realtime.Event{
		Type:         realtime.EventNotification,
		Notification: notificationView(event),
	})
	metrics.RecordDelivery("live", err)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}

	count, err := o.notifications.UnreadCount(ctx, event.UserID, "")
	if err != nil {
		return err
	}
	return o.publisher.PublishToUser(ctx, event.UserID, realtime.UnreadCountEvent(realtime.ScopeNotifications, count))
}

func notificationView(event common.NotificationEvent) *dbmysql.Notification {
	return &dbmysql.Notification{
		ID:          event.NotificationID,
		UserID:      event.UserID,
		ActorID:     event.ActorID,
		Type:        string(event.Type),
		Category:    string(event.Classification.Category),
		Subcategory: event.Classification.Subcategory,
		Title:       event.Title,
		Body:        event.Body,
		ActionURL:   event.ActionURL,
		Icon:        event.Icon,
		Payload:     event.Payload,
		CreatedAt:   event.CreatedAt,
	}
}

// PushClient is the part of the FCM client the push observer needs.
type PushClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// PushObserver sends in-app notifications to the recipient's registered
// mobile and web devices through FCM.
type PushObserver struct {
	client     PushClient
	devices    DeviceStore
	deliveries DeliveryLog
	isStale    func(error) bool
	log        zerolog.Logger
}

func NewPushObserver(client PushClient, devices DeviceStore, deliveries DeliveryLog, log zerolog.Logger) *PushObserver {
	return &PushObserver{
		client:     client,
		devices:    devices,
		deliveries: deliveries,
		isStale: func(err error) bool {
			return messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err)
		},
		log: log.With().Str("observer", "push").Logger(),
	}
}

func (o *PushObserver) Name() string {
	return "fcm_observer"
}

func (o *PushObserver) Update(ctx context.Context, event common.NotificationEvent) error {
	if !event.InApp {
		return nil
	}

	devices, err := o.devices.ActiveByUserID(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to get devices: %w", err)
	}
	if len(devices) == 0 {
		return nil
	}

	tokens := make([]string, len(devices))
	for i, d := range devices {
		tokens[i] = d.DeviceToken
	}

	data := map[string]string{
		"type":       string(event.Type),
		"category":   string(event.Classification.Category),
		"action_url": event.ActionURL,
	}
	if event.NotificationID != 0 {
		data["notification_id"] = fmt.Sprint(event.NotificationID)
	}
	for key, value := range event.Payload {
		if _, taken := data[key]; !taken {
			data[key] = stringify(value)
		}
	}

	response, err := o.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
		Notification: &messaging.Notification{
			Title: event.Title,
			Body:  event.Body,
		},
		Data:   data,
		Tokens: tokens,
	})
	metrics.RecordDelivery(dbmongo.ChannelPush, err)
	o.record(ctx, event, len(tokens), err)
	if err != nil {
		return fmt.Errorf("failed to send FCM: %w", err)
	}

	o.retireStaleTokens(ctx, response, devices)
	o.log.Debug().
		Int("success", response.SuccessCount).
		Int("failure", response.FailureCount).
		Str("user_id", event.UserID).
		Msg("push sent")
	return nil
}

func (o *PushObserver) retireStaleTokens(ctx context.Context, response *messaging.BatchResponse, devices []*dbmysql.Device) {
	for i, result := range response.Responses {
		if result.Success || i >= len(devices) || !o.isStale(result.Error) {
			continue
		}
		if err := o.devices.Deactivate(ctx, devices[i].DeviceToken); err != nil {
			o.log.Warn().Err(err).Msg("failed to deactivate device token")
			continue
		}
		o.log.Info().Str("user_id", devices[i].UserID).Msg("deactivated stale device token")
	}
}

func (o *PushObserver) record(ctx context.Context, event common.NotificationEvent, targets int, sendErr error) {
	rec := &dbmongo.DeliveryRecord{
		NotificationID: event.NotificationID,
		UserID:         event.UserID,
		Type:           string(event.Type),
		Channel:        dbmongo.ChannelPush,
		Success:        sendErr == nil,
		Targets:        targets,
		AttemptedAt:    time.Now().UTC(),
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := o.deliveries.Record(ctx, rec); err != nil {
		o.log.Warn().Err(err).Msg("failed to record push delivery")
	}
}

// EmailObserver mails instant notifications right away and queues daily or
// weekly ones for the digest.
type EmailObserver struct {
	sender     common.EmailService
	digests    DigestStore
	users      UserDirectory
	deliveries DeliveryLog
	appBaseURL string
	log        zerolog.Logger
}

func NewEmailObserver(sender common.EmailService, digests DigestStore, users UserDirectory, deliveries DeliveryLog, appBaseURL string, log zerolog.Logger) *EmailObserver {
	return &EmailObserver{
		sender:     sender,
		digests:    digests,
		users:      users,
		deliveries: deliveries,
		appBaseURL: appBaseURL,
		log:        log.With().Str("observer", "email").Logger(),
	}
}

func (o *EmailObserver) Name() string {
	return "email_observer"
}

func (o *EmailObserver) Update(ctx context.Context, event common.NotificationEvent) error {
	if !event.Email {
		return nil
	}

	if event.Frequency == common.FrequencyDaily || event.Frequency == common.FrequencyWeekly {
		return o.enqueue(ctx, event)
	}

	users, err := o.users.ByIDs(ctx, []string{event.UserID})
	if err != nil {
		return fmt.Errorf("failed to look up recipient: %w", err)
	}
	user, ok := users[event.UserID]
	if !ok || user.Email == "" {
		o.log.Debug().Str("user_id", event.UserID).Msg("no email address, skipping")
		return nil
	}

	body, err := renderInstantEmail(event, o.appBaseURL)
	if err != nil {
		return err
	}
	sendErr := o.sender.SendEmail(ctx, common.EmailData{
		To:      []string{user.Email},
		Subject: event.Title,
		Body:    body,
		IsHTML:  true,
	})
	metrics.RecordDelivery(dbmongo.ChannelEmail, sendErr)
	o.record(ctx, event, sendErr)
	if sendErr != nil {
		return fmt.Errorf("failed to send email: %w", sendErr)
	}
	return nil
}

func (o *EmailObserver) enqueue(ctx context.Context, event common.NotificationEvent) error {
	item := &dbmysql.EmailDigestItem{
		UserID:         event.UserID,
		NotificationID: event.NotificationID,
		Type:           string(event.Type),
		Category:       string(event.Classification.Category),
		Title:          event.Title,
		Body:           event.Body,
		ActionURL:      event.ActionURL,
		Frequency:      string(event.Frequency),
		CreatedAt:      event.CreatedAt,
	}
	if err := o.digests.Enqueue(ctx, item); err != nil {
		return err
	}
	metrics.EmailsQueued.WithLabelValues(string(event.Frequency)).Inc()
	return nil
}

func (o *EmailObserver) record(ctx context.Context, event common.NotificationEvent, sendErr error) {
	rec := &dbmongo.DeliveryRecord{
		NotificationID: event.NotificationID,
		UserID:         event.UserID,
		Type:           string(event.Type),
		Channel:        dbmongo.ChannelEmail,
		Success:        sendErr == nil,
		Targets:        1,
		AttemptedAt:    time.Now().UTC(),
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := o.deliveries.Record(ctx, rec); err != nil {
		o.log.Warn().Err(err).Msg("failed to record email delivery")
	}
}
