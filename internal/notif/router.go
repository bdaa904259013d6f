package notif

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"nirala/internal/common"
	"nirala/internal/config"
	"nirala/internal/dbmysql"
	"nirala/internal/metrics"
	"nirala/internal/realtime"
)

const emitTimeout = 10 * time.Second

// Observers are the delivery channels subscribed to the router's manager.
type Observers []common.Observer

// EmitResult is what one emit did for its recipient.
type EmitResult struct {
	Notification   *dbmysql.Notification `json:"notification,omitempty"`
	Classification common.Classification `json:"-"`
	Decision       Decision              `json:"decision"`
}

// ListOptions filters a notification listing.
type ListOptions struct {
	Limit      int
	Category   string
	UnreadOnly bool
}

type PreferenceUpdateRequest struct {
	ID             uint    `json:"id" validate:"required"`
	InAppEnabled   *bool   `json:"inAppEnabled,omitempty"`
	EmailEnabled   *bool   `json:"emailEnabled,omitempty"`
	EmailFrequency *string `json:"emailFrequency,omitempty" validate:"omitempty,frequency"`
}

type UpdatePreferencesRequest struct {
	Preferences []PreferenceUpdateRequest `json:"preferences" validate:"required,min=1,dive"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,max=255"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

// Router classifies platform events, gates them through the recipient's
// preference matrix, persists the in-app row and hands delivery to the
// manager's observers.
type Router struct {
	manager       *NotificationManager
	notifications NotificationStore
	prefs         PreferenceStore
	devices       DeviceStore
	users         UserDirectory
	publisher     realtime.Publisher
	cfg           config.NotificationConfig
	log           zerolog.Logger
	now           func() time.Time
	wg            sync.WaitGroup
}

func NewRouter(
	cfg *config.Config,
	manager *NotificationManager,
	notifications NotificationStore,
	prefs PreferenceStore,
	devices DeviceStore,
	users UserDirectory,
	publisher realtime.Publisher,
	observers Observers,
	log zerolog.Logger,
) *Router {
	for _, obs := range observers {
		manager.Subscribe(obs)
	}
	return &Router{
		manager:       manager,
		notifications: notifications,
		prefs:         prefs,
		devices:       devices,
		users:         users,
		publisher:     publisher,
		cfg:           cfg.Notification,
		log:           log.With().Str("component", "notification_router").Logger(),
		now:           time.Now,
	}
}

// Emit delivers one event to recipientID according to their preferences.
// The returned notification is nil when in-app delivery is off. Only
// persistence failures are returned; channel delivery is best effort.
func (r *Router) Emit(ctx context.Context, recipientID string, t common.NotificationType, payload map[string]interface{}, actorID string) (*EmitResult, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipientId is required", common.ErrValidation)
	}
	if t == "" {
		return nil, fmt.Errorf("%w: type is required", common.ErrValidation)
	}

	cl, known := common.Classify(t)
	if !known {
		r.log.Warn().Str("type", string(t)).Msg("unclassified notification type")
		cl = common.Unclassified
	}
	category := string(cl.Category)

	prefs, err := r.prefs.ForClassification(ctx, recipientID, cl)
	if err != nil {
		metrics.RecordEmit(category, "failed")
		return nil, err
	}
	decision := Decide(prefs, cl)
	result := &EmitResult{Classification: cl, Decision: decision}

	if !decision.InApp && !decision.Email {
		metrics.RecordEmit(category, "suppressed")
		r.log.Debug().Str("type", string(t)).Str("user_id", recipientID).Msg("notification suppressed by preferences")
		return result, nil
	}

	if payload == nil {
		payload = map[string]interface{}{}
	}
	msg := Format(t, payload, r.actorName(ctx, actorID))
	var actor *string
	if actorID != "" {
		actor = &actorID
	}

	event := common.NotificationEvent{
		Type:           t,
		Classification: cl,
		UserID:         recipientID,
		ActorID:        actor,
		Title:          msg.Title,
		Body:           msg.Body,
		ActionURL:      msg.ActionURL,
		Icon:           msg.Icon,
		Payload:        payload,
		InApp:          decision.InApp,
		Email:          decision.Email,
		Frequency:      decision.Frequency,
		CreatedAt:      r.now().UTC(),
	}

	outcome := "email_only"
	if decision.InApp {
		n := &dbmysql.Notification{
			UserID:      recipientID,
			ActorID:     actor,
			Type:        string(t),
			Category:    category,
			Subcategory: cl.Subcategory,
			Title:       msg.Title,
			Body:        msg.Body,
			ActionURL:   msg.ActionURL,
			Icon:        msg.Icon,
			Payload:     datatypes.JSONMap(payload),
			CreatedAt:   event.CreatedAt,
		}
		if err := r.notifications.Create(ctx, n); err != nil {
			metrics.RecordEmit(category, "failed")
			return nil, err
		}
		event.NotificationID = n.ID
		result.Notification = n
		outcome = "stored"
	}

	r.manager.NotifyAsync(event)
	metrics.RecordEmit(category, outcome)
	return result, nil
}

// EmitAsync runs Emit in the background. Errors are logged.
func (r *Router) EmitAsync(recipientID string, t common.NotificationType, payload map[string]interface{}, actorID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if _, err := r.Emit(ctx, recipientID, t, payload, actorID); err != nil {
			r.log.Error().Err(err).Str("type", string(t)).Str("user_id", recipientID).Msg("async emit failed")
		}
	}()
}

func (r *Router) actorName(ctx context.Context, actorID string) string {
	if actorID == "" {
		return unknownActor
	}
	users, err := r.users.ByIDs(ctx, []string{actorID})
	if err != nil {
		r.log.Warn().Err(err).Str("actor_id", actorID).Msg("actor lookup failed")
		return unknownActor
	}
	if u, ok := users[actorID]; ok && u.DisplayName != "" {
		return u.DisplayName
	}
	return unknownActor
}

// MarkRead marks one notification of userID as read. Reading an already
// read notification is a no-op.
func (r *Router) MarkRead(ctx context.Context, id uint, userID string) (*dbmysql.Notification, error) {
	n, err := r.notifications.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, fmt.Errorf("notification %d: %w", id, common.ErrForbidden)
	}
	if n.IsRead() {
		return n, nil
	}

	at := r.now().UTC()
	changed, err := r.notifications.MarkRead(ctx, id, userID, at)
	if err != nil {
		return nil, err
	}
	if changed > 0 {
		n.ReadAt = &at
	} else if n, err = r.notifications.ByID(ctx, id); err != nil {
		return nil, err
	}

	r.pushUnreadCount(ctx, userID)
	return n, nil
}

func (r *Router) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	changed, err := r.notifications.MarkAllRead(ctx, userID, r.now().UTC())
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		r.pushUnreadCount(ctx, userID)
	}
	return changed, nil
}

func (r *Router) UnreadCount(ctx context.Context, userID, category string) (int64, error) {
	if err := validCategory(category); err != nil {
		return 0, err
	}
	return r.notifications.UnreadCount(ctx, userID, category)
}

// List returns the user's notifications newest first.
func (r *Router) List(ctx context.Context, userID string, opts ListOptions) ([]*dbmysql.Notification, error) {
	if err := validCategory(opts.Category); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = r.cfg.DefaultListLimit
	}
	if limit > r.cfg.MaxListLimit {
		limit = r.cfg.MaxListLimit
	}

	list, err := r.notifications.ListByUser(ctx, userID, dbmysql.ListQuery{
		Limit:      limit,
		Category:   opts.Category,
		UnreadOnly: opts.UnreadOnly,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*dbmysql.Notification{}
	}
	return list, nil
}

// GetPreferences returns the full matrix, creating missing cells first.
func (r *Router) GetPreferences(ctx context.Context, userID string) ([]*dbmysql.NotificationPreference, error) {
	if err := r.prefs.EnsureDefaults(ctx, userID); err != nil {
		return nil, err
	}
	return r.prefs.ListByUser(ctx, userID)
}

// UpdatePreferences applies a batch of partial updates atomically. Fields
// an item leaves out keep their value.
func (r *Router) UpdatePreferences(ctx context.Context, userID string, req UpdatePreferencesRequest) ([]*dbmysql.NotificationPreference, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}

	updates := make([]dbmysql.PreferenceUpdate, 0, len(req.Preferences))
	for _, p := range req.Preferences {
		if p.InAppEnabled == nil && p.EmailEnabled == nil && p.EmailFrequency == nil {
			return nil, fmt.Errorf("%w: preference %d has no fields to update", common.ErrValidation, p.ID)
		}
		updates = append(updates, dbmysql.PreferenceUpdate{
			ID:             p.ID,
			InAppEnabled:   p.InAppEnabled,
			EmailEnabled:   p.EmailEnabled,
			EmailFrequency: p.EmailFrequency,
		})
	}
	return r.prefs.UpdatePartial(ctx, userID, updates)
}

func (r *Router) RegisterDevice(ctx context.Context, userID string, req RegisterDeviceRequest) (*dbmysql.Device, error) {
	if err := common.ValidateStruct(req); err != nil {
		return nil, err
	}
	device := &dbmysql.Device{
		DeviceToken: req.Token,
		UserID:      userID,
		Platform:    req.Platform,
	}
	if err := r.devices.Upsert(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

func (r *Router) RemoveDevice(ctx context.Context, userID, token string) error {
	removed, err := r.devices.Delete(ctx, userID, token)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("device: %w", common.ErrNotFound)
	}
	return nil
}

func (r *Router) pushUnreadCount(ctx context.Context, userID string) {
	count, err := r.notifications.UnreadCount(ctx, userID, "")
	if err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("unread count refresh failed")
		return
	}
	if err := r.publisher.PublishToUser(ctx, userID, realtime.UnreadCountEvent(realtime.ScopeNotifications, count)); err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("unread count push failed")
	}
}

// Shutdown waits for in-flight async emits then stops the workers.
func (r *Router) Shutdown() {
	r.wg.Wait()
	r.manager.Shutdown()
	r.log.Info().Msg("notification router shutdown complete")
}

func validCategory(category string) error {
	if category == "" || common.Category(category).Valid() {
		return nil
	}
	return fmt.Errorf("%w: unknown category %q", common.ErrValidation, category)
}

