package dbmysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nirala/internal/common"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// ListQuery narrows a notification listing. Zero values mean no filter.
type ListQuery struct {
	Limit      int
	Category   string
	UnreadOnly bool
}

func (r *NotificationRepository) Create(ctx context.Context, notification *Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ByID(ctx context.Context, id uint) (*Notification, error) {
	var notification Notification

	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("notification %d: %w", id, common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return &notification, nil
}

// ListByUser returns the newest notifications of userID first.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, q ListQuery) ([]*Notification, error) {
	var notifications []*Notification

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID)
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if q.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	if err := query.Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to get user notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead stamps one unread notification owned by userID. It returns the
// number of rows changed, which is zero when the row was already read.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uint, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", at)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notification as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at)

	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, userID, category string) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to get unread count: %w", err)
	}
	return count, nil
}

type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// PreferenceUpdate changes the non-nil fields of one preference row.
type PreferenceUpdate struct {
	ID             uint
	InAppEnabled   *bool
	EmailEnabled   *bool
	EmailFrequency *string
}

func (u PreferenceUpdate) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	if u.InAppEnabled != nil {
		cols["in_app_enabled"] = *u.InAppEnabled
	}
	if u.EmailEnabled != nil {
		cols["email_enabled"] = *u.EmailEnabled
	}
	if u.EmailFrequency != nil {
		cols["email_frequency"] = *u.EmailFrequency
	}
	return cols
}

func (u PreferenceUpdate) apply(p *NotificationPreference) {
	if u.InAppEnabled != nil {
		p.InAppEnabled = *u.InAppEnabled
	}
	if u.EmailEnabled != nil {
		p.EmailEnabled = *u.EmailEnabled
	}
	if u.EmailFrequency != nil {
		p.EmailFrequency = *u.EmailFrequency
	}
}

// DefaultPreferences is the full matrix a new user starts with.
func DefaultPreferences(userID string) []*NotificationPreference {
	var rows []*NotificationPreference
	for _, c := range common.Categories() {
		for _, sub := range common.Subcategories(c) {
			rows = append(rows, &NotificationPreference{
				UserID:         userID,
				Category:       string(c),
				Subcategory:    sub,
				InAppEnabled:   true,
				EmailEnabled:   false,
				EmailFrequency: string(common.FrequencyInstant),
			})
		}
	}
	return rows
}

func (r *PreferenceRepository) ListByUser(ctx context.Context, userID string) ([]*NotificationPreference, error) {
	var prefs []*NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return prefs, nil
}

// EnsureDefaults inserts any missing cells of the default matrix. Existing
// rows are left as they are.
func (r *PreferenceRepository) EnsureDefaults(ctx context.Context, userID string) error {
	defaults := DefaultPreferences(userID)

	var count int64
	if err := r.db.WithContext(ctx).Model(&NotificationPreference{}).
		Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count preferences: %w", err)
	}
	if count >= int64(len(defaults)) {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&defaults).Error
	if err != nil {
		return fmt.Errorf("failed to create default preferences: %w", err)
	}
	return nil
}

// ForClassification returns the master row and the subcategory row of one
// category, whichever exist.
func (r *PreferenceRepository) ForClassification(ctx context.Context, userID string, cl common.Classification) ([]*NotificationPreference, error) {
	var prefs []*NotificationPreference
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND subcategory IN ?",
			userID, string(cl.Category), []string{common.SubcategoryAll, cl.Subcategory}).
		Find(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return prefs, nil
}

// UpdatePartial applies every update in one transaction. A row that does not
// exist or belongs to someone else aborts the batch with ErrNotFound.
func (r *PreferenceRepository) UpdatePartial(ctx context.Context, userID string, updates []PreferenceUpdate) ([]*NotificationPreference, error) {
	updated := make([]*NotificationPreference, 0, len(updates))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var pref NotificationPreference
			if err := tx.Where("id = ? AND user_id = ?", u.ID, userID).First(&pref).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("preference %d: %w", u.ID, common.ErrNotFound)
				}
				return fmt.Errorf("failed to load preference: %w", err)
			}

			cols := u.columns()
			if len(cols) == 0 {
				updated = append(updated, &pref)
				continue
			}
			if err := tx.Model(&pref).Updates(cols).Error; err != nil {
				return fmt.Errorf("failed to update preference %d: %w", u.ID, err)
			}
			u.apply(&pref)
			updated = append(updated, &pref)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type DigestRepository struct {
	db *gorm.DB
}

func NewDigestRepository(db *gorm.DB) *DigestRepository {
	return &DigestRepository{db: db}
}

func (r *DigestRepository) Enqueue(ctx context.Context, item *EmailDigestItem) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to enqueue digest item: %w", err)
	}
	return nil
}

// Pending returns unsent items of one frequency created before cutoff,
// grouped by user then oldest first.
func (r *DigestRepository) Pending(ctx context.Context, frequency string, cutoff time.Time) ([]*EmailDigestItem, error) {
	var items []*EmailDigestItem
	err := r.db.WithContext(ctx).
		Where("frequency = ? AND sent_at IS NULL AND created_at <= ?", frequency, cutoff).
		Order("user_id ASC").Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending digest items: %w", err)
	}
	return items, nil
}

func (r *DigestRepository) MarkSent(ctx context.Context, ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&EmailDigestItem{}).
		Where("id IN ?", ids).
		Update("sent_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to mark digest items sent: %w", err)
	}
	return nil
}
