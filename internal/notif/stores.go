package notif

import (
	"context"
	"time"

	"nirala/internal/common"
	"nirala/internal/dbmongo"
	"nirala/internal/dbmysql"
)

type NotificationStore interface {
	Create(ctx context.Context, notification *dbmysql.Notification) error
	ByID(ctx context.Context, id uint) (*dbmysql.Notification, error)
	ListByUser(ctx context.Context, userID string, q dbmysql.ListQuery) ([]*dbmysql.Notification, error)
	MarkRead(ctx context.Context, id uint, userID string, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	UnreadCount(ctx context.Context, userID, category string) (int64, error)
}

type PreferenceStore interface {
	ListByUser(ctx context.Context, userID string) ([]*dbmysql.NotificationPreference, error)
	EnsureDefaults(ctx context.Context, userID string) error
	ForClassification(ctx context.Context, userID string, cl common.Classification) ([]*dbmysql.NotificationPreference, error)
	UpdatePartial(ctx context.Context, userID string, updates []dbmysql.PreferenceUpdate) ([]*dbmysql.NotificationPreference, error)
}

type DeviceStore interface {
	Upsert(ctx context.Context, device *dbmysql.Device) error
	ActiveByUserID(ctx context.Context, userID string) ([]*dbmysql.Device, error)
	Deactivate(ctx context.Context, token string) error
	Delete(ctx context.Context, userID, token string) (bool, error)
}

type DigestStore interface {
	Enqueue(ctx context.Context, item *dbmysql.EmailDigestItem) error
	Pending(ctx context.Context, frequency string, cutoff time.Time) ([]*dbmysql.EmailDigestItem, error)
	MarkSent(ctx context.Context, ids []uint, at time.Time) error
}

type UserDirectory interface {
	ByIDs(ctx context.Context, ids []string) (map[string]*dbmysql.User, error)
}

// DeliveryLog records email and push attempts.
type DeliveryLog interface {
	Record(ctx context.Context, rec *dbmongo.DeliveryRecord) error
}

// NopDeliveryLog is used when no audit store is configured.
type NopDeliveryLog struct{}

func (NopDeliveryLog) Record(context.Context, *dbmongo.DeliveryRecord) error { return nil }

var (
	_ NotificationStore = (*dbmysql.NotificationRepository)(nil)
	_ PreferenceStore   = (*dbmysql.PreferenceRepository)(nil)
	_ DeviceStore       = (*dbmysql.DeviceRepository)(nil)
	_ DigestStore       = (*dbmysql.DigestRepository)(nil)
	_ UserDirectory     = (*dbmysql.UserRepository)(nil)
	_ DeliveryLog       = (*dbmongo.DeliveryLog)(nil)
)
