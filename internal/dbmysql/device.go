package dbmysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Device struct {
	DeviceToken  string    `gorm:"primaryKey;size:255" json:"token"`
	UserID       string    `gorm:"not null;index;size:128" json:"userId"`
	Platform     string    `gorm:"not null;size:10" json:"platform"`
	Active       bool      `gorm:"not null" json:"active"`
	RegisteredAt time.Time `gorm:"autoCreateTime" json:"registeredAt"`
	LastActive   time.Time `json:"lastActive"`
}

func (Device) TableName() string {
	return "devices"
}

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Upsert registers a token for a user, moving it over if another account
// registered the same token before.
func (r *DeviceRepository) Upsert(ctx context.Context, device *Device) error {
	device.Active = true
	device.LastActive = time.Now()
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "active", "last_active"}),
	}).Create(device).Error
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *DeviceRepository) ActiveByUserID(ctx context.Context, userID string) ([]*Device, error) {
	var devices []*Device
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&devices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) Deactivate(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).
		Model(&Device{}).
		Where("device_token = ?", token).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate device: %w", err)
	}
	return nil
}

// Delete removes a token owned by userID and reports whether a row went away.
func (r *DeviceRepository) Delete(ctx context.Context, userID, token string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("device_token = ? AND user_id = ?", token, userID).
		Delete(&Device{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete device: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
