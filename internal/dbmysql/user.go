package dbmysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// User is the read-only view of the identity service's users table.
type User struct {
	ID          string    `gorm:"primaryKey;size:128" json:"id"`
	DisplayName string    `gorm:"size:120" json:"displayName"`
	Email       string    `gorm:"size:255;index" json:"email,omitempty"`
	AvatarURL   string    `gorm:"size:512" json:"avatarUrl,omitempty"`
	Status      string    `gorm:"size:20" json:"-"`
	CreatedAt   time.Time `json:"-"`
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ByIDs returns the users found for ids keyed by id. Missing ids are absent
// from the map.
func (r *UserRepository) ByIDs(ctx context.Context, ids []string) (map[string]*User, error) {
	out := make(map[string]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []*User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
