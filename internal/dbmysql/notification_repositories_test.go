package dbmysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nirala/internal/common"
)

func setupTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return gormDB, mock, cleanup
}

func notificationColumns() []string {
	return []string{"id", "user_id", "actor_id", "type", "category", "subcategory",
		"title", "body", "action_url", "icon", "payload", "read_at", "created_at"}
}

func TestNotificationRepository_Create(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(sqlmock.Sqlmock)
		expectError bool
	}{
		{
			name: "successful create",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `notifications`").
					WillReturnResult(sqlmock.NewResult(42, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "database error",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `notifications`").
					WillReturnError(assert.AnError)
				mock.ExpectRollback()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := setupTestDB(t)
			defer cleanup()
			tt.mockSetup(mock)

			repo := NewNotificationRepository(db)
			n := &Notification{
				UserID:      "user-x",
				Type:        string(common.MarketplaceOfferReceived),
				Category:    string(common.CategoryMarketplace),
				Subcategory: "offers",
				Title:       "New offer on Bike",
				Payload:     map[string]interface{}{"itemTitle": "Bike"},
			}
			err := repo.Create(context.Background(), n)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, uint(42), n.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNotificationRepository_ByID(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `notifications` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(notificationColumns()).
			AddRow(7, "user-x", nil, "event_rsvp", "events", "rsvps", "New RSVP", "", "", "", []byte(`{"eventTitle":"Holi"}`), nil, now))

	n, err := repo.ByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "user-x", n.UserID)
	assert.Equal(t, "Holi", n.Payload["eventTitle"])
	assert.False(t, n.IsRead())

	mock.ExpectQuery("SELECT \\* FROM `notifications` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows(notificationColumns()))

	_, err = repo.ByID(context.Background(), 8)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListByUser(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT \\* FROM `notifications` WHERE user_id = \\? AND category = \\? AND read_at IS NULL ORDER BY created_at DESC,id DESC LIMIT").
		WillReturnRows(sqlmock.NewRows(notificationColumns()).
			AddRow(3, "user-x", nil, "job_posted", "jobs", "postings", "b", "", "", "", nil, nil, now).
			AddRow(2, "user-x", nil, "job_posted", "jobs", "postings", "a", "", "", "", nil, nil, now.Add(-time.Minute)))

	list, err := repo.ListByUser(context.Background(), "user-x", ListQuery{Limit: 20, Category: "jobs", UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint(3), list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `notifications` SET `read_at`=\\? WHERE .*read_at IS NULL").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.MarkRead(context.Background(), 5, "user-x", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllRead_Idempotent(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	for _, affected := range []int64{4, 0} {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `notifications` SET `read_at`=\\? WHERE user_id = \\? AND read_at IS NULL").
			WillReturnResult(sqlmock.NewResult(0, affected))
		mock.ExpectCommit()
	}

	first, err := repo.MarkAllRead(context.Background(), "user-x", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(4), first)

	second, err := repo.MarkAllRead(context.Background(), "user-x", time.Now())
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_UnreadCount(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notifications` WHERE .*user_id = \\? AND read_at IS NULL.* AND category = \\?").
		WithArgs("user-x", "marketplace").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.UnreadCount(context.Background(), "user-x", "marketplace")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultPreferences(t *testing.T) {
	rows := DefaultPreferences("user-x")

	expected := 0
	for _, c := range common.Categories() {
		expected += len(common.Subcategories(c))
	}
	require.Len(t, rows, expected)
	for _, r := range rows {
		assert.True(t, r.InAppEnabled)
		assert.False(t, r.EmailEnabled)
		assert.Equal(t, "instant", r.EmailFrequency)
	}
}

func TestPreferenceRepository_EnsureDefaults_SkipsWhenComplete(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notification_preferences`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(len(DefaultPreferences("user-x"))))

	require.NoError(t, repo.EnsureDefaults(context.Background(), "user-x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_EnsureDefaults_InsertsMissing(t *testing.T) {
	db, mock, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewPreferenceRepository(db)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `notification_preferences`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `notification_preferences` .* ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, int64(len(DefaultPreferences("user-x")))))
	mock.ExpectCommit()

	require.NoError(t, repo.EnsureDefaults(context.Background(), "user-x"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPreferenceRepository_UpdatePartial(t *testing.T) {
	prefColumns := []string{"id", "user_id", "category", "subcategory", "in_app_enabled",
		"email_enabled", "email_frequency", "created_at", "updated_at"}
	enable := true

	t.Run("touches only given fields", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		repo := NewPreferenceRepository(db)

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM `notification_preferences` WHERE id = \\? AND user_id = \\?").
			WillReturnRows(sqlmock.NewRows(prefColumns).
				AddRow(11, "user-x", "jobs", "all", false, false, "weekly", now, now))
		mock.ExpectExec("UPDATE `notification_preferences` SET `email_enabled`=\\?,`updated_at`=\\? WHERE").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		rows, err := repo.UpdatePartial(context.Background(), "user-x", []PreferenceUpdate{{ID: 11, EmailEnabled: &enable}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].EmailEnabled)
		assert.False(t, rows[0].InAppEnabled)
		assert.Equal(t, "weekly", rows[0].EmailFrequency)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign row aborts batch", func(t *testing.T) {
		db, mock, cleanup := setupTestDB(t)
		defer cleanup()
		repo := NewPreferenceRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT \\* FROM `notification_preferences` WHERE id = \\? AND user_id = \\?").
			WillReturnRows(sqlmock.NewRows(prefColumns))
		mock.ExpectRollback()

		_, err := repo.UpdatePartial(context.Background(), "user-x", []PreferenceUpdate{{ID: 99, EmailEnabled: &enable}})
		assert.True(t, errors.Is(err, common.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
