package dbmysql

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nirala/internal/config"
)

// NewMySQL returns a GORM DB instance connected to MySQL
func NewMySQL(cnf *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	logLevel := logger.Info
	if cnf.IsProduction() {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(cnf.DSN()), &gorm.Config{
		Logger:      logger.Default.LogMode(logLevel),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if cnf.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	log.Info().
		Str("host", cnf.Database.Host).
		Str("database", cnf.Database.DatabaseName).
		Msg("connected to MySQL")

	return db, nil
}

// Migrate creates or updates every table owned by this service. The users
// table belongs to the identity service and is only read here.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Conversation{},
		&Message{},
		&Notification{},
		&NotificationPreference{},
		&EmailDigestItem{},
		&Device{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
