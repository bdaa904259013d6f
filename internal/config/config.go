package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// MongoDB holds the delivery log
	MongoDB MongoDBConfig `json:"mongodb"`

	// Redis fan-out between API replicas (optional)
	Redis RedisConfig `json:"redis"`

	// Firebase Configuration
	Firebase FirebaseConfig `json:"firebase"`

	// Notification Configuration
	Notification NotificationConfig `json:"notification"`

	// Email Configuration (optional)
	Email EmailConfig `json:"email"`

	Auth AuthConfig `json:"auth"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port            string   `json:"port" env:"SERVER_PORT" envDefault:"8080"`
	Host            string   `json:"host" env:"SERVER_HOST" envDefault:"0.0.0.0"`
	NotifGRPCPort   string   `json:"notif_grpc_port" env:"NOTIF_GRPC_PORT" envDefault:"7004"`
	ReadTimeout     int      `json:"read_timeout" env:"SERVER_READ_TIMEOUT" envDefault:"15"`
	WriteTimeout    int      `json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" envDefault:"15"`
	ShutdownTimeout int      `json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30"`
	Environment     string   `json:"environment" env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	AllowedOrigins  []string `json:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string `json:"host" env:"MYSQL_HOST" envDefault:"localhost"`
	Port         string `json:"port" env:"MYSQL_PORT" envDefault:"3306"`
	Username     string `json:"username" env:"MYSQL_USERNAME" envDefault:"nirala"`
	Password     string `json:"password" env:"MYSQL_PASSWORD"`
	DatabaseName string `json:"database_name" env:"MYSQL_DATABASE" envDefault:"nirala"`
	MaxOpenConns int    `json:"max_open_conns" env:"MYSQL_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `json:"max_idle_conns" env:"MYSQL_MAX_IDLE_CONNS" envDefault:"5"`
	AutoMigrate  bool   `json:"auto_migrate" env:"MYSQL_AUTO_MIGRATE" envDefault:"true"`
}

type MongoDBConfig struct {
	Host     string `json:"host" env:"MONGO_HOST" envDefault:"localhost"`
	Port     string `json:"port" env:"MONGO_PORT" envDefault:"27017"`
	Username string `json:"username" env:"MONGO_USERNAME"`
	Password string `json:"password" env:"MONGO_PASSWORD"`
	Database string `json:"database" env:"MONGO_DATABASE" envDefault:"nirala"`
	Enabled  bool   `json:"enabled" env:"MONGO_ENABLED" envDefault:"false"`
}

type RedisConfig struct {
	Addr     string `json:"addr" env:"REDIS_ADDR"`
	Password string `json:"password" env:"REDIS_PASSWORD"`
	DB       int    `json:"db" env:"REDIS_DB" envDefault:"0"`
	Channel  string `json:"channel" env:"REDIS_CHANNEL" envDefault:"nirala:realtime"`
}

// FirebaseConfig contains Firebase Cloud Messaging configuration
type FirebaseConfig struct {
	ProjectID           string `json:"project_id" env:"FIREBASE_PROJECT_ID"`
	CredentialsFilePath string `json:"credentials_file_path" env:"FIREBASE_CREDENTIALS_PATH"`
	Enabled             bool   `json:"enabled" env:"FIREBASE_ENABLED" envDefault:"false"`
}

// NotificationConfig contains notification system configuration
type NotificationConfig struct {
	Workers           int    `json:"workers" env:"NOTIF_WORKERS" envDefault:"5"`                      // Number of worker goroutines
	ChannelBufferSize int    `json:"channel_buffer_size" env:"NOTIF_BUFFER_SIZE" envDefault:"1000"` // Channel buffer size
	DigestDailyAt     string `json:"digest_daily_at" env:"DIGEST_DAILY_AT" envDefault:"08:00"`
	DigestWeeklyDay   string `json:"digest_weekly_day" env:"DIGEST_WEEKLY_DAY" envDefault:"monday"`
	DigestEnabled     bool   `json:"digest_enabled" env:"DIGEST_ENABLED" envDefault:"true"` // only one process per deployment should run digests
	DefaultListLimit  int    `json:"default_list_limit" env:"NOTIF_DEFAULT_LIMIT" envDefault:"20"`
	MaxListLimit      int    `json:"max_list_limit" env:"NOTIF_MAX_LIMIT" envDefault:"100"`
	Enabled           bool   `json:"enabled" env:"NOTIF_ENABLED" envDefault:"true"`
}

// EmailConfig contains email service configuration (optional)
type EmailConfig struct {
	Provider        string `json:"provider" env:"EMAIL_PROVIDER" envDefault:"log"` // sendgrid, log
	SendGridAPIKey  string `json:"-" env:"SENDGRID_API_KEY"`
	SendGridBaseURL string `json:"sendgrid_base_url" env:"SENDGRID_BASE_URL" envDefault:"https://api.sendgrid.com"`
	FromEmail       string `json:"from_email" env:"FROM_EMAIL" envDefault:"no-reply@nirala.local"`
	FromName        string `json:"from_name" env:"FROM_NAME" envDefault:"Nirala Techie"`
	AppBaseURL      string `json:"app_base_url" env:"APP_BASE_URL" envDefault:"http://localhost:5173"`
	Enabled         bool   `json:"enabled" env:"EMAIL_ENABLED" envDefault:"false"`
}

type AuthConfig struct {
	JWTSecret     string        `json:"-" env:"JWT_SECRET"`
	Issuer        string        `json:"issuer" env:"JWT_ISSUER" envDefault:"nirala"`
	TokenCacheTTL time.Duration `json:"token_cache_ttl" env:"JWT_CACHE_TTL" envDefault:"5m"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" envDefault:"info"`    // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"json"` // json, console
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		if cfg.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in %s", cfg.Server.Environment)
		}
		cfg.Auth.JWTSecret = "dev-secret"
	}
	if cfg.Notification.Workers <= 0 {
		return fmt.Errorf("NOTIF_WORKERS must be positive, got %d", cfg.Notification.Workers)
	}
	if cfg.Notification.DefaultListLimit <= 0 || cfg.Notification.DefaultListLimit > cfg.Notification.MaxListLimit {
		return fmt.Errorf("NOTIF_DEFAULT_LIMIT must be between 1 and NOTIF_MAX_LIMIT")
	}
	switch cfg.Email.Provider {
	case "log":
	case "sendgrid":
		if cfg.Email.Enabled && cfg.Email.SendGridAPIKey == "" {
			return fmt.Errorf("SENDGRID_API_KEY is required when EMAIL_PROVIDER=sendgrid")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.Email.Provider)
	}
	return nil
}

func (cfg *Config) IsProduction() bool {
	return cfg.Server.Environment == "production" || cfg.Server.Environment == "staging"
}

func (cfg *Config) DSN() string {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "3306"
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DatabaseName,
	)
}

func (cfg *Config) GetMongoURI() string {
	if cfg.MongoDB.Username != "" && cfg.MongoDB.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=admin",
			cfg.MongoDB.Username,
			cfg.MongoDB.Password,
			cfg.MongoDB.Host,
			cfg.MongoDB.Port,
			cfg.MongoDB.Database,
		)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s", cfg.MongoDB.Host, cfg.MongoDB.Port, cfg.MongoDB.Database)
}

// Addr returns the HTTP listen address.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
}

func (cfg *Config) GRPCAddr() string {
	return fmt.Sprintf(":%s", cfg.Server.NotifGRPCPort)
}
