package dbmongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nirala/internal/config"
)

func integrationConfig(t *testing.T) *config.Config {
	if os.Getenv("MONGO_INTEGRATION") != "1" {
		t.Skip("set MONGO_INTEGRATION=1 to run against a live MongoDB")
	}
	return &config.Config{
		MongoDB: config.MongoDBConfig{
			Host:     getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:     getEnvOrDefault("MONGO_PORT", "27017"),
			Username: getEnvOrDefault("MONGO_USERNAME", "admin"),
			Password: getEnvOrDefault("MONGO_PASSWORD", "admin123"),
			Database: getEnvOrDefault("MONGO_DATABASE", "nirala_test"),
		},
	}
}

func TestDeliveryLog_Integration(t *testing.T) {
	cfg := integrationConfig(t)
	ctx := context.Background()

	client, err := NewMongoConnection(cfg)
	require.NoError(t, err, "Failed to connect to MongoDB")
	defer client.Close(ctx)

	log := NewDeliveryLog(client)
	require.NoError(t, log.EnsureIndexes(ctx))

	userID := "it-user-" + time.Now().Format("150405.000")
	rec := &DeliveryRecord{NotificationID: 1, UserID: userID, Type: "event_rsvp", Channel: ChannelPush, Success: false, Error: "unregistered", Targets: 2}
	require.NoError(t, log.Record(ctx, rec))
	assert.False(t, rec.ID.IsZero())

	got, err := log.ByUser(ctx, userID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "unregistered", got[0].Error)
	assert.Equal(t, 2, got[0].Targets)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
