package dbmongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const deliveryCollection = "notification_deliveries"

// Delivery channels recorded in the log.
const (
	ChannelEmail  = "email"
	ChannelDigest = "digest"
	ChannelPush   = "push"
)

// DeliveryRecord is one attempt to deliver a notification outside the app.
type DeliveryRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NotificationID uint               `bson:"notification_id" json:"notificationId"`
	UserID         string             `bson:"user_id" json:"userId"`
	Type           string             `bson:"type" json:"type"`
	Channel        string             `bson:"channel" json:"channel"`
	Success        bool               `bson:"success" json:"success"`
	Error          string             `bson:"error,omitempty" json:"error,omitempty"`
	Targets        int                `bson:"targets" json:"targets"`
	AttemptedAt    time.Time          `bson:"attempted_at" json:"attemptedAt"`
}

type DeliveryLog struct {
	coll *mongo.Collection
}

func NewDeliveryLog(mc *MongoClient) *DeliveryLog {
	return &DeliveryLog{coll: mc.Collection(deliveryCollection)}
}

// EnsureIndexes creates the lookup indexes and a 90 day expiry.
func (l *DeliveryLog) EnsureIndexes(ctx context.Context) error {
	_, err := l.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "notification_id", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "attempted_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "attempted_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32((90 * 24 * time.Hour).Seconds())),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create delivery log indexes: %w", err)
	}
	return nil
}

func (l *DeliveryLog) Record(ctx context.Context, rec *DeliveryRecord) error {
	if rec.AttemptedAt.IsZero() {
		rec.AttemptedAt = time.Now().UTC()
	}
	res, err := l.coll.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = id
	}
	return nil
}

// ByUser returns the newest attempts for userID.
func (l *DeliveryLog) ByUser(ctx context.Context, userID string, limit int64) ([]*DeliveryRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "attempted_at", Value: -1}}).SetLimit(limit)
	cur, err := l.coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer cur.Close(ctx)

	var out []*DeliveryRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode deliveries: %w", err)
	}
	return out, nil
}
