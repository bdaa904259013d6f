package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	targetUser         = "user"
	targetConversation = "conversation"
)

type envelope struct {
	Target  string          `json:"target"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// RedisBroker fans events out through a Redis channel so that every API
// instance delivers to its own connections. Publishing never writes to local
// clients directly; the instance hears its own message back through Run.
type RedisBroker struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	log     zerolog.Logger
}

func NewRedisBroker(rdb *redis.Client, channel string, hub *Hub, log zerolog.Logger) *RedisBroker {
	return &RedisBroker{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
		log:     log.With().Str("component", "redis_broker").Logger(),
	}
}

func (b *RedisBroker) PublishToConversation(ctx context.Context, conversationID string, event Event) error {
	return b.publish(ctx, targetConversation, conversationID, event)
}

func (b *RedisBroker) PublishToUser(ctx context.Context, userID string, event Event) error {
	return b.publish(ctx, targetUser, userID, event)
}

func (b *RedisBroker) publish(ctx context.Context, target, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	data, err := json.Marshal(envelope{Target: target, Key: key, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		// keep local peers live when redis is unreachable
		b.deliver(target, key, payload)
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

// Run relays channel messages to the local hub until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("relaying realtime events")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.dispatch([]byte(msg.Payload))
		}
	}
}

func (b *RedisBroker) dispatch(data []byte) int {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		b.log.Warn().Err(err).Msg("dropping malformed realtime envelope")
		return 0
	}
	return b.deliver(env.Target, env.Key, env.Payload)
}

func (b *RedisBroker) deliver(target, key string, payload []byte) int {
	switch target {
	case targetUser:
		return b.hub.DeliverToUser(key, payload)
	case targetConversation:
		return b.hub.DeliverToConversation(key, payload)
	default:
		b.log.Warn().Str("target", target).Msg("unknown realtime target")
		return 0
	}
}
