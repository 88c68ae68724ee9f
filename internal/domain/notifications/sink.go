package notifications

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Sink hands a message to the delivery channel.
type Sink interface {
	Deliver(ctx context.Context, msg Message) error
}

// RedisSink appends messages to a redis list consumed by the push gateway.
type RedisSink struct {
	Client redis.Cmdable
	Key    string
}

func NewRedisSink(client redis.Cmdable, key string) *RedisSink {
	return &RedisSink{Client: client, Key: key}
}

func (s *RedisSink) Deliver(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Client.RPush(ctx, s.Key, payload).Err()
}

// LogSink records messages in the service log; used when no gateway is configured.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, msg Message) error {
	log := s.Log
	if log == nil {
		log = zap.L()
	}
	log.Info("notification",
		zap.String("kind", msg.Kind),
		zap.String("title", msg.Title),
		zap.String("requestId", msg.RequestID),
	)
	return nil
}
