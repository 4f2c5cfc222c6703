package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"video-processing/domain/event"
)

// DefaultChannel is the pub/sub channel events are relayed to
const DefaultChannel = "video-processing:events"

// publishTimeout bounds one Redis publish so a dead server cannot stall
// event delivery for long
const publishTimeout = 2 * time.Second

// RedisPublisher is the subset of *redis.Client the relay uses
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Config holds the Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// Relay forwards every bus event to a Redis pub/sub channel as JSON
type Relay struct {
	client  RedisPublisher
	closer  func() error
	channel string
	logger  *slog.Logger
}

// Option is a functional option for configuring Relay
type Option func(*Relay)

// WithPublisher sets a custom Redis publisher (for testing)
func WithPublisher(p RedisPublisher) Option {
	return func(r *Relay) {
		r.client = p
	}
}

// WithLogger sets the logger used for publish failures
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// New connects to Redis unless a publisher is injected
func New(ctx context.Context, cfg Config, opts ...Option) (*Relay, error) {
	r := &Relay{
		channel: cfg.Channel,
		logger:  slog.Default(),
	}
	if r.channel == "" {
		r.channel = DefaultChannel
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		r.client = client
		r.closer = client.Close
	}
	return r, nil
}

// Channel returns the channel events are published to
func (r *Relay) Channel() string {
	return r.channel
}

// Handle publishes one event. It is meant to be registered with
// SubscribeAll on the event bus.
func (r *Relay) Handle(e event.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		r.logger.Error("failed to encode event", "kind", e.Kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Warn("failed to relay event", "kind", e.Kind, "session_id", e.SessionID, "error", err)
	}
}

// Close releases the Redis connection the relay opened
func (r *Relay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
