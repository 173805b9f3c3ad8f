package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event is one decoded stream entry. The producer writes flat string fields;
// Payload stays raw JSON until the handler knows which shape to expect.
type Event struct {
	MessageID string
	EventID   string
	EventType string
	Source    string
	CreatedAt time.Time
	Payload   json.RawMessage
	Metadata  map[string]string
}

// EventHandler processes events from the stream. A non-nil return leaves
// the message unacknowledged so the group redelivers it.
type EventHandler interface {
	HandleEvent(ctx context.Context, event Event) error
}

// Consumer reads contact change events from a Redis Stream via a consumer
// group and feeds them to an EventHandler one at a time. Messages are
// acknowledged individually, only after the handler accepted them.
type Consumer struct {
	client  *redis.Client
	config  Config
	handler EventHandler
	logger  *slog.Logger
	done    chan struct{}
}

func NewConsumer(config Config, handler EventHandler, logger *slog.Logger) (*Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !config.Enabled {
		return &Consumer{config: config, logger: logger}, nil
	}

	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		client:  redis.NewClient(opts),
		config:  config,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start creates the consumer group if needed and launches the read loop.
// A disabled consumer starts as a no-op so bootstrap wiring stays uniform.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("consumer disabled, not starting")
		return nil
	}

	err := c.client.XGroupCreateMkStream(ctx, c.config.StreamKey, c.config.GroupName, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}

	c.logger.Info("starting consumer",
		"stream", c.config.StreamKey,
		"group", c.config.GroupName,
		"consumer", c.config.ConsumerName,
	)

	go c.run(ctx)
	return nil
}

// Stop ends the read loop and closes the Redis connection.
func (c *Consumer) Stop() {
	if c.done != nil {
		close(c.done)
	}
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Consumer) IsEnabled() bool {
	return c.config.Enabled
}

// isBusyGroup reports whether group creation failed because the group is
// already there, which is the normal case on every restart.
func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (c *Consumer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer context cancelled, stopping")
			return
		case <-c.done:
			c.logger.Info("consumer shutdown requested, stopping")
			return
		default:
		}

		messages, err := c.read(ctx)
		if err != nil {
			c.logger.Error("error reading from stream", "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, message := range messages {
			c.process(ctx, message)
		}
	}
}

// read blocks for up to BlockTimeout and returns the next batch, empty when
// the stream had nothing new.
func (c *Consumer) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.config.GroupName,
		Consumer: c.config.ConsumerName,
		Streams:  []string{c.config.StreamKey, ">"},
		Count:    c.config.BatchSize,
		Block:    c.config.BlockTimeout,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

func (c *Consumer) process(ctx context.Context, message redis.XMessage) {
	event := decodeEvent(message)

	if err := c.handler.HandleEvent(ctx, event); err != nil {
		// Unacknowledged messages are redelivered.
		c.logger.Error("failed to process event",
			"message_id", message.ID,
			"event_type", event.EventType,
			"error", err,
		)
		return
	}

	if err := c.client.XAck(ctx, c.config.StreamKey, c.config.GroupName, message.ID).Err(); err != nil {
		c.logger.Error("failed to acknowledge message",
			"message_id", message.ID,
			"error", err,
		)
	}
}

// decodeEvent maps the flat stream fields onto an Event. Missing or
// wrongly-typed fields leave zero values; the handler validates what it
// actually needs.
func decodeEvent(message redis.XMessage) Event {
	event := Event{
		MessageID: message.ID,
		Metadata:  make(map[string]string),
	}

	stringField := func(key string) string {
		v, _ := message.Values[key].(string)
		return v
	}

	event.EventID = stringField("event_id")
	event.EventType = stringField("event_type")
	event.Source = stringField("source")
	if v := stringField("created_at"); v != "" {
		event.CreatedAt, _ = time.Parse(time.RFC3339, v)
	}
	if v := stringField("payload"); v != "" {
		event.Payload = json.RawMessage(v)
	}
	if v := stringField("metadata"); v != "" {
		_ = json.Unmarshal([]byte(v), &event.Metadata)
	}

	return event
}
