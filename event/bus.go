package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is an in-process pub/sub surface for engine events. Payloads are
// JSON-encoded typed structs; each subscription runs its own dispatch
// goroutine and is released by the returned unsubscribe func.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger

	mu     sync.Mutex
	cancel []context.CancelFunc
	closed bool
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		logger: logger,
	}
}

// Publish marshals payload and publishes it on topic. Publish failures are
// logged, never propagated: telemetry must not fail the pipeline.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("failed to marshal event payload", "topic", topic, "err", err)
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := b.pubSub.Publish(topic, msg); err != nil {
		b.logger.Error("failed to publish event", "topic", topic, "err", err)
	}
}

// Subscribe attaches handler to topic. The handler receives the raw JSON
// payload. The returned func cancels the subscription.
func (b *Bus) Subscribe(topic string, handler func(payload []byte)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	messages, err := b.pubSub.Subscribe(ctx, topic)
	if err != nil {
		cancel()
		return nil, err
	}

	b.mu.Lock()
	b.cancel = append(b.cancel, cancel)
	b.mu.Unlock()

	go func() {
		for msg := range messages {
			handler(msg.Payload)
			msg.Ack()
		}
	}()

	return cancel, nil
}

// Forward republishes every payload arriving on from under the to topic.
// Used to expose internal component topics under public event names.
func (b *Bus) Forward(from, to string) error {
	_, err := b.Subscribe(from, func(payload []byte) {
		b.mu.Lock()
		closed := b.closed
		b.mu.Unlock()
		if closed {
			return
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		if err := b.pubSub.Publish(to, msg); err != nil {
			b.logger.Error("failed to forward event", "from", from, "to", to, "err", err)
		}
	})
	return err
}

// Close cancels all subscriptions and shuts the bus down.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return b.pubSub.Close()
}

// Decode unmarshals a payload produced by Publish.
func Decode[T any](payload []byte) (T, error) {
	var value T
	err := json.Unmarshal(payload, &value)
	return value, err
}
