package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jetwallet/internal/core/domain"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"
)

// Connect establishes a NATS connection and returns a JetStream context.
func Connect(url string, log zerolog.Logger) (*natsgo.Conn, jetstream.JetStream, error) {
	nc, err := natsgo.Connect(url,
		natsgo.Name("jetwallet"),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		natsgo.ReconnectHandler(func(_ *natsgo.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}

	return nc, js, nil
}

// EnsureStream creates or updates the stream that captures every wallet event
// published under prefix.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name, prefix string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{prefix + ".events.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}
	return nil
}

// Publisher implements ports.EventPublisher on JetStream.
// Subjects follow the pattern: {prefix}.events.{event_type}
type Publisher struct {
	js     jetstream.JetStream
	prefix string
	log    zerolog.Logger
}

// NewPublisher creates a JetStream event publisher.
func NewPublisher(js jetstream.JetStream, prefix string, log zerolog.Logger) *Publisher {
	return &Publisher{js: js, prefix: prefix, log: log.With().Str("component", "nats").Logger()}
}

// Subject returns the subject an event type is published on.
func (p *Publisher) Subject(t domain.EventType) string {
	return fmt.Sprintf("%s.events.%s", p.prefix, t)
}

// Publish sends the event and waits for the stream acknowledgement. The event
// id doubles as the JetStream message id so retries are de-duplicated.
func (p *Publisher) Publish(ctx context.Context, event domain.WalletEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ack, err := p.js.Publish(ctx, p.Subject(event.Type), data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}

	p.log.Debug().
		Str("event_id", event.ID).
		Str("type", string(event.Type)).
		Uint64("seq", ack.Sequence).
		Msg("event published")
	return nil
}
