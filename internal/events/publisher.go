package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bodefavour/web3event/pkg/kafka"
)

// Publisher emits domain events for downstream consumers such as the
// notification worker.
type Publisher interface {
	TicketPurchased(ctx context.Context, e TicketPurchased)
	TicketCheckedIn(ctx context.Context, e TicketCheckedIn)
	TransactionSettled(ctx context.Context, e TransactionSettled)
}

type kafkaPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaPublisher publishes envelopes to the ticket topic, keyed by
// event ID so per-event ordering holds.
func NewKafkaPublisher(producer *kafka.Producer, topic string) Publisher {
	return &kafkaPublisher{producer: producer, topic: topic}
}

var _ Publisher = (*kafkaPublisher)(nil)

func (p *kafkaPublisher) TicketPurchased(ctx context.Context, e TicketPurchased) {
	p.publish(ctx, KindTicketPurchased, e.EventID.String(), e)
}

func (p *kafkaPublisher) TicketCheckedIn(ctx context.Context, e TicketCheckedIn) {
	p.publish(ctx, KindTicketCheckedIn, e.EventID.String(), e)
}

func (p *kafkaPublisher) TransactionSettled(ctx context.Context, e TransactionSettled) {
	p.publish(ctx, KindTransactionSettled, e.EventID.String(), e)
}

// publish is fire-and-forget: a broker outage must not fail the request
// that produced the event.
func (p *kafkaPublisher) publish(ctx context.Context, kind, key string, payload any) {
	buf, err := json.Marshal(Envelope{
		Kind:       kind,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	})
	if err != nil {
		return
	}
	p.producer.ProduceAsync(ctx, p.topic, []byte(key), buf)
}

// NopPublisher discards events. Used when Kafka is not configured and in
// tests.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) TicketPurchased(context.Context, TicketPurchased)       {}
func (NopPublisher) TicketCheckedIn(context.Context, TicketCheckedIn)       {}
func (NopPublisher) TransactionSettled(context.Context, TransactionSettled) {}

// DecodeEnvelope parses a raw message into its envelope with the payload
// left as JSON for kind-specific decoding.
func DecodeEnvelope(raw []byte) (kind string, payload json.RawMessage, err error) {
	var env struct {
		Kind    string          `json:"kind"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("decode event envelope: %w", err)
	}
	return env.Kind, env.Payload, nil
}
