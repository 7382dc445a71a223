package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"herdbook/internal/registry/models"
)

// Publisher streams committed audit entries to Kafka for downstream
// compliance consumers. Kafka is a sink, not the source of truth: the
// authoritative trail is the audit store, and a failed publish never affects
// a committed mutation.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// eventPayload is the JSON structure published to Kafka.
type eventPayload struct {
	EventID   string `json:"event_id"`
	AnimalID  uint64 `json:"animal_id"`
	Seq       uint64 `json:"seq"`
	Updater   string `json:"updater"`
	Timestamp string `json:"timestamp"`
	Field     string `json:"field"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

// NewPublisher connects to the given brokers and ensures the topic exists.
func NewPublisher(ctx context.Context, brokers []string, topic string) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure audit topic: %w", resp.Err)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish produces one audit entry, keyed by animal id so per-record ordering
// survives partitioning.
func (p *Publisher) Publish(ctx context.Context, entry models.AuditEntry) error {
	payload, err := json.Marshal(eventPayload{
		EventID:   uuid.NewString(),
		AnimalID:  uint64(entry.AnimalID),
		Seq:       entry.Seq,
		Updater:   string(entry.Updater),
		Timestamp: entry.Timestamp.Format(time.RFC3339Nano),
		Field:     entry.Field,
		OldValue:  entry.OldValue,
		NewValue:  entry.NewValue,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   fmt.Appendf(nil, "%d", entry.AnimalID),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the Kafka client.
func (p *Publisher) Close() {
	p.client.Close()
}
