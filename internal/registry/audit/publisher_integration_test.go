//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"herdbook/internal/registry/audit"
	"herdbook/internal/registry/models"
	"herdbook/pkg/testutil/containers"
)

func TestPublisherRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)

	publisher, err := audit.NewPublisher(ctx, []string{broker.Broker}, "herdbook.audit.test")
	require.NoError(t, err)
	defer publisher.Close()

	entry := models.AuditEntry{
		AnimalID:  7,
		Seq:       3,
		Updater:   "farmer1",
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Field:     models.FieldLocation,
		OldValue:  "Farm A",
		NewValue:  "Farm B",
	}
	require.NoError(t, publisher.Publish(ctx, entry))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.Broker),
		kgo.ConsumeTopics("herdbook.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	require.Equal(t, "7", string(records[0].Key))

	var payload struct {
		EventID  string `json:"event_id"`
		AnimalID uint64 `json:"animal_id"`
		Seq      uint64 `json:"seq"`
		Updater  string `json:"updater"`
		Field    string `json:"field"`
		OldValue string `json:"old_value"`
		NewValue string `json:"new_value"`
	}
	require.NoError(t, json.Unmarshal(records[0].Value, &payload))
	require.NotEmpty(t, payload.EventID)
	require.Equal(t, uint64(7), payload.AnimalID)
	require.Equal(t, uint64(3), payload.Seq)
	require.Equal(t, "farmer1", payload.Updater)
	require.Equal(t, models.FieldLocation, payload.Field)
	require.Equal(t, "Farm A", payload.OldValue)
	require.Equal(t, "Farm B", payload.NewValue)
}

func TestPublisherIsIdempotentOnExistingTopic(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := containers.NewRedpandaContainer(t)

	first, err := audit.NewPublisher(ctx, []string{broker.Broker}, "herdbook.audit.test")
	require.NoError(t, err)
	first.Close()

	second, err := audit.NewPublisher(ctx, []string{broker.Broker}, "herdbook.audit.test")
	require.NoError(t, err)
	second.Close()
}
