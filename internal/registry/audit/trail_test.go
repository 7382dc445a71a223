package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"herdbook/internal/registry/models"
)

func TestTrail_AppendStoresWithoutFanOut(t *testing.T) {
	inbox := make(chan models.AuditEntry, 1)
	trail := NewTrail(NewInMemoryStore()).WithInbox(inbox)

	entry, err := trail.Append(context.Background(), models.AuditEntry{
		AnimalID: 3,
		Updater:  "farmer1",
		Field:    models.FieldOwner,
		OldValue: "farmer1",
		NewValue: "farmer2",
	})
	require.NoError(t, err)
	require.Equal(t, uint64(1), entry.Seq)

	// The entry is durable but not yet published: the transaction around the
	// append may still roll back, so fan-out waits for Notify.
	select {
	case <-inbox:
		t.Fatal("append must not publish before the facade confirms the commit")
	default:
	}
}

func TestTrail_NotifyFansOutCommittedEntries(t *testing.T) {
	inbox := make(chan models.AuditEntry, 1)
	trail := NewTrail(NewInMemoryStore()).WithInbox(inbox)

	entry, err := trail.Append(context.Background(), models.AuditEntry{
		AnimalID: 3,
		Field:    models.FieldLocation,
		OldValue: "Farm A",
		NewValue: "Farm B",
	})
	require.NoError(t, err)

	trail.Notify(entry)

	select {
	case got := <-inbox:
		assert.Equal(t, entry, got, "fan-out copy carries the assigned seq")
	default:
		t.Fatal("expected a fan-out entry in the inbox")
	}
}

func TestTrail_FullInboxNeverBlocksNotify(t *testing.T) {
	inbox := make(chan models.AuditEntry) // unbuffered and never drained
	trail := NewTrail(NewInMemoryStore()).WithInbox(inbox)

	entry, err := trail.Append(context.Background(), models.AuditEntry{
		AnimalID: 3,
		Field:    models.FieldStatus,
	})
	require.NoError(t, err)

	trail.Notify(entry)

	count, err := trail.Count(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "the stored entry survives a dropped fan-out copy")
	assert.Equal(t, uint64(1), entry.Seq)
}

func TestTrail_NotifyWithoutInboxIsNoOp(t *testing.T) {
	trail := NewTrail(NewInMemoryStore())
	trail.Notify(models.AuditEntry{AnimalID: 1, Seq: 1})
}
