package scanning

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
)

func newTestUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func TestSnapshotRoundTrip(t *testing.T) {
	t.Parallel()

	s := NewSession("0086395095005", CodeFormatEAN13)
	require.NoError(t, s.SelectLocation("pantry-id"))
	require.NoError(t, s.AttachPendingItem("abc123", &inventory.ProductSnapshot{Name: "Oat Milk"}, "dairy", 0.9))

	checkpointAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := NewSnapshot(s, checkpointAt)

	data, err := json.Marshal(snapshot)
	require.NoError(t, err)

	var restored PersistedSnapshot
	require.NoError(t, json.Unmarshal(data, &restored))

	assert.Equal(t, s.SessionID(), restored.SessionID())
	assert.Equal(t, "0086395095005", restored.Barcode())
	assert.Equal(t, CodeFormatEAN13, restored.CodeFormat())
	assert.Equal(t, StepCapturingExpiration, restored.Step())
	assert.Equal(t, "abc123", restored.PendingItemID())
	assert.Equal(t, "pantry-id", restored.StorageLocationID())
	assert.True(t, checkpointAt.Equal(restored.CheckpointAt()))
}

func TestSnapshotUnmarshalRejectsBadData(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"bad session id", `{"session_id":"nope","step":"REVIEWING","started_at":"2026-08-30T12:00:00Z","checkpoint_at":"2026-08-30T12:00:00Z"}`},
		{"unknown step", `{"session_id":"b5a9d1f0-98a1-4f3c-8d1a-111111111111","step":"LIMBO","started_at":"2026-08-30T12:00:00Z","checkpoint_at":"2026-08-30T12:00:00Z"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var snapshot PersistedSnapshot
			require.Error(t, json.Unmarshal([]byte(tt.data), &snapshot))
		})
	}
}

func TestSnapshotIsResumable(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	staleAfter := 24 * time.Hour

	tests := []struct {
		name         string
		step         SessionStep
		checkpointAt time.Time
		want         bool
	}{
		{"fresh pending step", StepCapturingExpiration, now.Add(-time.Hour), true},
		{"exactly at threshold", StepCapturingExpiration, now.Add(-staleAfter), true},
		{"past threshold", StepCapturingExpiration, now.Add(-staleAfter - time.Minute), false},
		{"terminal done", StepDone, now.Add(-time.Hour), false},
		{"terminal cancelled", StepCancelled, now.Add(-time.Hour), false},
		{"unspecified step", StepUnspecified, now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snapshot := ReconstructSnapshot(
				newTestUUID(t), "0086395095005", CodeFormatEAN13, "",
				tt.step, "abc123", "pantry-id",
				now.Add(-2*time.Hour), tt.checkpointAt,
			)
			assert.Equal(t, tt.want, snapshot.IsResumable(now, staleAfter))
		})
	}
}

func TestSnapshotRestoreSession(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	snapshot := ReconstructSnapshot(
		newTestUUID(t), "0086395095005", CodeFormatEAN13, "",
		StepCapturingExpiration, "abc123", "pantry-id",
		started, started.Add(time.Minute),
	)

	session, err := snapshot.RestoreSession()
	require.NoError(t, err)
	assert.Equal(t, snapshot.SessionID(), session.SessionID())
	assert.Equal(t, StepCapturingExpiration, session.Step())
	assert.Equal(t, "abc123", session.PendingItemID())
	assert.Equal(t, "pantry-id", session.StorageLocationID())
	assert.True(t, started.Equal(session.StartedAt()))

	// The restored session picks up where it left off.
	require.NoError(t, session.SkipExpiration())
	assert.Equal(t, StepSubmittingExpiration, session.Step())
}

func TestSnapshotRestoreRejectsMissingPendingItem(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC)
	snapshot := ReconstructSnapshot(
		newTestUUID(t), "0086395095005", CodeFormatEAN13, "",
		StepCapturingExpiration, "", "pantry-id",
		started, started.Add(time.Minute),
	)

	_, err := snapshot.RestoreSession()
	require.Error(t, err)
}
