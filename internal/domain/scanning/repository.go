package scanning

import (
	"context"
	"errors"
)

// ErrNoSnapshot is returned when no snapshot exists for a device.
var ErrNoSnapshot = errors.New("no persisted snapshot")

// SnapshotStore persists the resumable projection of the in-flight session.
// A device owns at most one snapshot; saving replaces any existing one.
type SnapshotStore interface {
	// Save writes or replaces the snapshot for a device.
	Save(ctx context.Context, deviceID string, snapshot PersistedSnapshot) error

	// Load returns the snapshot for a device or ErrNoSnapshot.
	Load(ctx context.Context, deviceID string) (PersistedSnapshot, error)

	// Clear removes the snapshot for a device. Clearing an absent snapshot
	// is not an error.
	Clear(ctx context.Context, deviceID string) error
}
