// Package memory provides an in-memory implementation of the snapshot store
// for tests and development environments where durability is not required.
package memory

import (
	"context"
	"sync"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
)

var _ scanning.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is an in-memory scanning.SnapshotStore keyed by device id.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]scanning.PersistedSnapshot
}

// NewSnapshotStore creates an empty in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snapshots: make(map[string]scanning.PersistedSnapshot)}
}

// Save writes or replaces the snapshot for a device.
func (s *SnapshotStore) Save(ctx context.Context, deviceID string, snapshot scanning.PersistedSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[deviceID] = snapshot
	return nil
}

// Load returns the snapshot for a device or scanning.ErrNoSnapshot.
func (s *SnapshotStore) Load(ctx context.Context, deviceID string) (scanning.PersistedSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return scanning.PersistedSnapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[deviceID]
	if !ok {
		return scanning.PersistedSnapshot{}, scanning.ErrNoSnapshot
	}
	return snapshot, nil
}

// Clear removes the snapshot for a device.
func (s *SnapshotStore) Clear(ctx context.Context, deviceID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, deviceID)
	return nil
}
