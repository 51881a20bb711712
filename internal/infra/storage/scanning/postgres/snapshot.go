// Package postgres provides PostgreSQL-backed persistence for the scan
// workflow's resumable state.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/internal/infra/storage"
)

var defaultDBAttributes = []attribute.KeyValue{attribute.String("db.system", "postgresql")}

var _ scanning.SnapshotStore = (*snapshotStore)(nil)

// snapshotStore provides a PostgreSQL implementation of scanning.SnapshotStore.
// A device owns at most one row; saving upserts on device id, enabling the
// workflow to resume across process restarts.
type snapshotStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewSnapshotStore creates a new PostgreSQL-backed snapshot store using the
// provided connection pool.
func NewSnapshotStore(pool *pgxpool.Pool, tracer trace.Tracer) *snapshotStore {
	return &snapshotStore{pool: pool, tracer: tracer}
}

// Save writes or replaces the snapshot for a device. The snapshot is
// serialized to JSON to allow for flexible schema evolution.
func (p *snapshotStore) Save(ctx context.Context, deviceID string, snapshot scanning.PersistedSnapshot) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("device_id", deviceID),
		attribute.String("session_id", snapshot.SessionID().String()),
		attribute.String("step", snapshot.Step().String()),
	)
	return storage.ExecuteAndTrace(ctx, p.tracer, "postgres.save_snapshot", dbAttrs, func(ctx context.Context) error {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal snapshot: %w", err)
		}

		_, err = p.pool.Exec(ctx, `
			INSERT INTO scan_snapshots (device_id, session_id, snapshot, checkpoint_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (device_id) DO UPDATE
			SET session_id = EXCLUDED.session_id,
			    snapshot = EXCLUDED.snapshot,
			    checkpoint_at = EXCLUDED.checkpoint_at`,
			deviceID, snapshot.SessionID(), data, snapshot.CheckpointAt())
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	})
}

// Load retrieves the snapshot for a device. Returns scanning.ErrNoSnapshot
// when the device has none. A row that fails to deserialize surfaces as an
// error so the caller can treat the snapshot as corrupt.
func (p *snapshotStore) Load(ctx context.Context, deviceID string) (scanning.PersistedSnapshot, error) {
	var snapshot scanning.PersistedSnapshot
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("device_id", deviceID),
	)
	err := storage.ExecuteAndTrace(ctx, p.tracer, "postgres.load_snapshot", dbAttrs, func(ctx context.Context) error {
		var data []byte
		err := p.pool.QueryRow(ctx,
			`SELECT snapshot FROM scan_snapshots WHERE device_id = $1`,
			deviceID,
		).Scan(&data)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return scanning.ErrNoSnapshot
			}
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		return nil
	})
	return snapshot, err
}

// Clear removes the snapshot for a device. Clearing an absent snapshot is
// not an error.
func (p *snapshotStore) Clear(ctx context.Context, deviceID string) error {
	dbAttrs := append(
		defaultDBAttributes,
		attribute.String("device_id", deviceID),
	)
	return storage.ExecuteAndTrace(ctx, p.tracer, "postgres.clear_snapshot", dbAttrs, func(ctx context.Context) error {
		if _, err := p.pool.Exec(ctx,
			`DELETE FROM scan_snapshots WHERE device_id = $1`, deviceID); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
		return nil
	})
}
