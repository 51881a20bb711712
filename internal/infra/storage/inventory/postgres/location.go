// Package postgres provides PostgreSQL-backed access to inventory reference
// data. Storage locations are synced from the backend into a local table and
// read fresh for each scan.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pantryscan/pantryscan/internal/domain/inventory"
	"github.com/pantryscan/pantryscan/internal/infra/storage"
)

var defaultDBAttributes = []attribute.KeyValue{attribute.String("db.system", "postgresql")}

var _ inventory.LocationRepository = (*locationStore)(nil)

// locationStore provides a PostgreSQL implementation of
// inventory.LocationRepository.
type locationStore struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// NewLocationStore creates a new PostgreSQL-backed location repository using
// the provided connection pool.
func NewLocationStore(pool *pgxpool.Pool, tracer trace.Tracer) *locationStore {
	return &locationStore{pool: pool, tracer: tracer}
}

// List returns all known storage locations ordered by name.
func (p *locationStore) List(ctx context.Context) ([]inventory.StorageLocation, error) {
	var locations []inventory.StorageLocation
	err := storage.ExecuteAndTrace(ctx, p.tracer, "postgres.list_locations", defaultDBAttributes, func(ctx context.Context) error {
		rows, err := p.pool.Query(ctx,
			`SELECT id, name, type FROM storage_locations ORDER BY name`)
		if err != nil {
			return fmt.Errorf("failed to list locations: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var loc inventory.StorageLocation
			var locType string
			if err := rows.Scan(&loc.ID, &loc.Name, &locType); err != nil {
				return fmt.Errorf("failed to scan location row: %w", err)
			}
			loc.Type = inventory.LocationType(locType)
			locations = append(locations, loc)
		}
		return rows.Err()
	})
	return locations, err
}

// GetByID returns a single storage location or inventory.ErrLocationNotFound.
func (p *locationStore) GetByID(ctx context.Context, id string) (inventory.StorageLocation, error) {
	var loc inventory.StorageLocation
	dbAttrs := append(defaultDBAttributes, attribute.String("location_id", id))
	err := storage.ExecuteAndTrace(ctx, p.tracer, "postgres.get_location", dbAttrs, func(ctx context.Context) error {
		var locType string
		err := p.pool.QueryRow(ctx,
			`SELECT id, name, type FROM storage_locations WHERE id = $1`, id,
		).Scan(&loc.ID, &loc.Name, &locType)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return inventory.ErrLocationNotFound
			}
			return fmt.Errorf("failed to get location: %w", err)
		}
		loc.Type = inventory.LocationType(locType)
		return nil
	})
	return loc, err
}

// Replace atomically swaps the local location table for the given set,
// used when refreshing reference data from the backend.
func (p *locationStore) Replace(ctx context.Context, locations []inventory.StorageLocation) error {
	dbAttrs := append(defaultDBAttributes, attribute.Int("location_count", len(locations)))
	return storage.ExecuteAndTrace(ctx, p.tracer, "postgres.replace_locations", dbAttrs, func(ctx context.Context) error {
		tx, err := p.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if _, err := tx.Exec(ctx, `DELETE FROM storage_locations`); err != nil {
			return fmt.Errorf("failed to clear locations: %w", err)
		}
		for _, loc := range locations {
			if _, err := tx.Exec(ctx,
				`INSERT INTO storage_locations (id, name, type) VALUES ($1, $2, $3)`,
				loc.ID, loc.Name, string(loc.Type)); err != nil {
				return fmt.Errorf("failed to insert location %s: %w", loc.ID, err)
			}
		}
		return tx.Commit(ctx)
	})
}
