// Package inventory holds the reference data the scan workflow attaches
// records to: storage locations and the product snapshot returned by the
// ingestion backend. The backend owns this data; the client only reads it.
package inventory

import (
	"context"
	"errors"
)

// ErrLocationNotFound is returned when a requested storage location does not
// exist.
var ErrLocationNotFound = errors.New("storage location not found")

// LocationType categorizes a storage location.
type LocationType string

const (
	LocationTypePantry  LocationType = "PANTRY"
	LocationTypeFridge  LocationType = "FRIDGE"
	LocationTypeFreezer LocationType = "FREEZER"
	LocationTypeOther   LocationType = "OTHER"
)

// StorageLocation is read-only reference data describing where an item can
// be stored. Loaded fresh for each scan rather than cached indefinitely.
type StorageLocation struct {
	ID   string
	Name string
	Type LocationType
}

// LocationRepository provides access to the set of valid storage locations.
type LocationRepository interface {
	// List returns all storage locations currently known to the backend.
	List(ctx context.Context) ([]StorageLocation, error)

	// GetByID returns a single storage location or ErrLocationNotFound.
	GetByID(ctx context.Context, id string) (StorageLocation, error)
}
