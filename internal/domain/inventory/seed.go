package inventory

import (
	"context"
	"fmt"
)

// LocationSyncRepository is a LocationRepository whose local table can be
// replaced wholesale when reference data is refreshed.
type LocationSyncRepository interface {
	LocationRepository

	// Replace atomically swaps the stored location set for the given one.
	Replace(ctx context.Context, locations []StorageLocation) error
}

// DefaultLocations returns the storage locations a fresh device starts with,
// used until the first reference-data sync from the backend.
func DefaultLocations() []StorageLocation {
	return []StorageLocation{
		{ID: "pantry-id", Name: "Pantry", Type: LocationTypePantry},
		{ID: "fridge-id", Name: "Fridge", Type: LocationTypeFridge},
		{ID: "freezer-id", Name: "Freezer", Type: LocationTypeFreezer},
	}
}

// EnsureLocations seeds the repository with the default location set when it
// holds none. A repository that already has locations is left untouched.
func EnsureLocations(ctx context.Context, repo LocationSyncRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return fmt.Errorf("listing storage locations: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err := repo.Replace(ctx, DefaultLocations()); err != nil {
		return fmt.Errorf("seeding storage locations: %w", err)
	}
	return nil
}
