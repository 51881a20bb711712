package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncRepo struct {
	locations []StorageLocation
	listErr   error
	replaced  [][]StorageLocation
}

func (f *fakeSyncRepo) List(ctx context.Context) ([]StorageLocation, error) {
	return f.locations, f.listErr
}

func (f *fakeSyncRepo) GetByID(ctx context.Context, id string) (StorageLocation, error) {
	for _, loc := range f.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return StorageLocation{}, ErrLocationNotFound
}

func (f *fakeSyncRepo) Replace(ctx context.Context, locations []StorageLocation) error {
	f.replaced = append(f.replaced, locations)
	f.locations = locations
	return nil
}

func TestEnsureLocationsSeedsEmptyRepository(t *testing.T) {
	t.Parallel()

	repo := &fakeSyncRepo{}
	require.NoError(t, EnsureLocations(context.Background(), repo))

	require.Len(t, repo.replaced, 1)
	assert.Equal(t, DefaultLocations(), repo.replaced[0])

	loc, err := repo.GetByID(context.Background(), "pantry-id")
	require.NoError(t, err)
	assert.Equal(t, LocationTypePantry, loc.Type)
}

func TestEnsureLocationsLeavesExistingDataAlone(t *testing.T) {
	t.Parallel()

	repo := &fakeSyncRepo{locations: []StorageLocation{
		{ID: "cellar-id", Name: "Cellar", Type: LocationTypeOther},
	}}
	require.NoError(t, EnsureLocations(context.Background(), repo))
	assert.Empty(t, repo.replaced)
}

func TestEnsureLocationsPropagatesListError(t *testing.T) {
	t.Parallel()

	listErr := errors.New("connection refused")
	repo := &fakeSyncRepo{listErr: listErr}
	err := EnsureLocations(context.Background(), repo)
	require.ErrorIs(t, err, listErr)
	assert.Empty(t, repo.replaced)
}
