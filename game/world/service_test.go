package world

import (
	"context"
	"testing"

	"github.com/sojrpg/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	require.NoError(t, Seed(ctx, db))
	svc := NewService(db)

	continents, err := svc.Continents(ctx)
	require.NoError(t, err)
	require.Len(t, continents, 2)

	races, err := svc.Races(ctx)
	require.NoError(t, err)
	assert.Len(t, races, 4)

	// Seeding an already-populated catalog is a no-op.
	require.NoError(t, Seed(ctx, db))
	continents, err = svc.Continents(ctx)
	require.NoError(t, err)
	assert.Len(t, continents, 2)
}

func TestLookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	require.NoError(t, Seed(ctx, db))
	svc := NewService(db)

	continent, err := svc.ContinentBySlug(ctx, "eryndor")
	require.NoError(t, err)
	assert.Equal(t, "Eryndor", continent.Name)

	locs, err := svc.LocationsByContinent(ctx, continent.ID)
	require.NoError(t, err)
	require.Len(t, locs, 3)
	// Ordered by name.
	assert.Equal(t, "Dunmere", locs[0].Name)

	loc, err := svc.LocationBySlug(ctx, "havenfall")
	require.NoError(t, err)
	assert.Equal(t, continent.ID, loc.ContinentID)

	race, err := svc.RaceBySlug(ctx, "dwarf")
	require.NoError(t, err)
	same, err := svc.RaceByID(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, race.Slug, same.Slug)
}

func TestLookups_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	_, err := svc.ContinentBySlug(ctx, "atlantis")
	assert.ErrorIs(t, err, ErrContinentNotFound)
	_, err = svc.LocationBySlug(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrLocationNotFound)
	_, err = svc.RaceBySlug(ctx, "gnome")
	assert.ErrorIs(t, err, ErrRaceNotFound)
	_, err = svc.LocationByID(ctx, 999)
	assert.ErrorIs(t, err, ErrLocationNotFound)
}
