package locations

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airscape/airscape/internal/airquality"
)

var (
	berlin = airquality.Location{City: "Berlin", Country: "Germany", Lat: 52.52, Lon: 13.405}
	munich = airquality.Location{City: "Munich", Country: "Germany", Lat: 48.1351, Lon: 11.582}
)

func TestService_FavoriteLifecycle(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	require.NoError(t, svc.AddFavorite(ctx, berlin))
	require.NoError(t, svc.AddFavorite(ctx, munich))

	favorites, err := svc.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 2)
	assert.Equal(t, "Berlin", favorites[0].City, "insertion order is preserved")

	require.NoError(t, svc.RemoveFavorite(ctx, berlin))

	favorites, err = svc.Favorites(ctx)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Munich", favorites[0].City)
}

func TestService_AddFavoriteIdempotent(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	require.NoError(t, svc.AddFavorite(ctx, berlin))

	// Same place with slightly different coordinates.
	jittered := berlin
	jittered.Lat += 0.004
	require.NoError(t, svc.AddFavorite(ctx, jittered))

	favorites, err := svc.Favorites(ctx)
	require.NoError(t, err)
	assert.Len(t, favorites, 1)
}

func TestService_FavoriteLimit(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	for i := 0; i < MaxFavorites; i++ {
		loc := airquality.Location{City: fmt.Sprintf("City %d", i), Lat: float64(i + 1), Lon: float64(i + 1)}
		require.NoError(t, svc.AddFavorite(ctx, loc))
	}

	err := svc.AddFavorite(ctx, airquality.Location{City: "One Too Many", Lat: 50, Lon: 50})
	assert.ErrorIs(t, err, ErrFavoriteLimit)
}

func TestService_AddFavoriteRejectsInvalid(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	assert.ErrorIs(t, svc.AddFavorite(ctx, airquality.Location{City: "Null Island"}), ErrInvalidLocation)
	assert.ErrorIs(t, svc.AddFavorite(ctx, airquality.Location{City: "Off Map", Lat: 95, Lon: 0}), ErrInvalidLocation)
}

func TestService_RemoveUnknownFavorite(t *testing.T) {
	svc := NewService(ServiceConfig{})

	err := svc.RemoveFavorite(context.Background(), berlin)
	assert.ErrorIs(t, err, ErrLocationUnknown)
}

func TestService_RecentsLRU(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	for i := 0; i < MaxRecents+3; i++ {
		loc := airquality.Location{City: fmt.Sprintf("City %d", i), Lat: float64(i + 1), Lon: float64(i + 1)}
		svc.RecordVisit(ctx, loc)
	}

	recents, err := svc.Recents(ctx)
	require.NoError(t, err)
	require.Len(t, recents, MaxRecents, "oldest entries are evicted")
	assert.Equal(t, "City 12", recents[0].City, "most recent first")
}

func TestService_RecordVisitMovesToFront(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	svc.RecordVisit(ctx, berlin)
	svc.RecordVisit(ctx, munich)
	svc.RecordVisit(ctx, berlin)

	recents, err := svc.Recents(ctx)
	require.NoError(t, err)
	require.Len(t, recents, 2, "revisits do not duplicate")
	assert.Equal(t, "Berlin", recents[0].City)
	assert.Equal(t, "Munich", recents[1].City)
}

func TestService_RecordVisitIgnoresInvalid(t *testing.T) {
	svc := NewService(ServiceConfig{})
	ctx := context.Background()

	svc.RecordVisit(ctx, airquality.Location{City: "Nowhere"})

	recents, err := svc.Recents(ctx)
	require.NoError(t, err)
	assert.Empty(t, recents)
}
