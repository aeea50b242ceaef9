package cleanup

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streeteats/cleanup-cli/internal/model"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLite(filepath.Join(t.TempDir(), "trucks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	rating := 4.5
	reviews := 12
	scraped := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	rec := &model.FoodTruckRecord{
		ID:          "a",
		Name:        "Taco Town",
		Description: "Street tacos",
		CurrentLocation: &model.Location{
			Lat:     32.7765,
			Lng:     -79.9311,
			Address: "123 King St",
		},
		ContactInfo: &model.ContactInfo{
			Phone:   "(555) 123-4567",
			Website: "tacotown.com",
		},
		Menu: []model.MenuCategory{
			{CategoryName: "Tacos", Items: []model.MenuItem{{Name: "Al Pastor"}}},
		},
		CuisineType:   []string{"mexican"},
		PriceRange:    model.PriceBudget,
		AverageRating: &rating,
		ReviewCount:   &reviews,
		SourceURLs:    []string{"https://source.one"},
		LastScrapedAt: &scraped,
	}
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.FetchByID(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, "Taco Town", got.Name)
	require.NotNil(t, got.CurrentLocation)
	assert.Equal(t, "123 King St", got.CurrentLocation.Address)
	require.NotNil(t, got.ContactInfo)
	assert.Equal(t, "(555) 123-4567", got.ContactInfo.Phone)
	require.Len(t, got.Menu, 1)
	assert.Equal(t, "Tacos", got.Menu[0].CategoryName)
	assert.Equal(t, []string{"mexican"}, got.CuisineType)
	require.NotNil(t, got.AverageRating)
	assert.InDelta(t, 4.5, *got.AverageRating, 0.001)
	require.NotNil(t, got.ReviewCount)
	assert.Equal(t, 12, *got.ReviewCount)
	assert.Equal(t, model.VerificationPending, got.VerificationStatus)
	require.NotNil(t, got.LastScrapedAt)
	assert.True(t, got.LastScrapedAt.Equal(scraped))

	// Absent structures stay nil rather than decoding to zero values.
	assert.Nil(t, got.SocialMedia)
	assert.Nil(t, got.Schedule)
}

func TestSQLiteFetchByIDNotFound(t *testing.T) {
	store := newSQLiteStore(t)
	_, err := store.FetchByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteUpdateByID(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Insert(ctx, &model.FoodTruckRecord{ID: "a", Name: "Old Name"}))

	got, err := store.UpdateByID(ctx, "a", map[string]any{
		"name":               "New Name",
		"data_quality_score": 0.75,
		"contact_info":       &model.ContactInfo{Phone: "(555) 111-2222"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.InDelta(t, 0.75, got.DataQualityScore, 0.001)
	require.NotNil(t, got.ContactInfo)
	assert.Equal(t, "(555) 111-2222", got.ContactInfo.Phone)

	_, err = store.UpdateByID(ctx, "ghost", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.UpdateByID(ctx, "a", map[string]any{"no_such_column": 1})
	assert.True(t, IsValidation(err))
}

func TestSQLiteDeleteByID(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Insert(ctx, &model.FoodTruckRecord{ID: "a", Name: "Taco Town"}))
	require.NoError(t, store.DeleteByID(ctx, "a"))

	_, err := store.FetchByID(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteByID(ctx, "a"), ErrNotFound)
}

func TestSQLitePagingAndCount(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, store.Insert(ctx, &model.FoodTruckRecord{ID: id, Name: "Truck " + id}))
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	page, err := store.FetchPage(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "b", page[1].ID)

	page, err = store.FetchPage(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].ID)
}

func TestSQLiteServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newSQLiteStore(t)

	require.NoError(t, store.Insert(ctx, &model.FoodTruckRecord{
		ID:          "a",
		Name:        "Taco Town",
		ContactInfo: &model.ContactInfo{Phone: "555.123.4567"},
	}))
	require.NoError(t, store.Insert(ctx, &model.FoodTruckRecord{
		ID:   "b",
		Name: "Sample Truck",
	}))

	svc := NewService(store, ServiceConfig{
		CityCenter: model.Location{Lat: 32.7765, Lng: -79.9311},
	})

	result, err := svc.RunFullCleanup(ctx, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)

	a, err := store.FetchByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "(555) 123-4567", a.ContactInfo.Phone)
	assert.True(t, a.HasCoordinates())

	b, err := store.FetchByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, model.VerificationFlagged, b.VerificationStatus)
}
