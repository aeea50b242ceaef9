package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/streeteats/cleanup-cli/internal/cleanup"
	"github.com/streeteats/cleanup-cli/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestRouter(t *testing.T) (http.Handler, cleanup.RecordStore) {
	t.Helper()
	store, err := cleanup.NewSQLite(filepath.Join(t.TempDir(), "trucks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	svc := cleanup.NewService(store, cleanup.ServiceConfig{
		CityCenter: model.Location{Lat: 32.7946, Lng: -79.9392},
	})
	return newRouter(svc, 50), store
}

func seedTruck(t *testing.T, store cleanup.RecordStore, id, name string, loc *model.Location) {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), &model.FoodTruckRecord{
		ID:              id,
		Name:            name,
		CurrentLocation: loc,
	}))
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp apiResponse
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusAction(t *testing.T) {
	router, store := newTestRouter(t)
	seedTruck(t, store, "a", "Taco Town", nil)
	seedTruck(t, store, "b", "Burger Bus", nil)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/admin/data-cleanup?action=status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "status", resp.Action)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, result["total_records"])
}

func TestUnknownActionRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/admin/data-cleanup?action=defragment", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "defragment")

	rec, resp = doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "defragment"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp.Message, "defragment")
}

func TestFullCleanupAction(t *testing.T) {
	router, store := newTestRouter(t)
	seedTruck(t, store, "a", "Taco Town", nil)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "full-cleanup"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, result["total_processed"])
	assert.Equal(t, false, result["dry_run"])

	// The missing location was replaced with the city center.
	got, err := store.FetchByID(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, got.HasCoordinates())
}

func TestDryRunActionWritesNothing(t *testing.T) {
	router, store := newTestRouter(t)
	seedTruck(t, store, "a", "Taco Town", nil)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "dry-run"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["dry_run"])

	got, err := store.FetchByID(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, got.HasCoordinates())
}

func TestPreviewAction(t *testing.T) {
	router, store := newTestRouter(t)
	seedTruck(t, store, "a", "Taco Town", nil)

	rec, resp := doJSON(t, router, http.MethodGet, "/api/admin/data-cleanup?action=preview", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, result["dry_run"])
}

func TestCheckDuplicatesAction(t *testing.T) {
	router, store := newTestRouter(t)
	loc := &model.Location{Lat: 32.7765, Lng: -79.9311}
	seedTruck(t, store, "a", "Taco Town", loc)
	seedTruck(t, store, "b", "Taco Town Food Truck", loc)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "check-duplicates", RecordID: "a"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	pairs, ok := resp.Result.([]any)
	require.True(t, ok)
	assert.Len(t, pairs, 1)

	// Missing record id is a client error.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "check-duplicates"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "check-duplicates", RecordID: "ghost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMergeDuplicatesAction(t *testing.T) {
	router, store := newTestRouter(t)
	loc := &model.Location{Lat: 32.7765, Lng: -79.9311}
	seedTruck(t, store, "a", "Taco Town", loc)
	seedTruck(t, store, "b", "Taco Town Food Truck", loc)

	rec, resp := doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "merge-duplicates", PrimaryID: "a", DuplicateID: "b"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	_, err := store.FetchByID(context.Background(), "b")
	assert.ErrorIs(t, err, cleanup.ErrNotFound)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/admin/data-cleanup",
		cleanupRequest{Action: "merge-duplicates", PrimaryID: "a"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidBodyRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/data-cleanup",
		bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
