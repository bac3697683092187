package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"places-api/internal/cache"
	"places-api/internal/migrate"
	"places-api/internal/store"
	"places-api/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "/places"

type testEnv struct {
	srv *httptest.Server
	st  *store.Store
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	return newEnvWithCache(t, nil)
}

func newEnvWithCache(t *testing.T, lc *cache.Lookup) *testEnv {
	t.Helper()
	db, err := utils.OpenSQLite(filepath.Join(t.TempDir(), "places.db"))
	require.NoError(t, err)
	require.NoError(t, migrate.EnsureSchema(db, "sqlite"))
	st := store.AttachDB(db, store.DialectSQLite)
	t.Cleanup(func() { _ = st.Close() })
	return &testEnv{srv: mount(t, st, lc), st: st}
}

func mount(t *testing.T, st PlaceStore, lc *cache.Lookup) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle(base+"/", http.StripPrefix(base, BuildRoutes(st, lc)))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, map[string]any, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+base+path, rd)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func TestEndToEndGym(t *testing.T) {
	env := newEnv(t)

	code, body, _ := do(t, env.srv, http.MethodPost, "/add_place", `{"name":"Gym","category":"fitness","address":"1 Main St"}`)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Place added successfully", body["message"])

	code, body, _ = do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"address": "1 Main St"}, body)

	code, body, _ = do(t, env.srv, http.MethodDelete, "/delete_place/Gym", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Place 'Gym' deleted successfully", body["message"])

	code, body, _ = do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Place not found", body["error"])
}

func TestLookupCacheServesHitsAndDropsThemOnMutation(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	env := newEnvWithCache(t, cache.New(rc, time.Minute))
	ctx := context.Background()
	_, err := env.st.Insert(ctx, store.Place{Name: "Gym", Address: "1 Main St"})
	require.NoError(t, err)

	code, body, _ := do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1 Main St", body["address"])

	// A write that skips the API is invisible while the entry is cached.
	_, err = env.st.UpdateAddressByName(ctx, "Gym", "behind the cache")
	require.NoError(t, err)
	_, body, _ = do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	assert.Equal(t, "1 Main St", body["address"])

	code, _, _ = do(t, env.srv, http.MethodPut, "/update_place/Gym", `{"address":"2 Main St"}`)
	require.Equal(t, http.StatusOK, code)
	_, body, _ = do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	assert.Equal(t, "2 Main St", body["address"])

	code, body, _ = do(t, env.srv, http.MethodGet, "/place_by_address/"+url.PathEscape("2 Main St"), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Gym", body["name"])

	code, _, _ = do(t, env.srv, http.MethodDelete, "/delete_place/Gym", "")
	require.Equal(t, http.StatusOK, code)
	code, _, _ = do(t, env.srv, http.MethodGet, "/place_by_name/Gym", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = do(t, env.srv, http.MethodGet, "/place_by_address/"+url.PathEscape("2 Main St"), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListAllPlacesEmptyIs404(t *testing.T) {
	env := newEnv(t)
	code, body, _ := do(t, env.srv, http.MethodGet, "/list_all_places", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.NotEmpty(t, body["error"])
}

func TestListAllPlacesReturnsRowsInOrder(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	_, err := env.st.ReplaceAll(ctx, []store.Place{
		{Name: "Golden Gate", Category: "tourism.sights", Address: "Volodymyrska St, 40A"},
		{Name: "Mariinskyi Park", Category: "leisure.park", Address: "Hrushevskoho St"},
	})
	require.NoError(t, err)

	code, _, raw := do(t, env.srv, http.MethodGet, "/list_all_places", "")
	require.Equal(t, http.StatusOK, code)
	var got []store.Place
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Golden Gate", got[0].Name)
	assert.Equal(t, "leisure.park", got[1].Category)
	assert.NotZero(t, got[0].ID)
}

func TestPlaceByAddressWithEscapedSegment(t *testing.T) {
	env := newEnv(t)
	_, err := env.st.Insert(context.Background(), store.Place{Name: "Arsenal", Address: "Lavrska St, 1/2"})
	require.NoError(t, err)

	code, body, _ := do(t, env.srv, http.MethodGet, "/place_by_address/"+url.PathEscape("Lavrska St, 1/2"), "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]any{"name": "Arsenal"}, body)

	code, _, _ = do(t, env.srv, http.MethodGet, "/place_by_address/"+url.PathEscape("Lavrska St"), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListPlacesByCategory(t *testing.T) {
	env := newEnv(t)
	_, err := env.st.ReplaceAll(context.Background(), []store.Place{
		{Name: "Lot", Category: "Parking, Urban Park"},
		{Name: "Cafe", Category: "catering.cafe"},
	})
	require.NoError(t, err)

	code, _, raw := do(t, env.srv, http.MethodGet, "/list_places/park", "")
	require.Equal(t, http.StatusOK, code)
	var got []store.Place
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Lot", got[0].Name)

	code, body, _ := do(t, env.srv, http.MethodGet, "/list_places/museum", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "No places found for this category", body["error"])
}

func TestUpdatePlace(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	_, err := env.st.Insert(ctx, store.Place{Name: "Dup", Address: "a"})
	require.NoError(t, err)
	_, err = env.st.Insert(ctx, store.Place{Name: "Dup", Address: "b"})
	require.NoError(t, err)

	code, body, _ := do(t, env.srv, http.MethodPut, "/update_place/Dup", `{"address":"New Addr"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Place 'Dup' updated successfully", body["message"])

	all, err := env.st.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New Addr", all[0].Address)
	assert.Equal(t, "b", all[1].Address)

	code, _, _ = do(t, env.srv, http.MethodPut, "/update_place/Nobody", `{"address":"x"}`)
	assert.Equal(t, http.StatusNotFound, code)

	for _, bad := range []string{`{}`, `{"address":""}`, `not json`} {
		code, body, _ = do(t, env.srv, http.MethodPut, "/update_place/Dup", bad)
		assert.Equal(t, http.StatusBadRequest, code, bad)
		assert.Equal(t, "Invalid input", body["error"])
	}
}

func TestDeleteMissingIs404(t *testing.T) {
	env := newEnv(t)
	code, body, _ := do(t, env.srv, http.MethodDelete, "/delete_place/Nowhere", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Place not found", body["error"])
}

func TestAddPlaceBadJSON(t *testing.T) {
	env := newEnv(t)
	code, body, _ := do(t, env.srv, http.MethodPost, "/add_place", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "invalid JSON body")
}

func TestAddPlacePersistenceFailureIs400(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.st.Close())
	code, body, _ := do(t, env.srv, http.MethodPost, "/add_place", `{"name":"Gym"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "insert")
}

func TestWrongMethodIs405(t *testing.T) {
	env := newEnv(t)
	code, _, _ := do(t, env.srv, http.MethodPost, "/list_all_places", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

type brokenStore struct{ PlaceStore }

var errBroken = &store.PersistenceError{Op: "list_all", Err: errors.New("disk I/O error")}

func (brokenStore) ListAll(context.Context) ([]store.Place, error) { return nil, errBroken }
func (brokenStore) FindByName(context.Context, string) (string, error) {
	return "", errBroken
}

func TestReadFailureIs500(t *testing.T) {
	srv := mount(t, brokenStore{}, nil)
	code, body, _ := do(t, srv, http.MethodGet, "/list_all_places", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "list_all: disk I/O error", body["error"])

	code, _, _ = do(t, srv, http.MethodGet, "/place_by_name/x", "")
	assert.Equal(t, http.StatusInternalServerError, code)
}

type countFunc func(context.Context) (int64, error)

func (f countFunc) Count(ctx context.Context) (int64, error) { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthHandler(countFunc(func(context.Context) (int64, error) { return 7, nil })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","places":7}`, rec.Body.String())

	rec = httptest.NewRecorder()
	HealthHandler(countFunc(func(context.Context) (int64, error) { return 0, errors.New("closed") })).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
