package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testingpkg "github.com/fathomcap/underwriter/internal/testing"
)

func newTestSystemHandlers(t *testing.T) *SystemHandlers {
	t.Helper()

	datasetsDB, cleanupDatasets := testingpkg.NewTestDB(t, "datasets")
	t.Cleanup(cleanupDatasets)
	resultsDB, cleanupResults := testingpkg.NewTestDB(t, "results")
	t.Cleanup(cleanupResults)

	return NewSystemHandlers(zerolog.Nop(), datasetsDB, resultsDB)
}

func TestHandleHealthReportsBothDatabases(t *testing.T) {
	handlers := newTestSystemHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	rec := httptest.NewRecorder()

	handlers.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "ok", response.Databases["datasets"])
	assert.Equal(t, "ok", response.Databases["results"])
}

func TestHandleHealthDegradedOnClosedDatabase(t *testing.T) {
	handlers := newTestSystemHandlers(t)

	// A closed connection fails the ping inside the health check
	require.NoError(t, handlers.resultsDB.Close())

	req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
	rec := httptest.NewRecorder()

	handlers.HandleHealth(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "ok", response.Databases["datasets"])
	assert.NotEqual(t, "ok", response.Databases["results"])
}

func TestHandleSystemStatus(t *testing.T) {
	handlers := newTestSystemHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()

	handlers.HandleSystemStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response SystemStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "healthy", response.Status)
	assert.GreaterOrEqual(t, response.UptimeSeconds, 0.0)
	assert.Greater(t, response.Goroutines, 0)
	assert.GreaterOrEqual(t, response.MemoryPercent, 0.0)

	require.Len(t, response.Databases, 2)
	names := []string{response.Databases[0].Name, response.Databases[1].Name}
	assert.Contains(t, names, "datasets")
	assert.Contains(t, names, "results")
	for _, db := range response.Databases {
		assert.Greater(t, db.PageCount, int64(0))
	}
}
