package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomcap/underwriter/internal/modules/datasets"
	testingpkg "github.com/fathomcap/underwriter/internal/testing"
)

func newTestHandler(t *testing.T) (*Handler, *datasets.Service, func()) {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "datasets")
	repo := datasets.NewRepository(db.Conn(), zerolog.Nop())
	service := datasets.NewService(repo, nil, zerolog.Nop())
	return NewHandler(service, zerolog.Nop()), service, cleanup
}

func TestRegisterRoutes(t *testing.T) {
	handler, _, cleanup := newTestHandler(t)
	defer cleanup()

	router := chi.NewRouter()
	require.NotPanics(t, func() {
		handler.RegisterRoutes(router)
	}, "RegisterRoutes should not panic")

	for _, path := range []string{"/api/retention/table", "/api/retention/ndr-evolution"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code, "route GET %s should be registered", path)
	}
}

func TestGetTableFromStoredCohorts(t *testing.T) {
	handler, service, cleanup := newTestHandler(t)
	defer cleanup()

	_, err := service.ImportCohorts([]datasets.CohortRowInput{
		{Name: "Older Cohorts", Revenue: []string{"100", "110", "99"}},
		{Name: "Jan 24", Revenue: []string{"200", "100", "150"}},
		{Name: "Feb 24", Revenue: []string{"50", "60", "70"}},
	})
	require.NoError(t, err)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/api/retention/table", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"columns":2`)
	// The newest cohort is dropped, so only two cohort names remain
	assert.Contains(t, body, "Older Cohorts")
	assert.Contains(t, body, "January 2024")
	assert.NotContains(t, body, "February 2024")
}

func TestGetNDREvolutionEmptyDataset(t *testing.T) {
	handler, _, cleanup := newTestHandler(t)
	defer cleanup()

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	req := httptest.NewRequest("GET", "/api/retention/ndr-evolution", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// No history means the floor defaults to 1.0
	assert.Contains(t, rec.Body.String(), `"defaulted":true`)
	assert.True(t, strings.Contains(rec.Body.String(), `"floor":1`))
}
