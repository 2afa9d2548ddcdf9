package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peopleops/internal/report"
	"peopleops/pkg/testutil"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

type fixedStore struct {
	lastYear int
	lastFrom time.Time
	lastTo   time.Time
}

func (s *fixedStore) HeadcountByDepartment(context.Context, string) ([]report.HeadcountRow, error) {
	return []report.HeadcountRow{{DepartmentName: "Engineering", Count: 9}}, nil
}

func (s *fixedStore) LeaveUsageByYear(_ context.Context, _ string, year int) ([]report.LeaveUsageRow, error) {
	s.lastYear = year
	return []report.LeaveUsageRow{{Category: "annual", Year: year, Allocated: 120, Used: 30}}, nil
}

func (s *fixedStore) AuditVolumeBySeverity(_ context.Context, _ string, from, to time.Time) ([]report.AuditVolumeRow, error) {
	s.lastFrom = from
	s.lastTo = to
	return []report.AuditVolumeRow{{Severity: "info", Count: 5}}, nil
}

func newTestRouter(store report.Store) chi.Router {
	svc := report.NewService(store)
	r := chi.NewRouter()
	New(svc, slog.Default()).Register(r)
	return r
}

func doGet(t *testing.T, router chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = testutil.WithAuth(req, "admin-1", "tenant-1")
	req = testutil.WithTime(req, testNow)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHeadcountReport(t *testing.T) {
	router := newTestRouter(&fixedStore{})

	rec := doGet(t, router, "/reports/headcount")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Headcount []report.HeadcountRow `json:"headcount"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Headcount, 1)
	assert.Equal(t, "Engineering", resp.Headcount[0].DepartmentName)
}

func TestLeaveUsageDefaultsToRequestYear(t *testing.T) {
	store := &fixedStore{}
	router := newTestRouter(store)

	rec := doGet(t, router, "/reports/leaveUsage")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testNow.Year(), store.lastYear)

	rec = doGet(t, router, "/reports/leaveUsage?year=2025")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2025, store.lastYear)
}

func TestLeaveUsageRejectsJunkYear(t *testing.T) {
	router := newTestRouter(&fixedStore{})

	rec := doGet(t, router, "/reports/leaveUsage?year=twenty")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "bad_request", resp.Code)
}

func TestAuditVolumeParsesRange(t *testing.T) {
	store := &fixedStore{}
	router := newTestRouter(store)

	rec := doGet(t, router, "/reports/auditVolume?from=2026-06-01T00:00:00Z&to=2026-07-01T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), store.lastFrom)
	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), store.lastTo)
}

func TestAuditVolumeRejectsBadTimestamp(t *testing.T) {
	router := newTestRouter(&fixedStore{})

	rec := doGet(t, router, "/reports/auditVolume?from=yesterday")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
