package accountinghttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
)

type stubService struct {
	today      ledger.Window
	summaryFn  func(ctx context.Context, w ledger.Window) (accounting.Summary, error)
	activityFn func(ctx context.Context, w ledger.Window) ([]accounting.ActivityDetail, error)
	businessFn func(ctx context.Context, start, end string) (accounting.BusinessData, error)
}

func (s *stubService) Today() ledger.Window { return s.today }

func (s *stubService) ParseDay(value string) (ledger.Window, error) {
	if value == "" {
		return s.today, nil
	}
	return ledger.ParseDay(value, time.UTC)
}

func (s *stubService) Summary(ctx context.Context, w ledger.Window) (accounting.Summary, error) {
	return s.summaryFn(ctx, w)
}

func (s *stubService) Activity(ctx context.Context, w ledger.Window) ([]accounting.ActivityDetail, error) {
	return s.activityFn(ctx, w)
}

func (s *stubService) BusinessData(ctx context.Context, start, end string) (accounting.BusinessData, error) {
	return s.businessFn(ctx, start, end)
}

type stubLive struct {
	summary accounting.Summary
	ok      bool
}

func (l stubLive) Latest() (accounting.Summary, bool) { return l.summary, l.ok }

func newRouter(svc *stubService, live LiveSource) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, svc, live).MountRoutes(r)
	return r
}

func today() ledger.Window {
	return ledger.Day(time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC), time.UTC)
}

func TestSummaryServesLiveSnapshotForToday(t *testing.T) {
	svc := &stubService{
		today: today(),
		summaryFn: func(context.Context, ledger.Window) (accounting.Summary, error) {
			t.Fatal("service should not be called when a live snapshot exists")
			return accounting.Summary{}, nil
		},
	}
	live := stubLive{ok: true, summary: accounting.Summary{Stats: accounting.Stats{Period: "2024-05-02", CashSales: 12}}}

	rr := httptest.NewRecorder()
	newRouter(svc, live).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var got accounting.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 12.0, got.Stats.CashSales)
}

func TestSummaryForPastDayUsesService(t *testing.T) {
	var requested string
	svc := &stubService{
		today: today(),
		summaryFn: func(_ context.Context, w ledger.Window) (accounting.Summary, error) {
			requested = w.Label()
			return accounting.Summary{Stats: accounting.Stats{Period: w.Label()}}, nil
		},
	}
	rr := httptest.NewRecorder()
	newRouter(svc, stubLive{ok: true}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/summary?date=2024-04-30", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "2024-04-30", requested)
}

func TestSummaryRejectsMalformedDate(t *testing.T) {
	svc := &stubService{today: today()}
	rr := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/summary?date=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRangeRequiresBothDates(t *testing.T) {
	svc := &stubService{today: today()}
	rr := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/range?start=2024-05-01", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRangeMapsInvalidRange(t *testing.T) {
	svc := &stubService{
		today: today(),
		businessFn: func(context.Context, string, string) (accounting.BusinessData, error) {
			return accounting.BusinessData{}, ledger.ErrInvalidRange
		},
	}
	rr := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/range?start=2024-05-03&end=2024-05-01", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestActivityReturnsDetails(t *testing.T) {
	svc := &stubService{
		today: today(),
		activityFn: func(context.Context, ledger.Window) ([]accounting.ActivityDetail, error) {
			return []accounting.ActivityDetail{{Order: ledger.Order{ID: "o-1"}, InWindow: true}}, nil
		},
	}
	rr := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/accounting/activity", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"o-1"`)
}
