package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodzone/foodzone-pos/internal/close"
)

func sampleReport() close.Report {
	return close.Report{
		ID: "r-1", Period: "2024-05-02", CashierName: "Ama",
		ExpectedCash: 500, CountedCash: 480, CashDiscrepancy: -20,
		ExpectedMomo: 300, CountedMomo: 305, MomoDiscrepancy: 5,
		TotalExpectedRevenue: 800, TotalCountedRevenue: 785, TotalDiscrepancy: -15,
		Notes:     "<b>till jammed</b>",
		Timestamp: time.Date(2024, time.May, 2, 21, 0, 0, 0, time.UTC),
	}
}

func TestReconciliationHTMLFormatsCedi(t *testing.T) {
	html, err := ReconciliationHTML(sampleReport())
	require.NoError(t, err)
	assert.Contains(t, html, "GH₵500.00")
	assert.Contains(t, html, "-GH₵20.00")
	assert.Contains(t, html, "Short")
	assert.Contains(t, html, "Over")
	assert.Contains(t, html, "&lt;b&gt;till jammed&lt;/b&gt;")
}

func TestRenderReconciliationPostsA4Layout(t *testing.T) {
	var (
		html     string
		fields   = map[string]string{}
		filename string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		for name, values := range r.MultipartForm.Value {
			fields[name] = values[0]
		}
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		raw, _ := io.ReadAll(file)
		html = string(raw)
		filename = r.Header.Get("Gotenberg-Output-Filename")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL+"/").RenderReconciliation(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Contains(t, html, "2024-05-02")
	assert.Equal(t, "reconciliation-2024-05-02", filename)
	assert.Equal(t, "8.27", fields["paperWidth"])
	assert.Equal(t, "11.7", fields["paperHeight"])
	assert.Equal(t, "0.4", fields["marginLeft"])
	assert.NotContains(t, fields, "landscape")
}

func TestRenderFailsOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), "<p>x</p>", A4)
	require.ErrorContains(t, err, "status 502")
	assert.Less(t, len(err.Error()), 700)
}

func TestRendererWithoutURL(t *testing.T) {
	c := NewClient("")
	_, err := c.RenderReconciliation(context.Background(), sampleReport())
	require.ErrorIs(t, err, ErrRendererUnavailable)
	require.ErrorIs(t, c.Ping(context.Background()), ErrRendererUnavailable)
}

func TestPingHandler(t *testing.T) {
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	router := chi.NewRouter()
	NewHandler(NewClient(srv.URL), slog.New(slog.NewTextHandler(io.Discard, nil))).MountRoutes(router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down.Store(true)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/report/ping", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
