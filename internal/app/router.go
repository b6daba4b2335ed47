package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	accountinghttp "github.com/foodzone/foodzone-pos/internal/accounting/http"
	closehttp "github.com/foodzone/foodzone-pos/internal/close/http"
	"github.com/foodzone/foodzone-pos/internal/expenses"
	ledgerhttp "github.com/foodzone/foodzone-pos/internal/ledger/http"
	"github.com/foodzone/foodzone-pos/internal/observability"
	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
	"github.com/foodzone/foodzone-pos/internal/rewards"
	"github.com/foodzone/foodzone-pos/jobs"
	"github.com/foodzone/foodzone-pos/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	AccountingHandler *accountinghttp.Handler
	CloseHandler      *closehttp.Handler
	ExpensesHandler   *expenses.Handler
	OrdersHandler     *ledgerhttp.Handler
	RewardsHandler    *rewards.Handler
	ReportHandler     *report.Handler
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.AccountingHandler != nil {
		params.AccountingHandler.MountRoutes(r)
	}
	if params.CloseHandler != nil {
		params.CloseHandler.MountRoutes(r)
	}
	if params.ExpensesHandler != nil {
		params.ExpensesHandler.MountRoutes(r)
	}
	if params.OrdersHandler != nil {
		params.OrdersHandler.MountRoutes(r)
	}
	if params.RewardsHandler != nil {
		params.RewardsHandler.MountRoutes(r)
	}
	if params.ReportHandler != nil {
		params.ReportHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not found", r.URL.Path)
	})
	return r
}
