package accountinghttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
)

// AccountingService is the read contract used by the handler.
type AccountingService interface {
	Today() ledger.Window
	ParseDay(value string) (ledger.Window, error)
	Summary(ctx context.Context, w ledger.Window) (accounting.Summary, error)
	Activity(ctx context.Context, w ledger.Window) ([]accounting.ActivityDetail, error)
	BusinessData(ctx context.Context, start, end string) (accounting.BusinessData, error)
}

// LiveSource exposes the most recent pushed snapshot of the current day.
type LiveSource interface {
	Latest() (accounting.Summary, bool)
}

// Handler serves accounting JSON endpoints.
type Handler struct {
	logger  *slog.Logger
	service AccountingService
	live    LiveSource
}

// NewHandler constructs the handler. live may be nil.
func NewHandler(logger *slog.Logger, service AccountingService, live LiveSource) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, live: live}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/accounting", func(r chi.Router) {
		r.Get("/summary", h.summary)
		r.Get("/range", h.businessData)
		r.Get("/activity", h.activity)
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	day, err := h.service.ParseDay(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if h.live != nil && day.Label() == h.service.Today().Label() {
		if snap, ok := h.live.Latest(); ok && snap.Stats.Period == day.Label() {
			httpx.JSON(w, http.StatusOK, snap)
			return
		}
	}
	summary, err := h.service.Summary(r.Context(), day)
	if err != nil {
		h.logger.Error("accounting summary", slog.String("period", day.Label()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) businessData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start and end are required")
		return
	}
	data, err := h.service.BusinessData(r.Context(), start, end)
	if err != nil {
		h.logger.Error("accounting range", slog.String("start", start), slog.String("end", end), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}

func (h *Handler) activity(w http.ResponseWriter, r *http.Request) {
	day, err := h.service.ParseDay(strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	details, err := h.service.Activity(r.Context(), day)
	if err != nil {
		h.logger.Error("accounting activity", slog.String("period", day.Label()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"period": day.Label(), "orders": details})
}
