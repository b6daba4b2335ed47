package closehttp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodzone/foodzone-pos/internal/close"
	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
)

type closeService interface {
	Status(ctx context.Context) (close.Status, error)
	Closeout(ctx context.Context, in close.CloseoutInput) (close.Report, error)
	ListReports(ctx context.Context) ([]close.Report, error)
	GetReport(ctx context.Context, id string) (close.Report, error)
}

// PDFRenderer turns a filed report into a PDF document.
type PDFRenderer interface {
	RenderReconciliation(ctx context.Context, rep close.Report) ([]byte, error)
}

// Handler wires HTTP endpoints for the end-of-day closeout.
type Handler struct {
	logger  *slog.Logger
	service closeService
	pdf     PDFRenderer
}

// NewHandler constructs a close HTTP handler. pdf may be nil.
func NewHandler(logger *slog.Logger, service closeService, pdf PDFRenderer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, pdf: pdf}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/close", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Post("/closeout", h.closeout)
		r.Get("/reports", h.listReports)
		r.Get("/reports/{id}/pdf", h.reportPDF)
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.Status(r.Context())
	if err != nil {
		h.logger.Error("close status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) closeout(w http.ResponseWriter, r *http.Request) {
	var in close.CloseoutInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	rep, err := h.service.Closeout(r.Context(), in)
	if err != nil {
		h.logger.Warn("closeout rejected", slog.String("cashier", in.CashierName), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rep)
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListReports(r.Context())
	if err != nil {
		h.logger.Error("list reports", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reports)
}

func (h *Handler) reportPDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "pdf export not configured")
		return
	}
	rep, err := h.service.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	pdf, err := h.pdf.RenderReconciliation(r.Context(), rep)
	if err != nil {
		h.logger.Error("render reconciliation pdf", slog.String("report", rep.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", "pdf rendering failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=reconciliation-"+rep.Period+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
