package ledgerhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
	"github.com/foodzone/foodzone-pos/internal/shared"
)

// OrderStore reads and replaces order documents.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (ledger.Order, error)
	UpsertOrder(ctx context.Context, o ledger.Order) error
}

// Notifier announces that the orders feed changed.
type Notifier interface {
	Bump(ctx context.Context, feed accounting.Feed) error
}

// Handler lets the till sync order documents into the ledger.
type Handler struct {
	logger   *slog.Logger
	store    OrderStore
	notifier Notifier
}

// NewHandler constructs the handler. notifier may be nil.
func NewHandler(logger *slog.Logger, store OrderStore, notifier Notifier) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store, notifier: notifier}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.put)
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	o, err := h.store.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var o ledger.Order
	if err := httpx.DecodeJSON(r, &o); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if o.ID != "" && o.ID != id {
		httpx.RespondError(w, fmt.Errorf("order id %q does not match path: %w", o.ID, shared.ErrValidation))
		return
	}
	o.ID = id
	if o.Total < 0 || o.RewardDiscount < 0 || o.AmountPaid < 0 {
		httpx.RespondError(w, fmt.Errorf("order amounts must not be negative: %w", shared.ErrValidation))
		return
	}
	if err := h.store.UpsertOrder(r.Context(), o); err != nil {
		h.logger.Error("upsert order", slog.String("order_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if h.notifier != nil {
		if err := h.notifier.Bump(r.Context(), accounting.FeedOrders); err != nil {
			h.logger.Warn("announce order change", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, o)
}
