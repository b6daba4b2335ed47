package rewards

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/foodzone/foodzone-pos/internal/platform/httpx"
)

// Store is the persistence contract used by the handler.
type Store interface {
	ListEligible(ctx context.Context) ([]CustomerReward, error)
	AddBags(ctx context.Context, id, tag string, bags int) (CustomerReward, error)
	Redeem(ctx context.Context, tag string, amountDue float64) (Redemption, error)
}

// Handler serves reward endpoints.
type Handler struct {
	logger *slog.Logger
	store  Store
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, store Store) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, store: store}
}

// MountRoutes registers HTTP routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/rewards", func(r chi.Router) {
		r.Get("/", h.listEligible)
		r.Post("/{tag}/bags", h.addBags)
		r.Post("/{tag}/redeem", h.redeem)
	})
}

func (h *Handler) listEligible(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListEligible(r.Context())
	if err != nil {
		h.logger.Error("list rewards", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) addBags(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Bags int `json:"bags"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	c, err := h.store.AddBags(r.Context(), uuid.NewString(), chi.URLParam(r, "tag"), body.Bags)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) redeem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AmountDue float64 `json:"amountDue"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	red, err := h.store.Redeem(r.Context(), chi.URLParam(r, "tag"), body.AmountDue)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, red)
}
