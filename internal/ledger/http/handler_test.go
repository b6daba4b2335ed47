package ledgerhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodzone/foodzone-pos/internal/accounting"
	"github.com/foodzone/foodzone-pos/internal/ledger"
)

type memoryOrders struct {
	orders map[string]ledger.Order
}

func (m *memoryOrders) GetOrder(_ context.Context, id string) (ledger.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return ledger.Order{}, ledger.ErrOrderNotFound
	}
	return o, nil
}

func (m *memoryOrders) UpsertOrder(_ context.Context, o ledger.Order) error {
	m.orders[o.ID] = o
	return nil
}

type recordingNotifier struct {
	feeds []accounting.Feed
}

func (r *recordingNotifier) Bump(_ context.Context, feed accounting.Feed) error {
	r.feeds = append(r.feeds, feed)
	return nil
}

func newRouter(store *memoryOrders, notifier *recordingNotifier) http.Handler {
	r := chi.NewRouter()
	NewHandler(nil, store, notifier).MountRoutes(r)
	return r
}

func TestPutOrderStoresDocumentAndAnnounces(t *testing.T) {
	store := &memoryOrders{orders: map[string]ledger.Order{}}
	notifier := &recordingNotifier{}
	router := newRouter(store, notifier)

	body := `{"total":50,"status":"Completed","paymentStatus":"Paid","timestamp":"2024-05-02T09:00:00Z",
		"paymentHistory":[{"amount":50,"method":"Cash","timestamp":"2024-05-02T09:00:00Z"}]}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/ord-1", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	stored := store.orders["ord-1"]
	assert.Equal(t, "ord-1", stored.ID)
	require.Len(t, stored.PaymentHistory, 1)
	assert.Equal(t, ledger.MethodCash, stored.PaymentHistory[0].Method)
	assert.Equal(t, []accounting.Feed{accounting.FeedOrders}, notifier.feeds)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/ord-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got ledger.Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 50.0, got.Total)
}

func TestPutOrderRejectsInvalidDocuments(t *testing.T) {
	store := &memoryOrders{orders: map[string]ledger.Order{}}
	notifier := &recordingNotifier{}
	router := newRouter(store, notifier)

	for _, body := range []string{`{"id":"other","total":5}`, `{"total":-1}`, `{`} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/orders/ord-1", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Empty(t, store.orders)
	assert.Empty(t, notifier.feeds)
}

func TestGetMissingOrder(t *testing.T) {
	router := newRouter(&memoryOrders{orders: map[string]ledger.Order{}}, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
