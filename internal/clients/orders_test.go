package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
)

func newTestOrderClient(t *testing.T, h http.HandlerFunc) *OrderClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOrderClient(NewClient("data-api", srv.URL, NewHTTPClient(2*time.Second)))
}

func TestOrderClient_CreateOrder(t *testing.T) {
	oc := newTestOrderClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "tok-1", r.Header.Get(HeaderIdempotencyKey))
		assert.Equal(t, "cid-9", r.Header.Get(middleware.HeaderCorrelationID))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in order.NewOrder
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "cust-1", in.CustomerID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(order.Order{ID: "order-1", CustomerID: in.CustomerID, Total: in.Total})
	})

	ctx := middleware.WithCorrelationID(context.Background(), "cid-9")
	o, err := oc.CreateOrder(ctx, order.NewOrder{SubmissionToken: "tok-1", CustomerID: "cust-1", Total: 11.8})
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)
	assert.InDelta(t, 11.8, o.Total, 1e-9)
}

func TestOrderClient_ItemAndPaymentPaths(t *testing.T) {
	var (
		mu          sync.Mutex
		paths, keys []string
	)
	oc := newTestOrderClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		keys = append(keys, r.Header.Get(HeaderIdempotencyKey))
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"x","orderId":"order-1"}`))
	})

	_, err := oc.CreateOrderItem(context.Background(), order.NewItem{OrderID: "order-1", LineNo: 2, ItemID: "i", Quantity: 1})
	require.NoError(t, err)
	_, err = oc.CreatePayment(context.Background(), order.NewPayment{ID: "pay-1", OrderID: "order-1", MethodID: "cash"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/api/orders/order-1/items", "/api/orders/order-1/payments"}, paths)
	assert.Equal(t, []string{"order-1:item:2", "pay-1"}, keys)
}

func TestOrderClient_MapsStatuses(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	oc := newTestOrderClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"error":"order not found"}`))
	})

	_, err := oc.CreateOrderItem(context.Background(), order.NewItem{OrderID: "missing"})
	require.ErrorIs(t, err, order.ErrNotFound)
	assert.Contains(t, err.Error(), "order not found")

	status.Store(http.StatusUnprocessableEntity)
	_, err = oc.CreatePayment(context.Background(), order.NewPayment{OrderID: "order-1"})
	require.ErrorIs(t, err, order.ErrInvalid)

	status.Store(http.StatusConflict)
	_, err = oc.CreatePayment(context.Background(), order.NewPayment{ID: "pay-1", OrderID: "order-2"})
	require.ErrorIs(t, err, order.ErrConflict)

	status.Store(http.StatusInternalServerError)
	_, err = oc.GetOrder(context.Background(), "order-1")
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	oc := newTestOrderClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for range 5 {
		_, err := oc.GetOrder(context.Background(), "order-1")
		require.Error(t, err)
	}
	_, err := oc.GetOrder(context.Background(), "order-1")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), hits.Load())
}

func TestClient_BreakerIgnoresClientErrors(t *testing.T) {
	var hits atomic.Int32
	oc := newTestOrderClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	for range 8 {
		_, err := oc.GetOrder(context.Background(), "order-1")
		require.ErrorIs(t, err, order.ErrInvalid)
	}
	assert.Equal(t, int32(8), hits.Load())
}
