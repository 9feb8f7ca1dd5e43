package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/sessions"
)

// --- fakes ---

type fakeCatalog struct {
	items map[string]catalog.Item
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Item, error) {
	it, ok := f.items[id]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

func (f *fakeCatalog) ForSale(ctx context.Context, id string) (catalog.Item, error) {
	it, err := f.Get(ctx, id)
	if err != nil {
		return catalog.Item{}, err
	}
	if !it.Active {
		return catalog.Item{}, catalog.ErrInactive
	}
	return it, nil
}

func (f *fakeCatalog) List(_ context.Context, q listquery.Query) (listquery.Page[catalog.Item], error) {
	var items []catalog.Item
	for _, it := range f.items {
		items = append(items, it)
	}
	return listquery.NewPage(items, q, len(items)), nil
}

func (f *fakeCatalog) Create(_ context.Context, in catalog.Input) (catalog.Item, error) {
	if err := in.Normalize(); err != nil {
		return catalog.Item{}, err
	}
	it := catalog.Item{ID: "new-item", Kind: in.Kind, Name: in.Name, UnitPrice: in.UnitPrice, Active: *in.Active}
	f.items[it.ID] = it
	return it, nil
}

func (f *fakeCatalog) Update(_ context.Context, id string, in catalog.Input) (catalog.Item, error) {
	if _, ok := f.items[id]; !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	if err := in.Normalize(); err != nil {
		return catalog.Item{}, err
	}
	it := catalog.Item{ID: id, Kind: in.Kind, Name: in.Name, UnitPrice: in.UnitPrice, Active: *in.Active}
	f.items[id] = it
	return it, nil
}

func (f *fakeCatalog) Delete(_ context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeCustomers struct {
	customers map[string]customer.Customer
	pets      map[string]customer.Pet
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id string) (customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (f *fakeCustomers) PetOf(_ context.Context, customerID, petID string) (customer.Pet, error) {
	p, ok := f.pets[petID]
	if !ok {
		return customer.Pet{}, customer.ErrNotFound
	}
	if p.CustomerID != customerID {
		return customer.Pet{}, customer.ErrPetNotOwned
	}
	return p, nil
}

func (f *fakeCustomers) ListPets(_ context.Context, customerID string) ([]customer.Pet, error) {
	out := []customer.Pet{}
	for _, p := range f.pets {
		if p.CustomerID == customerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCustomers) List(_ context.Context, q listquery.Query) (listquery.Page[customer.Customer], error) {
	var out []customer.Customer
	for _, c := range f.customers {
		out = append(out, c)
	}
	return listquery.NewPage(out, q, len(out)), nil
}

// fakeOrders is an in-memory order.Repository. failPayments makes the next
// n CreatePayment calls fail.
type fakeOrders struct {
	mu           sync.Mutex
	orders       map[string]*order.Order
	byToken      map[string]string
	calls        []string
	failPayments int
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{orders: map[string]*order.Order{}, byToken: map[string]string{}}
}

func (f *fakeOrders) CreateOrder(_ context.Context, in order.NewOrder) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := in.Validate(); err != nil {
		return order.Order{}, err
	}
	f.calls = append(f.calls, "order")
	if id, ok := f.byToken[in.SubmissionToken]; ok && in.SubmissionToken != "" {
		return *f.orders[id], nil
	}
	o := &order.Order{
		ID:              fmt.Sprintf("order-%d", len(f.orders)+1),
		SubmissionToken: in.SubmissionToken,
		CustomerID:      in.CustomerID,
		PetID:           in.PetID,
		AmendsOrderID:   in.AmendsOrderID,
		Status:          order.StatusCompleted,
		Subtotal:        in.Subtotal,
		Tax:             in.Tax,
		Total:           in.Total,
		PaidAmount:      in.PaidAmount,
		CreatedAt:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.orders[o.ID] = o
	f.byToken[in.SubmissionToken] = o.ID
	return *o, nil
}

func (f *fakeOrders) CreateOrderItem(_ context.Context, in order.NewItem) (order.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "item")
	o, ok := f.orders[in.OrderID]
	if !ok {
		return order.Item{}, order.ErrNotFound
	}
	it := order.Item{OrderID: in.OrderID, LineNo: in.LineNo, ItemID: in.ItemID, Name: in.Name,
		UnitPrice: in.UnitPrice, Quantity: in.Quantity, Subtotal: in.Subtotal()}
	o.Items = append(o.Items, it)
	return it, nil
}

func (f *fakeOrders) CreatePayment(_ context.Context, in order.NewPayment) (order.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "payment")
	if f.failPayments > 0 {
		f.failPayments--
		return order.Payment{}, errors.New("payment store unavailable")
	}
	for _, other := range f.orders {
		for _, p := range other.Payments {
			if p.ID == in.ID {
				if p.OrderID != in.OrderID {
					return order.Payment{}, order.ErrConflict
				}
				return p, nil
			}
		}
	}
	o, ok := f.orders[in.OrderID]
	if !ok {
		return order.Payment{}, order.ErrNotFound
	}
	p := order.Payment{ID: in.ID, OrderID: in.OrderID, CustomerID: in.CustomerID, MethodID: in.MethodID, Amount: in.Amount}
	o.Payments = append(o.Payments, p)
	return p, nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	return *o, nil
}

func (f *fakeOrders) List(_ context.Context, q listquery.Query) (listquery.Page[order.Order], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return listquery.NewPage(out, q, len(out)), nil
}

type fakeAbandoned struct {
	mu   sync.Mutex
	subs []pos.Submission
}

func (f *fakeAbandoned) OrderAbandoned(_ context.Context, _ string, sub pos.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
	return nil
}

// --- harness ---

type testEnv struct {
	router    http.Handler
	orders    *fakeOrders
	abandoned *fakeAbandoned
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		CORSAllowOrigins: []string{"*"},
		Clinic: config.Clinic{
			Name:     "Happy Paws",
			Currency: "USD",
			TaxRate:  pos.DefaultTaxRate,
			Timezone: "UTC",
			PaymentMethods: []config.PaymentMethod{
				{ID: "cash", Name: "Cash"},
				{ID: "card", Name: "Card"},
				{ID: "transfer", Name: "Bank transfer"},
			},
		},
	}

	orders := newFakeOrders()
	abandoned := &fakeAbandoned{}
	router := NewRouter(Deps{
		Logger:   zap.NewNop(),
		Cfg:      cfg,
		Sessions: sessions.NewRegistry(nil, pos.DefaultTaxRate, nil),
		Checkout: pos.NewCheckout(orders, nil),
		Catalog: &fakeCatalog{items: map[string]catalog.Item{
			"vac":  {ID: "vac", Kind: catalog.KindService, Name: "Rabies vaccine", UnitPrice: 10, Active: true},
			"food": {ID: "food", Kind: catalog.KindProduct, Name: "Dog food", UnitPrice: 5, Active: true},
			"old":  {ID: "old", Kind: catalog.KindProduct, Name: "Discontinued", UnitPrice: 1, Active: false},
		}},
		Customers: &fakeCustomers{
			customers: map[string]customer.Customer{
				"c1": {ID: "c1", Name: "Ana Ruiz"},
				"c2": {ID: "c2", Name: "Ben Ortiz"},
			},
			pets: map[string]customer.Pet{
				"p1": {ID: "p1", CustomerID: "c1", Name: "Luna"},
				"p2": {ID: "p2", CustomerID: "c2", Name: "Milo"},
			},
		},
		Orders:    orders,
		Abandoned: abandoned,
	})
	return &testEnv{router: router, orders: orders, abandoned: abandoned}
}

func (e *testEnv) request(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.serve(e.request(t, method, path, body))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const session = "/api/pos/sessions/front-desk"

// readySale builds a complete sale: 2 x vaccine (10.00) for c1, paid 30.00 cash.
func (e *testEnv) readySale(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPost, session+"/lines", map[string]any{"itemId": "vac", "quantity": 2}).Code)
	require.Equal(t, http.StatusOK, e.do(t, http.MethodPut, session+"/customer", map[string]string{"customerId": "c1"}).Code)
	require.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, session+"/payments", map[string]any{"methodId": "cash", "amount": 30}).Code)
}
