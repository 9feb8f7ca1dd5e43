package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/sessions"
)

type Catalog interface {
	Get(ctx context.Context, id string) (catalog.Item, error)
	ForSale(ctx context.Context, id string) (catalog.Item, error)
	List(ctx context.Context, q listquery.Query) (listquery.Page[catalog.Item], error)
	Create(ctx context.Context, in catalog.Input) (catalog.Item, error)
	Update(ctx context.Context, id string, in catalog.Input) (catalog.Item, error)
	Delete(ctx context.Context, id string) error
}

type Customers interface {
	GetCustomer(ctx context.Context, id string) (customer.Customer, error)
	PetOf(ctx context.Context, customerID, petID string) (customer.Pet, error)
	ListPets(ctx context.Context, customerID string) ([]customer.Pet, error)
	List(ctx context.Context, q listquery.Query) (listquery.Page[customer.Customer], error)
}

// AbandonNotifier is told when a cleared session leaves a partly written
// order behind.
type AbandonNotifier interface {
	OrderAbandoned(ctx context.Context, terminalID string, sub pos.Submission) error
}

type Deps struct {
	Logger *zap.Logger
	Cfg    config.Config

	Sessions  *sessions.Registry
	Checkout  *pos.Checkout
	Catalog   Catalog
	Customers Customers
	Orders    order.Repository

	// OrderLookup resolves single orders for reads and receipts. It
	// defaults to Orders.GetByID.
	OrderLookup func(ctx context.Context, orderID string) (order.Order, error)

	// Abandoned may be nil.
	Abandoned AbandonNotifier
}

type Handler struct {
	Deps
}

func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.OrderLookup == nil && d.Orders != nil {
		d.OrderLookup = d.Orders.GetByID
	}
	return &Handler{Deps: d}
}

func NewRouter(d Deps) http.Handler {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.CORS(h.Cfg.CORSAllowOrigins))
	r.Use(middleware.AccessLog(h.Logger))
	r.Use(middleware.Recover(h.Logger))

	r.Get("/health", h.Health)

	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/", h.ListCatalog)
		r.Post("/", h.CreateCatalogItem)
		r.Get("/{itemId}", h.GetCatalogItem)
		r.Put("/{itemId}", h.UpdateCatalogItem)
		r.Delete("/{itemId}", h.DeleteCatalogItem)
	})

	r.Route("/api/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Get("/{customerId}", h.GetCustomer)
		r.Get("/{customerId}/pets", h.ListPets)
	})

	r.Route("/api/pos", func(r chi.Router) {
		r.Get("/payment-methods", h.PaymentMethods)

		r.Route("/sessions/{terminalId}", func(r chi.Router) {
			r.Use(h.withSession)

			r.Post("/", h.OpenSession)
			r.Get("/", h.GetSession)
			r.Delete("/", h.ClearSession)
			r.Post("/context", h.SetContext)

			r.Post("/lines", h.AddLine)
			r.Put("/lines/{itemId}", h.SetLineQuantity)
			r.Post("/lines/{itemId}/increment", h.IncrementLine)
			r.Post("/lines/{itemId}/decrement", h.DecrementLine)
			r.Delete("/lines/{itemId}", h.RemoveLine)

			r.Put("/customer", h.SetCustomer)
			r.Put("/pet", h.SetPet)
			r.Delete("/pet", h.ClearPet)

			r.Post("/payments", h.AddPayment)
			r.Delete("/payments/{paymentId}", h.RemovePayment)

			r.Post("/submit", h.Submit)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Post("/", h.CreateOrder)
		r.Get("/{orderId}", h.GetOrder)
		r.Get("/{orderId}/receipt", h.Receipt)
		r.Post("/{orderId}/items", h.CreateOrderItem)
		r.Post("/{orderId}/payments", h.CreatePayment)
	})

	return r
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"service":      "pos-service",
		"openSessions": h.Sessions.Len(),
	})
}
