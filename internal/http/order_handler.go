package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/clients"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/receipt"
)

// The create endpoints below are the data API that clients.OrderClient
// talks to, so one deployment can serve another as its remote data service.

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var in order.NewOrder
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.SubmissionToken == "" {
		in.SubmissionToken = r.Header.Get(clients.HeaderIdempotencyKey)
	}
	o, err := h.Orders.CreateOrder(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) CreateOrderItem(w http.ResponseWriter, r *http.Request) {
	var in order.NewItem
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.OrderID = chi.URLParam(r, "orderId")
	it, err := h.Orders.CreateOrderItem(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var in order.NewPayment
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	in.OrderID = chi.URLParam(r, "orderId")
	if in.ID == "" {
		in.ID = r.Header.Get(clients.HeaderIdempotencyKey)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	p, err := h.Orders.CreatePayment(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q, err := listquery.Parse(r.URL.Query(), order.ListSpec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if s := q.Filters["status"]; s != "" && !order.ValidStatus(s) {
		h.writeError(w, r, fmt.Errorf("%w: unknown status %q", errBadRequest, s))
		return
	}
	page, err := h.Orders.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderLookup(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	o, err := h.OrderLookup(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	clinic := h.Cfg.Clinic
	text := receipt.Format(o, receipt.Header{
		ClinicName:  clinic.Name,
		Currency:    clinic.Currency,
		MethodNames: clinic.MethodNames(),
		Location:    clinic.Location(),
	})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
