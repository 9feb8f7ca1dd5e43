package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q, err := listquery.Parse(r.URL.Query(), customer.ListSpec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.Customers.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.Customers.GetCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ListPets(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerId")
	if _, err := h.Customers.GetCustomer(r.Context(), customerID); err != nil {
		h.writeError(w, r, err)
		return
	}
	pets, err := h.Customers.ListPets(r.Context(), customerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pets)
}
