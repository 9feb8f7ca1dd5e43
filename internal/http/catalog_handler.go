package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
)

func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	q, err := listquery.Parse(r.URL.Query(), catalog.ListSpec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.Catalog.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) GetCatalogItem(w http.ResponseWriter, r *http.Request) {
	it, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) CreateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	it, err := h.Catalog.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) UpdateCatalogItem(w http.ResponseWriter, r *http.Request) {
	var in catalog.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	it, err := h.Catalog.Update(r.Context(), chi.URLParam(r, "itemId"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *Handler) DeleteCatalogItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
