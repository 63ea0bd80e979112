package handlers

import (
	"net/http"

	"github.com/hongminglow/storefront/internal/catalog"
	"github.com/hongminglow/storefront/internal/http/respond"
	"github.com/hongminglow/storefront/internal/middleware"
	"github.com/hongminglow/storefront/internal/models"
)

// ProductHandler serves the public catalog and the admin-only product writes.
type ProductHandler struct {
	catalog *catalog.Service
}

func NewProductHandler(svc *catalog.Service) *ProductHandler {
	return &ProductHandler{catalog: svc}
}

// Register attaches product routes to the mux. Writes require the admin role.
func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleList)
	mux.HandleFunc("GET /api/products/{id}", h.handleGet)
	mux.Handle("POST /api/products", adminOnly(h.handleCreate))
	mux.Handle("PUT /api/products/{id}", adminOnly(h.handleUpdate))
	mux.Handle("DELETE /api/products/{id}", adminOnly(h.handleDelete))
}

func adminOnly(fn http.HandlerFunc) http.Handler {
	return middleware.RequireRole(models.RoleAdmin, fn)
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", products)
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", product)
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Fail(w, r, err)
		return
	}
	created, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "product created", created)
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		respond.Fail(w, r, err)
		return
	}
	updated, err := h.catalog.Update(r.Context(), id, in)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "product updated", updated)
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		respond.Fail(w, r, err)
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respond.Fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "product deleted", nil)
}
