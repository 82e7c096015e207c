package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-shop-orders/internal/catalog"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	List(ctx context.Context, f catalog.Filter) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (*catalog.Product, error)
	Update(ctx context.Context, id string, patch catalog.Patch) (*catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

type Restocker interface {
	Restock(ctx context.Context, productID string, qty int) error
}

// Ranking is implemented by redisx.Bestsellers.
type Ranking interface {
	Top(ctx context.Context, n int) ([]redisx.Ranked, error)
}

// ProductsHandler serves the catalog. Ranking is optional.
type ProductsHandler struct {
	Catalog CatalogService
	Stock   Restocker
	Ranking Ranking
}

type CreateProductReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

type RestockReq struct {
	Quantity int `json:"quantity"`
}

// RegisterPublic mounts the read routes.
func (h *ProductsHandler) RegisterPublic(r chi.Router) {
	r.Get("/products", h.list)
	r.Get("/products/bestsellers", h.bestsellers)
	r.Get("/products/{id}", h.get)
}

// RegisterAdmin mounts the write routes; the caller wraps them in admin auth.
func (h *ProductsHandler) RegisterAdmin(r chi.Router) {
	r.Post("/products", h.create)
	r.Patch("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
	r.Post("/products/{id}/restock", h.restock)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	available, _ := strconv.ParseBool(q.Get("available"))
	ps, err := h.Catalog.List(r.Context(), catalog.Filter{NameContains: q.Get("q"), AvailableOnly: available})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) bestsellers(w http.ResponseWriter, r *http.Request) {
	if h.Ranking == nil {
		writeMsg(w, http.StatusServiceUnavailable, "bestsellers disabled")
		return
	}
	n, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	top, err := h.Ranking.Top(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductReq
	if !decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.Create(r.Context(), catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch catalog.Patch
	if !decode(w, r, &patch) {
		return
	}
	p, err := h.Catalog.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductsHandler) restock(w http.ResponseWriter, r *http.Request) {
	var req RestockReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.Stock.Restock(r.Context(), chi.URLParam(r, "id"), req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restocked"})
}
