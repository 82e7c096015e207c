package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	Cart(ctx context.Context, userID string) (*orders.Cart, error)
	AddToCart(ctx context.Context, userID, productID string, qty int) error
	UpdateCartItem(ctx context.Context, userID, productID string, qty int) error
	RemoveCartItem(ctx context.Context, userID, productID string) error
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	Cart CartService
}

type AddItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SetQuantityReq struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Register(r chi.Router) {
	r.Get("/cart", h.get)
	r.Post("/cart/items", h.add)
	r.Put("/cart/items/{productID}", h.update)
	r.Delete("/cart/items/{productID}", h.remove)
	r.Delete("/cart", h.clear)
}

func userID(r *http.Request) string {
	id, _ := auth.FromContext(r.Context())
	return id.UserID
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.Cart.Cart(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var req AddItemReq
	if !decode(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeMsg(w, http.StatusBadRequest, "missing product_id")
		return
	}
	if err := h.Cart.AddToCart(r.Context(), userID(r), req.ProductID, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "added"})
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityReq
	if !decode(w, r, &req) {
		return
	}
	if err := h.Cart.UpdateCartItem(r.Context(), userID(r), chi.URLParam(r, "productID"), req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.RemoveCartItem(r.Context(), userID(r), chi.URLParam(r, "productID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.ClearCart(r.Context(), userID(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
