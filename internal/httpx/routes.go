package httpx

import (
	"github.com/ariefcatur/go-shop-orders/internal/auth"
	"github.com/go-chi/chi/v5"
)

// Mount wires the handlers: catalog reads are public, everything else needs a
// bearer token, catalog writes need the admin role.
func Mount(r chi.Router, v *auth.Verifier, orders *OrdersHandler, cart *CartHandler, products *ProductsHandler) {
	products.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(v.Middleware)
		orders.Register(r)
		cart.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			products.RegisterAdmin(r)
		})
	})
}
