package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-shop-orders/internal/auth"
	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/logging"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	kafkago "github.com/segmentio/kafka-go"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, userID string) (*orders.Placement, error)
	MyOrders(ctx context.Context, userID string) ([]orders.OrderSummary, error)
	OrderDetails(ctx context.Context, v orders.Viewer, orderID string) (*orders.OrderDetails, error)
}

// IdempotencyStore is implemented by redisx.Idempotency.
type IdempotencyStore interface {
	Acquire(ctx context.Context, userID, key string) (bool, error)
	Recall(ctx context.Context, userID, key string) ([]byte, bool, error)
	Remember(ctx context.Context, userID, key string, body []byte) error
	Release(ctx context.Context, userID, key string) error
}

// Publisher is implemented by kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header) error
}

// OrdersHandler serves placement and order reads. Idem and Producer are
// optional.
type OrdersHandler struct {
	Orders   OrderService
	Idem     IdempotencyStore
	Producer Publisher
	Service  string
}

type PlaceOrderResp struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

const headerIdempotencyKey = "Idempotency-Key"

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listMine)
	r.Get("/orders/{id}", h.getOrder)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	ctx := r.Context()
	log := logging.FromCtx(ctx)

	key := r.Header.Get(headerIdempotencyKey)
	locked := false
	if key != "" && h.Idem != nil {
		ok, err := h.Idem.Acquire(ctx, id.UserID, key)
		switch {
		case err != nil:
			// Redis down: lanjut tanpa idempotency, DB tetap jadi kebenaran
			log.WarnContext(ctx, "idempotency unavailable", "err", err)
		case ok:
			locked = true
		default:
			h.replay(w, r, id.UserID, key)
			return
		}
	}

	placed, err := h.Orders.PlaceOrder(ctx, id.UserID)
	if err != nil {
		placements.WithLabelValues(outcome(err)).Inc()
		if locked {
			_ = h.Idem.Release(context.WithoutCancel(ctx), id.UserID, key)
		}
		writeError(w, r, err)
		return
	}
	placements.WithLabelValues("committed").Inc()

	body, err := json.Marshal(PlaceOrderResp{OrderID: placed.OrderID, Total: placed.Total})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if locked {
		if err := h.Idem.Remember(context.WithoutCancel(ctx), id.UserID, key, body); err != nil {
			log.WarnContext(ctx, "remember idempotent response", "err", err)
		}
	}
	h.publishPlaced(r, placed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *OrdersHandler) replay(w http.ResponseWriter, r *http.Request, userID, key string) {
	body, done, err := h.Idem.Recall(r.Context(), userID, key)
	if err != nil || !done {
		writeMsg(w, http.StatusConflict, "a request with this Idempotency-Key is already in progress")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

// publishPlaced runs after commit; a lost event never undoes an order.
func (h *OrdersHandler) publishPlaced(r *http.Request, p *orders.Placement) {
	if h.Producer == nil {
		return
	}
	ctx := r.Context()
	ev, err := orders.PlacedEnvelope(p, h.Service, middleware.GetReqID(ctx), time.Now())
	if err != nil {
		logging.FromCtx(ctx).ErrorContext(ctx, "build order.placed", "order_id", p.OrderID, "err", err)
		return
	}
	err = h.Producer.Publish(ctx, orders.PartitionKey(p.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	if err != nil {
		logging.FromCtx(ctx).WarnContext(ctx, "publish order.placed", "order_id", p.OrderID, "err", err)
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, orders.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, orders.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "error"
	}
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	list, err := h.Orders.MyOrders(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeMsg(w, http.StatusBadRequest, "missing id")
		return
	}
	id, _ := auth.FromContext(r.Context())
	details, err := h.Orders.OrderDetails(r.Context(), orders.Viewer{UserID: id.UserID, Admin: id.IsAdmin()}, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

