package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "OrderPlaced"

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // EventOrderPlaced
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g., "shop-orders"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type PlacedLine struct {
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderPlacedPayload struct {
	OrderID string          `json:"order_id"`
	UserID  string          `json:"user_id"`
	Total   decimal.Decimal `json:"total"`
	Lines   []PlacedLine    `json:"lines"`
}

// PlacedEnvelope builds the order.placed event for a committed placement.
// traceID is usually the HTTP request id.
func PlacedEnvelope(p *Placement, producer, traceID string, at time.Time) (Envelope, error) {
	lines := make([]PlacedLine, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, PlacedLine{ProductID: l.ProductID, Qty: l.Quantity, UnitPrice: l.UnitPrice})
	}
	payload, err := json.Marshal(OrderPlacedPayload{
		OrderID: p.OrderID,
		UserID:  p.UserID,
		Total:   p.Total,
		Lines:   lines,
	})
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    at.UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: p.OrderID,
		Payload:       payload,
	}, nil
}
