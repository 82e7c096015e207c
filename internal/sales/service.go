package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/ariefcatur/go-shop-orders/internal/kafka"
	"github.com/ariefcatur/go-shop-orders/internal/orders"
	"github.com/ariefcatur/go-shop-orders/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
)

// Tally is implemented by redisx.Bestsellers.
type Tally interface {
	Record(ctx context.Context, eventID string, sales []redisx.Sale) (bool, error)
}

// Service folds order.placed events into the bestseller ranking.
type Service struct {
	Tally Tally
	Log   *slog.Logger
}

// HandleOrderPlaced: dipasang sebagai handler consumer.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// pesan rusak tidak akan pernah sukses; commit saja
		s.log().WarnContext(ctx, "drop undecodable message", "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	} // ignore

	// 2) decode payload
	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		s.log().WarnContext(ctx, "drop event with bad payload", "event_id", env.EventID, "err", err)
		return nil
	}

	sales := make([]redisx.Sale, 0, len(p.Lines))
	for _, l := range p.Lines {
		sales = append(sales, redisx.Sale{ProductID: l.ProductID, Qty: l.Qty})
	}

	// 3) dedup + increment (pakai event_id)
	applied, err := s.Tally.Record(ctx, env.EventID, sales)
	if err != nil {
		return fmt.Errorf("record sales for %s: %w", p.OrderID, err)
	}
	s.log().InfoContext(ctx, "order.placed consumed",
		"event_id", env.EventID,
		"order_id", p.OrderID,
		"trace_id", env.TraceID,
		"lines", len(sales),
		"duplicate", !applied,
	)
	return nil
}

func (s *Service) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
