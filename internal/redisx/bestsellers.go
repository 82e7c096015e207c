package redisx

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Sale struct {
	ProductID string
	Qty       int
}

type Ranked struct {
	ProductID string `json:"product_id"`
	Units     int64  `json:"units"`
}

// Bestsellers keeps units sold per product in a sorted set.
type Bestsellers struct {
	rdb     redis.Cmdable
	service string
}

func NewBestsellers(rdb redis.Cmdable, service string) *Bestsellers {
	return &Bestsellers{rdb: rdb, service: service}
}

// Record counts the sales of one event. A redelivered event id is skipped
// and reported as applied=false.
func (b *Bestsellers) Record(ctx context.Context, eventID string, sales []Sale) (applied bool, err error) {
	dedup := fmt.Sprintf(KeyDedup, b.service, eventID)
	ok, err := b.rdb.SetNX(ctx, dedup, "1", TTLDedup).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range sales {
			pipe.ZIncrBy(ctx, KeyBestsellers, float64(s.Qty), s.ProductID)
		}
		return nil
	})
	if err != nil {
		// let the redelivery count it
		_ = b.rdb.Del(ctx, dedup).Err()
		return false, err
	}
	return true, nil
}

func (b *Bestsellers) Top(ctx context.Context, n int) ([]Ranked, error) {
	if n <= 0 {
		n = 10
	}
	zs, err := b.rdb.ZRevRangeWithScores(ctx, KeyBestsellers, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, 0, len(zs))
	for _, z := range zs {
		id, _ := z.Member.(string)
		out = append(out, Ranked{ProductID: id, Units: int64(z.Score)})
	}
	return out, nil
}
