package redisx

import "time"

const (
	// Idempotency place order: idem:order:place:{user_id}:{key} -> response JSON
	KeyIdemOrderPlace = "idem:order:place:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Sorted set product_id -> units sold
	KeyBestsellers = "stats:bestsellers"
)

var (
	TTLDedup = 48 * time.Hour

	// lock window for an in-flight placement with the same key
	TTLInFlight = 30 * time.Second
)
