package cache

import (
	"context"
	"time"
)

// IdentityCache is a best-effort, TTL-bound presence cache over record
// identities (source:external_id keys). Its only job is to absorb
// re-collection windows; the durable store remains the idempotence
// authority. Implementations must be safe for concurrent use from
// multiple simultaneous runs.
type IdentityCache interface {
	Seen(ctx context.Context, key string) (bool, error)
	MarkSeen(ctx context.Context, key string, ttl time.Duration) error
	Close() error
}
