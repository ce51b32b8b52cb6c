package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCacheSeenAfterMark(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	seen, err := c.Seen(ctx, "hn:1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Expected unseen key before MarkSeen")
	}

	if err := c.MarkSeen(ctx, "hn:1", time.Minute); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}

	seen, err = c.Seen(ctx, "hn:1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if !seen {
		t.Error("Expected key seen after MarkSeen")
	}
}

func TestMemoryCacheExpiresByTTL(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.MarkSeen(ctx, "hn:1", 30*time.Millisecond); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	seen, err := c.Seen(ctx, "hn:1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Expected key expired after TTL")
	}
}

func TestMemoryCacheKeysAreIndependent(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.MarkSeen(ctx, "hn:1", time.Minute); err != nil {
		t.Fatalf("MarkSeen() error = %v", err)
	}

	seen, err := c.Seen(ctx, "reddit:1")
	if err != nil {
		t.Fatalf("Seen() error = %v", err)
	}
	if seen {
		t.Error("Expected different key to be unseen")
	}
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache()
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Second Close() error = %v", err)
	}
}
