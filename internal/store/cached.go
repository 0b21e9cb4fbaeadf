package store

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/backmassage/beatcut/internal/plan"
)

// Cached is a read-through LRU in front of another Store. Documents are
// immutable once written, so entries never go stale.
type Cached struct {
	next  Store
	cache *lru.Cache[string, []byte]
}

func NewCached(next Store, size int) (*Cached, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("init plan cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Put(ctx context.Context, d *plan.Document) error {
	if err := c.next.Put(ctx, d); err != nil {
		return err
	}
	if raw, err := plan.Marshal(d); err == nil {
		c.cache.Add(d.ID, raw)
	}
	return nil
}

func (c *Cached) Get(ctx context.Context, id string) (*plan.Document, error) {
	if raw, ok := c.cache.Get(id); ok {
		return decodeBytes(raw)
	}
	d, err := c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := plan.Marshal(d); err == nil {
		c.cache.Add(id, raw)
	}
	return d, nil
}

func (c *Cached) List(ctx context.Context) ([]string, error) {
	return c.next.List(ctx)
}

// Len reports how many documents are cached.
func (c *Cached) Len() int {
	return c.cache.Len()
}
