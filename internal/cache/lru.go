package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSize is used when a non-positive capacity is configured.
const DefaultSize = 10000

// LRU is a fixed-capacity in-memory cache. Put evicts the least recently
// used entry once the capacity is reached.
type LRU struct {
	entries *lru.Cache[Key, string]
}

func NewLRU(size int) (*LRU, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU{entries: entries}, nil
}

func (c *LRU) Get(_ context.Context, key Key) (string, bool) {
	return c.entries.Get(key)
}

func (c *LRU) Put(_ context.Context, key Key, value string) {
	c.entries.Add(key, value)
}

func (c *LRU) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *LRU) Purge() {
	c.entries.Purge()
}
