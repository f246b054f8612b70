package cache

import "context"

// Tiered reads the local tier first and falls back to the shared tier,
// copying shared hits into the local one. Writes go to both.
type Tiered struct {
	local  Cache
	shared Cache
}

func NewTiered(local, shared Cache) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, key Key) (string, bool) {
	if v, ok := t.local.Get(ctx, key); ok {
		return v, true
	}
	v, ok := t.shared.Get(ctx, key)
	if ok {
		t.local.Put(ctx, key, v)
	}
	return v, ok
}

func (t *Tiered) Put(ctx context.Context, key Key, value string) {
	t.local.Put(ctx, key, value)
	t.shared.Put(ctx, key, value)
}

// Len reports the local tier only.
func (t *Tiered) Len() int {
	return t.local.Len()
}
