// Package cache stores finished translations keyed by text and language
// pair. The router owns one Cache and consults it before every provider
// call, across all providers and chunks.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key identifies one translation. Language codes are compared
// case-insensitively.
type Key struct {
	Text   string
	Source string
	Target string
}

// NewKey normalizes the language codes of a key.
func NewKey(text, source, target string) Key {
	return Key{
		Text:   text,
		Source: strings.ToLower(strings.TrimSpace(source)),
		Target: strings.ToLower(strings.TrimSpace(target)),
	}
}

// String is a stable digest of the key, suitable for external stores.
func (k Key) String() string {
	h := sha256.New()
	h.Write([]byte(k.Source))
	h.Write([]byte{0})
	h.Write([]byte(k.Target))
	h.Write([]byte{0})
	h.Write([]byte(k.Text))
	return k.Source + ":" + k.Target + ":" + hex.EncodeToString(h.Sum(nil))
}

// Cache is safe for concurrent use. Lookups never fail: a backend error is
// reported as a miss.
type Cache interface {
	Get(ctx context.Context, key Key) (string, bool)
	Put(ctx context.Context, key Key, value string)
	Len() int
}

// Nop is a Cache that stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, Key) (string, bool) { return "", false }
func (Nop) Put(context.Context, Key, string)        {}
func (Nop) Len() int                                { return 0 }
