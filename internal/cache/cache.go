// Package cache stores captured HTTP responses for a bounded time.
// Entries are never invalidated by writes; staleness is bounded by the TTL.
package cache

import (
	"context"
	"net/http"
	"time"
)

// Entry is one captured response.
type Entry struct {
	Status int
	Header http.Header
	Body   []byte
}

// Store is the backend the cache middleware reads and writes.
type Store interface {
	// Get returns the live entry for key. Expired entries are reported as misses.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set stores e under key for ttl.
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	return h.Clone()
}

func cloneEntry(e Entry) Entry {
	body := make([]byte, len(e.Body))
	copy(body, e.Body)
	return Entry{Status: e.Status, Header: cloneHeader(e.Header), Body: body}
}
