// Package activity records privileged actions. Records are built on the
// request goroutine and handed to a Sink, which persists them in the
// background; a failed or dropped record never affects the HTTP response.
package activity

import (
	"context"
	"sync/atomic"

	"github.com/iliyamo/special-academy-api/internal/model"
)

// Sink accepts audit records without blocking.
type Sink interface {
	// Submit queues l and reports whether it was accepted.
	Submit(l model.ActivityLog) bool
	Stats() Stats
	// Close stops accepting records and waits for queued ones, up to ctx.
	Close(ctx context.Context) error
}

// Stats are the sink counters exposed on the metrics route.
type Stats struct {
	Sink     string `json:"sink"`
	Enqueued uint64 `json:"enqueued"`
	Written  uint64 `json:"written"`
	Failed   uint64 `json:"failed"`
	Dropped  uint64 `json:"dropped"`
	Pending  int    `json:"pending"`
}

type counters struct {
	enqueued atomic.Uint64
	written  atomic.Uint64
	failed   atomic.Uint64
	dropped  atomic.Uint64
}

func (c *counters) snapshot(name string, pending int) Stats {
	return Stats{
		Sink:     name,
		Enqueued: c.enqueued.Load(),
		Written:  c.written.Load(),
		Failed:   c.failed.Load(),
		Dropped:  c.dropped.Load(),
		Pending:  pending,
	}
}
