package activity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/special-academy-api/internal/model"
	"github.com/iliyamo/special-academy-api/internal/queue"
	"github.com/iliyamo/special-academy-api/internal/repository"
)

// WriteFunc persists or forwards one record.
type WriteFunc func(ctx context.Context, l model.ActivityLog) error

// StoreWriter writes records straight into the activity log repository.
func StoreWriter(repo repository.ActivityLogRepository) WriteFunc {
	return func(ctx context.Context, l model.ActivityLog) error {
		return repo.Create(ctx, &l)
	}
}

// Publisher is the part of queue.Publisher the amqp sink needs.
type Publisher interface {
	PublishActivityLogged(ctx context.Context, ev queue.ActivityLoggedEvent) error
}

// PublishWriter forwards records to RabbitMQ for the activity consumer.
func PublishWriter(p Publisher) WriteFunc {
	return func(ctx context.Context, l model.ActivityLog) error {
		return p.PublishActivityLogged(ctx, queue.NewActivityLoggedEvent(l))
	}
}

// WorkerOptions sizes a WorkerSink.
type WorkerOptions struct {
	Name         string
	Workers      int
	Buffer       int
	WriteTimeout time.Duration
}

// WorkerSink is a bounded queue drained by a fixed pool of goroutines. When
// the queue is full the record is dropped and counted.
type WorkerSink struct {
	name    string
	write   WriteFunc
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan model.ActivityLog
	wg     sync.WaitGroup
	stats  counters
}

func NewWorkerSink(write WriteFunc, opts WorkerOptions, log *zap.Logger) *WorkerSink {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Buffer < 1 {
		opts.Buffer = 1
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Name == "" {
		opts.Name = "worker"
	}
	s := &WorkerSink{
		name:    opts.Name,
		write:   write,
		timeout: opts.WriteTimeout,
		log:     log,
		jobs:    make(chan model.ActivityLog, opts.Buffer),
	}
	s.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go s.run()
	}
	return s
}

func (s *WorkerSink) run() {
	defer s.wg.Done()
	for l := range s.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		err := s.write(ctx, l)
		cancel()
		if err != nil {
			s.stats.failed.Add(1)
			s.log.Error("activity: write failed",
				zap.String("action", l.Action),
				zap.String("entity", l.Entity),
				zap.String("entity_id", l.EntityID),
				zap.Error(err))
			continue
		}
		s.stats.written.Add(1)
	}
}

func (s *WorkerSink) Submit(l model.ActivityLog) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.stats.dropped.Add(1)
		return false
	}
	select {
	case s.jobs <- l:
		s.stats.enqueued.Add(1)
		return true
	default:
		s.stats.dropped.Add(1)
		s.log.Warn("activity: queue full, record dropped",
			zap.String("action", l.Action), zap.String("entity", l.Entity))
		return false
	}
}

func (s *WorkerSink) Stats() Stats {
	return s.stats.snapshot(s.name, len(s.jobs))
}

// Close is safe to call more than once.
func (s *WorkerSink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
