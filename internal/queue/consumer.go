// Package queue carries audit records through RabbitMQ: the publisher used
// by the amqp activity sink and the consumer that persists what it sends.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/special-academy-api/internal/model"
    "github.com/iliyamo/special-academy-api/internal/repository"
)

// ConsumerOptions configures StartActivityConsumer.
type ConsumerOptions struct {
    URL          string
    Queue        string
    Prefetch     int           // 0 means 50
    WriteTimeout time.Duration // 0 means 5s
}

// StartActivityConsumer connects to RabbitMQ, declares the activity queue
// (durable) and writes every delivery to repo.  It reconnects with
// exponential backoff (capped at 30s) and returns only when ctx is done.
func StartActivityConsumer(ctx context.Context, opts ConsumerOptions, repo repository.ActivityLogRepository, log *zap.Logger) error {
    if opts.Prefetch <= 0 {
        opts.Prefetch = 50
    }
    if opts.WriteTimeout <= 0 {
        opts.WriteTimeout = 5 * time.Second
    }

    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(opts.URL)
        if err != nil {
            log.Warn("activity-consumer: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect
        log.Info("activity-consumer: connected", zap.String("queue", opts.Queue))

        err = consumeLoop(ctx, conn, opts, repo, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("activity-consumer: consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, opts ConsumerOptions, repo repository.ActivityLogRepository, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(opts.Prefetch, 0, false); err != nil {
        log.Warn("activity-consumer: set QoS failed", zap.Error(err))
    }

    if _, err := ch.QueueDeclare(opts.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(opts.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(ctx, d.Body, repo, opts.WriteTimeout); err != nil {
                log.Error("activity-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// handleMessage decodes one delivery and stores it.  Records with an
// unknown action or entity are rejected rather than stored.
func handleMessage(ctx context.Context, body []byte, repo repository.ActivityLogRepository, timeout time.Duration) error {
    var ev ActivityLoggedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if !model.ValidAction(ev.Action) || !model.ValidEntity(ev.Entity) {
        return fmt.Errorf("invalid event: action=%q entity=%q", ev.Action, ev.Entity)
    }
    rec := ev.Record()

    wctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()
    if err := repo.Create(wctx, &rec); err != nil {
        // a redelivered event whose id is already stored is not an error
        if errors.Is(err, repository.ErrDuplicate) {
            return nil
        }
        return fmt.Errorf("store activity: %w", err)
    }
    return nil
}
