package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultQueueSize       = 256
	defaultDeliveryTimeout = 10 * time.Second
)

// queue hands notices to a single dispatch goroutine so slow sinks never
// block the caller. A full queue drops the notice and logs it.
type queue struct {
	mu     sync.RWMutex
	closed bool
	ch     chan Notice
	done   chan struct{}

	send    func(context.Context, Notice) error
	timeout time.Duration
	logger  zerolog.Logger
}

func newQueue(size int, timeout time.Duration, logger zerolog.Logger, send func(context.Context, Notice) error) *queue {
	q := &queue{
		ch:      make(chan Notice, size),
		done:    make(chan struct{}),
		send:    send,
		timeout: timeout,
		logger:  logger,
	}
	go q.dispatch()
	return q
}

// enqueue reports whether the notice was accepted.
func (q *queue) enqueue(n Notice) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Debug().Str("notice_id", n.ID).Msg("sink closed, notice dropped")
		return false
	}
	select {
	case q.ch <- n:
		return true
	default:
		q.logger.Warn().Str("notice_id", n.ID).Msg("delivery queue full, notice dropped")
		return false
	}
}

func (q *queue) dispatch() {
	defer close(q.done)
	for n := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.send(ctx, n); err != nil {
			q.logger.Warn().Err(err).Str("notice_id", n.ID).Msg("notice delivery failed")
		}
		cancel()
	}
}

// close stops accepting notices and waits for queued ones to be delivered.
func (q *queue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		<-q.done
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()
	<-q.done
}
