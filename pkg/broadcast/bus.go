package broadcast

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/formguard/pkg/logger"
)

// Signal is a lifecycle notification published by a component.
type Signal struct {
	Type   string
	Root   string
	Marker string
	Detail map[string]any
	At     time.Time
}

// Subscription receives signals until it is closed.
type Subscription struct {
	ch     chan Signal
	mu     sync.RWMutex
	closed bool
}

// C returns the receive channel. It is closed when the subscription ends.
func (s *Subscription) C() <-chan Signal { return s.ch }

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func (s *Subscription) send(sig Signal) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- sig:
		return true
	default:
		return false
	}
}

// Bus is an in-memory signal broadcaster, safe for concurrent use.
type Bus struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
	logger  *slog.Logger
	now     func() time.Time
	done    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber buffer. The minimum is 1.
func WithBufferSize(n int) Option {
	return func(b *Bus) { b.buffer = max(n, 1) }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock sets the time source used to stamp signals.
func WithClock(now func() time.Time) Option {
	return func(b *Bus) {
		if now != nil {
			b.now = now
		}
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[*Subscription]struct{}),
		buffer: 16,
		logger: logger.Discard(),
		now:    time.Now,
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a subscriber. The subscription is released when ctx
// is done. Subscribing to a closed bus returns a closed subscription.
func (b *Bus) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{ch: make(chan Signal, b.buffer)}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.Close()
		return sub
	}
	b.subs[sub] = struct{}{}

	if ctx.Done() != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			select {
			case <-ctx.Done():
				b.remove(sub)
			case <-b.done:
			}
		}()
	}
	return sub
}

// Publish delivers sig to every subscriber without blocking. A zero At is
// stamped with the bus clock.
func (b *Bus) Publish(sig Signal) {
	if sig.At.IsZero() {
		sig.At = b.now()
	}

	b.mu.RLock()
	var slow []*Subscription
	if !b.closed {
		for sub := range b.subs {
			if !sub.send(sig) {
				slow = append(slow, sub)
			}
		}
	}
	b.mu.RUnlock()

	for _, sub := range slow {
		b.dropped.Add(1)
		b.logger.Warn("dropping slow signal subscriber", logger.Event(sig.Type), logger.Root(sig.Root))
		b.remove(sub)
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many subscribers were dropped for being slow.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Close ends every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.done)
	for sub := range b.subs {
		sub.Close()
	}
	clear(b.subs)
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
	sub.Close()
}
