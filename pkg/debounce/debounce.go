// Package debounce delays work per key, keeping only the latest request.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules fn after d. time.AfterFunc satisfies it once wrapped,
// tests supply a fake clock.
type AfterFunc func(d time.Duration, fn func()) Timer

// Runner executes a fired callback. Use it to serialise callbacks with other
// work on the same document.
type Runner func(fn func())

type slot struct {
	timer Timer
	seq   uint64
}

// Debouncer keeps one pending callback per key. Scheduling a key again
// stops and replaces the previous callback.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	after   AfterFunc
	run     Runner
	slots   map[string]*slot
	seq     uint64
	stopped bool
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithAfterFunc replaces the time source.
func WithAfterFunc(fn AfterFunc) Option {
	return func(d *Debouncer) {
		if fn != nil {
			d.after = fn
		}
	}
}

// WithRunner wraps every fired callback, for example with Document.Do.
func WithRunner(fn Runner) Option {
	return func(d *Debouncer) {
		if fn != nil {
			d.run = fn
		}
	}
}

// New creates a debouncer with the given delay.
func New(delay time.Duration, opts ...Option) *Debouncer {
	d := &Debouncer{
		delay: delay,
		after: func(d time.Duration, fn func()) Timer { return time.AfterFunc(d, fn) },
		run:   func(fn func()) { fn() },
		slots: make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Delay returns the configured delay.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Schedule runs fn after the delay unless key is scheduled again, cancelled
// or the debouncer is stopped first.
func (d *Debouncer) Schedule(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || fn == nil {
		return
	}
	if prev, ok := d.slots[key]; ok {
		prev.timer.Stop()
	}
	d.seq++
	seq := d.seq
	s := &slot{seq: seq}
	d.slots[key] = s
	s.timer = d.after(d.delay, func() {
		if !d.claim(key, seq) {
			return
		}
		d.run(fn)
	})
}

// claim removes the slot for key if it still belongs to seq. A superseded
// timer that fired before it could be stopped loses the claim.
func (d *Debouncer) claim(key string, seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.slots[key]
	if d.stopped || !ok || s.seq != seq {
		return false
	}
	delete(d.slots, key)
	return true
}

// Cancel drops the pending callback for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.slots[key]; ok {
		s.timer.Stop()
		delete(d.slots, key)
	}
}

// Pending returns the number of scheduled callbacks.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.slots)
}

// Stop cancels every pending callback. Later Schedule calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, s := range d.slots {
		s.timer.Stop()
		delete(d.slots, key)
	}
}
