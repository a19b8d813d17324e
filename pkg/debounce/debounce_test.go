package debounce_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formguard/pkg/debounce"
)

type fakeTimer struct {
	fn      func()
	delay   time.Duration
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// clock records scheduled timers and fires them on demand.
type clock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *clock) AfterFunc(d time.Duration, fn func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: fn, delay: d}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the callback of the i-th timer, even if it was stopped, the way
// a timer that fired concurrently with Stop would.
func (c *clock) fire(i int) {
	c.mu.Lock()
	t := c.timers[i]
	c.mu.Unlock()
	t.fn()
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	t.Run("runs after the delay", func(t *testing.T) {
		c := &clock{}
		d := debounce.New(300*time.Millisecond, debounce.WithAfterFunc(c.AfterFunc))
		ran := 0
		d.Schedule("email", func() { ran++ })
		require.Len(t, c.timers, 1)
		assert.Equal(t, 300*time.Millisecond, c.timers[0].delay)
		assert.Equal(t, 1, d.Pending())

		c.fire(0)
		assert.Equal(t, 1, ran)
		assert.Zero(t, d.Pending())
	})

	t.Run("rescheduling supersedes", func(t *testing.T) {
		c := &clock{}
		d := debounce.New(time.Second, debounce.WithAfterFunc(c.AfterFunc))
		var got []string
		d.Schedule("email", func() { got = append(got, "first") })
		d.Schedule("email", func() { got = append(got, "second") })

		assert.True(t, c.timers[0].stopped)
		c.fire(0)
		c.fire(1)
		assert.Equal(t, []string{"second"}, got)
	})

	t.Run("keys are independent", func(t *testing.T) {
		c := &clock{}
		d := debounce.New(time.Second, debounce.WithAfterFunc(c.AfterFunc))
		ran := map[string]bool{}
		d.Schedule("a", func() { ran["a"] = true })
		d.Schedule("b", func() { ran["b"] = true })
		assert.Equal(t, 2, d.Pending())
		c.fire(1)
		c.fire(0)
		assert.True(t, ran["a"])
		assert.True(t, ran["b"])
	})

	t.Run("cancel", func(t *testing.T) {
		c := &clock{}
		d := debounce.New(time.Second, debounce.WithAfterFunc(c.AfterFunc))
		ran := false
		d.Schedule("a", func() { ran = true })
		d.Cancel("a")
		c.fire(0)
		assert.False(t, ran)
	})

	t.Run("stop cancels everything", func(t *testing.T) {
		c := &clock{}
		d := debounce.New(time.Second, debounce.WithAfterFunc(c.AfterFunc))
		ran := false
		d.Schedule("a", func() { ran = true })
		d.Stop()
		c.fire(0)
		d.Schedule("a", func() { ran = true })
		assert.False(t, ran)
		assert.Len(t, c.timers, 1)
		assert.Zero(t, d.Pending())
	})

	t.Run("runner wraps callbacks", func(t *testing.T) {
		c := &clock{}
		var wrapped int
		d := debounce.New(time.Second,
			debounce.WithAfterFunc(c.AfterFunc),
			debounce.WithRunner(func(fn func()) { wrapped++; fn() }),
		)
		d.Schedule("a", func() {})
		c.fire(0)
		assert.Equal(t, 1, wrapped)
	})
}

func TestRealClock(t *testing.T) {
	t.Parallel()
	d := debounce.New(5 * time.Millisecond)
	var calls atomic.Int32
	done := make(chan struct{})
	for range 5 {
		d.Schedule("a", func() {
			calls.Add(1)
			close(done)
		})
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debounced callback did not run")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}
