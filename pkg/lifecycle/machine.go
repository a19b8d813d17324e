package lifecycle

import (
	"fmt"
	"sync"
)

// State is a lifecycle state.
type State string

// Event triggers a transition.
type Event string

// Form lifecycle states.
const (
	Uninitialized State = "uninitialized"
	Ready         State = "ready"
	Validating    State = "validating"
	Idle          State = "idle"
	Destroyed     State = "destroyed"
)

// Form lifecycle events.
const (
	Init    Event = "init"
	Begin   Event = "begin"
	Finish  Event = "finish"
	Destroy Event = "destroy"
)

// Guard decides at fire time whether a transition may be taken.
type Guard func(from State, ev Event) bool

// Action runs before the state changes. An error aborts the transition.
type Action func(from, to State, ev Event) error

// Listener observes completed transitions.
type Listener func(from, to State, ev Event)

type transition struct {
	to      State
	guards  []Guard
	actions []Action
}

// Machine is a goroutine-safe state machine. Listeners run after the state
// change, outside the lock, so they may call back into the machine.
type Machine struct {
	mu          sync.RWMutex
	initial     State
	current     State
	transitions map[State]map[Event][]transition
	listeners   []Listener
}

// Option configures a Machine during construction.
type Option func(*Machine) error

// TransitionOption configures one transition.
type TransitionOption func(*transition)

// New builds a machine starting in initial.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == "" {
		return nil, fmt.Errorf("%w: empty initial state", ErrInvalidTransition)
	}
	m := &Machine{
		initial:     initial,
		current:     initial,
		transitions: make(map[State]map[Event][]transition),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is like New but panics on error.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create lifecycle machine: %v", err))
	}
	return m
}

// WithTransition adds a transition from one state to another on ev.
func WithTransition(from, to State, ev Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		if from == "" || to == "" || ev == "" {
			return ErrInvalidTransition
		}
		t := transition{to: to}
		for _, opt := range opts {
			opt(&t)
		}
		if m.transitions[from] == nil {
			m.transitions[from] = make(map[Event][]transition)
		}
		m.transitions[from][ev] = append(m.transitions[from][ev], t)
		return nil
	}
}

// WithListener registers fn for every completed transition.
func WithListener(fn Listener) Option {
	return func(m *Machine) error {
		if fn != nil {
			m.listeners = append(m.listeners, fn)
		}
		return nil
	}
}

func WithGuard(g Guard) TransitionOption {
	return func(t *transition) {
		if g != nil {
			t.guards = append(t.guards, g)
		}
	}
}

func WithAction(a Action) TransitionOption {
	return func(t *transition) {
		if a != nil {
			t.actions = append(t.actions, a)
		}
	}
}

// NewForm returns the lifecycle machine of a validation context.
func NewForm(opts ...Option) *Machine {
	base := []Option{
		WithTransition(Uninitialized, Ready, Init),
		WithTransition(Ready, Validating, Begin),
		WithTransition(Idle, Validating, Begin),
		WithTransition(Validating, Idle, Finish),
	}
	for _, s := range []State{Uninitialized, Ready, Validating, Idle} {
		base = append(base, WithTransition(s, Destroyed, Destroy))
	}
	return MustNew(Uninitialized, append(base, opts...)...)
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Is reports whether the machine is in one of states.
func (m *Machine) Is(states ...State) bool {
	cur := m.Current()
	for _, s := range states {
		if s == cur {
			return true
		}
	}
	return false
}

// OnTransition registers a listener after construction.
func (m *Machine) OnTransition(fn Listener) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Fire takes the first transition for ev whose guards pass.
func (m *Machine) Fire(ev Event) error {
	m.mu.Lock()
	from := m.current
	t, err := m.pick(ev)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	for _, action := range t.actions {
		if err := action(from, t.to, ev); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("lifecycle: action on %q failed: %w", ev, err)
		}
	}
	m.current = t.to
	listeners := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(from, t.to, ev)
	}
	return nil
}

// CanFire reports whether Fire(ev) would take a transition.
func (m *Machine) CanFire(ev Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, err := m.pick(ev)
	return err == nil
}

// Reset returns the machine to its initial state without notifying listeners.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}

func (m *Machine) pick(ev Event) (transition, error) {
	candidates := m.transitions[m.current][ev]
	if len(candidates) == 0 {
		return transition{}, &NoTransitionError{State: m.current, Event: ev}
	}
	for _, t := range candidates {
		if passes(t.guards, m.current, ev) {
			return t, nil
		}
	}
	return transition{}, &RejectedError{State: m.current, Event: ev}
}

func passes(guards []Guard, from State, ev Event) bool {
	for _, g := range guards {
		if !g(from, ev) {
			return false
		}
	}
	return true
}
