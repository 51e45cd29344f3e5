// Package netmon observes device connectivity and exposes the current
// online/offline state plus a stream of transition events.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Prober answers whether the device currently has connectivity.
type Prober interface {
	Probe(ctx context.Context) (bool, error)
}

// ProberFunc adapts a plain function to the Prober interface.
type ProberFunc func(ctx context.Context) (bool, error)

func (f ProberFunc) Probe(ctx context.Context) (bool, error) {
	return f(ctx)
}

// Change is one connectivity transition.
type Change struct {
	Online bool
	At     time.Time
}

// Monitor caches the last known connectivity state and notifies subscribers
// once per transition, not once per poll.
type Monitor struct {
	prober Prober

	mu      sync.Mutex
	online  bool
	started bool
	subs    map[int]chan Change
	nextSub int

	readyOnce sync.Once
	ready     chan struct{}
}

// New creates a monitor. It reports offline until Start resolves the
// initial probe.
func New(prober Prober) *Monitor {
	return &Monitor{
		prober: prober,
		subs:   make(map[int]chan Change),
		ready:  make(chan struct{}),
	}
}

// Start runs the initial connectivity probe and closes the Ready channel.
// If the platform cannot report status, the monitor fails open to online so
// sync is never blocked permanently by a broken probe.
func (m *Monitor) Start(ctx context.Context) {
	online, err := m.prober.Probe(ctx)
	if err != nil {
		slog.Warn("network probe failed, assuming online", "err", err)
		online = true
	}

	m.mu.Lock()
	m.online = online
	m.started = true
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })
}

// Ready is closed once the initial probe has resolved. Callers that need a
// trustworthy status wait on it before their first remote decision.
func (m *Monitor) Ready() <-chan struct{} {
	return m.ready
}

// Online returns the current connectivity state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity change reported by the platform. Subscribers
// are notified only when the state actually transitions. Sends happen under the
// mutex: cancel closes channels under the same lock, so a send can never hit a
// channel mid-close. Channels are buffered and sends non-blocking, so holding
// the lock here cannot stall.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.started && m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.started = true
	change := Change{Online: online, At: time.Now().UTC()}
	for _, ch := range m.subs {
		select {
		case ch <- change:
		default:
			// Slow subscriber loses intermediate transitions, never blocks
		}
	}
	m.mu.Unlock()

	m.readyOnce.Do(func() { close(m.ready) })
}

// Subscribe registers for transition events. The returned cancel func must be
// called to release the subscription.
func (m *Monitor) Subscribe() (<-chan Change, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Change, 4)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}
