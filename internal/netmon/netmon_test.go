package netmon

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStartResolvesProbe(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) {
		return true, nil
	}))

	if m.Online() {
		t.Error("monitor should report offline before Start")
	}

	m.Start(context.Background())
	if !m.Online() {
		t.Error("monitor should be online after successful probe")
	}

	select {
	case <-m.Ready():
	default:
		t.Error("Ready should be closed after Start")
	}
}

func TestStartFailsOpen(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) {
		return false, errors.New("netlink unavailable")
	}))

	m.Start(context.Background())
	if !m.Online() {
		t.Error("probe failure should fail open to online")
	}
}

func TestSetOnlineNotifiesOnTransitionOnly(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) { return false, nil }))
	m.Start(context.Background())

	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetOnline(false) // no transition
	m.SetOnline(true)  // offline -> online
	m.SetOnline(true)  // no transition
	m.SetOnline(false) // online -> offline

	want := []bool{true, false}
	for i, w := range want {
		select {
		case c := <-ch:
			if c.Online != w {
				t.Errorf("event %d: online = %v, want %v", i, c.Online, w)
			}
			if c.At.IsZero() {
				t.Errorf("event %d: timestamp not set", i)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("missing transition event %d", i)
		}
	}
	select {
	case c := <-ch:
		t.Errorf("unexpected extra event: %+v", c)
	default:
	}
}

func TestSetOnlineMarksReady(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) { return false, nil }))

	m.SetOnline(true)
	select {
	case <-m.Ready():
	default:
		t.Error("platform-reported state should close Ready without Start")
	}
}

func TestSubscribeCancel(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) { return true, nil }))
	m.Start(context.Background())

	ch, cancel := m.Subscribe()
	cancel()
	cancel() // idempotent

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// A cancelled subscriber must not panic later transitions
	m.SetOnline(false)
}

func TestCancelDuringTransitions(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) { return true, nil }))
	m.Start(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			m.SetOnline(i%2 == 0)
		}
	}()

	// Subscribers come and go while transitions are firing; a cancel must
	// never close a channel a notification is being sent on
	for i := 0; i < 500; i++ {
		_, cancel := m.Subscribe()
		cancel()
	}
	<-done
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	m := New(ProberFunc(func(ctx context.Context) (bool, error) { return true, nil }))
	m.Start(context.Background())

	_, cancel := m.Subscribe()
	defer cancel()

	// Flip far past the buffer size; SetOnline must never block
	for i := 0; i < 20; i++ {
		m.SetOnline(i%2 == 0)
	}
}
