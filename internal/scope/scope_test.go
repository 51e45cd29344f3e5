package scope

import "testing"

func TestGateLifecycle(t *testing.T) {
	g := NewGate()

	if _, ok := g.Current(); ok {
		t.Error("fresh gate should have no active user")
	}

	g.Set("alice")
	user, ok := g.Current()
	if !ok || user != "alice" {
		t.Errorf("Current() = %q, %v after Set", user, ok)
	}

	g.Set("bob")
	if user, _ = g.Current(); user != "bob" {
		t.Errorf("switching users: got %q, want bob", user)
	}

	g.Clear()
	if _, ok = g.Current(); ok {
		t.Error("cleared gate should have no active user")
	}
}

func TestGateConcurrentReads(t *testing.T) {
	g := NewGate()
	g.Set("alice")

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if user, ok := g.Current(); ok && user != "alice" && user != "bob" {
					t.Errorf("unexpected user %q", user)
					return
				}
			}
		}()
	}
	g.Set("bob")
	for i := 0; i < 8; i++ {
		<-done
	}
}
