// Package scope holds the process-wide current-user pointer. Every query and
// mutation on the engine's public surface is filtered by it, so one account's
// readings never leak into another's session on a shared device.
package scope

import (
	"errors"
	"sync"
)

// ErrNoActiveUser is returned for mutations attempted with no user set.
var ErrNoActiveUser = errors.New("no active user")

// Gate tracks the active user. Single-writer: only Set and Clear mutate it.
type Gate struct {
	mu     sync.RWMutex
	userID string
}

// NewGate returns a gate with no active user
func NewGate() *Gate {
	return &Gate{}
}

// Set switches the active scope to the given user
func (g *Gate) Set(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userID = userID
}

// Clear unsets the active scope
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userID = ""
}

// Current returns the active user id, and false if none is set
func (g *Gate) Current() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.userID, g.userID != ""
}
