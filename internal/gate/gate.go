// Package gate holds the Pro feature flag.
//
// The flag is a plain boolean in the local store. Nothing verifies it, so it
// cannot be enforced on the user's machine; a real entitlement check would
// have to be an external server-side collaborator replacing Purchase.
package gate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

// ErrNotEntitled is returned by gated operations when the flag is unset.
var ErrNotEntitled = errors.New("this feature requires focuskit Pro")

type Gate struct {
	kv store.KV

	mu        sync.Mutex
	listeners []func(bool)
}

func New(kv store.KV) *Gate {
	return &Gate{kv: kv}
}

// IsEntitled re-reads the flag on every call. A storage failure counts as
// not entitled.
func (g *Gate) IsEntitled() bool {
	if g == nil {
		return false
	}
	return store.Value(g.kv, store.KeyProEnabled, false)
}

// Require returns ErrNotEntitled unless the flag is set.
func (g *Gate) Require() error {
	if !g.IsEntitled() {
		return ErrNotEntitled
	}
	return nil
}

// OnChange registers fn to run after Grant or Revoke.
func (g *Gate) OnChange(fn func(entitled bool)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Gate) Grant() error {
	return g.set(true)
}

// Revoke clears the flag. Used for development resets.
func (g *Gate) Revoke() error {
	return g.set(false)
}

// Purchase is a simulated checkout: it grants Pro immediately without any
// payment step.
func (g *Gate) Purchase() error {
	logger.Info("simulated purchase, granting pro")
	return g.Grant()
}

func (g *Gate) set(v bool) error {
	if err := g.kv.Set(store.KeyProEnabled, v); err != nil {
		return fmt.Errorf("save pro flag: %w", err)
	}

	g.mu.Lock()
	listeners := append([]func(bool){}, g.listeners...)
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(v)
	}
	return nil
}
