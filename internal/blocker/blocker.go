// Package blocker injects a "site blocked" overlay into tabs that navigate to
// a blocked host during a Pro focus interval.
package blocker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/tabs"
)

var ErrInvalidSite = errors.New("invalid site")

// Normalize turns a user-entered site or a visited URL into a bare host:
// a scheme is assumed when missing, and one leading "www." is stripped.
func Normalize(site string) (string, error) {
	site = strings.TrimSpace(site)
	if site == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSite)
	}
	raw := site
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSite, site, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidSite, site)
	}
	return strings.TrimPrefix(host, "www."), nil
}

// Overlay describes what the host should render over a blocked tab.
type Overlay struct {
	TabID   int    `json:"tab_id"`
	URL     string `json:"blocked_url"`
	Host    string `json:"host"`
	Message string `json:"message"`
	// AllowTemporaryUnblock offers a button that removes the overlay for the
	// current page view only; nothing is remembered.
	AllowTemporaryUnblock bool `json:"allow_temporary_unblock"`
}

// Injector runs the overlay in a tab.
type Injector interface {
	ShowOverlay(ctx context.Context, o Overlay) error
}

type Entitlement interface {
	IsEntitled() bool
}

// Blocker holds the volatile "blocker on" flag. It is never persisted: every
// pause, reset and interval end turns it off.
type Blocker struct {
	kv       store.KV
	gate     Entitlement
	inFocus  func() bool
	injector Injector

	mu     sync.Mutex
	active bool
}

// New returns a Blocker. inFocus reports the coordinator's current mode.
func New(kv store.KV, g Entitlement, inFocus func() bool, injector Injector) *Blocker {
	return &Blocker{kv: kv, gate: g, inFocus: inFocus, injector: injector}
}

// SetFocusSource wires the focus-mode reader after construction, for when
// the blocker and the timer coordinator depend on each other.
func (b *Blocker) SetFocusSource(inFocus func() bool) {
	b.mu.Lock()
	b.inFocus = inFocus
	b.mu.Unlock()
}

func (b *Blocker) Activate() {
	b.mu.Lock()
	b.active = true
	b.mu.Unlock()
	logger.Debug("auto-blocker enabled")
}

func (b *Blocker) Deactivate() {
	b.mu.Lock()
	was := b.active
	b.active = false
	b.mu.Unlock()
	if was {
		logger.Debug("auto-blocker disabled")
	}
}

// Flagged reports the raw flag, regardless of gate or mode.
func (b *Blocker) Flagged() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Active reports whether navigation is being checked right now.
func (b *Blocker) Active() bool {
	b.mu.Lock()
	active, inFocus := b.active, b.inFocus
	b.mu.Unlock()
	if !active || inFocus == nil || !inFocus() {
		return false
	}
	return b.gate != nil && b.gate.IsEntitled()
}

// Sites returns the stored block list, verbatim.
func Sites(kv store.KV) []string {
	return store.Value(kv, store.KeyBlockedSites, []string{})
}

// SaveSites trims entries and drops blank ones, then persists the list. When
// any entry cannot be normalized nothing is saved.
func SaveSites(kv store.KV, sites []string) ([]string, error) {
	clean := make([]string, 0, len(sites))
	for _, s := range sites {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := Normalize(s); err != nil {
			return nil, err
		}
		clean = append(clean, s)
	}
	if err := kv.Set(store.KeyBlockedSites, clean); err != nil {
		return nil, fmt.Errorf("save blocked sites: %w", err)
	}
	return clean, nil
}

// Match returns the normalized host when rawURL is on the block list. Bad
// entries in the stored list are skipped with a warning.
func Match(sites []string, rawURL string) (string, bool) {
	host, err := Normalize(rawURL)
	if err != nil {
		return "", false
	}
	for _, site := range sites {
		blocked, err := Normalize(site)
		if err != nil {
			logger.Warn("invalid entry in blocked sites", "site", site, "error", err)
			continue
		}
		if blocked == host {
			return host, true
		}
	}
	return "", false
}

// Check handles a tab that finished navigating. It reports whether an
// overlay was injected.
func (b *Blocker) Check(ctx context.Context, tab tabs.Tab) bool {
	if tab.URL == "" || !b.Active() {
		return false
	}
	host, ok := Match(Sites(b.kv), tab.URL)
	if !ok {
		return false
	}

	logger.Info("blocking tab", "tab", tab.ID, "host", host)
	if b.injector == nil {
		return true
	}
	o := Overlay{
		TabID:                 tab.ID,
		URL:                   tab.URL,
		Host:                  host,
		Message:               fmt.Sprintf("Access to %s is blocked during your focus session.", host),
		AllowTemporaryUnblock: true,
	}
	if err := b.injector.ShowOverlay(ctx, o); err != nil {
		logger.Warn("inject block overlay", "tab", tab.ID, "error", err)
	}
	return true
}
