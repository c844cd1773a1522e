// Package auth tracks whether the current session is authenticated and
// derives the engine's persistence mode from that state.
//
// The package performs no authentication itself: an external auth component
// feeds state transitions through [Context.UpdateAuthenticationState], and
// every subscriber receives every transition in order.
package auth

import (
	"log/slog"
	"sync"
	"time"
)

// Mode selects which persistence strategy the engine dispatches to.
type Mode int

const (
	// ModeLocalFirst uses only the local store.
	ModeLocalFirst Mode = iota

	// ModeCloudFirst prefers the cloud for reads and propagates local
	// writes to the cloud in the background.
	ModeCloudFirst

	// ModeHybrid behaves like CloudFirst while authenticated and like
	// LocalFirst while not. Never derived from an auth transition; only
	// selected by explicit configuration.
	ModeHybrid
)

// String returns the mode name for logging and diagnostics.
func (m Mode) String() string {
	switch m {
	case ModeLocalFirst:
		return "localFirst"
	case ModeCloudFirst:
		return "cloudFirst"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// subscriberBuffer is the per-subscriber channel capacity. Sends block once
// the buffer is full rather than dropping a transition, so a subscriber
// that stops draining eventually stalls the publisher — drain promptly.
const subscriberBuffer = 16

// Snapshot is a point-in-time view of the authentication state for
// diagnostics and logging.
type Snapshot struct {
	IsAuthenticated bool      `json:"is_authenticated"`
	CurrentMode     string    `json:"current_mode"`
	Timestamp       time.Time `json:"timestamp"`
}

// Context holds the authentication flag, the derived mode, and the
// broadcast change stream. Create one with [NewContext] and prime it with
// [Context.Initialize]. All methods are safe for concurrent use.
type Context struct {
	log *slog.Logger

	mu            sync.Mutex
	initialized   bool
	disposed      bool
	authenticated bool
	mode          Mode
	override      *Mode // set by configuration, e.g. hybrid
	subscribers   []chan bool
}

// NewContext creates an uninitialised Context.
func NewContext(logger *slog.Logger) *Context {
	return &Context{log: logger, mode: ModeLocalFirst}
}

// SetModeOverride pins the derived mode to m regardless of authentication
// transitions. The authenticated flag keeps updating and broadcasting;
// only mode derivation is pinned. Used for the configured hybrid mode and
// for tests.
func (c *Context) SetModeOverride(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = &m
	c.mode = m
}

// Initialize sets the initial state and derived mode. It must be called
// before the other methods are trusted; calling it again has no further
// effect beyond re-applying the same derivation.
func (c *Context) Initialize(isAuthenticated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.initialized = true
	c.authenticated = isAuthenticated
	c.mode = c.derive(isAuthenticated)
	c.log.Info("auth context initialised",
		"authenticated", isAuthenticated,
		"mode", c.mode.String(),
	)
}

// derive maps the authenticated flag to a mode, honouring the override.
// Caller must hold c.mu.
func (c *Context) derive(isAuthenticated bool) Mode {
	if c.override != nil {
		return *c.override
	}
	if isAuthenticated {
		return ModeCloudFirst
	}
	return ModeLocalFirst
}

// UpdateAuthenticationState applies a transition fed in by the external
// auth component. If the value differs from the current state it updates
// the state, recomputes the mode, and emits the new value to every current
// subscriber in call order. Equal values are a no-op.
func (c *Context) UpdateAuthenticationState(isAuthenticated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || c.authenticated == isAuthenticated {
		return
	}

	c.authenticated = isAuthenticated
	c.mode = c.derive(isAuthenticated)
	c.log.Info("authentication state changed",
		"authenticated", isAuthenticated,
		"mode", c.mode.String(),
	)

	// Broadcast under the lock so concurrent transitions reach every
	// subscriber in the same order.
	for _, ch := range c.subscribers {
		ch <- isAuthenticated
	}
}

// IsAuthenticated reports the current authentication state.
func (c *Context) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// CurrentMode returns the currently derived persistence mode.
func (c *Context) CurrentMode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// HasAuthenticationChanged reports whether candidate differs from the
// current state. Pure comparison, no side effects.
func (c *Context) HasAuthenticationChanged(candidate bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated != candidate
}

// GetAuthContext returns a diagnostic snapshot of the current state.
func (c *Context) GetAuthContext() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		IsAuthenticated: c.authenticated,
		CurrentMode:     c.mode.String(),
		Timestamp:       time.Now().UTC(),
	}
}

// Subscribe registers a new subscriber and returns its channel. Every
// transition after registration is delivered, in order. The channel is
// closed by [Context.Dispose]. Subscribers must drain promptly; the
// buffer holds subscriberBuffer pending transitions before sends block.
func (c *Context) Subscribe() <-chan bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan bool, subscriberBuffer)
	if c.disposed {
		close(ch)
		return ch
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Dispose closes the change stream. Safe to call more than once; the
// second and later calls are no-ops.
func (c *Context) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
}
