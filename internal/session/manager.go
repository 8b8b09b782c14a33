package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/parley-dev/parley/internal/logger"
	"github.com/parley-dev/parley/internal/provider"
)

// ErrSessionBusy is returned when Start or Join is called while another
// lifecycle call is still in flight. Callers retry after the current one
// settles.
var ErrSessionBusy = errors.New("a session operation is already in flight")

// API is the slice of the provider client the manager orchestrates.
type API interface {
	Create(ctx context.Context, name string) (provider.Record, error)
	Get(ctx context.Context, id string) (provider.Record, error)
	End(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Finder confirms a conversation is visible through the list endpoint.
type Finder interface {
	Find(ctx context.Context, id string) (provider.Record, bool, error)
}

// Surface is the embed controller boundary. The manager mounts it once a
// session becomes active and unmounts it on every local reset.
type Surface interface {
	Mount(ctx context.Context, conversationURL string) error
	Unmount()
}

// Manager is the session state machine. All state mutations go through it;
// the embed surface feeds corrections back via SetError, ClearError and
// EndLocal, which are safe to call from its own callbacks.
type Manager struct {
	VerifyAttempts int
	VerifyDelay    time.Duration

	api     API
	finder  Finder
	surface Surface

	mu      sync.Mutex
	state   State
	busy    bool
	subs    map[int]func(State)
	nextSub int
}

func NewManager(api API, finder Finder) *Manager {
	return &Manager{
		VerifyAttempts: defaultVerifyAttempts,
		VerifyDelay:    defaultVerifyDelay,
		api:            api,
		finder:         finder,
		subs:           make(map[int]func(State)),
	}
}

// SetSurface attaches the embed controller. Optional: headless callers skip it.
func (m *Manager) SetSurface(s Surface) {
	m.mu.Lock()
	m.surface = s
	m.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer invoked with a snapshot after every state
// change. The returned function unsubscribes it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// mutate applies fn under the lock and notifies observers with the
// resulting snapshot outside of it.
func (m *Manager) mutate(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	snap := m.state
	observers := make([]func(State), 0, len(m.subs))
	for _, sub := range m.subs {
		observers = append(observers, sub)
	}
	m.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
}

// acquire serializes lifecycle calls: a second Start/Join while one is in
// flight is rejected rather than racing two sessions.
func (m *Manager) acquire() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		return ErrSessionBusy
	}
	m.busy = true
	return nil
}

func (m *Manager) release() {
	m.mu.Lock()
	m.busy = false
	m.mu.Unlock()
}

// Start provisions a new conversation and activates it. Any failure is
// surfaced in State.Err with loading cleared; the machine never stays in
// the loading state.
func (m *Manager) Start(ctx context.Context, name string) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	m.mutate(func(s *State) {
		s.Loading = true
		s.Active = false
		s.Err = ""
	})

	rec, err := m.createVerified(ctx, name)
	if err != nil {
		m.fail(err)
		return err
	}

	m.activate(rec)
	m.mount(ctx, rec.URL)
	return nil
}

// Join activates an existing conversation by id instead of creating one.
func (m *Manager) Join(ctx context.Context, id string) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer m.release()

	m.mutate(func(s *State) {
		s.Loading = true
		s.Active = false
		s.Err = ""
	})

	rec, err := m.api.Get(ctx, id)
	if err != nil {
		m.fail(err)
		return err
	}

	m.activate(rec)
	m.mount(ctx, rec.URL)
	return nil
}

// fail returns the machine to idle with the error overlay set. The
// conversation identifiers are cleared and the surface unmounted even when
// a previous session had set them: idle never carries a conversation id.
func (m *Manager) fail(err error) {
	logger.Warn("session operation failed", "error", err)
	m.mu.Lock()
	surface := m.surface
	m.mu.Unlock()
	if surface != nil {
		surface.Unmount()
	}
	m.mutate(func(s *State) {
		s.Err = err.Error()
		s.Loading = false
		s.Active = false
		s.ConversationID = ""
		s.ConversationURL = ""
	})
}

func (m *Manager) activate(rec provider.Record) {
	m.mutate(func(s *State) {
		s.ConversationID = rec.ID
		s.ConversationURL = rec.URL
		s.Active = true
		s.Loading = false
		s.Err = ""
	})
	logger.Info("session active", "id", rec.ID)
}

// mount attaches the embed surface. A mount failure is a session error
// overlay, not a lifecycle failure: the conversation exists and stays
// active.
func (m *Manager) mount(ctx context.Context, url string) {
	m.mu.Lock()
	surface := m.surface
	m.mu.Unlock()
	if surface == nil {
		return
	}
	if err := surface.Mount(ctx, url); err != nil {
		logger.Warn("surface mount failed", "error", err)
		m.SetError(err.Error())
	}
}

// EndLocal resets to idle without any network call and unmounts the
// surface. It is distinct from the provider-side end/delete operations.
func (m *Manager) EndLocal() {
	m.mu.Lock()
	surface := m.surface
	m.mu.Unlock()
	if surface != nil {
		surface.Unmount()
	}
	m.mutate(func(s *State) {
		s.Active = false
		s.Loading = false
		s.ConversationID = ""
		s.ConversationURL = ""
		s.Err = ""
	})
	logger.Info("session reset")
}

// EndByID ends a conversation on the provider. When it is the active
// session the local state is reset afterwards; on failure local state is
// left untouched and the error returned.
func (m *Manager) EndByID(ctx context.Context, id string) error {
	if err := m.api.End(ctx, id); err != nil {
		return err
	}
	if m.Snapshot().ConversationID == id {
		m.EndLocal()
	}
	return nil
}

// DeleteByID permanently deletes a conversation on the provider, with the
// same local-reset rule as EndByID.
func (m *Manager) DeleteByID(ctx context.Context, id string) error {
	if err := m.api.Delete(ctx, id); err != nil {
		return err
	}
	if m.Snapshot().ConversationID == id {
		m.EndLocal()
	}
	return nil
}

// SetError sets the error overlay. Used by the embed surface callbacks;
// additive, never touches the lifecycle flags.
func (m *Manager) SetError(msg string) {
	m.mutate(func(s *State) {
		s.Err = msg
	})
}

// ClearError clears the error overlay.
func (m *Manager) ClearError() {
	m.mutate(func(s *State) {
		s.Err = ""
	})
}
