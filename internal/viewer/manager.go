package viewer

import (
	"sync"

	"github.com/google/uuid"
)

// Manager tracks the open sessions of the process.
type Manager struct {
	deps     Deps
	defaults Options

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions share deps.  defaults
// fills the canvas size of sessions created without one.
func NewManager(deps Deps, defaults Options) *Manager {
	return &Manager{deps: deps, defaults: defaults, sessions: make(map[string]*Session)}
}

// Create opens a session.
func (m *Manager) Create(opts Options) *Session {
	if opts.Width <= 0 {
		opts.Width = m.defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = m.defaults.Height
	}
	if opts.DPR <= 0 {
		opts.DPR = m.defaults.DPR
	}
	s := NewSession(uuid.NewString(), m.deps, opts)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close closes and forgets the session with id.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

// CloseAll closes every session; used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range all {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
