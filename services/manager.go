package services

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/MakuD3v/Edu-Party-Mayhem/utils/logger"
)

// LobbyManager is the process-wide table of session code -> lobby. Entries
// are created on first reference and torn down when a lobby empties without
// a running match or its match concludes and the roster is gone.
type LobbyManager struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby

	hub     *Hub
	store   Store
	clock   clockwork.Clock
	timings Timings
	devMode bool
}

type ManagerOption func(*LobbyManager)

// WithClock swaps the real clock for a fake in tests.
func WithClock(clock clockwork.Clock) ManagerOption {
	return func(m *LobbyManager) { m.clock = clock }
}

func WithTimings(t Timings) ManagerOption {
	return func(m *LobbyManager) { m.timings = t }
}

// WithDevMode enables the permissive start gate.
func WithDevMode(enabled bool) ManagerOption {
	return func(m *LobbyManager) { m.devMode = enabled }
}

func NewLobbyManager(hub *Hub, store Store, opts ...ManagerOption) *LobbyManager {
	m := &LobbyManager{
		lobbies: make(map[string]*Lobby),
		hub:     hub,
		store:   store,
		clock:   clockwork.NewRealClock(),
		timings: DefaultTimings(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetOrCreate returns the lobby for code, creating it with hostID as the
// designated host on first reference.
func (m *LobbyManager) GetOrCreate(code string, hostID uint) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l, ok := m.lobbies[code]; ok {
		return l
	}

	l := &Lobby{
		Code:    code,
		hub:     m.hub,
		store:   m.store,
		clock:   m.clock,
		timings: m.timings,
		devMode: m.devMode,
		hostID:  hostID,
		players: make(map[uint]*PlayerState),
		conns:   make(map[uint]uuid.UUID),
		onEmpty: func() { m.Remove(code) },
	}
	m.lobbies[code] = l
	logger.Infof("[Manager] created lobby %s (host=%d)", code, hostID)
	return l
}

func (m *LobbyManager) Get(code string) *Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lobbies[code]
}

func (m *LobbyManager) Remove(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lobbies[code]; ok {
		delete(m.lobbies, code)
		logger.Infof("[Manager] removed lobby %s", code)
	}
}

// Count reports how many lobbies are live.
func (m *LobbyManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lobbies)
}
