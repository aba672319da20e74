package session

import (
	"sync"
	"time"

	"github.com/chainsight/chainsight/internal/nlu"
)

// Turn is one recorded question/answer exchange.
type Turn struct {
	ID        int64
	Timestamp time.Time
	UserText  string
	Intent    nlu.Intent
	Entities  nlu.Entities
	Summary   string
}

type sessionState struct {
	mu       sync.Mutex
	turns    []Turn
	nextID   int64
	lastSeen time.Time
}

// Manager owns per-session conversation history. Appends are serialized per
// session; sessions never outlive the process. The session identifier is an
// opaque token owned by the presentation layer.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
	maxTurns int
}

func NewManager(maxTurns int) *Manager {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	return &Manager{
		sessions: make(map[string]*sessionState),
		maxTurns: maxTurns,
	}
}

func (m *Manager) state(sessionID string) *sessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		s = &sessionState{}
		m.sessions[sessionID] = s
	}
	return s
}

// Append records a turn, assigning it the session's next monotonic ID and
// evicting the oldest turn beyond the cap.
func (m *Manager) Append(sessionID string, turn Turn) Turn {
	s := m.state(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	turn.ID = s.nextID
	s.lastSeen = time.Now()
	s.turns = append(s.turns, turn)
	if len(s.turns) > m.maxTurns {
		s.turns = s.turns[len(s.turns)-m.maxTurns:]
	}
	return turn
}

// Recent returns up to k most recent turns in chronological order.
func (m *Manager) Recent(sessionID string, k int) []Turn {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok || k <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if k > len(s.turns) {
		k = len(s.turns)
	}
	out := make([]Turn, k)
	copy(out, s.turns[len(s.turns)-k:])
	return out
}

// EvictIdle drops sessions with no activity inside maxIdle and returns how
// many were removed. Idle policy belongs to the caller; the manager only
// exposes the mechanism.
func (m *Manager) EvictIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		s.mu.Lock()
		stale := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
