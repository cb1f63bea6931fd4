// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
)

// Session is one connected client. It may watch a screen and hold at most one seat on it.
type Session struct {
	ID         string
	Conn       network.Connection
	ScreenID   string
	Player     models.Player
	CreatedAt  time.Time
	LastActive time.Time
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) Send(msgID uint16, data []byte) error {
	return s.Conn.Send(msgID, data)
}

func (s *Session) GetID() string {
	return s.ID
}

// Touch marks the session alive.
func (s *Session) Touch() {
	s.mutex.Lock()
	s.LastActive = time.Now()
	s.mutex.Unlock()
}

// IdleSince reports how long ago the client last sent anything.
func (s *Session) IdleSince(now time.Time) time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return now.Sub(s.LastActive)
}

// Seat returns the screen and player this session holds.
func (s *Session) Seat() (string, models.Player) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.ScreenID, s.Player
}

// SetSeat records the screen and player; PlayerNone releases the seat but keeps watching.
func (s *Session) SetSeat(screenID string, player models.Player) {
	s.mutex.Lock()
	s.ScreenID = screenID
	s.Player = player
	s.mutex.Unlock()
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Session管理器
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

func (m *Manager) Remove(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.sessions, sessionID)
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	session, exists := m.sessions[sessionID]
	return session, exists
}

// GetByScreen returns every session watching screenID.
func (m *Manager) GetByScreen(screenID string) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if id, _ := session.Seat(); id == screenID {
			result = append(result, session)
		}
	}
	return result
}

// GetByPlayer returns the session holding player's seat on screenID.
func (m *Manager) GetByPlayer(screenID string, player models.Player) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, session := range m.sessions {
		if id, p := session.Seat(); id == screenID && p == player {
			return session, true
		}
	}
	return nil, false
}

// Idle returns sessions silent for longer than timeout.
func (m *Manager) Idle(now time.Time, timeout time.Duration) []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var result []*Session
	for _, session := range m.sessions {
		if session.IdleSince(now) > timeout {
			result = append(result, session)
		}
	}
	return result
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}
