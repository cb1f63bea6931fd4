package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent []uint16
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByScreenAndPlayer(t *testing.T) {
	manager := NewManager()

	sess1 := NewSession("session1", &MockConnection{})
	sess1.SetSeat("screen-a", models.Player1)

	sess2 := NewSession("session2", &MockConnection{})
	sess2.SetSeat("screen-a", models.Player2)

	sess3 := NewSession("session3", &MockConnection{})
	sess3.SetSeat("screen-b", models.Player1)

	spectator := NewSession("session4", &MockConnection{})
	spectator.SetSeat("screen-a", models.PlayerNone)

	for _, s := range []*Session{sess1, sess2, sess3, spectator} {
		manager.Add(s)
	}

	if got := len(manager.GetByScreen("screen-a")); got != 3 {
		t.Errorf("Expected 3 sessions on screen-a, got %d", got)
	}
	if got := len(manager.GetByScreen("screen-c")); got != 0 {
		t.Errorf("Expected 0 sessions on screen-c, got %d", got)
	}

	got, ok := manager.GetByPlayer("screen-b", models.Player1)
	if !ok || got != sess3 {
		t.Errorf("Expected session3 for screen-b player1, got %v", got)
	}
	if _, ok := manager.GetByPlayer("screen-b", models.Player2); ok {
		t.Error("Expected no session for an empty seat")
	}
}

func TestManager_Idle(t *testing.T) {
	manager := NewManager()
	fresh := NewSession("fresh", &MockConnection{})
	stale := NewSession("stale", &MockConnection{})
	stale.LastActive = time.Now().Add(-time.Minute)
	manager.Add(fresh)
	manager.Add(stale)

	idle := manager.Idle(time.Now(), 30*time.Second)
	if len(idle) != 1 || idle[0] != stale {
		t.Fatalf("Expected only the stale session, got %v", idle)
	}

	stale.Touch()
	if len(manager.Idle(time.Now(), 30*time.Second)) != 0 {
		t.Fatal("Touch should reset idleness")
	}
}

func TestSession_Send(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("s", conn)

	if err := sess.Send(network.MsgTypeSnapshot, nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeSnapshot {
		t.Fatalf("unexpected sent ids: %v", conn.sent)
	}
}
