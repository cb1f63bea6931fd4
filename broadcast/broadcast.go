// broadcast/broadcast.go
package broadcast

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/event"
	"github.com/wfunc/fighterselect/logger"
	"github.com/wfunc/fighterselect/models"
	"github.com/wfunc/fighterselect/session"
)

var (
	ErrSeatEmpty = errors.New("no session holds this seat")
)

// JoinBroadcaster is the process-wide joining switch. Every listener receives the
// same payload-free signal; it does not remember who handled it. Toggles are
// delivered one at a time, so every listener sees them in the same order.
type JoinBroadcaster struct {
	toggle   sync.Mutex // held across the flag update and delivery
	mu       sync.Mutex
	joining  bool
	enabled  event.Event[struct{}]
	disabled event.Event[struct{}]
}

// NewJoinBroadcaster starts with joining disabled.
func NewJoinBroadcaster() *JoinBroadcaster {
	return &JoinBroadcaster{}
}

// EnableJoining signals every subscriber that joining is open.
func (b *JoinBroadcaster) EnableJoining() {
	b.toggle.Lock()
	defer b.toggle.Unlock()

	b.mu.Lock()
	b.joining = true
	b.mu.Unlock()

	logger.Log.Infow("joining enabled", "listeners", b.enabled.Len())
	b.enabled.Emit(struct{}{})
}

// DisableJoining signals every subscriber that joining is closed.
func (b *JoinBroadcaster) DisableJoining() {
	b.toggle.Lock()
	defer b.toggle.Unlock()

	b.mu.Lock()
	b.joining = false
	b.mu.Unlock()

	logger.Log.Infow("joining disabled", "listeners", b.disabled.Len())
	b.disabled.Emit(struct{}{})
}

// Joining reports the last broadcast value.
func (b *JoinBroadcaster) Joining() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.joining
}

func (b *JoinBroadcaster) SubscribeJoiningEnabled(fn func()) *event.Subscription {
	return b.enabled.Subscribe(func(struct{}) { fn() })
}

func (b *JoinBroadcaster) SubscribeJoiningDisabled(fn func()) *event.Subscription {
	return b.disabled.Subscribe(func(struct{}) { fn() })
}

// SessionBroadcaster pushes packets to the clients attached to one screen.
type SessionBroadcaster struct {
	sessionManager *session.Manager
	screenID       string
}

func NewSessionBroadcaster(sessionManager *session.Manager, screenID string) *SessionBroadcaster {
	return &SessionBroadcaster{
		sessionManager: sessionManager,
		screenID:       screenID,
	}
}

func (b *SessionBroadcaster) BroadcastToAll(msgID uint16, data []byte) error {
	for _, s := range b.sessionManager.GetByScreen(b.screenID) {
		if err := s.Send(msgID, data); err != nil {
			// 处理发送错误
			logger.Log.Warnw("broadcast failed", "session", s.GetID(), "msg", msgID, "error", err)
			continue
		}
	}
	return nil
}

func (b *SessionBroadcaster) BroadcastToPlayer(player models.Player, msgID uint16, data []byte) error {
	s, ok := b.sessionManager.GetByPlayer(b.screenID, player)
	if !ok {
		return errors.Wrapf(ErrSeatEmpty, "%s on screen %s", player, b.screenID)
	}
	return s.Send(msgID, data)
}
