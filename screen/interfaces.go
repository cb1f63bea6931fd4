package screen

import "github.com/wfunc/fighterselect/models"

// Broadcaster pushes packets to the clients watching a screen.
// This is defined here to break the import cycle between screen and broadcast.
type Broadcaster interface {
	BroadcastToAll(msgID uint16, data []byte) error
	BroadcastToPlayer(player models.Player, msgID uint16, data []byte) error
}

type joiningReporter interface {
	Joining() bool
}
