package screen

import "github.com/wfunc/fighterselect/models"

// Msg is anything the screen loop accepts on its inbox.
type Msg interface{ isScreenMsg() }

type Click struct {
	Player models.Player
	Slot   int
	Reply  chan error
}

type Navigate struct {
	Player models.Player
	Delta  int
	Reply  chan error
}

type RandomPick struct {
	Player    models.Player
	Available []int
	Reply     chan PickResult
}

// PickResult answers RandomPick.
type PickResult struct {
	Index int
	Err   error
}

type SelectTeam struct {
	Player models.Player
	Team   models.Team
	Reply  chan error
}

type StartMatch struct{ Reply chan error }

type Back struct{ Reply chan error }

// Reopen starts a new visit of a validated or closed screen.
type Reopen struct{ Reply chan error }

type ClaimSeat struct {
	SessionID string
	Player    models.Player
	Reply     chan error
}

type ReleaseSeat struct {
	SessionID string
	Reply     chan error
}

type GetView struct{ Reply chan View }

type Shutdown struct{}

// joinSignal relays the process-wide joining broadcast onto the screen goroutine.
type joinSignal struct{ enabled bool }

func (Click) isScreenMsg()       {}
func (Navigate) isScreenMsg()    {}
func (RandomPick) isScreenMsg()  {}
func (SelectTeam) isScreenMsg()  {}
func (StartMatch) isScreenMsg()  {}
func (Back) isScreenMsg()        {}
func (Reopen) isScreenMsg()      {}
func (ClaimSeat) isScreenMsg()   {}
func (ReleaseSeat) isScreenMsg() {}
func (GetView) isScreenMsg()     {}
func (Shutdown) isScreenMsg()    {}
func (joinSignal) isScreenMsg()  {}
