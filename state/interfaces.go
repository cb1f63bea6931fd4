// state/interfaces.go
package state

import "github.com/wfunc/fighterselect/models"

// SeatContext is what a seat state may touch on its owner.
// Declared here so the selection package can implement it without an import cycle.
type SeatContext interface {
	GetPlayer() models.Player
	ClearSelection()
}
