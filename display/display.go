// Package display holds the rendering-side collaborators of the selection screen:
// avatar surfaces, the unlock message box and plain buttons. The coordinator only
// talks to the interfaces; the state-keeping implementations here let a host mirror
// what would be on screen and forward it to remote clients.
package display

import (
	"image/color"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/wfunc/fighterselect/models"
)

// Surface renders one player's fighter preview.
type Surface interface {
	UpdateDisplay(avatar, label string, animate bool)
	SetFrameColor(c color.RGBA)
}

// MessageDisplay shows the localizable explanation of why a fighter is locked.
type MessageDisplay interface {
	DisplayMessage(msg models.LocalizedMessage)
	SetEnabled(enabled bool)
}

// Button is the back / start-match control.
type Button interface {
	SetEnabled(enabled bool)
	SetVisible(visible bool)
}

// SurfaceState is what a surface currently shows.
type SurfaceState struct {
	Avatar   string     `json:"avatar"`
	Label    string     `json:"label"`
	Animated bool       `json:"animated"`
	Frame    color.RGBA `json:"frame"`
}

// StateSurface keeps the last rendered state and reports every change to OnChange.
type StateSurface struct {
	mu       sync.Mutex
	state    SurfaceState
	updates  int
	OnChange func(SurfaceState)
}

func (s *StateSurface) UpdateDisplay(avatar, label string, animate bool) {
	s.mu.Lock()
	s.state.Avatar = avatar
	s.state.Label = label
	s.state.Animated = animate
	s.updates++
	st := s.state
	s.mu.Unlock()

	if s.OnChange != nil {
		s.OnChange(st)
	}
}

func (s *StateSurface) SetFrameColor(c color.RGBA) {
	s.mu.Lock()
	s.state.Frame = c
	s.mu.Unlock()
}

// State returns the current surface content.
func (s *StateSurface) State() SurfaceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Updates counts UpdateDisplay calls.
func (s *StateSurface) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

// ToggleButton records enabled/visible flags.
type ToggleButton struct {
	mu       sync.Mutex
	enabled  bool
	visible  bool
	OnChange func(enabled, visible bool)
}

// NewToggleButton returns a visible button in the given enabled state.
func NewToggleButton(enabled bool) *ToggleButton {
	return &ToggleButton{enabled: enabled, visible: true}
}

func (b *ToggleButton) SetEnabled(enabled bool) {
	b.mu.Lock()
	b.enabled = enabled
	visible := b.visible
	b.mu.Unlock()
	b.notify(enabled, visible)
}

func (b *ToggleButton) SetVisible(visible bool) {
	b.mu.Lock()
	b.visible = visible
	enabled := b.enabled
	b.mu.Unlock()
	b.notify(enabled, visible)
}

func (b *ToggleButton) notify(enabled, visible bool) {
	if b.OnChange != nil {
		b.OnChange(enabled, visible)
	}
}

func (b *ToggleButton) Enabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *ToggleButton) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// ParseColor reads "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, errors.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, errors.Wrapf(err, "invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
