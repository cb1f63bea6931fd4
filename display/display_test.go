package display

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/fighterselect/models"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff3b30")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}, c)

	c, err = ParseColor("0a84ff80")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x0a, G: 0x84, B: 0xff, A: 0x80}, c)

	_, err = ParseColor("#fff")
	assert.Error(t, err)
	_, err = ParseColor("#gggggg")
	assert.Error(t, err)
}

func TestStateSurface_ReportsChanges(t *testing.T) {
	var seen []SurfaceState
	s := &StateSurface{OnChange: func(st SurfaceState) { seen = append(seen, st) }}

	s.SetFrameColor(color.RGBA{R: 1, A: 255})
	s.UpdateDisplay("doge.png", "Doge", true)

	require.Len(t, seen, 1)
	assert.Equal(t, "Doge", seen[0].Label)
	assert.True(t, seen[0].Animated)
	assert.Equal(t, uint8(1), s.State().Frame.R)
	assert.Equal(t, 1, s.Updates())
}

func TestToggleButton(t *testing.T) {
	b := NewToggleButton(false)
	assert.False(t, b.Enabled())
	assert.True(t, b.Visible())

	b.SetEnabled(true)
	b.SetVisible(false)
	assert.True(t, b.Enabled())
	assert.False(t, b.Visible())
}

func TestTextDisplay_RendersThroughCatalog(t *testing.T) {
	cat, err := NewCatalog("en", map[string]string{"unlock.wins": "Win %d matches to unlock"})
	require.NoError(t, err)

	d := NewTextDisplay(cat)
	d.DisplayMessage(models.LocalizedMessage{Key: "unlock.wins", Args: []any{10}})

	text, visible := d.Text()
	assert.Equal(t, "Win 10 matches to unlock", text)
	assert.True(t, visible)

	d.SetEnabled(false)
	_, visible = d.Text()
	assert.False(t, visible)
}

func TestTextDisplay_UnknownKeyFallsBackToKey(t *testing.T) {
	cat, err := NewCatalog("en", nil)
	require.NoError(t, err)

	d := NewTextDisplay(cat)
	d.DisplayMessage(models.LocalizedMessage{Key: "unlock.secret"})

	text, _ := d.Text()
	assert.Equal(t, "unlock.secret", text)
}

func TestNewCatalog_BadLanguage(t *testing.T) {
	_, err := NewCatalog("not a tag!", nil)
	assert.Error(t, err)
}
