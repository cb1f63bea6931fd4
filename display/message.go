package display

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/wfunc/fighterselect/models"
)

// Catalog resolves localizable messages for one language.
type Catalog struct {
	printer *message.Printer
}

// NewCatalog builds a catalog for lang from key → format string pairs. Unknown keys
// render as the key itself.
func NewCatalog(lang string, messages map[string]string) (*Catalog, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid language %q", lang)
	}

	b := catalog.NewBuilder(catalog.Fallback(tag))
	for key, format := range messages {
		if err := b.SetString(tag, key, format); err != nil {
			return nil, errors.Wrapf(err, "invalid message %q", key)
		}
	}
	return &Catalog{printer: message.NewPrinter(tag, message.Catalog(b))}, nil
}

// Render formats msg.
func (c *Catalog) Render(msg models.LocalizedMessage) string {
	return c.printer.Sprintf(msg.Key, msg.Args...)
}

// TextDisplay is a MessageDisplay that renders through a Catalog and remembers the text shown.
type TextDisplay struct {
	mu       sync.Mutex
	catalog  *Catalog
	text     string
	visible  bool
	OnChange func(text string, visible bool)
}

// NewTextDisplay returns a hidden message display.
func NewTextDisplay(c *Catalog) *TextDisplay {
	return &TextDisplay{catalog: c}
}

func (d *TextDisplay) DisplayMessage(msg models.LocalizedMessage) {
	text := msg.Key
	if d.catalog != nil {
		text = d.catalog.Render(msg)
	}

	d.mu.Lock()
	d.text = text
	d.visible = true
	d.mu.Unlock()

	if d.OnChange != nil {
		d.OnChange(text, true)
	}
}

func (d *TextDisplay) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.visible = enabled
	text := d.text
	d.mu.Unlock()

	if d.OnChange != nil {
		d.OnChange(text, enabled)
	}
}

// Text returns the last rendered message and whether it is visible.
func (d *TextDisplay) Text() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text, d.visible
}
