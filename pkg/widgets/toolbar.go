package widgets

import (
	"slices"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/event"
)

// Toolbar is a templated row of buttons with a single tab stop. Every
// control nested in its template must be a *Button.
//
// The active item keeps its natural tab order and the others get
// tabindex="-1". Clicking an item makes it active once the click has been
// handled.
type Toolbar struct {
	control.Templated

	items   []*Button
	regs    []*event.Registration
	active  int
	clicked event.Source[*Button]
}

// NewToolbar creates a toolbar from templateID, or from ToolbarTemplate
// when templateID is empty.
func NewToolbar(host *control.Host, templateID string) (*Toolbar, error) {
	if templateID == "" {
		templateID = ToolbarTemplate
	}
	t := &Toolbar{active: -1}
	if err := t.Init(t, host, nil, templateID); err != nil {
		return nil, err
	}
	return t, nil
}

// Items returns the toolbar buttons in document order.
func (t *Toolbar) Items() []*Button { return slices.Clone(t.items) }

// Active returns the index of the active item, or -1.
func (t *Toolbar) Active() int { return t.active }

// ItemClicked returns the source raised after any item's Clicked.
func (t *Toolbar) ItemClicked() *event.Source[*Button] { return &t.clicked }

// Add appends c to the toolbar. c must be a *Button.
func (t *Toolbar) Add(c control.Control) error {
	b, ok := c.(*Button)
	if !ok {
		return errors.New("widgets.Toolbar.Add", errors.KindContract, t.TemplateID(),
			"toolbar items must be buttons, got %T", c)
	}
	n := b.RootElement()
	dom.Detach(n)
	t.RootElement().AppendChild(n)
	t.track(b)
	if t.active < 0 {
		t.setActive(0)
	} else {
		t.setActive(t.active)
	}
	return nil
}

// Focus makes item i active after the current event has been handled.
func (t *Toolbar) Focus(i int) error {
	if i < 0 || i >= len(t.items) {
		return errors.New("widgets.Toolbar.Focus", errors.KindMisuse, t.TemplateID(),
			"item %d out of range [0,%d)", i, len(t.items))
	}
	t.Host().Post(func() { t.setActive(i) })
	return nil
}

// OnApplyTemplate collects the buttons of the new template.
func (t *Toolbar) OnApplyTemplate() error {
	root := t.RootElement()
	var err error
	dom.Walk(root, func(n *html.Node) bool {
		if err != nil || n == root {
			return err == nil
		}
		c := t.Host().ControlAt(n)
		if c == nil {
			return true
		}
		b, ok := c.(*Button)
		if !ok {
			err = errors.New("widgets.Toolbar", errors.KindContract, t.TemplateID(),
				"toolbar items must be buttons, got %T", c)
			return false
		}
		t.track(b)
		return false
	})
	if err != nil {
		t.release()
		return err
	}
	t.active = -1
	if len(t.items) > 0 {
		t.setActive(0)
	}
	return nil
}

// OnTemplateChanging forgets the items of the old template.
func (t *Toolbar) OnTemplateChanging() {
	t.release()
}

// Dispose forgets the items and releases the template.
func (t *Toolbar) Dispose() {
	t.release()
	t.Templated.Dispose()
}

func (t *Toolbar) track(b *Button) {
	t.items = append(t.items, b)
	t.regs = append(t.regs, b.Clicked().Subscribe(func(b *Button) error {
		if i := slices.Index(t.items, b); i >= 0 {
			t.Host().Post(func() { t.setActive(i) })
		}
		return t.clicked.Publish(b)
	}))
}

func (t *Toolbar) release() {
	for _, r := range t.regs {
		r.Dispose()
	}
	t.regs = nil
	t.items = nil
	t.active = -1
}

func (t *Toolbar) setActive(i int) {
	if i >= len(t.items) {
		return
	}
	for j, b := range t.items {
		tab := -1
		if j == i {
			tab = 0
		}
		_ = control.TabIndex.Set(b, tab)
	}
	t.active = i
}
