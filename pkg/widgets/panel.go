package widgets

import (
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// PanelSchema declares the Panel properties.
var PanelSchema = observable.NewSchema("widgets.Panel", control.BaseSchema)

// PanelTitle is the heading shown by the default template.
var PanelTitle = observable.Define(PanelSchema, "title", func() string { return "" })

// Panel is a templated container. Any template can back a panel, which
// makes it the usual owner of a page template and its model.
type Panel struct {
	control.Templated
}

// NewPanel creates a panel from templateID, or from PanelTemplate when
// templateID is empty.
func NewPanel(host *control.Host, templateID string) (*Panel, error) {
	if templateID == "" {
		templateID = PanelTemplate
	}
	p := &Panel{}
	if err := p.Init(p, host, PanelSchema, templateID); err != nil {
		return nil, err
	}
	return p, nil
}

// Title returns the panel heading.
func (p *Panel) Title() string { return PanelTitle.Get(p) }

// SetTitle sets the panel heading.
func (p *Panel) SetTitle(s string) error { return PanelTitle.Set(p, s) }

// Content returns the element children are added to: the element named
// "content", or the root when the template has none.
func (p *Panel) Content() *dom.Element {
	if el := p.Element("content"); el != nil {
		return el
	}
	return p.Root()
}

// Add moves the root of c to the end of the content element.
func (p *Panel) Add(c control.Control) error {
	if c == nil || c.RootElement() == nil {
		return errors.New("widgets.Panel.Add", errors.KindContract, p.TemplateID(), "control has no root element")
	}
	if c == control.Control(p) {
		return errors.New("widgets.Panel.Add", errors.KindMisuse, p.TemplateID(), "cannot add a panel to itself")
	}
	n := c.RootElement()
	dom.Detach(n)
	p.Content().Node().AppendChild(n)
	return nil
}
