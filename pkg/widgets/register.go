package widgets

import (
	"maps"

	"github.com/go-drift/stencil/pkg/control"
)

// Widget type names, as used in data-control.
const (
	ButtonType  = "stencil.Button"
	LabelType   = "stencil.Label"
	PanelType   = "stencil.Panel"
	ToolbarType = "stencil.Toolbar"
)

// Default template ids.
const (
	ButtonTemplate  = "stencil.Button"
	PanelTemplate   = "stencil.Panel"
	ToolbarTemplate = "stencil.Toolbar"
)

var defaultTemplates = map[string]string{
	ButtonTemplate: `<button type="button" class="stencil-button" data-control-binding="textContent:text"></button>`,
	PanelTemplate: `<section class="stencil-panel">` +
		`<header data-name="header" data-control-binding="textContent:title"></header>` +
		`<div data-name="content"></div>` +
		`</section>`,
	ToolbarTemplate: `<div class="stencil-toolbar" role="toolbar"></div>`,
}

// Templates returns a copy of the default widget templates keyed by id.
func Templates() map[string]string {
	return maps.Clone(defaultTemplates)
}

// Register adds the widget types to reg.
func Register(reg *control.Registry) error {
	if err := reg.RegisterTemplated(ButtonType, templated(NewButton)); err != nil {
		return err
	}
	if err := reg.Register(LabelType, func(h *control.Host) (control.Control, error) {
		l, err := NewLabel(h)
		if err != nil {
			return nil, err
		}
		return l, nil
	}); err != nil {
		return err
	}
	if err := reg.RegisterTemplated(PanelType, templated(NewPanel)); err != nil {
		return err
	}
	return reg.RegisterTemplated(ToolbarType, templated(NewToolbar))
}

// templated adapts a typed constructor so a failed construction yields a
// nil interface rather than a typed nil.
func templated[T control.Control](f func(*control.Host, string) (T, error)) control.TemplatedFactory {
	return func(h *control.Host, id string) (control.Control, error) {
		c, err := f(h, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
