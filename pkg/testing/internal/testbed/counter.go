// Package testbed provides internal test controls for the testing framework.
package testbed

import (
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/event"
	"github.com/go-drift/stencil/pkg/observable"
	"github.com/go-drift/stencil/pkg/stencil"
)

// Counter template id and control type name.
const (
	CounterTemplate = "testbed.Counter"
	CounterType     = "testbed.Counter"
)

const counterMarkup = `<button class="counter" data-control-binding="textContent:count;converter=stencil.String"></button>`

// CounterSchema declares the Counter properties.
var CounterSchema = observable.NewSchema("testbed.Counter", control.BaseSchema)

// Count is the number of clicks so far.
var Count = observable.Define(CounterSchema, "count", func() int { return 0 })

// Counter is a templated control that displays a count and increments it
// on click.
type Counter struct {
	control.Templated

	OnClick func(count int)
	reg     *event.Registration
}

// NewCounter creates a counter from templateID, or CounterTemplate when
// empty.
func NewCounter(h *control.Host, templateID string) (*Counter, error) {
	if templateID == "" {
		templateID = CounterTemplate
	}
	c := &Counter{}
	if err := c.Init(c, h, CounterSchema, templateID); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Counter) OnApplyTemplate() error {
	c.reg = c.Root().On("click", func(*dom.Event) error {
		n := Count.Get(c) + 1
		if err := Count.Set(c, n); err != nil {
			return err
		}
		if c.OnClick != nil {
			c.OnClick(n)
		}
		return nil
	})
	return nil
}

func (c *Counter) OnTemplateChanging() {
	c.reg.Dispose()
}

// Install registers the counter template and control type with rt.
func Install(rt *stencil.Runtime) error {
	if err := rt.RegisterTemplate(CounterTemplate, counterMarkup); err != nil {
		return err
	}
	return rt.RegisterControl(CounterType, func(h *control.Host, id string) (control.Control, error) {
		c, err := NewCounter(h, id)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}
