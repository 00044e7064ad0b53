// Package control defines the contract between visual controls and the
// template engine that instantiates them.
//
// A control owns one root element in a dom.Document. Templated controls
// get that root from a template loaded through the Host; plain controls
// build it themselves. Both embed a base type that stores their observable
// properties and keeps the common ones (enabled, visible, tooltip,
// tabIndex) reflected on the root element.
package control

import (
	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/binding"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// Control is implemented by every visual control.
type Control interface {
	observable.Observable

	// RootElement returns the control's root node. It is never nil once
	// the control was constructed.
	RootElement() *html.Node

	// OnApplyTemplate runs right after a new root was spliced in and its
	// bindings were created.
	OnApplyTemplate() error

	// OnTemplateChanging runs right before the current root is detached.
	OnTemplateChanging()
}

// ModelHolder is implemented by controls that carry a model. Directives in
// data-binding attributes read from it.
type ModelHolder interface {
	Model() any
}

// AttributeCarrier is implemented by controls that keep the attributes of
// the placeholder they replaced, so they survive a template change.
type AttributeCarrier interface {
	CarryAttributes(attrs []html.Attribute)
}

// TemplateLoader produces a fresh, resolved root for a template id.
type TemplateLoader interface {
	LoadTemplate(id string) (*html.Node, error)
}

// BindingExtractor creates the bindings declared in a control's subtree.
type BindingExtractor interface {
	Extract(c Control, root *html.Node) ([]*binding.Binding, error)
}

// Host is the environment controls are created in.
//
// Host is NOT thread-safe. It must only be used from the UI goroutine.
type Host struct {
	Document  *dom.Document
	Templates TemplateLoader
	Bindings  BindingExtractor
	Controls  *Registry

	queue []func()
}

// Post queues fn to run on the next Flush, after the current event has
// been handled.
func (h *Host) Post(fn func()) {
	h.queue = append(h.queue, fn)
}

// Pending returns the number of queued callbacks.
func (h *Host) Pending() int { return len(h.queue) }

// Flush runs queued callbacks, including those they post, until the queue
// is empty. A panicking callback is reported and does not stop the rest.
func (h *Host) Flush() {
	for len(h.queue) > 0 {
		fn := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]
		h.run(fn)
	}
}

func (h *Host) run(fn func()) {
	defer errors.Recover("control.Host.Flush")
	fn()
}

// Element returns the dom element for n in the host document.
func (h *Host) Element(n *html.Node) *dom.Element {
	return h.Document.Element(n)
}

// ControlAt returns the control attached at n, or nil.
func (h *Host) ControlAt(n *html.Node) Control {
	c, _ := h.Document.ControlAt(n).(Control)
	return c
}
