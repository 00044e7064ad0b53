package control

import (
	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/binding"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// Markup attributes understood by the template engine.
const (
	AttrControl        = "data-control"
	AttrTemplateID     = "data-control-template-id"
	AttrBinding        = "data-binding"
	AttrControlBinding = "data-control-binding"
	AttrOptions        = "data-options"
	AttrName           = "data-name"
)

func isDirective(key string) bool {
	switch key {
	case AttrControl, AttrTemplateID, AttrBinding, AttrControlBinding, AttrOptions:
		return true
	}
	return false
}

// Templated is the base of controls whose root comes from a template.
//
// Embed it and call Init from the constructor:
//
//	type Button struct{ control.Templated }
//
//	func NewButton(host *control.Host, templateID string) (*Button, error) {
//		b := &Button{}
//		if err := b.Init(b, host, ButtonSchema, templateID); err != nil {
//			return nil, err
//		}
//		return b, nil
//	}
type Templated struct {
	Base

	templateID string
	bindings   []*binding.Binding
	disposed   bool
}

// Init sets up property storage for self and applies the template. A
// control whose template cannot be applied is disposed.
func (t *Templated) Init(self Control, host *Host, schema *observable.Schema, templateID string) error {
	if self == nil || host == nil {
		return errors.New("control.Init", errors.KindMisuse, templateID, "control and host are required")
	}
	t.init(self, host, schema)
	if err := t.SetTemplate(templateID); err != nil {
		t.Dispose()
		return err
	}
	return nil
}

// TemplateID returns the id of the applied template.
func (t *Templated) TemplateID() string { return t.templateID }

// Bindings returns the bindings created from the current template.
func (t *Templated) Bindings() []*binding.Binding { return t.bindings }

// SetTemplate replaces the control's root with a fresh instance of the
// template id. The old root is swapped out in place when it has a parent.
// OnTemplateChanging runs before the old root is detached and
// OnApplyTemplate after the new one is in place and bound.
//
// The old root is released before the new one is bound. If binding
// extraction or OnApplyTemplate fails, the control keeps the new root with
// no bindings; callers should Dispose it.
func (t *Templated) SetTemplate(id string) error {
	const op = "control.SetTemplate"
	if t.disposed {
		return errors.New(op, errors.KindMisuse, id, "control is disposed")
	}
	if t.host.Templates == nil || t.host.Bindings == nil {
		return errors.New(op, errors.KindMisuse, id, "host has no template loader")
	}
	root, err := t.host.Templates.LoadTemplate(id)
	if err != nil {
		return err
	}
	if root == nil {
		return errors.New(op, errors.KindContract, id, "template produced no root element")
	}

	if old := t.root; old != nil {
		t.self.OnTemplateChanging()
		t.unbind()
		t.disposeNested(old)
		t.host.Document.Detach(old)
		if old.Parent != nil {
			if err := dom.Replace(old, root); err != nil {
				return errors.Wrap(op, errors.KindContract, id, err)
			}
		}
		t.host.Document.Release(old)
	}
	t.templateID = id
	t.attach(root)

	bindings, err := t.host.Bindings.Extract(t.self, root)
	if err != nil {
		return err
	}
	t.bindings = bindings
	if err := t.self.OnApplyTemplate(); err != nil {
		t.unbind()
		return err
	}
	return nil
}

func (t *Templated) unbind() {
	for _, b := range t.bindings {
		b.Unbind()
	}
	t.bindings = nil
}

// Dispose releases the control's bindings, disposes nested controls and
// drops the document state held for its root. Calling Dispose more than
// once is a no-op.
func (t *Templated) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.unbind()
	if t.root != nil {
		t.disposeNested(t.root)
		t.host.Document.Detach(t.root)
		t.host.Document.Release(t.root)
	}
}

// disposeNested disposes the controls hosted below root.
func (t *Templated) disposeNested(root *html.Node) {
	dom.Walk(root, func(n *html.Node) bool {
		if n == root {
			return true
		}
		c := t.host.Document.ControlAt(n)
		if c == nil {
			return true
		}
		if d, ok := c.(interface{ Dispose() }); ok {
			d.Dispose()
		}
		return false
	})
}

// Disposed reports whether Dispose was called.
func (t *Templated) Disposed() bool { return t.disposed }

// Plain is the base of controls that build their own root.
type Plain struct {
	Base
}

// Init sets up property storage for self with the given root. A nil root
// is a contract violation.
func (p *Plain) Init(self Control, host *Host, schema *observable.Schema, root *html.Node) error {
	if self == nil || host == nil {
		return errors.New("control.Init", errors.KindMisuse, "", "control and host are required")
	}
	if root == nil {
		return errors.New("control.Init", errors.KindContract, "", "control has no root element")
	}
	p.init(self, host, schema)
	p.attach(root)
	return nil
}
