package control

import (
	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/observable"
)

// BaseSchema declares the properties shared by every control. Widget
// schemas use it as their parent.
var BaseSchema = observable.NewSchema("control.Control", nil)

// Base properties.
var (
	// Enabled maps to the disabled attribute of the root.
	Enabled = observable.Define(BaseSchema, "enabled", func() bool { return true },
		observable.OnChanged(func(owner any, _, v any) { reflectEnabled(rootOf(owner), v) }))
	// Visible maps to style.display of the root.
	Visible = observable.Define(BaseSchema, "visible", func() bool { return true },
		observable.OnChanged(func(owner any, _, v any) { reflectVisible(rootOf(owner), v) }))
	// Tooltip maps to the title attribute of the root.
	Tooltip = observable.Define(BaseSchema, "tooltip", func() string { return "" },
		observable.OnChanged(func(owner any, _, v any) { reflectTooltip(rootOf(owner), v) }))
	// TabIndex maps to the tabindex attribute of the root.
	TabIndex = observable.Define(BaseSchema, "tabIndex", func() int { return 0 },
		observable.OnChanged(func(owner any, _, v any) { reflectTabIndex(rootOf(owner), v) }))
	// Model is the object data-binding directives read from.
	Model = observable.Define[any](BaseSchema, "model", nil)
)

func rootOf(owner any) *dom.Element {
	if c, ok := owner.(interface{ Root() *dom.Element }); ok {
		return c.Root()
	}
	return nil
}

func reflectEnabled(el *dom.Element, v any) {
	if el == nil {
		return
	}
	on, _ := v.(bool)
	if on {
		el.RemoveAttr("disabled")
	} else {
		el.SetAttr("disabled", "")
	}
}

func reflectVisible(el *dom.Element, v any) {
	if el == nil {
		return
	}
	on, _ := v.(bool)
	if on {
		_ = el.Style().Set("display", nil)
	} else {
		_ = el.Style().Set("display", "none")
	}
}

func reflectTooltip(el *dom.Element, v any) {
	if el == nil {
		return
	}
	_ = el.Set("title", nullIfEmpty(v))
}

func reflectTabIndex(el *dom.Element, v any) {
	if el == nil {
		return
	}
	if n, _ := v.(int); n != 0 {
		_ = el.Set("tabIndex", n)
		return
	}
	el.RemoveAttr("tabindex")
}

func nullIfEmpty(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// Base holds the state shared by templated and plain controls. It is
// embedded, never used on its own.
type Base struct {
	*observable.Object

	self    Control
	host    *Host
	root    *html.Node
	carried []html.Attribute
}

func (b *Base) init(self Control, host *Host, schema *observable.Schema) {
	if schema == nil {
		schema = BaseSchema
	}
	b.self = self
	b.host = host
	b.Object = observable.New(schema, self)
}

// Host returns the host the control was created in.
func (b *Base) Host() *Host { return b.host }

// RootElement returns the root node.
func (b *Base) RootElement() *html.Node { return b.root }

// Root returns the root as a dom element.
func (b *Base) Root() *dom.Element {
	if b.root == nil {
		return nil
	}
	return b.host.Document.Element(b.root)
}

// Model returns the control's model.
func (b *Base) Model() any { return Model.Get(b) }

// SetModel replaces the control's model.
func (b *Base) SetModel(m any) error { return Model.Set(b, m) }

// OnApplyTemplate does nothing by default.
func (b *Base) OnApplyTemplate() error { return nil }

// OnTemplateChanging does nothing by default.
func (b *Base) OnTemplateChanging() {}

// CarryAttributes stores attributes to keep on every root the control
// gets and applies them to the current one. Directive attributes are
// consumed when first read and are not carried.
func (b *Base) CarryAttributes(attrs []html.Attribute) {
	b.carried = b.carried[:0]
	for _, a := range attrs {
		if isDirective(a.Key) {
			continue
		}
		b.carried = append(b.carried, a)
	}
	b.applyCarried()
}

func (b *Base) applyCarried() {
	if b.root == nil {
		return
	}
	for _, a := range b.carried {
		dom.SetAttr(b.root, a.Key, a.Val)
	}
}

// attach makes root the control's root and reflects the current base
// properties onto it. Properties still at their default are left to the
// markup.
func (b *Base) attach(root *html.Node) {
	b.root = root
	b.host.Document.Attach(root, b.self)
	b.applyCarried()
	el := b.Root()
	if !Enabled.Get(b) {
		reflectEnabled(el, false)
	}
	if !Visible.Get(b) {
		reflectVisible(el, false)
	}
	if v := Tooltip.Get(b); v != "" {
		reflectTooltip(el, v)
	}
	if v := TabIndex.Get(b); v != 0 {
		reflectTabIndex(el, v)
	}
}

// Element returns the element marked data-name="name" in the control's own
// subtree. Subtrees of nested controls are not searched, but their roots
// are.
func (b *Base) Element(name string) *dom.Element {
	if n := b.find(name); n != nil {
		return b.host.Document.Element(n)
	}
	return nil
}

// Child returns the nested control whose root is marked data-name="name".
func (b *Base) Child(name string) Control {
	if n := b.find(name); n != nil {
		return b.host.ControlAt(n)
	}
	return nil
}

func (b *Base) find(name string) *html.Node {
	if b.root == nil {
		return nil
	}
	var found *html.Node
	dom.Walk(b.root, func(n *html.Node) bool {
		if found != nil || n.Type != html.ElementNode {
			return false
		}
		if v, ok := dom.Attr(n, AttrName); ok && v == name {
			found = n
			return false
		}
		return n == b.root || b.host.Document.ControlAt(n) == nil
	})
	return found
}
