package dom

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/event"
	"github.com/go-drift/stencil/pkg/observable"
)

// Document tracks the per-node state of one host surface.
//
// Document is NOT thread-safe. It must only be used from the UI goroutine.
type Document struct {
	elements map[*html.Node]*Element
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{elements: make(map[*html.Node]*Element)}
}

// Element returns the element wrapper for n, creating it on first use.
// It returns nil for nodes that are not elements.
func (d *Document) Element(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	if e, ok := d.elements[n]; ok {
		return e
	}
	e := &Element{doc: d, node: n}
	d.elements[n] = e
	return e
}

// Attach records c as the control owning the subtree rooted at n.
func (d *Document) Attach(n *html.Node, c any) {
	if e := d.Element(n); e != nil {
		e.control = c
	}
}

// Detach forgets the control attached at n, if any.
func (d *Document) Detach(n *html.Node) {
	if e, ok := d.elements[n]; ok {
		e.control = nil
	}
}

// ControlAt returns the control attached at n, or nil.
func (d *Document) ControlAt(n *html.Node) any {
	if e, ok := d.elements[n]; ok {
		return e.control
	}
	return nil
}

// Len returns the number of nodes the document holds state for.
func (d *Document) Len() int { return len(d.elements) }

// Release drops the state of every node in the subtree of n.
func (d *Document) Release(n *html.Node) {
	Walk(n, func(c *html.Node) bool {
		delete(d.elements, c)
		return true
	})
}

// Event is a DOM event delivered to element listeners.
type Event struct {
	Type   string
	Target *Element

	defaultPrevented bool
}

// PreventDefault marks the event as handled.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Element wraps an element node with DOM-style properties, a style
// declaration and event listeners.
type Element struct {
	doc       *Document
	node      *html.Node
	props     map[string]any
	style     *Style
	listeners map[string]*event.Source[*Event]
	control   any
}

// Node returns the underlying node.
func (e *Element) Node() *html.Node { return e.node }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Tag returns the lower-case tag name.
func (e *Element) Tag() string { return e.node.Data }

// Control returns the control attached to this element, or nil.
func (e *Element) Control() any { return e.control }

// Attr returns an attribute value.
func (e *Element) Attr(name string) (string, bool) { return Attr(e.node, name) }

// SetAttr sets an attribute. Setting "style" resets the style declaration.
func (e *Element) SetAttr(name, val string) {
	SetAttr(e.node, name, val)
	if name == "style" && e.style != nil {
		e.style.parse(val)
	}
}

// RemoveAttr removes an attribute.
func (e *Element) RemoveAttr(name string) {
	RemoveAttr(e.node, name)
	if name == "style" && e.style != nil {
		e.style.parse("")
	}
}

// Style returns the element's style declaration.
func (e *Element) Style() *Style {
	if e.style == nil {
		e.style = &Style{el: e}
		v, _ := e.Attr("style")
		e.style.parse(v)
	}
	return e.style
}

// SupportsChange reports whether the element raises "change" events
// (form controls whose value the user edits).
func (e *Element) SupportsChange() bool {
	switch e.node.DataAtom {
	case atom.Input, atom.Select, atom.Textarea:
		return true
	}
	return false
}

// On subscribes h to events of type typ.
func (e *Element) On(typ string, h func(*Event) error) *event.Registration {
	if e.listeners == nil {
		e.listeners = make(map[string]*event.Source[*Event])
	}
	src, ok := e.listeners[typ]
	if !ok {
		src = &event.Source[*Event]{}
		e.listeners[typ] = src
	}
	return src.Subscribe(h)
}

// ListenerCount returns the number of listeners for typ.
func (e *Element) ListenerCount(typ string) int {
	if src, ok := e.listeners[typ]; ok {
		return src.Len()
	}
	return 0
}

// Dispatch delivers an event of type typ to the element's listeners.
// Listener errors are reported to the error handler, since the host that
// raised the event has nobody to return them to, and are also returned.
func (e *Element) Dispatch(typ string) error {
	src, ok := e.listeners[typ]
	if !ok {
		return nil
	}
	if err := src.Publish(&Event{Type: typ, Target: e}); err != nil {
		errors.Report(err)
		return err
	}
	return nil
}

// reflected string properties and the attribute backing them.
var stringProps = map[string]string{
	"id":          "id",
	"className":   "class",
	"title":       "title",
	"href":        "href",
	"src":         "src",
	"alt":         "alt",
	"placeholder": "placeholder",
	"type":        "type",
	"role":        "role",
	"name":        "name",
}

// reflected boolean properties.
var boolProps = map[string]string{
	"disabled": "disabled",
	"hidden":   "hidden",
	"readOnly": "readonly",
	"required": "required",
}

// Get reads a DOM property. Unknown names read expando properties and
// yield observable.Undefined when unset.
func (e *Element) Get(name string) any {
	if attr, ok := stringProps[name]; ok {
		v, _ := e.Attr(attr)
		return v
	}
	if attr, ok := boolProps[name]; ok {
		_, has := e.Attr(attr)
		return has
	}
	switch name {
	case "tagName":
		return strings.ToUpper(e.node.Data)
	case "textContent":
		return TextContent(e.node)
	case "innerHTML":
		s, _ := InnerHTML(e.node)
		return s
	case "tabIndex":
		v, _ := e.Attr("tabindex")
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	case "value":
		if v, ok := e.props["value"]; ok {
			return v
		}
		if e.node.DataAtom == atom.Textarea {
			return TextContent(e.node)
		}
		v, _ := e.Attr("value")
		return v
	case "checked":
		if v, ok := e.props["checked"]; ok {
			return v
		}
		_, has := e.Attr("checked")
		return has
	}
	if v, ok := e.props[name]; ok {
		return v
	}
	return observable.Undefined
}

// Set writes a DOM property. Reflected properties update their attribute.
func (e *Element) Set(name string, value any) error {
	if attr, ok := stringProps[name]; ok {
		if value == nil || observable.IsUndefined(value) {
			e.RemoveAttr(attr)
		} else {
			e.SetAttr(attr, fmt.Sprint(value))
		}
		return nil
	}
	if attr, ok := boolProps[name]; ok {
		if truthy(value) {
			e.SetAttr(attr, "")
		} else {
			e.RemoveAttr(attr)
		}
		return nil
	}
	switch name {
	case "tagName":
		return errors.New("dom.Element.Set", errors.KindMisuse, name, "tagName is read-only")
	case "textContent":
		e.setText(value)
		return nil
	case "innerHTML":
		nodes, err := ParseFragmentIn(textOf(value), e.node)
		if err != nil {
			return errors.Wrap("dom.Element.Set", errors.KindMisuse, name, err)
		}
		e.doc.releaseChildren(e.node)
		RemoveChildren(e.node)
		for _, n := range nodes {
			e.node.AppendChild(n)
		}
		return nil
	case "tabIndex":
		e.SetAttr("tabindex", textOf(value))
		return nil
	case "value":
		e.setProp("value", value)
		if e.node.DataAtom == atom.Textarea {
			e.setText(value)
		} else {
			e.SetAttr("value", textOf(value))
		}
		return nil
	case "checked":
		on := truthy(value)
		e.setProp("checked", on)
		if on {
			e.SetAttr("checked", "")
		} else {
			e.RemoveAttr("checked")
		}
		return nil
	}
	e.setProp(name, value)
	return nil
}

func (e *Element) setProp(name string, value any) {
	if e.props == nil {
		e.props = make(map[string]any)
	}
	e.props[name] = value
}

func (e *Element) setText(value any) {
	e.doc.releaseChildren(e.node)
	RemoveChildren(e.node)
	if s := textOf(value); s != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

func (d *Document) releaseChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.Release(c)
	}
}

func textOf(v any) string {
	if v == nil || observable.IsUndefined(v) {
		return ""
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case float64:
		return t != 0
	}
	return !observable.IsUndefined(v)
}
