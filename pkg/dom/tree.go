// Package dom is the in-memory host surface controls render into: markup
// is parsed with golang.org/x/net/html, and every element node can carry
// DOM-style properties, a style declaration, event listeners and the
// control that owns it.
package dom

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup as the children of a <body> element.
func ParseFragment(markup string) ([]*html.Node, error) {
	return ParseFragmentIn(markup, nil)
}

// ParseFragmentIn parses markup as the children of context. A nil context
// means <body>.
func ParseFragmentIn(markup string, context *html.Node) ([]*html.Node, error) {
	if context == nil {
		context = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return nodes, nil
}

// Clone returns a deep copy of n with no parent or siblings.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Render serialises n and its subtree.
func Render(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// InnerHTML serialises the children of n. Children of raw text elements
// (script, style) are returned verbatim.
func InnerHTML(n *html.Node) (string, error) {
	var buf bytes.Buffer
	raw := n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if raw && c.Type == html.TextNode {
			buf.WriteString(c.Data)
			continue
		}
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// TextContent concatenates the text nodes of the subtree.
func TextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
		case html.ElementNode:
			sb.WriteString(TextContent(c))
		}
	}
	return sb.String()
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = n.FirstChild {
		n.RemoveChild(c)
	}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Replace puts repl in old's position and detaches old. repl is detached
// from its current parent first.
func Replace(old, repl *html.Node) error {
	parent := old.Parent
	if parent == nil {
		return fmt.Errorf("dom: cannot replace a node without parent")
	}
	Detach(repl)
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
	return nil
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key from n. It reports whether it existed.
func RemoveAttr(n *html.Node, key string) bool {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first in document order. When
// visit returns false the children of that node are skipped. Nodes may be
// replaced during the walk: the next sibling is read after the visit.
func Walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, visit)
		c = next
	}
}

// FindByID returns the first element under root whose id attribute is id.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := Attr(n, "id"); ok && v == id {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// FirstElementChild returns the first element child of n.
func FirstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
