package testing

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
)

// Finder locates elements in a rendered tree.
type Finder interface {
	// Evaluate returns all matching element nodes under root (depth-first
	// pre-order). doc resolves the controls attached to nodes.
	Evaluate(doc *dom.Document, root *html.Node) []*html.Node
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	nodes  []*html.Node
	finder Finder
	doc    *dom.Document
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *html.Node {
	if len(r.nodes) == 0 {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder found no elements: %s", desc))
	}
	return r.nodes[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *html.Node {
	if len(r.nodes) == 0 {
		return nil
	}
	return r.nodes[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *html.Node {
	if index < 0 || index >= len(r.nodes) {
		desc := "unknown"
		if r.finder != nil {
			desc = r.finder.Description()
		}
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.nodes), desc))
	}
	return r.nodes[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*html.Node {
	return r.nodes
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.nodes)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.nodes) > 0
}

// Element returns the dom element of the first match. Panics if no matches.
func (r FinderResult) Element() *dom.Element {
	return r.doc.Element(r.First())
}

// Control returns the control attached to the first match, or nil.
// Panics if no matches.
func (r FinderResult) Control() control.Control {
	c, _ := r.doc.ControlAt(r.First()).(control.Control)
	return c
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return dom.TextContent(r.First())
}

// --- Concrete finders ---

// controlFinder matches control roots whose control is of the specified type.
type controlFinder struct {
	controlType reflect.Type
	typeName    string
}

func (f *controlFinder) Evaluate(doc *dom.Document, root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		c := doc.ControlAt(n)
		return c != nil && reflect.TypeOf(c) == f.controlType
	})
}

func (f *controlFinder) Description() string {
	return fmt.Sprintf("ByControl(%s)", f.typeName)
}

// ByControl returns a finder that matches the roots of controls of type T.
func ByControl[T control.Control]() Finder {
	t := reflect.TypeFor[T]()
	return &controlFinder{controlType: t, typeName: t.String()}
}

// nameFinder matches elements marked data-name="name".
type nameFinder struct {
	name string
}

func (f *nameFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		v, ok := dom.Attr(n, control.AttrName)
		return ok && v == f.name
	})
}

func (f *nameFinder) Description() string {
	return fmt.Sprintf("ByName(%q)", f.name)
}

// ByName returns a finder that matches elements marked data-name=name,
// including those inside nested controls.
func ByName(name string) Finder {
	return &nameFinder{name: name}
}

// attrFinder matches elements carrying an attribute value.
type attrFinder struct {
	key, val string
}

func (f *attrFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		v, ok := dom.Attr(n, f.key)
		return ok && v == f.val
	})
}

func (f *attrFinder) Description() string {
	return fmt.Sprintf("ByAttr(%s=%q)", f.key, f.val)
}

// ByAttr returns a finder that matches elements whose attribute key equals
// val.
func ByAttr(key, val string) Finder {
	return &attrFinder{key: key, val: val}
}

// tagFinder matches elements by tag name.
type tagFinder struct {
	tag string
}

func (f *tagFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool { return n.Data == f.tag })
}

func (f *tagFinder) Description() string {
	return fmt.Sprintf("ByTag(%s)", f.tag)
}

// ByTag returns a finder that matches elements with the given tag name.
func ByTag(tag string) Finder {
	return &tagFinder{tag: strings.ToLower(tag)}
}

// textFinder matches the innermost elements whose text is exactly text.
type textFinder struct {
	text string
}

func (f *textFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectInnermost(root, func(n *html.Node) bool {
		return dom.TextContent(n) == f.text
	})
}

func (f *textFinder) Description() string {
	return fmt.Sprintf("ByText(%q)", f.text)
}

// ByText returns a finder that matches the innermost elements whose text
// content equals text. An ancestor whose text is the same because it
// only wraps the match is not reported.
func ByText(text string) Finder {
	return &textFinder{text: text}
}

// textContainingFinder matches the innermost elements containing substring.
type textContainingFinder struct {
	substring string
}

func (f *textContainingFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectInnermost(root, func(n *html.Node) bool {
		return strings.Contains(dom.TextContent(n), f.substring)
	})
}

func (f *textContainingFinder) Description() string {
	return fmt.Sprintf("ByTextContaining(%q)", f.substring)
}

// ByTextContaining returns a finder that matches the innermost elements
// whose text content contains substring.
func ByTextContaining(substring string) Finder {
	return &textContainingFinder{substring: substring}
}

// predicateFinder matches elements satisfying a predicate.
type predicateFinder struct {
	fn   func(*html.Node) bool
	desc string
}

func (f *predicateFinder) Evaluate(_ *dom.Document, root *html.Node) []*html.Node {
	return collectMatches(root, f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn func(*html.Node) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(doc *dom.Document, root *html.Node) []*html.Node {
	var results []*html.Node
	seen := make(map[*html.Node]bool)
	for _, ancestor := range f.of.Evaluate(doc, root) {
		for child := ancestor.FirstChild; child != nil; child = child.NextSibling {
			for _, match := range f.matching.Evaluate(doc, child) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds elements matching 'matching' that are ancestors
// of elements matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(doc *dom.Document, root *html.Node) []*html.Node {
	descendants := f.of.Evaluate(doc, root)
	if len(descendants) == 0 {
		return nil
	}
	var results []*html.Node
	seen := make(map[*html.Node]bool)
	for _, candidate := range f.matching.Evaluate(doc, root) {
		for _, desc := range descendants {
			if !seen[candidate] && candidate != desc && isAncestorOf(candidate, desc) {
				seen[candidate] = true
				results = append(results, candidate)
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches elements satisfying 'matching'
// that are ancestors of elements matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

func isAncestorOf(ancestor, descendant *html.Node) bool {
	for p := descendant.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// collectMatches performs depth-first pre-order traversal, collecting
// elements that satisfy the predicate.
func collectMatches(root *html.Node, predicate func(*html.Node) bool) []*html.Node {
	var results []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && predicate(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}

// collectInnermost collects matching elements none of whose element
// children also match.
func collectInnermost(root *html.Node, predicate func(*html.Node) bool) []*html.Node {
	return collectMatches(root, func(n *html.Node) bool {
		if !predicate(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && predicate(c) {
				return false
			}
		}
		return true
	})
}
