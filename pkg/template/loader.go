// Package template turns template ids into live control trees.
//
// A Repository maps ids to markup. The Loader parses that markup once per
// id, hands out a clone per request and replaces every control placeholder
// in the clone with the root of a freshly constructed control:
//
//	<div>
//	  <div data-control="app.OkButton" data-control-template-id="buttons.ok" data-name="ok"></div>
//	</div>
//
// The Extractor then turns the data-binding, data-control-binding and
// data-options attributes of a control's subtree into bindings.
package template

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
)

// guard is a set of keys currently being resolved.
type guard map[string]bool

// enter marks key and returns the function that clears it. ok is false if
// key was already marked.
func (g guard) enter(key string) (release func(), ok bool) {
	if g[key] {
		return nil, false
	}
	g[key] = true
	return func() { delete(g, key) }, true
}

// Loader parses, caches and instantiates templates.
//
// Loader is NOT thread-safe. It must only be used from the UI goroutine.
type Loader struct {
	repo  Repository
	host  *control.Host
	cache map[string]*html.Node

	loading   guard
	resolving guard
}

// NewLoader creates a loader reading from repo. Controls found in
// templates are constructed through host.Controls.
func NewLoader(repo Repository, host *control.Host) *Loader {
	return &Loader{
		repo:      repo,
		host:      host,
		cache:     make(map[string]*html.Node),
		loading:   make(guard),
		resolving: make(guard),
	}
}

// LoadTemplate returns a new detached root for id with every control
// placeholder replaced by a live control. Each call returns a distinct
// tree.
//
// A template that requires itself while it is being loaded, directly or
// through nested controls, is a recursion error.
func (l *Loader) LoadTemplate(id string) (*html.Node, error) {
	const op = "template.LoadTemplate"
	if id == "" {
		return nil, errors.New(op, errors.KindConfig, id, "template id is empty")
	}
	release, ok := l.loading.enter(id)
	if !ok {
		return nil, errors.New(op, errors.KindRecursion, id, "template %q requires itself", id)
	}
	defer release()

	tmpl, err := l.parsed(id)
	if err != nil {
		return nil, err
	}
	root := dom.Clone(tmpl)
	if err := l.resolve(id, root); err != nil {
		l.discard(root)
		return nil, err
	}
	return root, nil
}

// discard disposes the controls already placed under root and drops the
// document state held for it.
func (l *Loader) discard(root *html.Node) {
	if l.host == nil || l.host.Document == nil {
		return
	}
	doc := l.host.Document
	dom.Walk(root, func(n *html.Node) bool {
		if d, ok := doc.ControlAt(n).(interface{ Dispose() }); ok {
			d.Dispose()
			return false
		}
		return true
	})
	doc.Release(root)
}

// Cached reports whether the parsed markup of id is cached.
func (l *Loader) Cached(id string) bool {
	_, ok := l.cache[id]
	return ok
}

// Purge empties the cache.
func (l *Loader) Purge() {
	clear(l.cache)
}

// Parse fetches and parses the markup of id without caching it or
// resolving placeholders.
func (l *Loader) Parse(id string) (*html.Node, error) {
	markup, err := l.repo.TemplateString(id)
	if err != nil {
		return nil, err
	}
	return parseRoot(id, markup)
}

func (l *Loader) parsed(id string) (*html.Node, error) {
	if n, ok := l.cache[id]; ok {
		return n, nil
	}
	n, err := l.Parse(id)
	if err != nil {
		return nil, err
	}
	l.cache[id] = n
	return n, nil
}

// parseRoot parses markup that must hold exactly one root element.
// Comments and whitespace around it are dropped.
func parseRoot(id, markup string) (*html.Node, error) {
	const op = "template.Parse"
	nodes, err := dom.ParseFragmentIn(markup, fragmentContext(markup))
	if err != nil {
		return nil, errors.Wrap(op, errors.KindConfig, id, err)
	}
	var root *html.Node
	for _, n := range nodes {
		switch n.Type {
		case html.ElementNode:
			if root != nil {
				return nil, errors.New(op, errors.KindConfig, id, "template has more than one root element")
			}
			root = n
		case html.TextNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil, errors.New(op, errors.KindConfig, id, "template has text outside its root element")
			}
		}
	}
	if root == nil {
		return nil, errors.New(op, errors.KindConfig, id, "template has no root element")
	}
	if _, ok := dom.Attr(root, control.AttrControl); ok {
		return nil, errors.New(op, errors.KindConfig, id, "template root cannot be a control placeholder")
	}
	return root, nil
}

// fragmentContext picks the parent element the markup must be parsed in
// for its first tag to survive, e.g. <tbody> for a <tr>. nil means <body>.
func fragmentContext(markup string) *html.Node {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			var ctx atom.Atom
			switch atom.Lookup(name) {
			case atom.Tr:
				ctx = atom.Tbody
			case atom.Td, atom.Th:
				ctx = atom.Tr
			case atom.Tbody, atom.Thead, atom.Tfoot, atom.Caption, atom.Colgroup:
				ctx = atom.Table
			case atom.Col:
				ctx = atom.Colgroup
			default:
				return nil
			}
			return &html.Node{Type: html.ElementNode, Data: ctx.String(), DataAtom: ctx}
		}
	}
}

// resolve replaces the placeholders of root depth-first. Roots of
// controls spliced in are not descended into: they resolved their own
// subtree when they were built.
func (l *Loader) resolve(id string, root *html.Node) error {
	var err error
	dom.Walk(root, func(n *html.Node) bool {
		if err != nil {
			return false
		}
		if n.Type != html.ElementNode {
			return true
		}
		typeName, ok := dom.Attr(n, control.AttrControl)
		if !ok {
			return true
		}
		err = l.replace(id, n, typeName)
		return false
	})
	return err
}

func (l *Loader) replace(id string, placeholder *html.Node, typeName string) error {
	const op = "template.resolve"
	if placeholder.FirstChild != nil {
		return errors.New(op, errors.KindConfig, id, "placeholder for %s must not have children", typeName)
	}
	templateID, _ := dom.Attr(placeholder, control.AttrTemplateID)

	c, err := l.instantiate(typeName, templateID)
	if err != nil {
		return err
	}
	root := c.RootElement()

	var carried []html.Attribute
	for _, a := range placeholder.Attr {
		if a.Namespace != "" || a.Key == control.AttrControl || a.Key == control.AttrTemplateID {
			continue
		}
		carried = append(carried, a)
		dom.SetAttr(root, a.Key, a.Val)
	}
	if ac, ok := c.(control.AttributeCarrier); ok {
		ac.CarryAttributes(carried)
	}
	if err := dom.Replace(placeholder, root); err != nil {
		return errors.Wrap(op, errors.KindContract, id, err)
	}
	return nil
}

// instantiate constructs a control. The (type, template id) pair may not
// be constructed again while it is being constructed.
func (l *Loader) instantiate(typeName, templateID string) (control.Control, error) {
	const op = "template.instantiate"
	key := typeName + "#" + templateID
	release, ok := l.resolving.enter(key)
	if !ok {
		return nil, errors.New(op, errors.KindRecursion, key, "control %s instantiates itself", typeName)
	}
	defer release()

	if l.host == nil || l.host.Controls == nil {
		return nil, errors.New(op, errors.KindMisuse, typeName, "loader has no control registry")
	}
	ctor, err := l.host.Controls.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	c, err := ctor.New(l.host, templateID)
	if err != nil {
		return nil, err
	}
	if c == nil || c.RootElement() == nil {
		return nil, errors.New(op, errors.KindContract, typeName, "control %s has no root element", typeName)
	}
	return c, nil
}
