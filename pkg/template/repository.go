package template

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
)

// Repository resolves template ids to markup. Registration is strictly
// additive: registering an id that already resolves is an error, and so is
// asking for an id that does not.
type Repository interface {
	TemplateString(id string) (string, error)
	RegisterTemplateString(id, markup string) error
}

// Lister is implemented by repositories that can enumerate their ids.
type Lister interface {
	IDs() []string
}

func notFound(op, id string) error {
	return errors.New(op, errors.KindConfig, id, "template %q not found", id)
}

func duplicate(op, id string) error {
	return errors.New(op, errors.KindConfig, id, "template %q already registered", id)
}

// NamespaceRepository stores templates as strings in nested namespaces.
// The id "app.buttons.ok" names the string at key "ok" of namespace
// "buttons" of namespace "app".
type NamespaceRepository struct {
	root map[string]any
}

// NewNamespaceRepository creates an empty repository.
func NewNamespaceRepository() *NamespaceRepository {
	return &NamespaceRepository{root: make(map[string]any)}
}

// TemplateString walks id through the namespaces.
func (r *NamespaceRepository) TemplateString(id string) (string, error) {
	const op = "template.NamespaceRepository"
	if id == "" {
		return "", errors.New(op, errors.KindConfig, id, "template id is empty")
	}
	var cur any = r.root
	for _, seg := range strings.Split(id, ".") {
		ns, ok := cur.(map[string]any)
		if !ok {
			return "", notFound(op, id)
		}
		if cur, ok = ns[seg]; !ok {
			return "", notFound(op, id)
		}
	}
	s, ok := cur.(string)
	if !ok {
		return "", errors.New(op, errors.KindConfig, id, "%q is a namespace, not a template", id)
	}
	return s, nil
}

// RegisterTemplateString stores markup under id, creating namespaces as
// needed.
func (r *NamespaceRepository) RegisterTemplateString(id, markup string) error {
	const op = "template.NamespaceRepository.Register"
	segs := strings.Split(id, ".")
	for _, s := range segs {
		if s == "" {
			return errors.New(op, errors.KindConfig, id, "invalid template id %q", id)
		}
	}
	ns := r.root
	for _, seg := range segs[:len(segs)-1] {
		switch next := ns[seg].(type) {
		case nil:
			child := make(map[string]any)
			ns[seg] = child
			ns = child
		case map[string]any:
			ns = next
		default:
			return errors.New(op, errors.KindConfig, id, "%q is a template, not a namespace", seg)
		}
	}
	last := segs[len(segs)-1]
	if _, ok := ns[last]; ok {
		return duplicate(op, id)
	}
	ns[last] = markup
	return nil
}

// Mount registers every string of tree under prefix. Keys may themselves
// be dotted. Values must be strings or nested maps.
func (r *NamespaceRepository) Mount(prefix string, tree map[string]any) error {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		id := k
		if prefix != "" {
			id = prefix + "." + k
		}
		switch v := tree[k].(type) {
		case string:
			if err := r.RegisterTemplateString(id, v); err != nil {
				return err
			}
		case map[string]any:
			if err := r.Mount(id, v); err != nil {
				return err
			}
		default:
			return errors.New("template.NamespaceRepository.Mount", errors.KindConfig, id,
				"expected markup or a namespace, got %T", v)
		}
	}
	return nil
}

// LoadYAML mounts a YAML document of nested mappings under prefix:
//
//	buttons:
//	  ok: <button data-binding="textContent:label">OK</button>
func (r *NamespaceRepository) LoadYAML(prefix string, rd io.Reader) error {
	var tree map[string]any
	if err := yaml.NewDecoder(rd).Decode(&tree); err != nil {
		if err == io.EOF {
			return nil
		}
		return errors.Wrap("template.NamespaceRepository.LoadYAML", errors.KindConfig, prefix, err)
	}
	return r.Mount(prefix, tree)
}

// IDs returns every template id, sorted.
func (r *NamespaceRepository) IDs() []string {
	var ids []string
	var walk func(prefix string, ns map[string]any)
	walk = func(prefix string, ns map[string]any) {
		for k, v := range ns {
			id := k
			if prefix != "" {
				id = prefix + "." + k
			}
			switch t := v.(type) {
			case string:
				ids = append(ids, id)
			case map[string]any:
				walk(id, t)
			}
		}
	}
	walk("", r.root)
	sort.Strings(ids)
	return ids
}

// DocumentRepository resolves templates embedded in a host page: the id
// names an element whose inner markup is the template, typically a
// <template> or a <script type="text/x-template">.
type DocumentRepository struct {
	doc *html.Node
}

// NewDocumentRepository parses a host page.
func NewDocumentRepository(page io.Reader) (*DocumentRepository, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return nil, errors.Wrap("template.NewDocumentRepository", errors.KindConfig, "", err)
	}
	return &DocumentRepository{doc: doc}, nil
}

// TemplateString returns the inner markup of the element with id.
func (r *DocumentRepository) TemplateString(id string) (string, error) {
	const op = "template.DocumentRepository"
	n := dom.FindByID(r.doc, id)
	if id == "" || n == nil {
		return "", notFound(op, id)
	}
	s, err := dom.InnerHTML(n)
	if err != nil {
		return "", errors.Wrap(op, errors.KindConfig, id, err)
	}
	return s, nil
}

// RegisterTemplateString appends a script element holding markup to the
// page body.
func (r *DocumentRepository) RegisterTemplateString(id, markup string) error {
	const op = "template.DocumentRepository.Register"
	if id == "" {
		return errors.New(op, errors.KindConfig, id, "template id is empty")
	}
	if dom.FindByID(r.doc, id) != nil {
		return duplicate(op, id)
	}
	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
		Attr: []html.Attribute{
			{Key: "type", Val: "text/x-template"},
			{Key: "id", Val: id},
		},
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: markup})
	r.body().AppendChild(script)
	return nil
}

func (r *DocumentRepository) body() *html.Node {
	var body *html.Node
	dom.Walk(r.doc, func(n *html.Node) bool {
		if body != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return false
		}
		return true
	})
	if body == nil {
		body = r.doc
	}
	return body
}

// IDs returns the ids of <template> elements and of script elements whose
// type mentions "template" or "html", sorted.
func (r *DocumentRepository) IDs() []string {
	var ids []string
	dom.Walk(r.doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		id, ok := dom.Attr(n, "id")
		if !ok || id == "" {
			return true
		}
		switch n.DataAtom {
		case atom.Template:
			ids = append(ids, id)
			return false
		case atom.Script:
			typ, _ := dom.Attr(n, "type")
			if strings.Contains(typ, "template") || strings.Contains(typ, "html") {
				ids = append(ids, id)
			}
			return false
		}
		return true
	})
	sort.Strings(ids)
	return ids
}

// ChainRepository consults its repositories in order. Registration goes
// to the first one.
type ChainRepository []Repository

// TemplateString returns the markup of the first repository that
// resolves id.
func (c ChainRepository) TemplateString(id string) (string, error) {
	for _, r := range c {
		if s, err := r.TemplateString(id); err == nil {
			return s, nil
		}
	}
	return "", notFound("template.ChainRepository", id)
}

// RegisterTemplateString registers id in the first repository unless any
// repository already resolves it.
func (c ChainRepository) RegisterTemplateString(id, markup string) error {
	const op = "template.ChainRepository.Register"
	if len(c) == 0 {
		return errors.New(op, errors.KindConfig, id, "no repository to register in")
	}
	if _, err := c.TemplateString(id); err == nil {
		return duplicate(op, id)
	}
	return c[0].RegisterTemplateString(id, markup)
}

// IDs returns the union of the ids of every Lister in the chain.
func (c ChainRepository) IDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range c {
		l, ok := r.(Lister)
		if !ok {
			continue
		}
		for _, id := range l.IDs() {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Strings(ids)
	return ids
}
