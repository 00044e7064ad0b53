package template

import (
	stderrors "errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/binding"
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
)

// Target prefixes recognised in directive clauses when the element itself
// is the target.
const (
	StylePrefix     = "style."
	AttributePrefix = "attr-"
	ControlPrefix   = "control."
)

// Extractor creates the bindings declared by directive attributes:
//
//	data-binding="textContent:label;converter=stencil.String"
//	data-control-binding="disabled:busy;mode=oneway"
//	data-options="attr-role:button, style.cursor:pointer"
//
// data-binding paths are read from the control's model, data-control-binding
// paths from the control itself, and data-options values are written once.
// Every directive attribute is removed once read.
type Extractor struct {
	host       *control.Host
	converters *binding.Registry
}

// NewExtractor creates an extractor resolving targets in host and
// converter names in converters.
func NewExtractor(host *control.Host, converters *binding.Registry) *Extractor {
	return &Extractor{host: host, converters: converters}
}

// Extract processes the subtree of root owned by c. The subtrees of nested
// controls are skipped, but directives on their roots are processed and
// target the nested control. On error every binding created so far is
// unbound.
func (x *Extractor) Extract(c control.Control, root *html.Node) ([]*binding.Binding, error) {
	var (
		out []*binding.Binding
		err error
	)
	dom.Walk(root, func(n *html.Node) bool {
		if err != nil || n.Type != html.ElementNode {
			return err == nil
		}
		hosted := x.host.ControlAt(n)
		nested := hosted != nil && hosted != c

		for _, attr := range []string{control.AttrBinding, control.AttrControlBinding, control.AttrOptions} {
			spec, ok := dom.Attr(n, attr)
			if !ok {
				continue
			}
			dom.RemoveAttr(n, attr)
			var bs []*binding.Binding
			if bs, err = x.directive(c, n, attr, spec); err != nil {
				return false
			}
			out = append(out, bs...)
		}
		return n == root || !nested
	})
	if err != nil {
		for _, b := range out {
			b.Unbind()
		}
		return nil, err
	}
	return out, nil
}

func (x *Extractor) directive(c control.Control, n *html.Node, attr, spec string) ([]*binding.Binding, error) {
	var out []*binding.Binding
	for _, clause := range strings.Split(spec, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		var (
			b   *binding.Binding
			err error
		)
		switch attr {
		case control.AttrOptions:
			err = x.option(c, n, clause)
		default:
			b, err = x.bind(c, n, attr, clause)
		}
		if err != nil {
			for _, b := range out {
				b.Unbind()
			}
			return nil, clauseError(attr, clause, err)
		}
		if b != nil {
			out = append(out, b)
		}
	}
	return out, nil
}

// clause is a parsed "target:value;key=value" directive clause.
type clause struct {
	target string
	value  string
	mode   binding.Mode
	conv   *binding.Converter
}

func (x *Extractor) parseClause(text string, strict bool) (*clause, error) {
	parts := strings.Split(text, ";")
	head := parts[0]
	cl := &clause{}
	if strict {
		tv := strings.Split(head, ":")
		if len(tv) != 2 {
			return nil, errors.New("template.Extract", errors.KindConfig, text,
				"expected target:source, got %q", head)
		}
		cl.target, cl.value = strings.TrimSpace(tv[0]), strings.TrimSpace(tv[1])
		if cl.value == "" {
			return nil, errors.New("template.Extract", errors.KindConfig, text, "missing source path")
		}
	} else {
		t, v, ok := strings.Cut(head, ":")
		if !ok {
			return nil, errors.New("template.Extract", errors.KindConfig, text,
				"expected target:value, got %q", head)
		}
		cl.target, cl.value = strings.TrimSpace(t), strings.TrimSpace(v)
	}
	if cl.target == "" {
		return nil, errors.New("template.Extract", errors.KindConfig, text, "missing target name")
	}

	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, errors.New("template.Extract", errors.KindConfig, text,
				"expected key=value, got %q", p)
		}
		v = strings.TrimSpace(v)
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "mode":
			m, err := binding.ParseMode(v)
			if err != nil {
				return nil, err
			}
			cl.mode = m
		case "converter":
			if x.converters == nil {
				return nil, errors.New("template.Extract", errors.KindConfig, v, "no converter registry")
			}
			conv, err := x.converters.Lookup(v)
			if err != nil {
				return nil, err
			}
			cl.conv = conv
		}
	}
	return cl, nil
}

// target resolves a clause target on n to the object, property and
// access strategy to use.
func (x *Extractor) target(c control.Control, n *html.Node, name string) (any, string, binding.TargetAccess, error) {
	hosted := x.host.ControlAt(n)
	if hosted != nil && hosted != c {
		return hosted, name, binding.PropertyAccess, nil
	}
	el := x.host.Element(n)
	var (
		obj    any = el
		prop       = name
		access     = binding.PropertyAccess
	)
	switch {
	case strings.HasPrefix(name, StylePrefix):
		obj, prop = el.Style(), name[len(StylePrefix):]
	case strings.HasPrefix(name, AttributePrefix):
		prop, access = name[len(AttributePrefix):], binding.AttributeAccess
	case strings.HasPrefix(name, ControlPrefix):
		if hosted == nil {
			return nil, "", nil, errors.New("template.Extract", errors.KindConfig, name,
				"<%s> hosts no control", n.Data)
		}
		obj, prop = hosted, name[len(ControlPrefix):]
	}
	if prop == "" {
		return nil, "", nil, errors.New("template.Extract", errors.KindConfig, name, "missing target name")
	}
	return obj, prop, access, nil
}

func (x *Extractor) bind(c control.Control, n *html.Node, attr, text string) (*binding.Binding, error) {
	cl, err := x.parseClause(text, true)
	if err != nil {
		return nil, err
	}
	obj, prop, access, err := x.target(c, n, cl.target)
	if err != nil {
		return nil, err
	}
	path := cl.value
	if attr == control.AttrBinding && path != "model" && !strings.HasPrefix(path, "model.") {
		path = "model." + path
	}
	return binding.New(c, path, obj, prop,
		binding.WithMode(cl.mode),
		binding.WithConverter(cl.conv),
		binding.WithTargetAccess(access),
	)
}

func (x *Extractor) option(c control.Control, n *html.Node, text string) error {
	cl, err := x.parseClause(text, false)
	if err != nil {
		return err
	}
	obj, prop, access, err := x.target(c, n, cl.target)
	if err != nil {
		return err
	}
	var value any = cl.value
	if cl.conv != nil {
		if value, err = cl.conv.Forward(value); err != nil {
			return err
		}
	}
	return access.Set(obj, prop, value)
}

// clauseError annotates err with the clause it came from, keeping its kind.
func clauseError(attr, clause string, err error) error {
	kind := errors.KindConfig
	var e *errors.Error
	if stderrors.As(err, &e) {
		kind = e.Kind
	}
	return errors.Wrap("template.Extract", kind, attr+`="`+clause+`"`, err)
}
