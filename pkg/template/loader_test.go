package template

import (
	stderrors "errors"
	"testing"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/binding"
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

var (
	buttonSchema = observable.NewSchema("test.Button", control.BaseSchema)
	buttonText   = observable.Define(buttonSchema, "text", func() string { return "" })
)

type testButton struct {
	control.Templated
}

func newTestButton(h *control.Host, id string) (control.Control, error) {
	if id == "" {
		id = "child"
	}
	b := &testButton{}
	if err := b.Init(b, h, buttonSchema, id); err != nil {
		return nil, err
	}
	return b, nil
}

type testLabel struct {
	control.Plain
}

func newTestLabel(h *control.Host) (control.Control, error) {
	l := &testLabel{}
	root := &html.Node{Type: html.ElementNode, Data: "span"}
	if err := l.Init(l, h, nil, root); err != nil {
		return nil, err
	}
	return l, nil
}

type env struct {
	host   *control.Host
	repo   *NamespaceRepository
	loader *Loader
}

func newEnv(t *testing.T, templates map[string]string) *env {
	t.Helper()
	repo := NewNamespaceRepository()
	for id, m := range templates {
		if err := repo.RegisterTemplateString(id, m); err != nil {
			t.Fatalf("Register(%s): %v", id, err)
		}
	}
	converters := binding.NewRegistry()
	if err := binding.RegisterBuiltins(converters); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	host := &control.Host{Document: dom.NewDocument(), Controls: control.NewRegistry()}
	loader := NewLoader(repo, host)
	host.Templates = loader
	host.Bindings = NewExtractor(host, converters)

	_ = host.Controls.RegisterTemplated("Ns.ChildButton", newTestButton)
	_ = host.Controls.Register("Ns.Label", newTestLabel)
	return &env{host: host, repo: repo, loader: loader}
}

func (e *env) button(t *testing.T, id string) *testButton {
	t.Helper()
	c, err := newTestButton(e.host, id)
	if err != nil {
		t.Fatalf("newTestButton(%s): %v", id, err)
	}
	return c.(*testButton)
}

func TestSingleRoot(t *testing.T) {
	e := newEnv(t, map[string]string{
		"one":     "  <!-- note -->\n<div><p>a</p><p>b</p></div>\n",
		"two":     "<div></div><div></div>",
		"none":    "<!-- nothing -->",
		"text":    "hello <div></div>",
		"rootPh":  `<div data-control="Ns.Label"></div>`,
		"tableTr": `<tr><td>cell</td></tr>`,
	})

	root, err := e.loader.LoadTemplate("one")
	if err != nil {
		t.Fatalf("LoadTemplate(one): %v", err)
	}
	if root.Parent != nil || root.Data != "div" {
		t.Errorf("root = <%s> with parent %v, want detached <div>", root.Data, root.Parent)
	}

	for _, id := range []string{"two", "none", "text", "rootPh", "missing"} {
		if _, err := e.loader.LoadTemplate(id); !stderrors.Is(err, errors.ErrConfig) {
			t.Errorf("LoadTemplate(%s) = %v, want config error", id, err)
		}
	}

	tr, err := e.loader.LoadTemplate("tableTr")
	if err != nil || tr.Data != "tr" {
		t.Errorf("LoadTemplate(tableTr) = %v, %v, want <tr>", tr, err)
	}
}

func TestCacheIsolation(t *testing.T) {
	e := newEnv(t, map[string]string{"X": `<ul class="list"><li>1</li></ul>`})

	a, err := e.loader.LoadTemplate("X")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if !e.loader.Cached("X") {
		t.Error("template should be cached after the first load")
	}
	b, _ := e.loader.LoadTemplate("X")
	if a == b {
		t.Fatal("each load must return a distinct tree")
	}
	ra, _ := dom.Render(a)
	rb, _ := dom.Render(b)
	if ra != rb {
		t.Errorf("trees differ: %s vs %s", ra, rb)
	}

	dom.SetAttr(a, "class", "changed")
	c, _ := e.loader.LoadTemplate("X")
	if v, _ := dom.Attr(c, "class"); v != "list" {
		t.Errorf("mutating an instance leaked into the cache: class = %q", v)
	}

	e.loader.Purge()
	if e.loader.Cached("X") {
		t.Error("Purge should empty the cache")
	}
}

func TestSelfReferentialTemplate(t *testing.T) {
	e := newEnv(t, map[string]string{
		"A":     `<div><div data-control="Ns.ChildButton" data-control-template-id="A"></div></div>`,
		"child": `<button>ok</button>`,
	})
	if _, err := e.loader.LoadTemplate("A"); !stderrors.Is(err, errors.ErrRecursion) {
		t.Fatalf("LoadTemplate(A) = %v, want recursion error", err)
	}
	if len(e.loader.loading) != 0 || len(e.loader.resolving) != 0 {
		t.Errorf("guards not cleared: %v %v", e.loader.loading, e.loader.resolving)
	}
	if _, err := e.loader.LoadTemplate("child"); err != nil {
		t.Errorf("unrelated load after failure: %v", err)
	}
	if _, err := e.loader.LoadTemplate("A"); !stderrors.Is(err, errors.ErrRecursion) {
		t.Errorf("second LoadTemplate(A) = %v, want recursion error", err)
	}
}

type looping struct{ control.Plain }

func TestControlSelfInstantiation(t *testing.T) {
	e := newEnv(t, map[string]string{
		"outer": `<div><i data-control="Ns.Loop"></i></div>`,
		"inner": `<div><i data-control="Ns.Loop"></i></div>`,
	})
	_ = e.host.Controls.Register("Ns.Loop", func(h *control.Host) (control.Control, error) {
		root, err := h.Templates.LoadTemplate("inner")
		if err != nil {
			return nil, err
		}
		l := &looping{}
		return l, l.Init(l, h, nil, root)
	})
	if _, err := e.loader.LoadTemplate("outer"); !stderrors.Is(err, errors.ErrRecursion) {
		t.Errorf("LoadTemplate = %v, want recursion error", err)
	}
	if len(e.loader.resolving) != 0 {
		t.Errorf("control guard not cleared: %v", e.loader.resolving)
	}
}

func TestPlaceholderResolution(t *testing.T) {
	e := newEnv(t, map[string]string{
		"picker": `<div><div data-control="Ns.ChildButton" data-name="ok" class="primary"></div></div>`,
		"child":  `<button><span data-control="Ns.Label"></span></button>`,
	})
	root, err := e.loader.LoadTemplate("picker")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	child := dom.FirstElementChild(root)
	if child == nil || child.Data != "button" {
		t.Fatalf("child = %v, want the button root", child)
	}
	if _, ok := dom.Attr(child, control.AttrControl); ok {
		t.Error("resolved node still carries the control attribute")
	}
	if child.Parent != root {
		t.Error("control root should replace the placeholder in its parent")
	}
	c, ok := e.host.ControlAt(child).(*testButton)
	if !ok {
		t.Fatalf("attached control = %T, want *testButton", e.host.ControlAt(child))
	}
	if c.RootElement() != child || c.TemplateID() != "child" {
		t.Errorf("control root or template id mismatch: %q", c.TemplateID())
	}
	for k, want := range map[string]string{control.AttrName: "ok", "class": "primary"} {
		if v, _ := dom.Attr(child, k); v != want {
			t.Errorf("%s = %q, want %q", k, v, want)
		}
	}
	if _, ok := e.host.ControlAt(dom.FirstElementChild(child)).(*testLabel); !ok {
		t.Error("plain control nested in the child template was not resolved")
	}
}

func TestPlaceholderErrors(t *testing.T) {
	e := newEnv(t, map[string]string{
		"children": `<div><div data-control="Ns.Label"><b>x</b></div></div>`,
		"unknown":  `<div><div data-control="Ns.Missing"></div></div>`,
		"rootless": `<div><div data-control="Ns.Rootless"></div></div>`,
	})
	_ = e.host.Controls.Register("Ns.Rootless", func(*control.Host) (control.Control, error) {
		return &testLabel{}, nil
	})
	tests := []struct {
		id   string
		want error
	}{
		{"children", errors.ErrConfig},
		{"unknown", errors.ErrConfig},
		{"rootless", errors.ErrContract},
	}
	for _, tt := range tests {
		if _, err := e.loader.LoadTemplate(tt.id); !stderrors.Is(err, tt.want) {
			t.Errorf("LoadTemplate(%s) = %v, want %v", tt.id, err, tt.want)
		}
	}
}

func TestTemplatedButtonBinding(t *testing.T) {
	e := newEnv(t, map[string]string{
		"btn": `<button data-binding="textContent:model.label">Label</button>`,
	})
	b := e.button(t, "btn")
	if got := dom.TextContent(b.RootElement()); got != "Label" {
		t.Errorf("text without model = %q, want Label", got)
	}

	model := observable.FromMap(map[string]any{"label": "Save"})
	if err := b.SetModel(model); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if got := dom.TextContent(b.RootElement()); got != "Save" {
		t.Errorf("text = %q, want Save", got)
	}
	_ = model.Set("label", "Cancel")
	if got := dom.TextContent(b.RootElement()); got != "Cancel" {
		t.Errorf("text = %q, want Cancel", got)
	}
	if _, ok := dom.Attr(b.RootElement(), control.AttrBinding); ok {
		t.Error("binding directive should be stripped")
	}
}
