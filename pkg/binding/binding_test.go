package binding

import (
	stderrors "errors"
	"testing"

	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

func element(t *testing.T, markup string) *dom.Element {
	t.Helper()
	nodes, err := dom.ParseFragment(markup)
	if err != nil || len(nodes) != 1 {
		t.Fatalf("ParseFragment(%q) = %d nodes, %v", markup, len(nodes), err)
	}
	return dom.NewDocument().Element(nodes[0])
}

// countingObject counts writes per property.
type countingObject struct {
	*observable.Object
	writes map[string]int
}

func newCounting() *countingObject {
	return &countingObject{Object: observable.NewObject(), writes: map[string]int{}}
}

func (c *countingObject) Set(name string, v any) error {
	c.writes[name]++
	return c.Object.Set(name, v)
}

func TestOneWayPropagation(t *testing.T) {
	src := observable.FromMap(map[string]any{"x": 1})
	dst := observable.NewObject()

	b, err := New(src, "x", dst, "y")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()

	if dst.Get("y") != 1 {
		t.Fatalf("y = %v after construction, want 1", dst.Get("y"))
	}
	_ = src.Set("x", 2)
	if dst.Get("y") != 2 {
		t.Errorf("y = %v after source change, want 2", dst.Get("y"))
	}
	_ = dst.Set("y", 40)
	if src.Get("x") != 2 {
		t.Errorf("one-way binding wrote back: x = %v", src.Get("x"))
	}
}

func TestTwoWayRoundTrip(t *testing.T) {
	src := newCounting()
	_ = src.Object.Set("x", 1)
	input := element(t, `<input type="text">`)

	b, err := New(src, "x", input, "value", WithMode(TwoWay))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if input.Get("value") != 1 {
		t.Fatalf("value = %v, want 1", input.Get("value"))
	}

	src.writes["x"] = 0
	_ = input.Set("value", 5)
	if err := input.Dispatch("change"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if src.Get("x") != 5 {
		t.Errorf("x = %v after change event, want 5", src.Get("x"))
	}
	if src.writes["x"] != 1 {
		t.Errorf("source written %d times, want 1", src.writes["x"])
	}

	_ = src.Set("x", 9)
	if input.Get("value") != 9 {
		t.Errorf("value = %v after source change, want 9", input.Get("value"))
	}
	if v, _ := input.Attr("value"); v != "9" {
		t.Errorf("value attribute = %q, want 9", v)
	}
}

func TestTwoWayObservableDestination(t *testing.T) {
	src := observable.FromMap(map[string]any{"x": "a"})
	dst := newCounting()

	b, err := New(src, "x", dst, "y", WithMode(TwoWay))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()

	_ = dst.Set("y", "b")
	if src.Get("x") != "b" {
		t.Errorf("x = %v, want b", src.Get("x"))
	}
	dst.writes["y"] = 0
	_ = src.Set("x", "c")
	if dst.Get("y") != "c" || dst.writes["y"] != 1 {
		t.Errorf("y = %v written %d times, want c once", dst.Get("y"), dst.writes["y"])
	}
	_ = dst.Set("other", 1)
	if src.Has("other") {
		t.Error("unrelated destination property reached the source")
	}
}

func TestTwoWayNeedsChangeSource(t *testing.T) {
	src := observable.NewObject()
	if _, err := New(src, "x", element(t, `<div></div>`), "textContent", WithMode(TwoWay)); !stderrors.Is(err, errors.ErrConfig) {
		t.Errorf("div target: err = %v, want config error", err)
	}
	if _, err := New(src, "x", map[string]any{}, "y", WithMode(TwoWay)); !stderrors.Is(err, errors.ErrConfig) {
		t.Errorf("map target: err = %v, want config error", err)
	}
}

func TestNestedPath(t *testing.T) {
	inner := observable.FromMap(map[string]any{"b": 3})
	src := observable.NewObject()
	_ = src.Set("a", inner)
	dst := observable.NewObject()

	b, err := New(src, "a.b", dst, "z")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if b.Child() == nil || b.Child().Path() != "b" {
		t.Fatalf("child binding = %v, want path b", b.Child())
	}
	if dst.Get("z") != 3 {
		t.Fatalf("z = %v, want 3", dst.Get("z"))
	}

	_ = inner.Set("b", 4)
	if dst.Get("z") != 4 {
		t.Errorf("z = %v after nested change, want 4", dst.Get("z"))
	}

	_ = src.Set("a", observable.FromMap(map[string]any{"b": 7}))
	if dst.Get("z") != 7 {
		t.Errorf("z = %v after replacing a, want 7", dst.Get("z"))
	}

	_ = inner.Set("b", 100)
	if dst.Get("z") != 7 {
		t.Errorf("z = %v after mutating the detached object, want 7", dst.Get("z"))
	}
	if inner.PropertyChanged().Len() != 0 {
		t.Errorf("detached object still has %d subscribers", inner.PropertyChanged().Len())
	}
}

func TestAttributeAccessNullRemoves(t *testing.T) {
	src := observable.FromMap(map[string]any{"tip": "hello"})
	el := element(t, `<span title="old"></span>`)
	toNull := &Converter{Name: "null", To: func(any) (any, error) { return nil, nil }}

	b, err := New(src, "tip", el, "title", WithTargetAccess(AttributeAccess), WithConverter(toNull))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if _, has := el.Attr("title"); has {
		t.Error("title should be removed, not set to a string")
	}
}

func TestPropertyAccessNullRejected(t *testing.T) {
	src := observable.FromMap(map[string]any{"label": nil})
	dst := observable.FromMap(map[string]any{"text": "keep"})

	b, err := New(src, "label", dst, "text")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if dst.Get("text") != "keep" {
		t.Errorf("text = %v, want keep", dst.Get("text"))
	}

	conv := &Converter{To: func(v any) (any, error) { return v, nil }}
	b2, err := New(src, "label", dst, "text", WithConverter(conv))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b2.Unbind()
	if dst.Get("text") != nil {
		t.Errorf("text = %v, want converted nil", dst.Get("text"))
	}
}

func TestConverterSkippedWithoutSource(t *testing.T) {
	var calls int
	conv := &Converter{To: func(v any) (any, error) { calls++; return "converted", nil }}
	el := element(t, `<span data-x="1"></span>`)

	b, err := New(nil, "v", el, "data-x", WithTargetAccess(AttributeAccess), WithConverter(conv))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if calls != 0 {
		t.Errorf("converter called %d times without source", calls)
	}
	if _, has := el.Attr("data-x"); has {
		t.Error("unset source should remove the attribute")
	}

	_ = b.SetSource(observable.FromMap(map[string]any{"v": 1}))
	if calls != 1 {
		t.Errorf("converter called %d times, want 1", calls)
	}
	if v, _ := el.Attr("data-x"); v != "converted" {
		t.Errorf("data-x = %q, want converted", v)
	}
}

func TestUnbind(t *testing.T) {
	src := observable.FromMap(map[string]any{"a": observable.FromMap(map[string]any{"b": 1})})
	dst := observable.NewObject()
	b, err := New(src, "a.b", dst, "v")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inner := src.Get("a").(*observable.Object)

	b.Unbind()
	b.Unbind()

	_ = src.Set("a", nil)
	_ = inner.Set("b", 2)
	if dst.Get("v") != 1 {
		t.Errorf("v = %v after unbind, want 1", dst.Get("v"))
	}
	if src.PropertyChanged().Len() != 0 || inner.PropertyChanged().Len() != 0 {
		t.Error("Unbind should release every subscription")
	}
	if !b.Unbound() || !b.Child().Unbound() {
		t.Error("binding and child should report unbound")
	}
}

func TestValidation(t *testing.T) {
	dst := observable.NewObject()
	tests := []struct {
		name     string
		path     string
		dest     any
		destProp string
	}{
		{"empty path", "", dst, "v"},
		{"nil destination", "x", nil, "v"},
		{"empty destination property", "x", dst, ""},
		{"empty segment", "a..b", dst, "v"},
		{"trailing dot", "a.", dst, "v"},
	}
	for _, tt := range tests {
		if _, err := New(nil, tt.path, tt.dest, tt.destProp); !stderrors.Is(err, errors.ErrMisuse) {
			t.Errorf("%s: err = %v, want misuse error", tt.name, err)
		}
	}
}

func TestHandlerErrorsPropagate(t *testing.T) {
	src := observable.FromMap(map[string]any{"x": "1"})
	dst := observable.NewObject()
	b, err := New(src, "x", dst, "y", WithConverter(&Converter{To: toInt}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if dst.Get("y") != 1 {
		t.Fatalf("y = %v, want 1", dst.Get("y"))
	}
	if err := src.Set("x", "nope"); !stderrors.Is(err, errors.ErrMisuse) {
		t.Errorf("Set = %v, want conversion error", err)
	}
}

type profile struct {
	Name string
	Age  int
}

func TestPlainStructSource(t *testing.T) {
	p := &profile{Name: "ada", Age: 36}
	dst := observable.NewObject()
	b, err := New(p, "name", dst, "v")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Unbind()
	if dst.Get("v") != "ada" {
		t.Errorf("v = %v, want ada", dst.Get("v"))
	}

	input := element(t, `<input>`)
	b2, err := New(p, "Age", input, "value", WithMode(TwoWay), WithConverter(&Converter{To: toInt, From: toInt}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b2.Unbind()
	_ = input.Set("value", "41")
	_ = input.Dispatch("change")
	if p.Age != 41 {
		t.Errorf("Age = %d, want 41", p.Age)
	}
}

// resettable has a niladic method that must not run when read.
type resettable struct {
	Count  int
	resets int
}

func (r *resettable) Reset() int {
	r.resets++
	r.Count = 0
	return r.resets
}

func TestReadPropertyIgnoresMethods(t *testing.T) {
	r := &resettable{Count: 3}
	if got := ReadProperty(r, "reset"); got != observable.Undefined {
		t.Errorf("ReadProperty(reset) = %v, want undefined", got)
	}
	if r.resets != 0 || r.Count != 3 {
		t.Errorf("reading a property ran Reset: resets=%d count=%d", r.resets, r.Count)
	}
	if got := ReadProperty(r, "count"); got != 3 {
		t.Errorf("ReadProperty(count) = %v, want 3", got)
	}
	var nilR *resettable
	if got := ReadProperty(nilR, "reset"); got != observable.Undefined {
		t.Errorf("ReadProperty on nil = %v, want undefined", got)
	}
}

func TestReadProperty(t *testing.T) {
	var nilProfile *profile
	tests := []struct {
		name string
		obj  any
		prop string
		want any
	}{
		{"nil", nil, "x", observable.Undefined},
		{"undefined", observable.Undefined, "x", observable.Undefined},
		{"map hit", map[string]any{"x": 1}, "x", 1},
		{"map miss", map[string]any{}, "x", observable.Undefined},
		{"struct field", profile{Name: "a"}, "name", "a"},
		{"nil pointer", nilProfile, "name", observable.Undefined},
		{"not a struct", 42, "x", observable.Undefined},
	}
	for _, tt := range tests {
		if got := ReadProperty(tt.obj, tt.prop); got != tt.want {
			t.Errorf("%s: ReadProperty = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestAttributeAccessNeedsAttributes(t *testing.T) {
	if err := AttributeAccess.Set(observable.NewObject(), "title", "x"); !stderrors.Is(err, errors.ErrMisuse) {
		t.Errorf("Set = %v, want misuse error", err)
	}
	el := element(t, `<a href="/x"></a>`)
	if v, _ := AttributeAccess.Get(el, "href"); v != "/x" {
		t.Errorf("href = %v, want /x", v)
	}
	if v, _ := AttributeAccess.Get(el, "title"); v != nil {
		t.Errorf("missing attribute = %v, want nil", v)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"oneway": OneWay, "TwoWay": TwoWay, " ONEWAY ": OneWay} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v, want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("sideways"); !stderrors.Is(err, errors.ErrConfig) {
		t.Errorf("ParseMode(sideways) = %v, want config error", err)
	}
}
