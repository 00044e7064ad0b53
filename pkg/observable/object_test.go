package observable

import (
	stderrors "errors"
	"testing"

	"github.com/go-drift/stencil/pkg/errors"
)

func TestSetUnchangedIsNoOp(t *testing.T) {
	var hooks int
	s := NewSchema("test", nil)
	s.Define("count", func() any { return 1 },
		OnChanging(func(any, any, any) { hooks++ }),
		OnChanged(func(any, any, any) { hooks++ }),
	)
	o := New(s, nil)
	var events int
	o.PropertyChanged().Subscribe(func(string) error { events++; return nil })

	if err := o.Set("count", 1); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if events != 0 || hooks != 0 {
		t.Errorf("events=%d hooks=%d, want 0 and 0", events, hooks)
	}
}

func TestHookOrdering(t *testing.T) {
	var trace []string
	s := NewSchema("test", nil)
	var o *Object
	s.Define("label", func() any { return "A" },
		OnChanging(func(owner any, old, new any) {
			if owner != o {
				t.Errorf("owner = %v, want the object", owner)
			}
			trace = append(trace, "changing:"+old.(string)+"->"+new.(string)+" value="+o.Get("label").(string))
		}),
		OnChanged(func(owner any, old, new any) {
			trace = append(trace, "changed:"+old.(string)+"->"+new.(string))
		}),
	)
	o = New(s, nil)
	o.PropertyChanged().Subscribe(func(name string) error {
		trace = append(trace, "event:"+name+" value="+o.Get(name).(string))
		return nil
	})

	if err := o.Set("label", "B"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	want := []string{
		"changing:A->B value=A",
		"event:label value=B",
		"changed:A->B",
	}
	if len(trace) != len(want) {
		t.Fatalf("trace = %v, want %v", trace, want)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("trace[%d] = %q, want %q", i, trace[i], want[i])
		}
	}
}

func TestDefaultFactoryPerInstance(t *testing.T) {
	s := NewSchema("test", nil)
	items := Define(s, "items", func() map[string]int { return map[string]int{} })

	a, b := New(s, nil), New(s, nil)
	items.Get(a)["x"] = 1

	if _, ok := items.Get(b)["x"]; ok {
		t.Error("default values must not be shared between instances")
	}
	if items.Get(a)["x"] != 1 {
		t.Error("default value should be stored after the first read")
	}
}

func TestSchemaInheritance(t *testing.T) {
	base := NewSchema("base", nil)
	base.Define("enabled", func() any { return true })
	child := NewSchema("child", base)
	child.Define("text", func() any { return "" })

	o := New(child, nil)
	if o.Get("enabled") != true {
		t.Errorf("inherited default = %v, want true", o.Get("enabled"))
	}
	names := child.Names()
	if len(names) != 2 || names[0] != "enabled" || names[1] != "text" {
		t.Errorf("Names() = %v, want [enabled text]", names)
	}
}

func TestRedefinePanics(t *testing.T) {
	base := NewSchema("base", nil)
	base.Define("enabled", nil)
	child := NewSchema("child", base)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on redeclared property")
		}
	}()
	child.Define("enabled", nil)
}

func TestUnknownPropertyIsMisuse(t *testing.T) {
	o := New(NewSchema("closed", nil), nil)
	if err := o.Set("nope", 1); !stderrors.Is(err, errors.ErrMisuse) {
		t.Errorf("Set(unknown) = %v, want misuse error", err)
	}
	if !IsUndefined(o.Get("nope")) {
		t.Errorf("Get(unknown) = %v, want Undefined", o.Get("nope"))
	}
}

func TestOpenObject(t *testing.T) {
	o := NewObject()
	if !IsUndefined(o.Get("x")) {
		t.Errorf("unset property = %v, want Undefined", o.Get("x"))
	}
	var got []string
	o.PropertyChanged().Subscribe(func(n string) error { got = append(got, n); return nil })

	_ = o.Set("x", 1)
	_ = o.Set("x", nil)
	_ = o.Set("x", nil)

	if len(got) != 2 {
		t.Errorf("events = %v, want 2 events", got)
	}
	if !o.Has("x") || o.Get("x") != nil {
		t.Errorf("x = %v, want nil", o.Get("x"))
	}
}

func TestSubscriberErrorSkipsChangedHook(t *testing.T) {
	var changed bool
	s := NewSchema("test", nil)
	s.Define("v", nil, OnChanged(func(any, any, any) { changed = true }))
	o := New(s, nil)
	boom := stderrors.New("boom")
	o.PropertyChanged().Subscribe(func(string) error { return boom })

	if err := o.Set("v", 1); err != boom {
		t.Errorf("Set = %v, want %v", err, boom)
	}
	if changed {
		t.Error("changed hook should not run when notification fails")
	}
	if o.Get("v") != 1 {
		t.Error("value should be committed before notification")
	}
}

func TestFromMap(t *testing.T) {
	o := FromMap(map[string]any{
		"label": "Save",
		"user":  map[string]any{"name": "ada"},
	})
	user, ok := o.Get("user").(*Object)
	if !ok {
		t.Fatalf("nested map = %T, want *Object", o.Get("user"))
	}
	if user.Get("name") != "ada" {
		t.Errorf("user.name = %v, want ada", user.Get("name"))
	}
	if keys := o.Keys(); len(keys) != 2 || keys[0] != "label" {
		t.Errorf("Keys() = %v", keys)
	}
}

type tagged struct {
	Name string
	Tags any
}

func TestSame(t *testing.T) {
	m := map[string]int{}
	sl := []int{1, 2}
	p := &struct{ X int }{}
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"equal ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"int vs float", 1, 1.0, false},
		{"nil nil", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"same map", m, m, true},
		{"distinct maps", map[string]int{}, map[string]int{}, false},
		{"same slice", sl, sl, true},
		{"subslice", sl, sl[:1], false},
		{"same pointer", p, p, true},
		{"distinct pointers", &struct{ X int }{}, &struct{ X int }{}, false},
		{"undefined", Undefined, Undefined, true},
		{"equal structs", tagged{Name: "a", Tags: 1}, tagged{Name: "a", Tags: 1}, true},
		{"structs holding slices", tagged{Tags: []string{"a"}}, tagged{Tags: []string{"a"}}, false},
		{"arrays holding maps", [1]any{m}, [1]any{m}, false},
	}
	for _, tt := range tests {
		if got := Same(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: Same = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSetStructHoldingSlice(t *testing.T) {
	o := NewObject()
	var events int
	o.PropertyChanged().Subscribe(func(string) error {
		events++
		return nil
	})
	if err := o.Set("m", tagged{Tags: []string{"a"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := o.Set("m", tagged{Tags: []string{"b"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if events != 2 {
		t.Errorf("got %d change events, want 2", events)
	}
	if got := o.Get("m").(tagged).Tags.([]string)[0]; got != "b" {
		t.Errorf("m.Tags = %q, want b", got)
	}
}
