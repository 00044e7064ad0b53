// Package observable provides objects whose named properties publish a
// change notification whenever their value changes.
//
// Property sets follow a fixed sequence: the changing hook, the commit, the
// change event carrying the property name, then the changed hook. Setting a
// property to the value it already holds does nothing.
package observable

import (
	"reflect"
	"sort"

	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/event"
)

// AnyProperty is published when the change is not tied to a single name.
const AnyProperty = "*"

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined is the value of a property that was never set and has no
// default, and of a path read through an absent source. nil is a set,
// empty value.
var Undefined any = undefined{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Reader reads named properties.
type Reader interface {
	Get(name string) any
}

// Writer writes named properties.
type Writer interface {
	Set(name string, value any) error
}

// Notifier exposes the change stream.
type Notifier interface {
	PropertyChanged() *event.Source[string]
}

// Observable is an object whose properties notify on change.
type Observable interface {
	Reader
	Writer
	Notifier
}

// Object stores property values and publishes their changes.
//
// Object is NOT thread-safe. It must only be used from the UI goroutine.
type Object struct {
	schema  *Schema
	owner   any
	values  map[string]any
	changed event.Source[string]
}

// New creates an object for schema. owner is passed to the schema hooks;
// a nil owner means the object itself.
func New(schema *Schema, owner any) *Object {
	o := &Object{schema: schema, owner: owner, values: make(map[string]any)}
	if o.owner == nil {
		o.owner = o
	}
	return o
}

// NewObject creates an open object that accepts any property name.
func NewObject() *Object {
	return New(nil, nil)
}

// FromMap creates an open object holding the entries of m. Nested maps
// become nested objects so that dotted binding paths can observe them.
func FromMap(m map[string]any) *Object {
	o := NewObject()
	for k, v := range m {
		o.values[k] = fromValue(v)
	}
	return o
}

func fromValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = fromValue(e)
		}
		return out
	default:
		return v
	}
}

// Schema returns the object's schema, nil for open objects.
func (o *Object) Schema() *Schema { return o.schema }

// PropertyChanged returns the stream of changed property names.
func (o *Object) PropertyChanged() *event.Source[string] { return &o.changed }

// Get returns the value of name. Declared properties are initialised from
// their default factory on first read.
func (o *Object) Get(name string) any {
	if v, ok := o.values[name]; ok {
		return v
	}
	if o.schema == nil {
		return Undefined
	}
	d := o.schema.Lookup(name)
	if d == nil {
		return Undefined
	}
	v := d.def()
	o.values[name] = v
	return v
}

// Set assigns name. Errors returned by change subscribers are returned and
// the changed hook is skipped.
func (o *Object) Set(name string, value any) error {
	var d *Descriptor
	if o.schema != nil {
		if d = o.schema.Lookup(name); d == nil {
			return errors.New("observable.Set", errors.KindMisuse, name,
				"%s has no property %q", o.schema.Name(), name)
		}
	}
	old := o.Get(name)
	if Same(old, value) {
		return nil
	}
	if d != nil && d.onChanging != nil {
		d.onChanging(o.owner, old, value)
	}
	o.values[name] = value
	if err := o.changed.Publish(name); err != nil {
		return err
	}
	if d != nil && d.onChanged != nil {
		d.onChanged(o.owner, old, value)
	}
	return nil
}

// Has reports whether name currently holds a value.
func (o *Object) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Keys returns the names holding a value, sorted.
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Same reports whether a and b are the same value: equal for comparable
// values, the same reference for maps, slices, funcs and channels.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return equal(a, b)
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	// Non-comparable structs and arrays have value semantics and no
	// identity; treat every assignment as a change.
	return false
}

// equal compares a and b with ==. Structs and arrays whose interface fields
// hold uncomparable values make == panic; those count as different.
func equal(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
