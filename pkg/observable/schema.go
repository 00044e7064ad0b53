package observable

import "fmt"

// Hook is invoked around a property change with the object's owner.
type Hook func(owner any, old, new any)

// Descriptor describes one declared property.
type Descriptor struct {
	name       string
	def        func() any
	onChanging Hook
	onChanged  Hook
}

// Name returns the property name.
func (d *Descriptor) Name() string { return d.name }

// Option configures a Descriptor.
type Option func(*Descriptor)

// OnChanging registers a hook run before the new value is committed.
func OnChanging(h Hook) Option {
	return func(d *Descriptor) { d.onChanging = h }
}

// OnChanged registers a hook run after the change event was published.
func OnChanged(h Hook) Option {
	return func(d *Descriptor) { d.onChanged = h }
}

// Schema is the declarative property table of one object type. A schema
// inherits the descriptors of its parent; a child may not redeclare them.
//
// Schemas are built once at package init and are read-only afterwards.
type Schema struct {
	name   string
	parent *Schema
	props  map[string]*Descriptor
	order  []string
}

// NewSchema creates a schema named after the type it describes.
func NewSchema(name string, parent *Schema) *Schema {
	return &Schema{
		name:   name,
		parent: parent,
		props:  make(map[string]*Descriptor),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Define declares a property. def produces the per-instance default on the
// first read; a nil def defaults to nil. Redeclaring a name panics.
func (s *Schema) Define(name string, def func() any, opts ...Option) *Descriptor {
	if name == "" || name == AnyProperty {
		panic(fmt.Sprintf("observable: invalid property name %q in %s", name, s.name))
	}
	if s.Lookup(name) != nil {
		panic(fmt.Sprintf("observable: property %q already defined in %s", name, s.name))
	}
	if def == nil {
		def = func() any { return nil }
	}
	d := &Descriptor{name: name, def: def}
	for _, opt := range opts {
		opt(d)
	}
	s.props[name] = d
	s.order = append(s.order, name)
	return d
}

// Lookup finds a descriptor in s or its ancestors.
func (s *Schema) Lookup(name string) *Descriptor {
	for cur := s; cur != nil; cur = cur.parent {
		if d, ok := cur.props[name]; ok {
			return d
		}
	}
	return nil
}

// Names returns every property name, ancestors first.
func (s *Schema) Names() []string {
	var names []string
	if s.parent != nil {
		names = s.parent.Names()
	}
	return append(names, s.order...)
}

// Property is a typed accessor for a declared property.
type Property[T any] struct {
	d *Descriptor
}

// Define declares a typed property on s.
//
//	var Label = observable.Define(schema, "label", func() string { return "" })
//	Label.Set(obj, "Save")
func Define[T any](s *Schema, name string, def func() T, opts ...Option) Property[T] {
	var wrapped func() any
	if def != nil {
		wrapped = func() any { return def() }
	} else {
		wrapped = func() any { var zero T; return zero }
	}
	return Property[T]{d: s.Define(name, wrapped, opts...)}
}

// Name returns the property name.
func (p Property[T]) Name() string { return p.d.name }

// Get reads the property from o. A value of another type yields the zero
// value of T.
func (p Property[T]) Get(o Reader) T {
	v, _ := o.Get(p.d.name).(T)
	return v
}

// Set writes the property on o.
func (p Property[T]) Set(o Writer, v T) error {
	return o.Set(p.d.name, v)
}
