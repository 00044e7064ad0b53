// Package binding keeps a destination property synchronized with a source
// property path.
//
// A path such as "model.user.name" is split on dots: the binding listens to
// the first segment on its source and hands that value down as the source
// of a child binding for the rest of the path. Only the leaf binding writes
// to the destination, and only the leaf listens to the destination in
// two-way mode.
//
// When no source is present the converter is skipped and the unset value
// is handed to the target access unconverted, so property targets keep
// their value and attribute targets lose their attribute.
package binding

import (
	"strings"

	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/event"
	"github.com/go-drift/stencil/pkg/observable"
)

// Option configures a Binding.
type Option func(*Binding)

// WithMode sets the binding direction. The default is OneWay.
func WithMode(m Mode) Option {
	return func(b *Binding) { b.mode = m }
}

// WithConverter sets the value converter.
func WithConverter(c *Converter) Option {
	return func(b *Binding) { b.conv = c }
}

// WithTargetAccess sets how the destination is read and written. The
// default is PropertyAccess.
func WithTargetAccess(a TargetAccess) Option {
	return func(b *Binding) {
		if a != nil {
			b.access = a
		}
	}
}

// Binding is a directed synchronization edge from a source property path to
// one destination property.
//
// Binding is NOT thread-safe. It must only be used from the UI goroutine.
type Binding struct {
	source   any
	path     string
	prop     string
	dest     any
	destProp string
	mode     Mode
	conv     *Converter
	access   TargetAccess
	child    *Binding

	updating bool
	unbound  bool
	srcReg   *event.Registration
	destReg  *event.Registration
}

// New creates a binding and immediately synchronizes the destination with
// source. source may be nil and supplied later with SetSource.
func New(source any, sourcePath string, dest any, destProp string, opts ...Option) (*Binding, error) {
	const op = "binding.New"
	if sourcePath == "" {
		return nil, errors.New(op, errors.KindMisuse, destProp, "source path is required")
	}
	if dest == nil {
		return nil, errors.New(op, errors.KindMisuse, sourcePath, "destination is required")
	}
	if destProp == "" {
		return nil, errors.New(op, errors.KindMisuse, sourcePath, "destination property is required")
	}
	segs := strings.Split(sourcePath, ".")
	for _, s := range segs {
		if s == "" {
			return nil, errors.New(op, errors.KindMisuse, sourcePath, "empty segment in source path")
		}
	}

	b := &Binding{
		path:     sourcePath,
		prop:     segs[0],
		dest:     dest,
		destProp: destProp,
		access:   PropertyAccess,
	}
	for _, opt := range opts {
		opt(b)
	}

	if len(segs) > 1 {
		child, err := New(nil, strings.Join(segs[1:], "."), dest, destProp, opts...)
		if err != nil {
			return nil, err
		}
		b.child = child
	} else if b.mode == TwoWay {
		if err := b.attachDestination(); err != nil {
			return nil, err
		}
	}

	if err := b.SetSource(source); err != nil {
		b.Unbind()
		return nil, err
	}
	return b, nil
}

func (b *Binding) attachDestination() error {
	switch d := b.dest.(type) {
	case observable.Notifier:
		b.destReg = d.PropertyChanged().Subscribe(func(name string) error {
			if name != b.destProp && name != observable.AnyProperty {
				return nil
			}
			return b.UpdateSource()
		})
		return nil
	case *dom.Element:
		if !d.SupportsChange() {
			return errors.New("binding.New", errors.KindConfig, b.path,
				"two-way binding target <%s> raises no change events", d.Tag())
		}
		b.destReg = d.On("change", func(*dom.Event) error {
			return b.UpdateSource()
		})
		return nil
	}
	return errors.New("binding.New", errors.KindConfig, b.path,
		"two-way binding target %T cannot report changes", b.dest)
}

// Source returns the current source object.
func (b *Binding) Source() any { return b.source }

// Path returns the full source path of this binding.
func (b *Binding) Path() string { return b.path }

// Mode returns the binding direction.
func (b *Binding) Mode() Mode { return b.mode }

// Destination returns the destination object and property.
func (b *Binding) Destination() (any, string) { return b.dest, b.destProp }

// Child returns the binding for the remaining path segments, or nil for a
// leaf binding.
func (b *Binding) Child() *Binding { return b.child }

// SetSource replaces the source object, subscribes to its change stream
// when it has one, and brings both sides back in sync.
func (b *Binding) SetSource(source any) error {
	if b.srcReg != nil {
		b.srcReg.Dispose()
		b.srcReg = nil
	}
	b.source = source
	if n, ok := source.(observable.Notifier); ok && !b.unbound {
		b.srcReg = n.PropertyChanged().Subscribe(func(name string) error {
			if name != b.prop && name != observable.AnyProperty {
				return nil
			}
			return b.UpdateDestination()
		})
	}
	if err := b.UpdateDestination(); err != nil {
		return err
	}
	return b.UpdateSource()
}

func (b *Binding) hasSource() bool {
	return b.source != nil && !observable.IsUndefined(b.source)
}

// UpdateDestination pushes the current source value toward the
// destination. It is a no-op while this binding is already updating.
func (b *Binding) UpdateDestination() error {
	if b.updating {
		return nil
	}
	b.updating = true
	defer func() { b.updating = false }()

	value := ReadProperty(b.source, b.prop)
	if b.child != nil {
		return b.child.SetSource(value)
	}
	converted := false
	if b.hasSource() && b.conv != nil {
		v, err := b.conv.Forward(value)
		if err != nil {
			return err
		}
		value, converted = v, true
	}
	if !b.access.Supports(value, converted) {
		return nil
	}
	return b.access.Set(b.dest, b.destProp, value)
}

// UpdateSource writes the destination value back to the source. It only
// acts on two-way leaf bindings with a source.
func (b *Binding) UpdateSource() error {
	if b.mode != TwoWay || b.child != nil || !b.hasSource() || b.updating {
		return nil
	}
	b.updating = true
	defer func() { b.updating = false }()

	value, err := b.access.Get(b.dest, b.destProp)
	if err != nil {
		return err
	}
	if observable.IsUndefined(value) {
		return nil
	}
	if b.conv != nil {
		if value, err = b.conv.Backward(value); err != nil {
			return err
		}
	}
	return WriteProperty(b.source, b.prop, value)
}

// Unbind releases every subscription held by the binding and its child.
// It is idempotent.
func (b *Binding) Unbind() {
	if b.unbound {
		return
	}
	b.unbound = true
	if b.srcReg != nil {
		b.srcReg.Dispose()
		b.srcReg = nil
	}
	if b.child != nil {
		b.child.Unbind()
	}
	if b.destReg != nil {
		b.destReg.Dispose()
		b.destReg = nil
	}
}

// Unbound reports whether Unbind was called.
func (b *Binding) Unbound() bool { return b.unbound }
