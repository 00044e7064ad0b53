package control

import (
	"sort"

	"github.com/go-drift/stencil/pkg/errors"
)

// Factory constructs a plain control.
type Factory func(host *Host) (Control, error)

// TemplatedFactory constructs a templated control for a template id. An
// empty id selects the control's default template.
type TemplatedFactory func(host *Host, templateID string) (Control, error)

// Constructor is a registered control type.
type Constructor struct {
	Name      string
	templated TemplatedFactory
	plain     Factory
}

// Templated reports whether the control type receives a template id.
func (c *Constructor) Templated() bool { return c.templated != nil }

// New constructs an instance. Plain control types ignore templateID.
func (c *Constructor) New(host *Host, templateID string) (Control, error) {
	if c.templated != nil {
		return c.templated(host, templateID)
	}
	return c.plain(host)
}

// Registry maps dotted type names to control constructors.
type Registry struct {
	types map[string]*Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Constructor)}
}

// RegisterTemplated registers a templated control type.
func (r *Registry) RegisterTemplated(name string, f TemplatedFactory) error {
	if f == nil {
		return errors.New("control.Registry.Register", errors.KindConfig, name, "nil factory")
	}
	return r.add(&Constructor{Name: name, templated: f})
}

// Register registers a plain control type.
func (r *Registry) Register(name string, f Factory) error {
	if f == nil {
		return errors.New("control.Registry.Register", errors.KindConfig, name, "nil factory")
	}
	return r.add(&Constructor{Name: name, plain: f})
}

func (r *Registry) add(c *Constructor) error {
	if c.Name == "" {
		return errors.New("control.Registry.Register", errors.KindConfig, "", "control type name is empty")
	}
	if _, ok := r.types[c.Name]; ok {
		return errors.New("control.Registry.Register", errors.KindConfig, c.Name,
			"control type %q already registered", c.Name)
	}
	r.types[c.Name] = c
	return nil
}

// Lookup returns the constructor registered as name.
func (r *Registry) Lookup(name string) (*Constructor, error) {
	if c, ok := r.types[name]; ok {
		return c, nil
	}
	return nil, errors.New("control.Registry.Lookup", errors.KindConfig, name,
		"unknown control type %q", name)
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
