package binding

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// ConvertFunc transforms a value in one direction.
type ConvertFunc func(any) (any, error)

// Converter is a named, stateless pair of transforms. To maps source values
// to destination values and From maps them back. Either may be nil, which
// makes that direction unsupported.
type Converter struct {
	Name string
	To   ConvertFunc
	From ConvertFunc
}

// Forward applies To.
func (c *Converter) Forward(v any) (any, error) {
	if c.To == nil {
		return nil, errors.New("binding.Converter.Forward", errors.KindMisuse, c.Name,
			"converter does not support the source to destination direction")
	}
	return c.To(v)
}

// Backward applies From.
func (c *Converter) Backward(v any) (any, error) {
	if c.From == nil {
		return nil, errors.New("binding.Converter.Backward", errors.KindMisuse, c.Name,
			"converter does not support the destination to source direction")
	}
	return c.From(v)
}

// Registry maps dotted names to converters.
type Registry struct {
	converters map[string]*Converter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{converters: make(map[string]*Converter)}
}

// Register adds c under name. Empty names, duplicates and converters with
// neither direction are configuration errors.
func (r *Registry) Register(name string, c *Converter) error {
	const op = "binding.Registry.Register"
	if name == "" {
		return errors.New(op, errors.KindConfig, name, "converter name is empty")
	}
	if c == nil || (c.To == nil && c.From == nil) {
		return errors.New(op, errors.KindConfig, name, "converter has no transform")
	}
	if _, ok := r.converters[name]; ok {
		return errors.New(op, errors.KindConfig, name, "converter %q already registered", name)
	}
	if c.Name == "" {
		c.Name = name
	}
	r.converters[name] = c
	return nil
}

// Lookup returns the converter registered as name.
func (r *Registry) Lookup(name string) (*Converter, error) {
	if c, ok := r.converters[name]; ok {
		return c, nil
	}
	return nil, errors.New("binding.Registry.Lookup", errors.KindConfig, name,
		"unknown converter %q", name)
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.converters))
	for n := range r.converters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltins registers the stencil.* converters:
//
//	stencil.Not          boolean negation, both directions
//	stencil.String       default string form, source to destination only
//	stencil.Int          coerces to int, both directions
//	stencil.Bool         coerces to bool, both directions
//	stencil.Display      true -> "" and false -> "none", for style.display
//	stencil.NullIfEmpty  "" -> nil, and nil -> "" on the way back
func RegisterBuiltins(r *Registry) error {
	builtins := []*Converter{
		{Name: "stencil.Not", To: not, From: not},
		{Name: "stencil.String", To: toString},
		{Name: "stencil.Int", To: toInt, From: toInt},
		{Name: "stencil.Bool", To: toBool, From: toBool},
		{Name: "stencil.Display", To: toDisplay, From: fromDisplay},
		{Name: "stencil.NullIfEmpty", To: nullIfEmpty, From: emptyIfNull},
	}
	for _, c := range builtins {
		if err := r.Register(c.Name, c); err != nil {
			return err
		}
	}
	return nil
}

func not(v any) (any, error) {
	b, err := toBool(v)
	if err != nil {
		return nil, err
	}
	return !b.(bool), nil
}

func toString(v any) (any, error) {
	if v == nil || observable.IsUndefined(v) {
		return "", nil
	}
	return fmt.Sprint(v), nil
}

func toInt(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		return int(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrap("stencil.Int", errors.KindMisuse, t, err)
		}
		return n, nil
	}
	if observable.IsUndefined(v) {
		return 0, nil
	}
	return nil, errors.New("stencil.Int", errors.KindMisuse, "", "cannot convert %T to int", v)
}

func toBool(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case int:
		return t != 0, nil
	case float64:
		return t != 0, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, errors.Wrap("stencil.Bool", errors.KindMisuse, t, err)
		}
		return b, nil
	}
	if observable.IsUndefined(v) {
		return false, nil
	}
	return true, nil
}

func toDisplay(v any) (any, error) {
	b, err := toBool(v)
	if err != nil {
		return nil, err
	}
	if b.(bool) {
		return "", nil
	}
	return "none", nil
}

func fromDisplay(v any) (any, error) {
	s, _ := v.(string)
	return s != "none", nil
}

func nullIfEmpty(v any) (any, error) {
	if s, ok := v.(string); ok && s == "" {
		return nil, nil
	}
	return v, nil
}

func emptyIfNull(v any) (any, error) {
	if v == nil || observable.IsUndefined(v) {
		return "", nil
	}
	return v, nil
}
