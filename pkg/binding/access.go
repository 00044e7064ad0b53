package binding

import (
	"fmt"
	"strings"

	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// Mode is the direction of a binding.
type Mode int

const (
	// OneWay propagates source changes to the destination only.
	OneWay Mode = iota
	// TwoWay also writes destination changes back to the source.
	TwoWay
)

func (m Mode) String() string {
	if m == TwoWay {
		return "twoway"
	}
	return "oneway"
}

// ParseMode parses "oneway" or "twoway", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oneway":
		return OneWay, nil
	case "twoway":
		return TwoWay, nil
	}
	return OneWay, errors.New("binding.ParseMode", errors.KindConfig, s, "unknown binding mode %q", s)
}

// TargetAccess is the convention used to read and write a destination.
type TargetAccess interface {
	Get(target any, name string) (any, error)
	Set(target any, name string, value any) error
	// Supports reports whether value may be written. converted is true
	// when value was produced by a converter.
	Supports(value any, converted bool) bool
}

// Attributes is implemented by targets that expose markup attributes.
type Attributes interface {
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	RemoveAttr(name string)
}

// PropertyAccess reads and writes properties. It never writes
// observable.Undefined, and writes nil only when a converter produced it.
var PropertyAccess TargetAccess = propertyAccess{}

// AttributeAccess reads and writes markup attributes. nil and
// observable.Undefined remove the attribute; other values are written in
// their default string form.
var AttributeAccess TargetAccess = attributeAccess{}

type propertyAccess struct{}

func (propertyAccess) Get(target any, name string) (any, error) {
	return ReadProperty(target, name), nil
}

func (propertyAccess) Set(target any, name string, value any) error {
	return WriteProperty(target, name, value)
}

func (propertyAccess) Supports(value any, converted bool) bool {
	if observable.IsUndefined(value) {
		return false
	}
	return value != nil || converted
}

func (propertyAccess) String() string { return "property" }

type attributeAccess struct{}

func (attributeAccess) Get(target any, name string) (any, error) {
	a, ok := target.(Attributes)
	if !ok {
		return nil, errors.New("binding.AttributeAccess", errors.KindMisuse, name,
			"%T has no attributes", target)
	}
	if v, ok := a.Attr(name); ok {
		return v, nil
	}
	return nil, nil
}

func (attributeAccess) Set(target any, name string, value any) error {
	a, ok := target.(Attributes)
	if !ok {
		return errors.New("binding.AttributeAccess", errors.KindMisuse, name,
			"%T has no attributes", target)
	}
	if value == nil || observable.IsUndefined(value) {
		a.RemoveAttr(name)
		return nil
	}
	a.SetAttr(name, fmt.Sprint(value))
	return nil
}

func (attributeAccess) Supports(any, bool) bool { return true }

func (attributeAccess) String() string { return "attribute" }
