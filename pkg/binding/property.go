package binding

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
)

// ReadProperty reads name from obj. Supported objects are
// observable.Reader implementations, map[string]any, and structs or
// pointers to structs (exported fields only; methods are never called).
// Absent objects and missing names yield observable.Undefined.
func ReadProperty(obj any, name string) any {
	switch o := obj.(type) {
	case nil:
		return observable.Undefined
	case observable.Reader:
		return o.Get(name)
	case map[string]any:
		if v, ok := o[name]; ok {
			return v
		}
		return observable.Undefined
	}
	if observable.IsUndefined(obj) {
		return observable.Undefined
	}
	sv := reflect.ValueOf(obj)
	for sv.Kind() == reflect.Pointer || sv.Kind() == reflect.Interface {
		if sv.IsNil() {
			return observable.Undefined
		}
		sv = sv.Elem()
	}
	if sv.Kind() != reflect.Struct {
		return observable.Undefined
	}
	for _, n := range fieldNames(name) {
		f := sv.FieldByName(n)
		if f.IsValid() && f.CanInterface() {
			return f.Interface()
		}
	}
	return observable.Undefined
}

// WriteProperty writes name on obj. Supported objects are
// observable.Writer implementations, map[string]any and pointers to
// structs with a matching exported field.
func WriteProperty(obj any, name string, value any) error {
	switch o := obj.(type) {
	case nil:
		return errors.New("binding.WriteProperty", errors.KindMisuse, name, "no object to write to")
	case observable.Writer:
		return o.Set(name, value)
	case map[string]any:
		o[name] = value
		return nil
	}
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("binding.WriteProperty", errors.KindMisuse, name,
			"cannot write properties of %T", obj)
	}
	sv := rv.Elem()
	for _, n := range fieldNames(name) {
		f := sv.FieldByName(n)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		if value == nil || observable.IsUndefined(value) {
			f.Set(reflect.Zero(f.Type()))
			return nil
		}
		v := reflect.ValueOf(value)
		switch {
		case v.Type().AssignableTo(f.Type()):
			f.Set(v)
		case isNumeric(v.Kind()) && isNumeric(f.Kind()):
			f.Set(v.Convert(f.Type()))
		default:
			return errors.New("binding.WriteProperty", errors.KindMisuse, name,
				"cannot assign %T to field of type %s", value, f.Type())
		}
		return nil
	}
	return errors.New("binding.WriteProperty", errors.KindMisuse, name,
		"%T has no settable field %q", obj, name)
}

// fieldNames returns the Go identifiers a property name may map to.
func fieldNames(name string) []string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return []string{name}
	}
	return []string{strings.ToUpper(string(r)) + name[size:], name}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
