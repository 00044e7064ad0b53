package dom

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-drift/stencil/pkg/observable"
)

// Style is an element's inline style declaration. Properties are read and
// written by camelCase or CSS name ("backgroundColor" or
// "background-color"); every write is reflected into the style attribute.
type Style struct {
	el    *Element
	names []string
	vals  map[string]string
}

func (s *Style) parse(decl string) {
	s.names = nil
	s.vals = make(map[string]string)
	for _, part := range strings.Split(decl, ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		if _, seen := s.vals[k]; !seen {
			s.names = append(s.names, k)
		}
		s.vals[k] = v
	}
}

// Get returns the value of a style property, "" when unset.
func (s *Style) Get(name string) any {
	return s.vals[cssName(name)]
}

// Set assigns a style property. nil, Undefined and "" remove it.
func (s *Style) Set(name string, value any) error {
	k := cssName(name)
	v := ""
	if value != nil && !observable.IsUndefined(value) {
		v = fmt.Sprint(value)
	}
	if v == "" {
		if _, ok := s.vals[k]; !ok {
			return nil
		}
		delete(s.vals, k)
		for i, n := range s.names {
			if n == k {
				s.names = append(s.names[:i], s.names[i+1:]...)
				break
			}
		}
	} else {
		if _, ok := s.vals[k]; !ok {
			s.names = append(s.names, k)
		}
		s.vals[k] = v
	}
	s.flush()
	return nil
}

// String returns the declaration as written to the style attribute.
func (s *Style) String() string {
	parts := make([]string, 0, len(s.names))
	for _, n := range s.names {
		parts = append(parts, n+": "+s.vals[n])
	}
	return strings.Join(parts, "; ")
}

func (s *Style) flush() {
	if len(s.names) == 0 {
		RemoveAttr(s.el.node, "style")
		return
	}
	SetAttr(s.el.node, "style", s.String())
}

// cssName converts camelCase to the hyphenated CSS property name.
func cssName(name string) string {
	if strings.ContainsRune(name, '-') {
		return strings.ToLower(name)
	}
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
