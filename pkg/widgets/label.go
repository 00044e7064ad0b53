package widgets

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/observable"
)

// LabelSchema declares the Label properties.
var LabelSchema = observable.NewSchema("widgets.Label", control.BaseSchema)

// LabelText is the text content of the label.
var LabelText = observable.Define(LabelSchema, "text", func() string { return "" },
	observable.OnChanged(func(owner any, _, v any) {
		if l, ok := owner.(*Label); ok && l.Root() != nil {
			_ = l.Root().Set("textContent", v)
		}
	}))

// Label is a plain control rendering a <span>.
type Label struct {
	control.Plain
}

// NewLabel creates an empty label.
func NewLabel(host *control.Host) (*Label, error) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Span.String(),
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "class", Val: "stencil-label"}},
	}
	l := &Label{}
	if err := l.Init(l, host, LabelSchema, root); err != nil {
		return nil, err
	}
	return l, nil
}

// Text returns the label text.
func (l *Label) Text() string { return LabelText.Get(l) }

// SetText sets the label text.
func (l *Label) SetText(s string) error { return LabelText.Set(l, s) }
