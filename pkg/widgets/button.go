package widgets

import (
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/event"
	"github.com/go-drift/stencil/pkg/observable"
)

// ButtonSchema declares the Button properties.
var ButtonSchema = observable.NewSchema("widgets.Button", control.BaseSchema)

// ButtonText is the caption shown by the default template.
var ButtonText = observable.Define(ButtonSchema, "text", func() string { return "" })

// Button is a templated push button. It raises Clicked when its root
// receives a click while enabled.
//
//	ok, _ := widgets.NewButton(host, "")
//	ok.SetText("Save")
//	ok.Clicked().Subscribe(func(*widgets.Button) error { return save() })
type Button struct {
	control.Templated

	clicked  event.Source[*Button]
	listener *event.Registration
}

// NewButton creates a button from templateID, or from ButtonTemplate when
// templateID is empty.
func NewButton(host *control.Host, templateID string) (*Button, error) {
	if templateID == "" {
		templateID = ButtonTemplate
	}
	b := &Button{}
	if err := b.Init(b, host, ButtonSchema, templateID); err != nil {
		return nil, err
	}
	return b, nil
}

// Text returns the caption.
func (b *Button) Text() string { return ButtonText.Get(b) }

// SetText sets the caption.
func (b *Button) SetText(s string) error { return ButtonText.Set(b, s) }

// Clicked returns the click event source.
func (b *Button) Clicked() *event.Source[*Button] { return &b.clicked }

// Click dispatches a click on the root element.
func (b *Button) Click() error {
	return b.Root().Dispatch("click")
}

// OnApplyTemplate listens for clicks on the new root.
func (b *Button) OnApplyTemplate() error {
	b.listener = b.Root().On("click", b.onClick)
	return nil
}

// OnTemplateChanging stops listening on the old root.
func (b *Button) OnTemplateChanging() {
	b.listener.Dispose()
	b.listener = nil
}

// Dispose stops listening for clicks and releases the template.
func (b *Button) Dispose() {
	b.listener.Dispose()
	b.listener = nil
	b.Templated.Dispose()
}

func (b *Button) onClick(e *dom.Event) error {
	if !control.Enabled.Get(b) {
		e.PreventDefault()
		return nil
	}
	return b.clicked.Publish(b)
}
