package testing

import (
	"fmt"
	"sync"
	"testing"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/stencil"
	"github.com/go-drift/stencil/pkg/widgets"
)

// Tester loads templates into an isolated runtime and drives DOM events
// against the result. Errors reported to the global handler while the
// tester is alive are recorded instead of logged.
type Tester struct {
	rt       *stencil.Runtime
	root     *widgets.Panel
	prev     errors.ErrorHandler
	recorder *recorder
}

// NewTester creates a tester over a fresh runtime.
// Call Cleanup() when done, or use NewTesterWithT() instead.
func NewTester(opts ...stencil.Option) (*Tester, error) {
	rt, err := stencil.New(opts...)
	if err != nil {
		return nil, err
	}
	t := &Tester{rt: rt, prev: errors.DefaultHandler, recorder: &recorder{}}
	errors.SetHandler(t.recorder)
	return t, nil
}

// NewTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewTesterWithT(t *testing.T, opts ...stencil.Option) *Tester {
	t.Helper()
	tester, err := NewTester(opts...)
	if err != nil {
		t.Fatalf("NewTester: %v", err)
	}
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup disposes the loaded panel and restores the error handler. Must
// be called if not using NewTesterWithT.
func (t *Tester) Cleanup() {
	if t.root != nil {
		t.root.Dispose()
		t.root = nil
	}
	errors.SetHandler(t.prev)
}

// Runtime returns the tester's runtime.
func (t *Tester) Runtime() *stencil.Runtime { return t.rt }

// Register adds a template.
func (t *Tester) Register(id, markup string) error {
	return t.rt.RegisterTemplate(id, markup)
}

// Load disposes the previously loaded panel, renders template id with model
// and runs posted callbacks.
func (t *Tester) Load(id string, model any) error {
	if t.root != nil {
		t.root.Dispose()
		t.root = nil
	}
	p, err := t.rt.Render(id, model)
	if err != nil {
		return err
	}
	t.root = p
	return nil
}

// Root returns the loaded panel, or nil.
func (t *Tester) Root() *widgets.Panel { return t.root }

// RootNode returns the root node of the loaded panel, or nil.
func (t *Tester) RootNode() *html.Node {
	if t.root == nil {
		return nil
	}
	return t.root.RootElement()
}

// Pump runs the callbacks posted to the host.
func (t *Tester) Pump() {
	t.rt.Flush()
}

// Find evaluates a finder against the loaded tree.
func (t *Tester) Find(finder Finder) FinderResult {
	doc := t.rt.Host().Document
	if t.root == nil {
		return FinderResult{finder: finder, doc: doc}
	}
	return FinderResult{
		nodes:  finder.Evaluate(doc, t.root.RootElement()),
		finder: finder,
		doc:    doc,
	}
}

// Dispatch fires an event of type typ on the first element matched by
// finder and then pumps.
func (t *Tester) Dispatch(finder Finder, typ string) error {
	result := t.Find(finder)
	if !result.Exists() {
		return fmt.Errorf("Dispatch: finder matched no elements: %s", finder.Description())
	}
	err := result.Element().Dispatch(typ)
	t.Pump()
	return err
}

// Click dispatches a click on the first match.
func (t *Tester) Click(finder Finder) error {
	return t.Dispatch(finder, "click")
}

// Enter sets the value of the first matched form element and dispatches
// change.
func (t *Tester) Enter(finder Finder, value any) error {
	result := t.Find(finder)
	if !result.Exists() {
		return fmt.Errorf("Enter: finder matched no elements: %s", finder.Description())
	}
	el := result.Element()
	if !el.SupportsChange() {
		return fmt.Errorf("Enter: <%s> is not a form element: %s", el.Tag(), finder.Description())
	}
	if err := el.Set("value", value); err != nil {
		return err
	}
	err := el.Dispatch("change")
	t.Pump()
	return err
}

// Reported returns the errors reported to the global handler since the
// tester was created.
func (t *Tester) Reported() []*errors.Error {
	return t.recorder.errors()
}

// Panics returns the panics recovered since the tester was created.
func (t *Tester) Panics() []*errors.PanicError {
	return t.recorder.panics()
}

// Markup renders the loaded tree.
func (t *Tester) Markup() string {
	n := t.RootNode()
	if n == nil {
		return ""
	}
	s, _ := dom.Render(n)
	return s
}

type recorder struct {
	mu   sync.Mutex
	errs []*errors.Error
	pans []*errors.PanicError
}

func (r *recorder) HandleError(err *errors.Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) HandlePanic(err *errors.PanicError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pans = append(r.pans, err)
}

func (r *recorder) errors() []*errors.Error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.Error(nil), r.errs...)
}

func (r *recorder) panics() []*errors.PanicError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*errors.PanicError(nil), r.pans...)
}
