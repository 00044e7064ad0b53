// Package stencil wires the template repository, the converter and control
// registries, the loader and the binding extractor into one Runtime.
//
// A Runtime is the usual entry point:
//
//	rt, err := stencil.New()
//	if err != nil {
//		return err
//	}
//	_ = rt.RegisterTemplate("app.greeting", `<p data-binding="textContent:name"></p>`)
//	page, err := rt.Render("app.greeting", map[string]any{"name": "Ada"})
package stencil

import (
	"io"

	"golang.org/x/net/html"

	"github.com/go-drift/stencil/pkg/binding"
	"github.com/go-drift/stencil/pkg/control"
	"github.com/go-drift/stencil/pkg/dom"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/observable"
	"github.com/go-drift/stencil/pkg/template"
	"github.com/go-drift/stencil/pkg/widgets"
)

// Option configures a Runtime.
type Option func(*Runtime) error

// WithRepository adds a template source consulted after the runtime's own
// templates, in the order given.
func WithRepository(repo template.Repository) Option {
	return func(r *Runtime) error {
		if repo == nil {
			return errors.New("stencil.WithRepository", errors.KindMisuse, "", "repository is nil")
		}
		r.repo = append(r.repo, repo)
		return nil
	}
}

// WithoutWidgets skips registering the stock widgets and their templates.
func WithoutWidgets() Option {
	return func(r *Runtime) error {
		r.bare = true
		return nil
	}
}

// Runtime owns one host and everything its controls are built from.
//
// Runtime is NOT thread-safe. It must only be used from the UI goroutine.
type Runtime struct {
	host       *control.Host
	templates  *template.NamespaceRepository
	repo       template.ChainRepository
	loader     *template.Loader
	converters *binding.Registry
	bare       bool
}

// New creates a runtime with the built-in converters and, unless
// WithoutWidgets is given, the stock widgets.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		templates:  template.NewNamespaceRepository(),
		converters: binding.NewRegistry(),
	}
	r.repo = template.ChainRepository{r.templates}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if err := binding.RegisterBuiltins(r.converters); err != nil {
		return nil, err
	}

	r.host = &control.Host{Document: dom.NewDocument(), Controls: control.NewRegistry()}
	r.loader = template.NewLoader(r.repo, r.host)
	r.host.Templates = r.loader
	r.host.Bindings = template.NewExtractor(r.host, r.converters)

	if !r.bare {
		if err := widgets.Register(r.host.Controls); err != nil {
			return nil, err
		}
		for id, markup := range widgets.Templates() {
			if err := r.templates.RegisterTemplateString(id, markup); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// Host returns the host controls are created in.
func (r *Runtime) Host() *control.Host { return r.host }

// Converters returns the converter registry.
func (r *Runtime) Converters() *binding.Registry { return r.converters }

// Controls returns the control type registry.
func (r *Runtime) Controls() *control.Registry { return r.host.Controls }

// Loader returns the template loader.
func (r *Runtime) Loader() *template.Loader { return r.loader }

// RegisterTemplate adds markup under id. Ids resolved by an added
// repository cannot be shadowed.
func (r *Runtime) RegisterTemplate(id, markup string) error {
	return r.repo.RegisterTemplateString(id, markup)
}

// LoadYAML mounts a YAML template bundle under prefix.
func (r *Runtime) LoadYAML(prefix string, rd io.Reader) error {
	return r.templates.LoadYAML(prefix, rd)
}

// RegisterControl adds a templated control type.
func (r *Runtime) RegisterControl(name string, f control.TemplatedFactory) error {
	return r.host.Controls.RegisterTemplated(name, f)
}

// RegisterConverter adds a converter under name.
func (r *Runtime) RegisterConverter(name string, c *binding.Converter) error {
	return r.converters.Register(name, c)
}

// IDs returns every template id known to the runtime, sorted.
func (r *Runtime) IDs() []string { return r.repo.IDs() }

// Load returns a fresh, resolved instance of template id.
func (r *Runtime) Load(id string) (*html.Node, error) {
	return r.loader.LoadTemplate(id)
}

// Check loads id and disposes the controls it created. It reports the
// first configuration, contract or recursion error in the template or in
// any template it pulls in.
func (r *Runtime) Check(id string) error {
	p, err := widgets.NewPanel(r.host, id)
	if err != nil {
		return err
	}
	p.Dispose()
	return nil
}

// Render creates a panel backed by template id with model as its model.
// A map model is wrapped in an observable object so bindings follow later
// changes made through the panel's Model.
func (r *Runtime) Render(id string, model any) (*widgets.Panel, error) {
	p, err := widgets.NewPanel(r.host, id)
	if err != nil {
		return nil, err
	}
	if m, ok := model.(map[string]any); ok {
		model = observable.FromMap(m)
	}
	if model != nil {
		if err := p.SetModel(model); err != nil {
			p.Dispose()
			return nil, err
		}
	}
	r.host.Flush()
	return p, nil
}

// RenderString renders template id with model and returns the markup.
func (r *Runtime) RenderString(id string, model any) (string, error) {
	p, err := r.Render(id, model)
	if err != nil {
		return "", err
	}
	defer p.Dispose()
	return dom.Render(p.RootElement())
}

// Flush runs callbacks deferred with Host.Post.
func (r *Runtime) Flush() { r.host.Flush() }
