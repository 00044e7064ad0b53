package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-drift/stencil/cmd/stencil/internal/config"
	"github.com/go-drift/stencil/pkg/errors"
	"github.com/go-drift/stencil/pkg/stencil"
	"github.com/go-drift/stencil/pkg/template"
)

// project is a resolved configuration and the runtime loaded from it.
type project struct {
	cfg *config.Resolved
	rt  *stencil.Runtime
}

func resolveConfig() (*config.Resolved, error) {
	var (
		root string
		err  error
	)
	if workDir != "" {
		root, err = config.FindProjectRootFrom(workDir)
	} else {
		root, err = config.FindProjectRoot()
	}
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(root)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose && !verbose {
		verbose = true
		errors.SetHandler(&errors.LogHandler{Verbose: true})
	}
	return cfg, nil
}

// openProject resolves the configuration and loads every bundle and page
// into a fresh runtime.
func openProject() (*project, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return loadProject(cfg)
}

func loadProject(cfg *config.Resolved) (*project, error) {
	var opts []stencil.Option
	for _, path := range cfg.Pages {
		repo, err := loadPage(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, stencil.WithRepository(repo))
	}
	rt, err := stencil.New(opts...)
	if err != nil {
		return nil, err
	}
	for _, path := range cfg.Templates {
		if err := loadBundle(rt, cfg.Namespace, path); err != nil {
			return nil, err
		}
	}
	return &project{cfg: cfg, rt: rt}, nil
}

func loadPage(path string) (*template.DocumentRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	repo, err := template.NewDocumentRepository(f)
	if err != nil {
		return nil, errors.Wrap("stencil.loadPage", errors.KindConfig, path, err)
	}
	return repo, nil
}

// loadBundle mounts a YAML bundle under namespace.<file name>, so
// templates/forms.yaml with a key "login" becomes "app.forms.login".
func loadBundle(rt *stencil.Runtime, namespace, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := rt.LoadYAML(namespace+"."+name, f); err != nil {
		return errors.Wrap("stencil.loadBundle", errors.KindConfig, path, err)
	}
	return nil
}

// qualify returns id, or id under the project namespace when only that form
// is known, so "ui.card" can stand for "app.ui.card".
func (p *project) qualify(id string) string {
	ids := p.rt.IDs()
	if slices.Contains(ids, id) {
		return id
	}
	if q := p.cfg.Namespace + "." + id; slices.Contains(ids, q) {
		return q
	}
	return id
}
