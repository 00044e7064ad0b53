package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/go-drift/stencil/cmd/stencil/internal/config"
	"github.com/go-drift/stencil/pkg/errors"
)

var watch bool

// settle is how long check --watch waits for more file events before
// re-validating.
const settle = 150 * time.Millisecond

func init() {
	check := &cobra.Command{
		Use:   "check [template-id...]",
		Short: "Validate templates",
		Long: `Load every template (or the given ids) with its nested controls and
bindings and report configuration, contract and recursion errors.

With --watch, the bundles, pages and stencil.yaml are watched and the
check runs again after each change until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				return runWatch(ctx, cmd.OutOrStdout(), args)
			}
			return runCheck(cmd.OutOrStdout(), args)
		},
	}
	check.Flags().BoolVarP(&watch, "watch", "w", false, "re-check when template files change")
	RegisterCommand(check)
}

func runCheck(out io.Writer, ids []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	return checkProject(out, cfg, ids)
}

// checkProject loads cfg and checks ids, or every template when ids is
// empty. Each failure is reported; the returned error counts them.
func checkProject(out io.Writer, cfg *config.Resolved, ids []string) error {
	p, err := loadProject(cfg)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		ids = p.rt.IDs()
	} else {
		ids = slices.Clone(ids)
		for i, id := range ids {
			ids[i] = p.qualify(id)
		}
	}
	failed := 0
	for _, id := range ids {
		if err := p.rt.Check(id); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s\n", id)
			errors.Report(err)
			continue
		}
		if verbose {
			fmt.Fprintf(out, "ok   %s\n", id)
		}
	}
	fmt.Fprintf(out, "%d templates, %d failed\n", len(ids), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d templates failed", failed, len(ids))
	}
	return nil
}

func runWatch(ctx context.Context, out io.Writer, ids []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]bool{}
	for _, path := range cfg.Watched() {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			return err
		}
		dirs[dir] = true
	}

	_ = checkProject(out, cfg, ids)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				timer = time.After(settle)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			errors.Report(err)
		case <-timer:
			timer = nil
			// Globs may match new files.
			next, err := config.Resolve(cfg.Root)
			if err != nil {
				errors.Report(err)
				continue
			}
			cfg = next
			fmt.Fprintln(out, "---")
			_ = checkProject(out, cfg, ids)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	switch filepath.Ext(ev.Name) {
	case ".yaml", ".yml", ".html", ".htm":
		return true
	}
	return false
}
