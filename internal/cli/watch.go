package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/portable"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	opts := exportOpts{target: "page"}

	cmd := &cobra.Command{
		Use:   "watch [document.json]",
		Short: "Re-export a document whenever it changes",
		Long: `Re-export a document whenever it changes.

The document is exported once at start and again after every save. Failed
exports are logged and the watch continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == "" {
				opts.output = defaultBundlePath(args[0], opts.target)
			}
			ctx := withLogger(cmd.Context(), c.Logger)
			return c.runWatch(ctx, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", opts.target, "what to export: selected, page, file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output bundle (.json, .yaml, .zip)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, docPath string, opts exportOpts) error {
	logger := loggerFromContext(ctx)

	abs, err := filepath.Abs(docPath)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so the directory is watched instead.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	export := func() {
		if err := c.exportOnce(ctx, abs, opts); err != nil {
			logger.Error("export failed", "err", err)
		}
	}
	export()
	printInfo("Watching %s", StyleValue.Render(docPath))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logger.Debug("document changed", "op", ev.Op.String())
			pending = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		case <-pending:
			pending = nil
			export()
		}
	}
}

// exportOnce reloads the document and writes a fresh bundle.
func (c *CLI) exportOnce(ctx context.Context, docPath string, opts exportOpts) error {
	h, err := memhost.Open(docPath)
	if err != nil {
		return err
	}
	b, stats, err := c.exportBundle(ctx, h, opts.target, opts.dispatcherOpts)
	if err != nil {
		return err
	}
	if err := portable.Export(b, opts.output); err != nil {
		return err
	}
	printSuccess("Exported %d %s → %s", stats.Exported, plural(stats.Exported, "node", "nodes"), opts.output)
	return nil
}
