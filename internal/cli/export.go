package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/portable"
	"github.com/matzehuels/canvasport/pkg/serialize"
)

// exportOpts holds the command-line flags for the export command.
type exportOpts struct {
	target string
	output string
	store  bool
	name   string
	dispatcherOpts
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	opts := exportOpts{target: dispatch.TargetSelected}

	cmd := &cobra.Command{
		Use:   "export [document.json]",
		Short: "Export nodes from a document into a bundle",
		Long: `Export nodes from a document into a portable bundle.

The target picks what is exported:
  selected  the document's current selection (default)
  page      every top-level node of the current page
  file      every top-level node of every page

The bundle format follows the output extension: .json, .yaml or .zip.
With --store the bundle is also saved to the bundle store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(dispatch.Targets, opts.target) {
				return fmt.Errorf("invalid target: %s (must be one of %s)", opts.target, strings.Join(dispatch.Targets, ", "))
			}
			if opts.output == "" {
				opts.output = defaultBundlePath(args[0], opts.target)
			}
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", opts.target, "what to export: selected, page, file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output bundle (.json, .yaml, .zip)")
	cmd.Flags().BoolVar(&opts.store, "store", false, "also save the bundle to the bundle store")
	cmd.Flags().StringVar(&opts.name, "name", "", "name of the stored bundle (default: document name)")
	cmd.Flags().BoolVar(&opts.previews, "previews", false, "render a PNG preview of every root")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "sibling nodes exported at once (default from config)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")

	return cmd
}

// defaultBundlePath derives "<document>-<target>.json" next to the input.
func defaultBundlePath(input, target string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "-" + target + ".json"
}

func (c *CLI) runExport(ctx context.Context, input string, opts exportOpts) error {
	h, err := memhost.Open(input)
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
	printSuccess("Exported %d %s from %s", stats.Exported, plural(stats.Exported, "node", "nodes"), StyleHighlight.Render(h.DocumentName()))
	printExportStats(stats)
	printFile(opts.output)

	if opts.store {
		if err := c.storeBundle(ctx, opts.name, b); err != nil {
			return err
		}
	}
	printNewline()
	printNextStep("Import it", "canvasport import "+opts.output+" --into <document.json>")
	return nil
}

// exportBundle runs one export of target against h.
func (c *CLI) exportBundle(ctx context.Context, h *memhost.Host, target string, o dispatcherOpts) (*portable.Bundle, serialize.Stats, error) {
	d, cleanup, err := c.newDispatcher(ctx, h, o)
	if err != nil {
		return nil, serialize.Stats{}, err
	}
	defer cleanup()

	st := startStep(c.Logger, "export")
	b, stats, err := d.Export(ctx, target)
	if err != nil {
		return nil, stats, err
	}
	st.finish("nodes", stats.Nodes, "assets", stats.Assets, "failed", stats.Failed)
	return b, stats, nil
}

func (c *CLI) storeBundle(ctx context.Context, name string, b *portable.Bundle) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Put(ctx, name, b)
	if err != nil {
		return err
	}
	printSuccess("Stored bundle %s", StyleHighlight.Render(rec.ID))
	return nil
}

func printExportStats(s serialize.Stats) {
	printStats(
		stat{n: s.Nodes, label: "nodes"},
		stat{n: s.Assets, label: "assets"},
		stat{n: s.Failed, label: "failed", warn: true},
		stat{n: s.Dropped, label: "dropped", warn: true},
		stat{n: s.Unresolved, label: "unresolved images", warn: true},
	)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
