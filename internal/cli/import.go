package cli

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/portable"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	into   string
	output string
	stored bool
	dispatcherOpts
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import [bundle]",
		Short: "Import a bundle into a document",
		Long: `Import a bundle's nodes into a document.

The bundle is a .json, .yaml or .zip file, or the id of a stored bundle
when --stored is set. Nodes are added to the current page of the --into
document, selected and brought into view. Without --into a new empty
document is created.

The document is written back to --into, or to --output when given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.output == "" {
				opts.output = opts.into
			}
			if opts.output == "" {
				opts.output = defaultDocumentPath(args[0])
			}
			return c.runImport(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.into, "into", "", "document to import into (default: new document)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "where to write the document (default: --into)")
	cmd.Flags().BoolVar(&opts.stored, "stored", false, "treat the argument as a stored bundle id")
	cmd.Flags().StringVar(&opts.policy, "unsupported", "", "unsupported kinds: skip, reject, substitute (default from config)")

	return cmd
}

// defaultDocumentPath derives "<bundle>.document.json" next to the bundle.
func defaultDocumentPath(bundle string) string {
	return strings.TrimSuffix(bundle, filepath.Ext(bundle)) + ".document.json"
}

func (c *CLI) runImport(ctx context.Context, source string, opts importOpts) error {
	b, err := c.loadBundle(ctx, source, opts.stored)
	if err != nil {
		return err
	}

	var h *memhost.Host
	if opts.into != "" {
		if h, err = memhost.Open(opts.into); err != nil {
			return err
		}
	} else {
		h = memhost.New(b.Metadata.Document)
	}

	d, cleanup, err := c.newDispatcher(ctx, h, opts.dispatcherOpts)
	if err != nil {
		return err
	}
	defer cleanup()

	st := startStep(c.Logger, "import")
	_, stats, err := d.Import(ctx, b)
	if err != nil {
		return err
	}
	st.finish("nodes", stats.Nodes, "created", stats.Created, "failed", stats.Failed)

	if err := h.Save(opts.output); err != nil {
		return err
	}
	printSuccess("Imported %d of %d %s into %s", stats.Created, stats.Requested, plural(stats.Requested, "node", "nodes"), StyleHighlight.Render(h.DocumentName()))
	printImportStats(stats)
	printFile(opts.output)
	return nil
}

// loadBundle reads a bundle from a file, or from the store when stored is set.
func (c *CLI) loadBundle(ctx context.Context, source string, stored bool) (*portable.Bundle, error) {
	if !stored {
		return portable.Import(source)
	}
	store, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	b, _, err := store.Get(ctx, source)
	return b, err
}

func printImportStats(s deserialize.Stats) {
	printStats(
		stat{n: s.Nodes, label: "nodes"},
		stat{n: s.Images, label: "images"},
		stat{n: s.Substituted, label: "substituted"},
		stat{n: s.Skipped, label: "skipped", warn: true},
		stat{n: s.Failed, label: "failed", warn: true},
	)
}
