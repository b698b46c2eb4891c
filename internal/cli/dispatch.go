package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/memhost"
)

// dispatchCommand creates the dispatch command.
func (c *CLI) dispatchCommand() *cobra.Command {
	var (
		noSave bool
		opts   dispatcherOpts
	)

	cmd := &cobra.Command{
		Use:   "dispatch [document.json] [request.json|-]",
		Short: "Answer one UI message against a document",
		Long: `Answer one UI message against a document.

The request is read from the file argument, or from stdin when it is "-" or
omitted, and the response is written to stdout:

  {"type":"export","target":"page"}
  {"type":"import","bundle":{...}}

After a successful import the document is saved in place unless --no-save
is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 2 {
				src = args[1]
			}
			data, err := readInput(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}
			return c.runDispatch(cmd.Context(), args[0], data, !noSave, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the document after an import")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")

	return cmd
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}
	return data, nil
}

// runDispatch writes the response even when the request failed; the error
// is returned as well so the exit status reflects it.
func (c *CLI) runDispatch(ctx context.Context, docPath string, data []byte, save bool, o dispatcherOpts, w io.Writer) error {
	h, err := memhost.Open(docPath)
	if err != nil {
		return err
	}

	d, cleanup, err := c.newDispatcher(ctx, h, o)
	if err != nil {
		return err
	}
	defer cleanup()

	resp := d.DispatchJSON(ctx, data)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	if !resp.OK() {
		return fmt.Errorf("%s: %s", resp.Code, resp.Message)
	}
	if save && resp.Type == dispatch.TypeImport+"-success" {
		if err := h.Save(docPath); err != nil {
			return err
		}
		c.Logger.Debug("saved document", "path", docPath)
	}
	return nil
}
