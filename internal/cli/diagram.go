package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/render"
)

// diagramOpts holds the command-line flags for the diagram command.
type diagramOpts struct {
	output   string
	format   string
	detailed bool
	assets   bool
	scale    float64
	stored   bool
}

// validFormats is the set of supported diagram formats.
var validFormats = map[string]bool{"dot": true, "svg": true, "pdf": true, "png": true}

// diagramCommand creates the diagram command.
func (c *CLI) diagramCommand() *cobra.Command {
	opts := diagramOpts{scale: 2}

	cmd := &cobra.Command{
		Use:   "diagram [bundle]",
		Short: "Draw a bundle's node tree as a diagram",
		Long: `Draw a bundle's node tree as a Graphviz diagram.

Nodes are drawn top-down from each root. Group-like containers are dashed,
image nodes are shaded and, with --assets, linked to the asset files they
reference. PDF and PNG output need rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = formatFromPath(opts.output)
			}
			if !validFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'dot', 'svg', 'pdf', or 'png')", opts.format)
			}
			if opts.output == "" {
				opts.output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + opts.format
			}
			return c.runDiagram(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: bundle name with the format's extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), dot, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show size, position and property keys")
	cmd.Flags().BoolVar(&opts.assets, "assets", false, "draw asset files and image references")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.stored, "stored", false, "treat the argument as a stored bundle id")

	return cmd
}

// formatFromPath returns the output extension when it names a diagram
// format, else "svg".
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if validFormats[ext] {
		return ext
	}
	return "svg"
}

func (c *CLI) runDiagram(ctx context.Context, source string, opts diagramOpts) error {
	b, err := c.loadBundle(ctx, source, opts.stored)
	if err != nil {
		return err
	}

	data, err := renderDiagram(ctx, render.ToDOT(b, render.Options{Detailed: opts.detailed, Assets: opts.assets}), opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Generated %s diagram", strings.ToUpper(opts.format))
	printFile(opts.output)
	return nil
}

func renderDiagram(ctx context.Context, dot string, opts diagramOpts) ([]byte, error) {
	if opts.format == "dot" {
		return []byte(dot), nil
	}

	spinner := newSpinnerWithContext(ctx, "Laying out diagram...")
	spinner.Start()
	svg, err := render.RenderSVG(ctx, dot)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return nil, err
	}
	spinner.Stop()

	if opts.format == "svg" {
		return svg, nil
	}
	return render.Rasterize(ctx, svg, render.Raster(opts.format), opts.scale)
}
