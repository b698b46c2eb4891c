package cli

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/internal/server"
	"github.com/matzehuels/canvasport/pkg/memhost"
	"github.com/matzehuels/canvasport/pkg/observability"
	"github.com/matzehuels/canvasport/pkg/storage"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string
	save    bool
	noStore bool
	dispatcherOpts
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve [document.json]",
		Short: "Serve the message endpoint over HTTP",
		Long: `Serve the message endpoint and the bundle store over HTTP.

  POST   /v1/messages             export or import message
  GET    /v1/bundles              list stored bundles
  POST   /v1/bundles              store a bundle
  GET    /v1/bundles/{id}         fetch a bundle (?format=json|yaml|zip)
  DELETE /v1/bundles/{id}         delete a bundle
  POST   /v1/bundles/{id}/import  import a stored bundle

Requests run against the given document, or an empty one. With --save the
document is written back on shutdown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := ""
			if len(args) == 1 {
				doc = args[0]
			}
			if opts.addr == "" {
				opts.addr = c.config().Server.Addr
			}
			return c.runServe(cmd.Context(), doc, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "write the document back on shutdown")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "disable the bundle routes")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the image cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, docPath string, opts serveOpts) error {
	h := memhost.New("Untitled")
	if docPath != "" {
		var err error
		if h, err = memhost.Open(docPath); err != nil {
			return err
		}
	}

	d, cleanup, err := c.newDispatcher(ctx, h, opts.dispatcherOpts)
	if err != nil {
		return err
	}
	defer cleanup()

	var store storage.Store
	if !opts.noStore {
		if store, err = c.openStore(ctx); err != nil {
			c.Logger.Warn("bundle store unavailable", "err", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	observability.UseLogger(c.Logger)
	defer observability.Reset()

	printInfo("Serving %s on %s", StyleHighlight.Render(h.DocumentName()), StyleValue.Render("http://"+opts.addr))
	err = server.New(d, store, c.Logger).ListenAndServe(ctx, opts.addr)
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}

	if opts.save && docPath != "" {
		if saveErr := h.Save(docPath); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		printSuccess("Saved %s", docPath)
	}
	return err
}
