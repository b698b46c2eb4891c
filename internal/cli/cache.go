package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/config"
)

// cacheCommand groups the image cache subcommands.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or empty the image cache",
		Long: `The image cache keeps encoded image bytes fetched from a document so
repeated exports skip the fetch. Entries are keyed by document and image
hash, so clearing the cache never changes what an export produces.`,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached image",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.clearCache(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				loc, err := c.cacheLocation()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), loc)
				return nil
			},
		},
	)
	return cmd
}

func (c *CLI) clearCache(ctx context.Context) error {
	ch, err := c.newCache(ctx, false)
	if err != nil {
		return err
	}
	defer ch.Close()

	clearer, ok := ch.(cache.Clearer)
	if !ok {
		return fmt.Errorf("cache backend %q does not support clearing", c.config().Cache.Backend)
	}
	n, err := clearer.Clear(ctx)
	switch {
	case err != nil:
		return fmt.Errorf("clear cache: %w", err)
	case n == 0:
		printInfo("Cache is already empty")
	default:
		printSuccess("Removed %d cached %s", n, plural(n, "image", "images"))
	}
	return nil
}

// cacheLocation describes where cached images live: a directory, a Redis
// URL, or "disabled".
func (c *CLI) cacheLocation() (string, error) {
	cfg := c.config().Cache
	switch cfg.Backend {
	case config.CacheRedis:
		return fmt.Sprintf("redis://%s/%d", cfg.RedisAddr, cfg.RedisDB), nil
	case config.CacheNone:
		return "disabled", nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return "", fmt.Errorf("locate cache dir: %w", err)
	}
	return dir, nil
}
