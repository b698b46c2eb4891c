// Package cli implements the canvasport command-line interface.
//
// Commands operate on document files (the JSON form of an in-memory host,
// see [memhost]) and on bundles:
//
//   - export: serialize a document's selection, page or file into a bundle
//   - import: rebuild a bundle's nodes inside a document
//   - dispatch: answer one UI message against a document
//   - inspect, browse, diagram: look at a bundle without importing it
//   - bundles: manage the bundle store
//   - serve: run the HTTP message endpoint
//   - watch: re-export a document whenever it changes
//   - cache, config: housekeeping (cobra adds completion)
//
// Settings come from the config file (see [config.Load]); flags override
// them per invocation.
//
// [memhost]: github.com/matzehuels/canvasport/pkg/memhost
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/canvasport/pkg/buildinfo"
	"github.com/matzehuels/canvasport/pkg/cache"
	"github.com/matzehuels/canvasport/pkg/config"
	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/dispatch"
	"github.com/matzehuels/canvasport/pkg/scene"
	"github.com/matzehuels/canvasport/pkg/serialize"
	"github.com/matzehuels/canvasport/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "canvasport"

// Commands annotated with configOptional run on defaults when the config
// file cannot be loaded.
const (
	annotationConfig = "config"
	configOptional   = "optional"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "canvasport moves design nodes between documents as portable bundles",
		Long:          `canvasport exports nodes from a design document into a self-contained bundle (node tree plus deduplicated image assets) and rebuilds them in another document.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			err := c.loadConfig()
			if err != nil && cmd.Annotations[annotationConfig] == configOptional {
				c.Logger.Debug("using default configuration", "err", err)
				c.cfg = config.Default()
				return nil
			}
			return err
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/canvasport/config.toml)")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.dispatchCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.bundlesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())

	return root
}

// loadConfig reads the config file. A configured log level only ever makes
// logging more verbose than what main already chose.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if level, err := cfg.LogLevel(); err == nil && level < c.Logger.GetLevel() {
		c.Logger.SetLevel(level)
	}
	return nil
}

// config returns the loaded configuration, or the defaults when commands run
// without the root's pre-run hook (as in tests).
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		c.cfg = config.Default()
	}
	return c.cfg
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured image cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.config().Cache
	if noCache || cfg.Backend == config.CacheNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.CacheRedis {
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) cacheDir() (string, error) {
	if dir := c.config().Cache.Dir; dir != "" {
		return dir, nil
	}
	return config.CacheDir()
}

// openStore opens the configured bundle store. File and SQLite stores live
// under the XDG data directory unless storage.path is set.
func (c *CLI) openStore(ctx context.Context) (storage.Store, error) {
	cfg := c.config().Storage
	path := cfg.Path
	if path == "" && cfg.Backend != config.StorageMongo {
		dir, err := config.DataDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "bundles")
		if cfg.Backend == config.StorageSQLite {
			path = filepath.Join(dir, "bundles.db")
		}
	}
	store, err := storage.Open(ctx, storage.Options{
		Backend:       cfg.Backend,
		Path:          path,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	return store, nil
}

// dispatcherOpts holds per-invocation overrides of the configured export and
// import settings.
type dispatcherOpts struct {
	noCache     bool
	previews    bool
	concurrency int
	policy      string
}

// newDispatcher builds a dispatcher for host from the configuration and
// overrides. The returned cleanup closes the cache.
func (c *CLI) newDispatcher(ctx context.Context, host scene.Host, o dispatcherOpts) (*dispatch.Dispatcher, func(), error) {
	cfg := c.config()

	ch, err := c.newCache(ctx, o.noCache)
	if err != nil {
		return nil, nil, err
	}
	ttl, err := cfg.CacheTTL()
	if err != nil {
		ch.Close()
		return nil, nil, err
	}

	importOpts := cfg.ImportOptions(c.Logger)
	if o.policy != "" {
		p, err := deserialize.ParsePolicy(o.policy)
		if err != nil {
			ch.Close()
			return nil, nil, err
		}
		importOpts.Unsupported = p
	}

	concurrency := cfg.Export.Concurrency
	if o.concurrency > 0 {
		concurrency = o.concurrency
	}

	d := dispatch.New(host, dispatch.Options{
		Logger: c.Logger,
		Export: serialize.Options{
			Concurrency: concurrency,
			Previews:    o.previews || cfg.Export.Previews,
		},
		Import:   importOpts,
		Cache:    ch,
		CacheTTL: ttl,
	})
	return d, func() { ch.Close() }, nil
}
