// Package config loads canvasport settings from a TOML file.
//
// The file is optional. Settings resolve in this order: compiled-in defaults,
// the config file, then CANVASPORT_* environment variables. Command-line flags
// are applied on top by the CLI.
//
//	# ~/.config/canvasport/config.toml
//	[import]
//	unsupported = "substitute"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "72h"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/scene"
)

const appName = "canvasport"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMongo  = "mongo"
)

// Config is the full configuration.
type Config struct {
	Import  Import  `toml:"import"`
	Export  Export  `toml:"export"`
	Cache   Cache   `toml:"cache"`
	Storage Storage `toml:"storage"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
}

// Import configures bundle import.
type Import struct {
	// Unsupported is the unsupported-kind policy: skip, reject or substitute.
	Unsupported    string `toml:"unsupported"`
	FallbackFamily string `toml:"fallback_family"`
	FallbackStyle  string `toml:"fallback_style"`
}

// Export configures bundle export.
type Export struct {
	Concurrency int  `toml:"concurrency"`
	Previews    bool `toml:"previews"`
}

// Cache configures the image byte cache.
type Cache struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	TTL           string `toml:"ttl"`
}

// Storage configures where bundles are kept.
type Storage struct {
	Backend       string `toml:"backend"`
	Path          string `toml:"path"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// Server configures the HTTP message endpoint.
type Server struct {
	Addr string `toml:"addr"`
}

// Log configures logging.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the compiled-in configuration.
func Default() *Config {
	return &Config{
		Import: Import{
			Unsupported:    string(deserialize.DefaultPolicy),
			FallbackFamily: deserialize.DefaultFallbackFont.Family,
			FallbackStyle:  deserialize.DefaultFallbackFont.Style,
		},
		Export: Export{Concurrency: 4},
		Cache: Cache{
			Backend:   CacheFile,
			RedisAddr: "localhost:6379",
			TTL:       "168h",
		},
		Storage: Storage{
			Backend:       StorageFile,
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Server: Server{Addr: "localhost:8080"},
		Log:    Log{Level: "info"},
	}
}

// Load reads the config file at path. An empty path means [DefaultPath],
// which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	applyEnv(cfg)
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating its directory.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CANVASPORT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CANVASPORT_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CANVASPORT_CACHE"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("CANVASPORT_REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("CANVASPORT_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.RedisDB = db
		}
	}
	if v := os.Getenv("CANVASPORT_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("CANVASPORT_MONGO_URI"); v != "" {
		cfg.Storage.MongoURI = v
	}
}

// Normalize lower-cases enum values and fills empty ones with defaults.
func (c *Config) Normalize() {
	def := Default()
	c.Import.Unsupported = strings.ToLower(strings.TrimSpace(c.Import.Unsupported))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))

	if c.Import.Unsupported == "" {
		c.Import.Unsupported = def.Import.Unsupported
	}
	if c.Import.FallbackFamily == "" {
		c.Import.FallbackFamily = def.Import.FallbackFamily
		c.Import.FallbackStyle = def.Import.FallbackStyle
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = def.Cache.Backend
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := deserialize.ParsePolicy(c.Import.Unsupported); err != nil {
		return fmt.Errorf("import.unsupported: %w", err)
	}
	if c.Export.Concurrency < 0 {
		return fmt.Errorf("export.concurrency must be >= 0, got %d", c.Export.Concurrency)
	}
	if !slices.Contains([]string{CacheNone, CacheFile, CacheRedis}, c.Cache.Backend) {
		return fmt.Errorf("cache.backend %q: want none, file or redis", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if _, err := c.CacheTTL(); err != nil {
		return err
	}
	if !slices.Contains([]string{StorageFile, StorageSQLite, StorageMongo}, c.Storage.Backend) {
		return fmt.Errorf("storage.backend %q: want file, sqlite or mongo", c.Storage.Backend)
	}
	if c.Storage.Backend == StorageMongo && (c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "") {
		return fmt.Errorf("storage.mongo_uri and storage.mongo_database are required for the mongo backend")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// CacheTTL parses the cache TTL. An empty TTL means entries never expire.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("cache.ttl: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("cache.ttl must not be negative")
	}
	return d, nil
}

// LogLevel parses the log level.
func (c *Config) LogLevel() (log.Level, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Policy returns the unsupported-kind policy.
func (c *Config) Policy() deserialize.Policy {
	p, err := deserialize.ParsePolicy(c.Import.Unsupported)
	if err != nil {
		return deserialize.DefaultPolicy
	}
	return p
}

// FallbackFont returns the import fallback font.
func (c *Config) FallbackFont() scene.FontName {
	return scene.FontName{Family: c.Import.FallbackFamily, Style: c.Import.FallbackStyle}
}

// ImportOptions returns deserializer options for this configuration.
func (c *Config) ImportOptions(logger *log.Logger) deserialize.Options {
	return deserialize.Options{
		Logger:       logger,
		Unsupported:  c.Policy(),
		FallbackFont: c.FallbackFont(),
	}
}
