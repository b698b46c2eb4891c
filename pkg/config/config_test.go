package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/canvasport/pkg/deserialize"
	"github.com/matzehuels/canvasport/pkg/scene"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadMissingDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Policy() != deserialize.PolicySkip {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[import]
unsupported = "Substitute"
fallback_family = "Roboto"
fallback_style = "Medium"

[export]
concurrency = 8
previews = true

[cache]
backend = "redis"
redis_addr = "cache:6379"
ttl = "2h"

[storage]
backend = "sqlite"
path = "/tmp/bundles.db"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Policy() != deserialize.PolicySubstitute {
		t.Errorf("policy = %s", cfg.Policy())
	}
	if got := cfg.FallbackFont(); got != (scene.FontName{Family: "Roboto", Style: "Medium"}) {
		t.Errorf("fallback = %v", got)
	}
	if cfg.Export.Concurrency != 8 || !cfg.Export.Previews {
		t.Errorf("export = %+v", cfg.Export)
	}
	if ttl, _ := cfg.CacheTTL(); ttl != 2*time.Hour {
		t.Errorf("ttl = %v", ttl)
	}
	if cfg.Storage.Backend != StorageSQLite || cfg.Storage.Path != "/tmp/bundles.db" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if level, _ := cfg.LogLevel(); level != log.DebugLevel {
		t.Errorf("level = %v", level)
	}
	if cfg.Server.Addr != "localhost:8080" {
		t.Errorf("server addr default lost: %q", cfg.Server.Addr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CANVASPORT_LOG_LEVEL", "warn")
	t.Setenv("CANVASPORT_SERVER_ADDR", ":9999")
	t.Setenv("CANVASPORT_STORAGE", "mongo")
	path := writeFile(t, "[log]\nlevel = \"debug\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" || cfg.Server.Addr != ":9999" || cfg.Storage.Backend != StorageMongo {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"policy", func(c *Config) { c.Import.Unsupported = "ignore" }},
		{"concurrency", func(c *Config) { c.Export.Concurrency = -1 }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis addr", func(c *Config) { c.Cache.Backend = CacheRedis; c.Cache.RedisAddr = "" }},
		{"ttl", func(c *Config) { c.Cache.TTL = "soon" }},
		{"negative ttl", func(c *Config) { c.Cache.TTL = "-1h" }},
		{"storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"mongo uri", func(c *Config) { c.Storage.Backend = StorageMongo; c.Storage.MongoURI = "" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Import.Unsupported = "reject"
	cfg.Cache.TTL = "30m"
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Import.Unsupported != "reject" || got.Cache.TTL != "30m" {
		t.Errorf("loaded %+v", got)
	}
}

func TestPaths(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	t.Setenv("XDG_CACHE_HOME", base)
	t.Setenv("XDG_DATA_HOME", base)

	path, err := DefaultPath()
	if err != nil || path != filepath.Join(base, "canvasport", "config.toml") {
		t.Errorf("DefaultPath = %q, %v", path, err)
	}
	if dir, _ := CacheDir(); dir != filepath.Join(base, "canvasport") {
		t.Errorf("CacheDir = %q", dir)
	}
	if dir, _ := DataDir(); dir != filepath.Join(base, "canvasport") {
		t.Errorf("DataDir = %q", dir)
	}
}
