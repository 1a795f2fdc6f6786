package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"DENSIFY_PUBLIC_PATH", "DENSIFY_CACHE_BACKEND", "DENSIFY_REDIS_ADDR", "DENSIFY_ADDR"} {
		t.Setenv(k, "")
	}
}

func configField(t *testing.T, err error) string {
	t.Helper()
	var cfgErr *errors.ConfigError
	if !stderrors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want *ConfigError", err)
	}
	return cfgErr.Field
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "densify.toml", `
[output]
dir = "public/img"
public_path = "/img/"
format = "module"

[loader]
include_markup = true
attributes = { loading = "lazy", decoding = "async" }

[naming]
hash = "blake3"
length = 12

[cache]
backend = "none"
ttl = "1h"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}
	if cfg.Output.Dir != "public/img" || cfg.Output.Format != "module" {
		t.Errorf("Output = %+v", cfg.Output)
	}
	// Unset sections keep defaults
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want default", cfg.Server.Addr)
	}

	wantCfg := pipeline.Config{
		IncludeMarkup: true,
		Attributes:    map[string]string{"loading": "lazy", "decoding": "async"},
	}
	if diff := cmp.Diff(wantCfg, cfg.PipelineConfig()); diff != "" {
		t.Errorf("PipelineConfig() mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.PipelineOptions()
	if opts.PublicPath != "/img/" || opts.Hash != "blake3" || opts.IDLength != 12 || opts.CacheTTL != time.Hour {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "densify.yaml", `
output:
  dir: out
  public_path: https://cdn.example.com/
loader:
  include_markup: true
image:
  filter: box
  concurrency: 2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.PublicPath != "https://cdn.example.com/" || !cfg.Loader.IncludeMarkup {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Image.Filter != "box" || cfg.Image.Concurrency != 2 {
		t.Errorf("Image = %+v", cfg.Image)
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "densify.yml", "")
	if _, err := Load(path); err != nil {
		t.Errorf("empty yaml should load defaults: %v", err)
	}
}

func TestLoadUnknownKeys(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tomlPath := writeFile(t, dir, "densify.toml", "[output]\ndir = \"x\"\nimage_element = true\n")
	_, err := Load(tomlPath)
	if got := configField(t, err); got != "output.image_element" {
		t.Errorf("toml Field = %q, want %q", got, "output.image_element")
	}

	yamlPath := writeFile(t, dir, "densify.yaml", "loader:\n  imageElement: true\n")
	_, err = Load(yamlPath)
	if got := configField(t, err); got != "imageElement" {
		t.Errorf("yaml Field = %q, want %q", got, "imageElement")
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), "densify.json", "{}")
	_, err := Load(path)
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidPath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"empty dir", func(c *Config) { c.Output.Dir = "" }, "output.dir"},
		{"bad attribute", func(c *Config) { c.Loader.Attributes = map[string]string{"a b": "x"} }, "loader.attributes"},
		{"bad hash", func(c *Config) { c.Naming.Hash = "md5" }, "naming.hash"},
		{"bad filter", func(c *Config) { c.Image.Filter = "fancy" }, "image.filter"},
		{"negative concurrency", func(c *Config) { c.Image.Concurrency = -2 }, "image.concurrency"},
		{"max ratio below one", func(c *Config) { c.Image.MaxRatio = 0.5 }, "image.max_ratio"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = BackendRedis }, "cache.redis_addr"},
		{"bad ttl", func(c *Config) { c.Cache.TTL = "forever" }, "cache.ttl"},
		{"negative body", func(c *Config) { c.Server.MaxBodyBytes = -1 }, "server.max_body_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if got := configField(t, err); got != tt.field {
				t.Errorf("Field = %q, want %q", got, tt.field)
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DENSIFY_PUBLIC_PATH", "/env/")
	t.Setenv("DENSIFY_CACHE_BACKEND", "redis")
	t.Setenv("DENSIFY_REDIS_ADDR", "localhost:6379")

	path := writeFile(t, t.TempDir(), "densify.toml", "[output]\npublic_path = \"/file/\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.PublicPath != "/env/" {
		t.Errorf("PublicPath = %q, environment should win", cfg.Output.PublicPath)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find(empty dir) = %q", got)
	}

	writeFile(t, dir, "densify.yaml", "")
	if got := Find(dir); filepath.Base(got) != "densify.yaml" {
		t.Errorf("Find() = %q, want densify.yaml", got)
	}

	writeFile(t, dir, "densify.toml", "")
	if got := Find(dir); filepath.Base(got) != "densify.toml" {
		t.Errorf("Find() = %q, want densify.toml to take precedence", got)
	}
}
