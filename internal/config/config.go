// Package config loads the densify project configuration.
//
// A project is configured by densify.toml (or densify.yaml / densify.yml)
// in the working directory:
//
//	[output]
//	dir = "dist/assets"
//	public_path = "/assets/"
//	format = "json"          # or "module"
//
//	[loader]
//	include_markup = true
//	attributes = { loading = "lazy" }
//
//	[naming]
//	hash = "sha256"          # or "blake3"
//	length = 16
//
//	[cache]
//	backend = "file"         # "redis" or "none"
//	ttl = "720h"
//
// Unknown keys are rejected with a ConfigError naming the key. Command-line
// flags override file values; environment variables override both.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/densify/pkg/cache"
	"github.com/matzehuels/densify/pkg/descriptor"
	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/naming"
	"github.com/matzehuels/densify/pkg/pipeline"
	"github.com/matzehuels/densify/pkg/raster"
)

// FileNames are the recognized configuration files, in lookup order.
var FileNames = []string{"densify.toml", "densify.yaml", "densify.yml"}

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete project configuration.
type Config struct {
	Output OutputConfig `toml:"output" yaml:"output"`
	Loader LoaderConfig `toml:"loader" yaml:"loader"`
	Naming NamingConfig `toml:"naming" yaml:"naming"`
	Image  ImageConfig  `toml:"image" yaml:"image"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Server ServerConfig `toml:"server" yaml:"server"`

	// Path is the file the config was loaded from, empty for defaults.
	Path string `toml:"-" yaml:"-"`
}

// OutputConfig controls where variants and descriptors go.
type OutputConfig struct {
	Dir        string `toml:"dir" yaml:"dir"`
	PublicPath string `toml:"public_path" yaml:"public_path"`
	Format     string `toml:"format" yaml:"format"`

	// PublicPathExpr is a JavaScript expression prefixed to URLs in module
	// output, e.g. "__webpack_public_path__".
	PublicPathExpr string `toml:"public_path_expr" yaml:"public_path_expr"`
}

// LoaderConfig holds the per-image options.
type LoaderConfig struct {
	IncludeMarkup bool              `toml:"include_markup" yaml:"include_markup"`
	Attributes    map[string]string `toml:"attributes" yaml:"attributes"`
}

// NamingConfig controls content ids.
type NamingConfig struct {
	Hash   string `toml:"hash" yaml:"hash"`
	Length int    `toml:"length" yaml:"length"`
}

// ImageConfig controls resizing.
type ImageConfig struct {
	Filter      string  `toml:"filter" yaml:"filter"`
	Concurrency int     `toml:"concurrency" yaml:"concurrency"`
	MaxRatio    float64 `toml:"max_ratio" yaml:"max_ratio"`
}

// CacheConfig selects the derivation cache.
type CacheConfig struct {
	Backend   string `toml:"backend" yaml:"backend"`
	Dir       string `toml:"dir" yaml:"dir"` // Empty means the user cache dir
	RedisAddr string `toml:"redis_addr" yaml:"redis_addr"`
	Prefix    string `toml:"prefix" yaml:"prefix"` // Key prefix for shared backends
	TTL       string `toml:"ttl" yaml:"ttl"`
}

// ServerConfig configures `densify serve`.
type ServerConfig struct {
	Addr         string `toml:"addr" yaml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes" yaml:"max_body_bytes"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:    "dist",
			Format: descriptor.FormatJSON,
		},
		Naming: NamingConfig{
			Hash:   naming.HashSHA256,
			Length: naming.DefaultIDLength,
		},
		Image: ImageConfig{
			Filter:   raster.DefaultFilter,
			MaxRatio: pipeline.DefaultMaxRatio,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     cache.TTLVariants.String(),
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxBodyBytes: 32 << 20,
		},
	}
}

// Find returns the first configuration file present in dir, or "" if none.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads the configuration at path over the defaults, applies
// environment overrides and validates the result. An empty path returns the
// defaults with environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		cfg.Path = path
	}
	cfg.applyEnvironmentOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	switch filepath.Ext(path) {
	case ".toml":
		md, err := toml.DecodeFile(path, c)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.NewConfigError(undecoded[0].String(), "unknown key in %s", filepath.Base(path))
		}
		return nil

	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			if err == io.EOF {
				return nil // Empty file
			}
			if m := yamlUnknownField.FindStringSubmatch(err.Error()); m != nil {
				return errors.NewConfigError(m[1], "unknown key in %s", filepath.Base(path))
			}
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil

	default:
		return errors.New(errors.ErrCodeInvalidPath, "unsupported config file type %q (use .toml or .yaml)", filepath.Ext(path))
	}
}

// yamlUnknownField extracts the key from yaml.v3's KnownFields error.
var yamlUnknownField = regexp.MustCompile(`field (\S+) not found in type`)

// applyEnvironmentOverrides applies DENSIFY_* environment variables.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv("DENSIFY_PUBLIC_PATH"); v != "" {
		c.Output.PublicPath = v
	}
	if v := os.Getenv("DENSIFY_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("DENSIFY_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("DENSIFY_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// Validate checks value ranges and enumerations. Errors are ConfigErrors
// naming the dotted key.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case descriptor.FormatJSON, descriptor.FormatModule:
	default:
		return errors.NewConfigError("output.format", "must be %q or %q, got %q",
			descriptor.FormatJSON, descriptor.FormatModule, c.Output.Format)
	}
	if c.Output.Dir == "" {
		return errors.NewConfigError("output.dir", "must not be empty")
	}

	for name := range c.Loader.Attributes {
		if err := errors.ValidateAttributeName(name); err != nil {
			return errors.NewConfigError("loader.attributes", "%s", errors.UserMessage(err))
		}
	}

	if _, err := naming.NewHasher(c.Naming.Hash, c.Naming.Length); err != nil {
		return errors.NewConfigError("naming.hash", "%v", err)
	}
	if _, err := raster.NewImagingCodec(c.Image.Filter); err != nil {
		return errors.NewConfigError("image.filter", "%v", err)
	}
	if c.Image.Concurrency < 0 {
		return errors.NewConfigError("image.concurrency", "must not be negative")
	}
	if c.Image.MaxRatio != 0 && c.Image.MaxRatio < 1 {
		return errors.NewConfigError("image.max_ratio", "must be at least 1")
	}

	switch c.Cache.Backend {
	case BackendFile, BackendNone:
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.NewConfigError("cache.redis_addr", "required for the redis backend")
		}
	default:
		return errors.NewConfigError("cache.backend", "must be one of file, redis, none; got %q", c.Cache.Backend)
	}
	if _, err := c.CacheTTL(); err != nil {
		return errors.NewConfigError("cache.ttl", "%v", err)
	}

	if c.Server.MaxBodyBytes < 0 {
		return errors.NewConfigError("server.max_body_bytes", "must not be negative")
	}
	return nil
}

// CacheTTL parses the cache TTL. Empty returns 0, which the pipeline
// replaces with its default.
func (c *Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Cache.TTL)
}

// PipelineOptions converts the file settings to runner options.
// Call after Validate.
func (c *Config) PipelineOptions() pipeline.Options {
	ttl, _ := c.CacheTTL()
	return pipeline.Options{
		CacheTTL:    ttl,
		PublicPath:  c.Output.PublicPath,
		Hash:        c.Naming.Hash,
		IDLength:    c.Naming.Length,
		Filter:      c.Image.Filter,
		Concurrency: c.Image.Concurrency,
		MaxRatio:    c.Image.MaxRatio,
	}
}

// PipelineConfig returns the per-image options.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		IncludeMarkup: c.Loader.IncludeMarkup,
		Attributes:    c.Loader.Attributes,
	}
}
