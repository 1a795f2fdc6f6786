package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/densify/internal/config"
	"github.com/matzehuels/densify/pkg/cache"
	"github.com/matzehuels/densify/pkg/descriptor"
	"github.com/matzehuels/densify/pkg/emit"
	"github.com/matzehuels/densify/pkg/pipeline"
)

// =============================================================================
// Shared Flags
// =============================================================================

// settingsFlags are the flags shared by process, watch and serve. Flags
// override the configuration file only when set explicitly.
type settingsFlags struct {
	configPath string
	outDir     string
	publicPath string
	format     string
	hash       string
	markup     bool
	attrs      []string
	options    []string
	noCache    bool
	refresh    bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "configuration file (default: densify.toml/.yaml in the working directory)")
	fl.StringVarP(&f.outDir, "out", "o", "", "output directory for variants and descriptors")
	fl.StringVar(&f.publicPath, "public-path", "", "URL prefix for emitted variants")
	fl.StringVarP(&f.format, "format", "f", "", "descriptor format: json or module")
	fl.StringVar(&f.hash, "hash", "", "content id hash: sha256 or blake3")
	fl.BoolVar(&f.markup, "markup", false, "include <img> markup in descriptors")
	fl.StringArrayVar(&f.attrs, "attr", nil, "extra markup attribute as name=value (repeatable)")
	fl.StringArrayVar(&f.options, "option", nil, "loader option as key[=value] (repeatable)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable the derivation cache")
	fl.BoolVar(&f.refresh, "refresh", false, "re-derive variants and overwrite cached entries")
}

// settings is the resolved configuration for one command invocation.
type settings struct {
	cfg    *config.Config
	loader pipeline.Config
}

// load reads the configuration file and applies explicitly set flags on top.
func (f *settingsFlags) load(cmd *cobra.Command) (*settings, error) {
	path := f.configPath
	if path == "" {
		path = config.Find(".")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("out") {
		cfg.Output.Dir = f.outDir
	}
	if fl.Changed("public-path") {
		cfg.Output.PublicPath = f.publicPath
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fl.Changed("hash") {
		cfg.Naming.Hash = f.hash
	}
	if fl.Changed("no-cache") && f.noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loader, err := f.loaderConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, loader: loader}, nil
}

// loaderConfig merges the file's loader options with --markup and --option
// and validates the result the same way the HTTP API validates queries.
func (f *settingsFlags) loaderConfig(cfg *config.Config) (pipeline.Config, error) {
	fromFile := map[string]any{pipeline.OptionIncludeMarkup: cfg.Loader.IncludeMarkup}

	fromFlags := map[string]any{}
	if f.markup {
		fromFlags[pipeline.OptionIncludeMarkup] = true
	}
	values := url.Values{}
	for _, opt := range f.options {
		key, value, _ := strings.Cut(opt, "=")
		values.Add(key, value)
	}

	loader, err := pipeline.ParseConfig(pipeline.MergeConfig(fromFile, fromFlags, pipeline.ParseQuery(values)))
	if err != nil {
		return pipeline.Config{}, err
	}

	attrs, err := parseAttrs(f.attrs)
	if err != nil {
		return pipeline.Config{}, err
	}
	loader.Attributes = make(map[string]string, len(cfg.Loader.Attributes)+len(attrs))
	for k, v := range cfg.Loader.Attributes {
		loader.Attributes[k] = v
	}
	for k, v := range attrs {
		loader.Attributes[k] = v
	}
	if err := loader.Validate(); err != nil {
		return pipeline.Config{}, err
	}
	return loader, nil
}

// parseAttrs parses name=value pairs.
func parseAttrs(pairs []string) (map[string]string, error) {
	attrs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --attr %q: expected name=value", p)
		}
		attrs[name] = value
	}
	return attrs, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newCache builds the configured derivation cache.
func newCache(ctx context.Context, cfg config.CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		return cache.NewRedisCache(ctx, cfg.RedisAddr)
	default:
		dir, err := fileCacheDir(cfg)
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// fileCacheDir returns the configured cache directory or the user default.
func fileCacheDir(cfg config.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	return cacheDir()
}

// newRunner creates a pipeline runner emitting into sink.
func (c *CLI) newRunner(ctx context.Context, s *settings, sink emit.Sink, refresh bool) (*pipeline.Runner, error) {
	cc, err := newCache(ctx, s.cfg.Cache)
	if err != nil {
		return nil, err
	}

	opts := s.cfg.PipelineOptions()
	opts.Refresh = refresh

	runner, err := pipeline.NewRunner(sink, cc, c.Logger, opts)
	if err != nil {
		_ = cc.Close()
		return nil, err
	}
	if s.cfg.Cache.Prefix != "" {
		runner.Keyer = cache.NewScopedKeyer(runner.Keyer, s.cfg.Cache.Prefix)
	}
	return runner, nil
}

// =============================================================================
// Descriptor Output
// =============================================================================

// writeDescriptor writes d next to the variants as <stem>.json or <stem>.js
// and returns the path.
func writeDescriptor(cfg *config.Config, filename string, d descriptor.Descriptor) (string, error) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	path := filepath.Join(cfg.Output.Dir, stem+descriptor.Ext(cfg.Output.Format))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create descriptor: %w", err)
	}

	if cfg.Output.Format == descriptor.FormatModule {
		err = descriptor.RenderModule(f, d, descriptor.ModuleOptions{PublicPathExpr: cfg.Output.PublicPathExpr})
	} else {
		err = descriptor.RenderJSON(f, d)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write descriptor %s: %w", path, err)
	}
	return path, nil
}
