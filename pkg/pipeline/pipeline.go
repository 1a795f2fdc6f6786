// Package pipeline turns one source image into density variants and a
// descriptor.
//
// This package implements the decode → derive → emit → describe pipeline
// used by the CLI, watch mode and HTTP API. Centralizing it keeps every entry
// point consistent: the same filename, bytes and config always produce the
// same variants, names and descriptor.
//
// # Stages
//
//  1. Resolve: parse the density suffix from the filename and compute base
//     dimensions and the ratio set
//  2. Derive: resize the decoded original once per ratio (the native ratio
//     passes the original bytes through)
//  3. Emit: hand every variant to the sink, only after all were derived
//  4. Describe: build the descriptor (default URL, srcSet, optional markup)
//
// # Usage
//
//	sink, _ := emit.NewDirSink("dist/assets")
//	runner, err := pipeline.NewRunner(sink, cache.NewNullCache(), logger, pipeline.Options{
//	    PublicPath: "/assets/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Process(ctx, data, "logo@2x.png", pipeline.Config{IncludeMarkup: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Descriptor.SrcSet)
//
// # Loader options
//
// Callers that accept options from untyped sources (config objects, query
// strings) use [MergeConfig] and [ParseConfig]. Exactly one option is
// recognized, includeMarkup. Anything else is rejected with a
// [errors.ConfigError] before any processing begins.
package pipeline

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/matzehuels/densify/pkg/cache"
	"github.com/matzehuels/densify/pkg/density"
	"github.com/matzehuels/densify/pkg/descriptor"
	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/naming"
	"github.com/matzehuels/densify/pkg/raster"
	"github.com/matzehuels/densify/pkg/variant"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Watch Mode
// =============================================================================

const (
	// DefaultMaxRatio bounds the declared density ratio. A ratio set has
	// floor(ratio)+1 members, so an unbounded suffix like "@100000x" would
	// request that many resizes.
	DefaultMaxRatio = 16.0

	// DefaultFilter is the default resampling filter.
	DefaultFilter = raster.DefaultFilter

	// DefaultHash is the default content id algorithm.
	DefaultHash = naming.HashSHA256
)

// OptionIncludeMarkup is the only recognized loader option.
const OptionIncludeMarkup = "includeMarkup"

// =============================================================================
// Config - Per-Invocation Loader Options
// =============================================================================

// Config holds the per-invocation options.
type Config struct {
	// IncludeMarkup adds a pre-rendered <img> fragment to the descriptor.
	IncludeMarkup bool `json:"includeMarkup,omitempty"`

	// Attributes are extra <img> attributes. Runtime-only; not accepted by
	// ParseConfig.
	Attributes map[string]string `json:"-"`
}

// Validate checks runtime-only fields.
func (c Config) Validate() error {
	for name := range c.Attributes {
		if err := errors.ValidateAttributeName(name); err != nil {
			return errors.NewConfigError("attributes", "%s", errors.UserMessage(err))
		}
	}
	return nil
}

// descriptorOptions converts the config for the descriptor builder.
func (c Config) descriptorOptions() descriptor.Options {
	return descriptor.Options{
		IncludeMarkup: c.IncludeMarkup,
		Attributes:    c.Attributes,
	}
}

// ParseConfig validates untyped options and returns the typed Config.
// Unknown keys and ill-typed values produce a ConfigError naming the key.
// When several keys are unknown, the first in sorted order is reported.
func ParseConfig(options map[string]any) (Config, error) {
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var cfg Config
	for _, k := range keys {
		switch k {
		case OptionIncludeMarkup:
			v, ok := options[k].(bool)
			if !ok {
				return Config{}, errors.NewConfigError(k, "must be a boolean, got %T", options[k])
			}
			cfg.IncludeMarkup = v
		default:
			return Config{}, errors.NewConfigError(k, "unknown option (allowed: %s)", OptionIncludeMarkup)
		}
	}
	return cfg, nil
}

// MergeConfig merges option sources in order; later sources win. Typically
// called as MergeConfig(configObject, queryOptions).
func MergeConfig(sources ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			merged[k] = v
		}
	}
	return merged
}

// ParseQuery converts query parameters to untyped options. A bare key or
// "true" becomes true, "false" becomes false; anything else stays a string.
// Keys listed in skip are left out.
func ParseQuery(values url.Values, skip ...string) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if contains(skip, k) {
			continue
		}
		v := ""
		if len(vs) > 0 {
			v = vs[len(vs)-1]
		}
		switch strings.ToLower(v) {
		case "", "true":
			out[k] = true
		case "false":
			out[k] = false
		default:
			out[k] = v
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// Options - Runner Configuration
// =============================================================================

// Options configures a Runner. They apply to every Process call.
type Options struct {
	PublicPath  string  `json:"public_path,omitempty"`
	Hash        string  `json:"hash,omitempty"`      // sha256 or blake3
	IDLength    int     `json:"id_length,omitempty"` // Hex characters of the content id
	Filter      string  `json:"filter,omitempty"`    // Resampling filter name
	Concurrency int     `json:"concurrency,omitempty"`
	MaxRatio    float64 `json:"max_ratio,omitempty"`
	Refresh     bool    `json:"refresh,omitempty"` // Bypass cache reads

	// CacheTTL is how long derived variants stay cached. Zero means
	// cache.TTLVariants.
	CacheTTL time.Duration `json:"-"`
}

// SetDefaults fills zero fields with defaults.
func (o *Options) SetDefaults() {
	if o.Hash == "" {
		o.Hash = DefaultHash
	}
	if o.IDLength == 0 {
		o.IDLength = naming.DefaultIDLength
	}
	if o.Filter == "" {
		o.Filter = DefaultFilter
	}
	if o.MaxRatio == 0 {
		o.MaxRatio = DefaultMaxRatio
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.TTLVariants
	}
}

// Validate checks option values. Call SetDefaults first.
func (o *Options) Validate() error {
	if _, err := naming.NewHasher(o.Hash, o.IDLength); err != nil {
		return errors.NewConfigError("hash", "%v", err)
	}
	if _, err := raster.NewImagingCodec(o.Filter); err != nil {
		return errors.NewConfigError("filter", "%v", err)
	}
	if o.Concurrency < 0 {
		return errors.NewConfigError("concurrency", "must not be negative")
	}
	if o.MaxRatio < 1 {
		return errors.NewConfigError("max_ratio", "must be at least 1, got %s", density.FormatRatio(o.MaxRatio))
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of one Process call.
type Result struct {
	// Descriptor references the emitted variants.
	Descriptor descriptor.Descriptor

	// Variants in ratio-set order, as emitted.
	Variants []variant.Variant

	// Resolution holds the parsed suffix, base size and ratio set.
	Resolution density.Resolution

	// ContentID is the truncated content hash shared by all variant names.
	ContentID string

	// Format is the detected source format.
	Format raster.Format

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains execution statistics.
type Stats struct {
	SourceBytes  int
	EmittedBytes int
	DecodeTime   time.Duration
	DeriveTime   time.Duration
	EmitTime     time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	DeriveHit bool // Variants came from cache; decode and resize were skipped
}

// Summary renders a one-line description of the result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d variant(s) [%s] base %sx%s",
		len(r.Variants), r.Resolution.Ratios,
		density.FormatRatio(r.Resolution.BaseWidth), density.FormatRatio(r.Resolution.BaseHeight))
}
