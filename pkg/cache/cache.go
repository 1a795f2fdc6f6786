// Package cache stores derived variants across runs.
//
// The pipeline caches the encoded variant buffers of a source image keyed by
// the source's content hash, its declared ratio and the codec that produced
// them. Entries are immutable: identical inputs always map to the same key
// and the same bytes, so a hit can be reused without re-validation.
//
// # Backends
//
//   - [NullCache]: never stores anything (caching disabled)
//   - [FileCache]: local directory, zstd-compressed entries (CLI, watch mode)
//   - [RedisCache]: shared cache for the HTTP API
//
// Cache failures are never fatal to the pipeline. Callers log and continue.
package cache

import (
	"context"
	"time"
)

// TTLVariants is how long derived variants stay cached.
const TTLVariants = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// VariantKeyOpts are the inputs besides content that determine derived
// variants.
type VariantKeyOpts struct {
	Ratio string // Declared ratio as written in the filename, "" for none
	Codec string // Codec identifier, including its resampling filter
}

// Keyer generates cache keys.
type Keyer interface {
	VariantKey(contentHash string, opts VariantKeyOpts) string
}

// DefaultKeyer generates keys of the form "variants:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// VariantKey generates a key for the variants of one source image.
func (DefaultKeyer) VariantKey(contentHash string, opts VariantKeyOpts) string {
	return hashKey("variants", contentHash, opts.Ratio, opts.Codec)
}
