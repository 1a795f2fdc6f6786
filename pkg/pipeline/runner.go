package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/densify/pkg/cache"
	"github.com/matzehuels/densify/pkg/density"
	"github.com/matzehuels/densify/pkg/descriptor"
	"github.com/matzehuels/densify/pkg/emit"
	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/naming"
	"github.com/matzehuels/densify/pkg/observability"
	"github.com/matzehuels/densify/pkg/raster"
	"github.com/matzehuels/densify/pkg/variant"
)

// Runner executes the pipeline with caching.
//
// The Runner holds no per-image state. Multiple goroutines can safely call
// Process on the same Runner.
type Runner struct {
	Codec  raster.Codec
	Namer  naming.Namer
	Sink   emit.Sink
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	hasher  naming.Hasher
	deriver *variant.Deriver
	opts    Options
}

// NewRunner creates a runner emitting into sink.
// If cache is nil, a NullCache is used (caching disabled).
// If logger is nil, the default logger is used.
func NewRunner(sink emit.Sink, c cache.Cache, logger *log.Logger, opts Options) (*Runner, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}

	codec, err := raster.NewImagingCodec(opts.Filter)
	if err != nil {
		return nil, err
	}
	hasher, err := naming.NewHasher(opts.Hash, opts.IDLength)
	if err != nil {
		return nil, err
	}

	return &Runner{
		Codec:   codec,
		Namer:   naming.NewPublicPathNamer(opts.PublicPath),
		Sink:    sink,
		Cache:   c,
		Keyer:   cache.NewDefaultKeyer(),
		Logger:  logger,
		hasher:  hasher,
		deriver: variant.NewDeriver(opts.Concurrency, logger),
		opts:    opts,
	}, nil
}

// Options returns the runner's options with defaults applied.
func (r *Runner) Options() Options { return r.opts }

// cachedVariants is the cache entry for one source image. Passthrough
// variants are stored without data; the source bytes fill them in.
type cachedVariants struct {
	NativeWidth  int               `cbor:"1,keyasint"`
	NativeHeight int               `cbor:"2,keyasint"`
	Format       raster.Format     `cbor:"3,keyasint"`
	Variants     []variant.Derived `cbor:"4,keyasint"`
}

// Process derives, emits and describes the variants of one source image.
//
// filename supplies the density suffix and the extension of emitted
// variants; only its base name is used. Nothing is emitted unless every
// variant was derived.
func (r *Runner) Process(ctx context.Context, source []byte, filename string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(source) == 0 {
		return nil, errors.New(errors.ErrCodeDecode, "decode %s: empty source", filename)
	}
	if s, ok := density.ParseSuffix(filename); ok && s.Ratio > r.opts.MaxRatio {
		return nil, errors.New(errors.ErrCodeResize, "%s: ratio %sx exceeds maximum %sx",
			filename, s.Text, density.FormatRatio(r.opts.MaxRatio))
	}

	logger := r.Logger.With("file", filepath.Base(filename))
	result := &Result{
		ContentID: r.hasher.ContentID(source),
	}
	result.Stats.SourceBytes = len(source)

	derived, res, format, hit, err := r.derive(ctx, source, filename, result, logger)
	if err != nil {
		return nil, err
	}
	result.Resolution = res
	result.Format = format
	result.CacheInfo.DeriveHit = hit

	ext := variantExt(filename, format)
	result.Variants = variant.Assign(derived, result.ContentID, ext, r.Namer)

	if err := r.emitAll(ctx, filename, result); err != nil {
		return nil, err
	}

	base := descriptor.Size{Width: res.BaseWidth, Height: res.BaseHeight}
	result.Descriptor = descriptor.Build(result.Variants, base, cfg.descriptorOptions())

	logger.Info("processed",
		"ratios", res.Ratios.String(),
		"base", fmt.Sprintf("%sx%s", density.FormatRatio(res.BaseWidth), density.FormatRatio(res.BaseHeight)),
		"cached", hit,
		"duration", result.Stats.DecodeTime+result.Stats.DeriveTime+result.Stats.EmitTime)

	return result, nil
}

// ProcessFile reads path and processes it under its base name.
func (r *Runner) ProcessFile(ctx context.Context, path string, cfg Config) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r.Process(ctx, data, filepath.Base(path), cfg)
}

// derive returns the derived variants, from cache when possible.
func (r *Runner) derive(ctx context.Context, source []byte, filename string, result *Result, logger *log.Logger) ([]variant.Derived, density.Resolution, raster.Format, bool, error) {
	suffix, _ := density.ParseSuffix(filename)
	key := r.Keyer.VariantKey(cache.Hash(source), cache.VariantKeyOpts{
		Ratio: suffix.Text,
		Codec: raster.CodecID(r.Codec),
	})

	if !r.opts.Refresh {
		if entry, ok := r.loadCached(ctx, key, logger); ok {
			res := density.Resolve(filename, entry.NativeWidth, entry.NativeHeight)
			if len(entry.Variants) == len(res.Ratios) {
				observability.Cache().OnCacheHit(ctx, "variants")
				for i := range entry.Variants {
					if entry.Variants[i].Passthrough {
						entry.Variants[i].Data = source
					}
				}
				logger.Debug("variants from cache", "ratios", res.Ratios.String())
				return entry.Variants, res, entry.Format, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "variants")
	}

	hooks := observability.Pipeline()

	start := time.Now()
	hooks.OnDecodeStart(ctx, filename, len(source))
	src, err := r.Codec.Decode(source)
	result.Stats.DecodeTime = time.Since(start)
	if err != nil {
		hooks.OnDecodeComplete(ctx, filename, 0, 0, result.Stats.DecodeTime, err)
		if errors.GetCode(err) == "" {
			err = errors.Wrap(errors.ErrCodeDecode, err, "decode %s", filename)
		}
		return nil, density.Resolution{}, raster.Format{}, false, err
	}
	hooks.OnDecodeComplete(ctx, filename, src.Width(), src.Height(), result.Stats.DecodeTime, nil)
	logger.Debug("decoded", "format", src.Format().MIME, "size", fmt.Sprintf("%dx%d", src.Width(), src.Height()))

	res := density.Resolve(filename, src.Width(), src.Height())

	start = time.Now()
	hooks.OnDeriveStart(ctx, filename, len(res.Ratios))
	derived, err := r.deriver.Derive(ctx, src, source, res)
	result.Stats.DeriveTime = time.Since(start)
	hooks.OnDeriveComplete(ctx, filename, len(derived), result.Stats.DeriveTime, err)
	if err != nil {
		return nil, density.Resolution{}, raster.Format{}, false, err
	}

	r.storeCached(ctx, key, res, src.Format(), derived, logger)
	return derived, res, src.Format(), false, nil
}

func (r *Runner) loadCached(ctx context.Context, key string, logger *log.Logger) (cachedVariants, bool) {
	var entry cachedVariants
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "error", err)
		return entry, false
	}
	if !hit {
		return entry, false
	}
	if err := cache.Unmarshal(data, &entry); err != nil {
		logger.Debug("discarding unreadable cache entry", "error", err)
		return entry, false
	}
	return entry, true
}

func (r *Runner) storeCached(ctx context.Context, key string, res density.Resolution, format raster.Format, derived []variant.Derived, logger *log.Logger) {
	entry := cachedVariants{
		NativeWidth:  res.NativeWidth,
		NativeHeight: res.NativeHeight,
		Format:       format,
		Variants:     make([]variant.Derived, len(derived)),
	}
	for i, d := range derived {
		if d.Passthrough {
			d.Data = nil
		}
		entry.Variants[i] = d
	}

	data, err := cache.Marshal(entry)
	if err != nil {
		logger.Warn("cache encode failed", "error", err)
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.opts.CacheTTL); err != nil {
		logger.Warn("cache write failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "variants", len(data))
}

// emitAll hands every variant to the sink in ratio-set order.
func (r *Runner) emitAll(ctx context.Context, filename string, result *Result) error {
	start := time.Now()
	var err error
	for _, v := range result.Variants {
		if err = r.Sink.Emit(ctx, v.Name, v.Data); err != nil {
			if errors.GetCode(err) == "" {
				err = errors.Wrap(errors.ErrCodeEmit, err, "emit %s", v.Name)
			}
			break
		}
		result.Stats.EmittedBytes += len(v.Data)
	}
	result.Stats.EmitTime = time.Since(start)
	observability.Pipeline().OnEmitComplete(ctx, filename, len(result.Variants), result.Stats.EmittedBytes, result.Stats.EmitTime, err)
	return err
}

// variantExt returns the extension for emitted variants: the source
// filename's extension, or the detected format's when it has none.
func variantExt(filename string, format raster.Format) string {
	if ext := filepath.Ext(filepath.Base(filename)); ext != "" {
		return ext
	}
	return format.Ext
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
