package variant

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/densify/pkg/density"
	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/naming"
	"github.com/matzehuels/densify/pkg/raster"
)

// Derived is one physical-pixel buffer produced for a ratio.
type Derived struct {
	Ratio       float64 `cbor:"1,keyasint"`
	Width       int     `cbor:"2,keyasint"`
	Height      int     `cbor:"3,keyasint"`
	Data        []byte  `cbor:"4,keyasint"`
	Passthrough bool    `cbor:"5,keyasint"` // Data is the original source bytes
}

// Variant is a derived buffer with its emission name and public URL.
type Variant struct {
	Derived
	Name string
	URL  string
}

// Deriver produces variants for every ratio of a resolution.
type Deriver struct {
	// Concurrency bounds parallel resizes. Zero means GOMAXPROCS.
	Concurrency int
	Logger      *log.Logger
}

// NewDeriver creates a Deriver with the given concurrency limit.
func NewDeriver(concurrency int, logger *log.Logger) *Deriver {
	if logger == nil {
		logger = log.Default()
	}
	return &Deriver{Concurrency: concurrency, Logger: logger}
}

func (d *Deriver) limit() int {
	if d.Concurrency > 0 {
		return d.Concurrency
	}
	return runtime.GOMAXPROCS(0)
}

// Derive produces one Derived per ratio in res.Ratios, in the same order.
//
// On error no variants are returned. Errors from the resize primitive are
// wrapped with [errors.ErrCodeResize] unless they already carry a code.
func (d *Deriver) Derive(ctx context.Context, src raster.Source, original []byte, res density.Resolution) ([]Derived, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	out := make([]Derived, len(res.Ratios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.limit())

	for i, ratio := range res.Ratios {
		i, ratio := i, ratio
		w, h := res.PixelSize(ratio)
		if res.IsNative(ratio) {
			out[i] = Derived{Ratio: ratio, Width: w, Height: h, Data: original, Passthrough: true}
			continue
		}

		g.Go(func() error {
			if w <= 0 || h <= 0 {
				return errors.New(errors.ErrCodeResize, "resize %sx: target size %dx%d is not positive",
					density.FormatRatio(ratio), w, h)
			}
			start := time.Now()
			data, err := src.Resize(ctx, w, h)
			if err != nil {
				if errors.GetCode(err) != "" {
					return err
				}
				return errors.Wrap(errors.ErrCodeResize, err, "resize %sx to %dx%d",
					density.FormatRatio(ratio), w, h)
			}
			logger.Debug("resized", "ratio", density.FormatRatio(ratio), "size", sizeString(w, h), "duration", time.Since(start))
			out[i] = Derived{Ratio: ratio, Width: w, Height: h, Data: data}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Assign names each derived buffer. All variants of one source share the
// content id and extension.
func Assign(derived []Derived, contentID, ext string, namer naming.Namer) []Variant {
	variants := make([]Variant, len(derived))
	for i, d := range derived {
		name, url := namer.Name(contentID, d.Ratio, ext)
		variants[i] = Variant{Derived: d, Name: name, URL: url}
	}
	return variants
}

func sizeString(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
