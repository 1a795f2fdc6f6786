package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Register the WebP decoder; imaging registers BMP and TIFF itself.
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/densify/pkg/errors"
)

// DefaultFilter is the resampling filter used when none is configured.
const DefaultFilter = "lanczos"

// filters maps configuration names to imaging resampling filters.
var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// FilterNames returns the supported filter names in sorted order.
func FilterNames() []string {
	names := make([]string, 0, len(filters))
	for name := range filters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ImagingCodec is the default Codec backed by disintegration/imaging.
type ImagingCodec struct {
	filterName string
	filter     imaging.ResampleFilter
}

// NewImagingCodec creates a codec using the named resampling filter.
// An empty name selects DefaultFilter.
func NewImagingCodec(filter string) (*ImagingCodec, error) {
	if filter == "" {
		filter = DefaultFilter
	}
	f, ok := filters[strings.ToLower(filter)]
	if !ok {
		return nil, fmt.Errorf("unknown resample filter %q (must be one of: %s)",
			filter, strings.Join(FilterNames(), ", "))
	}
	return &ImagingCodec{filterName: strings.ToLower(filter), filter: f}, nil
}

// ID identifies the codec and filter for cache keys.
func (c *ImagingCodec) ID() string {
	return "imaging:" + c.filterName
}

// Decode sniffs and decodes data.
func (c *ImagingCodec) Decode(data []byte) (Source, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeDecode, "empty image data")
	}

	mime := mimetype.Detect(data)
	format, ok := LookupFormat(mime.String())
	if !ok {
		return nil, errors.New(errors.ErrCodeDecode, "unsupported image type %s", mime.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", format)
	}

	return &imagingSource{img: img, format: format, filter: c.filter}, nil
}

// imagingSource is a decoded image held in memory.
type imagingSource struct {
	img    image.Image
	format Format
	filter imaging.ResampleFilter
}

func (s *imagingSource) Width() int     { return s.img.Bounds().Dx() }
func (s *imagingSource) Height() int    { return s.img.Bounds().Dy() }
func (s *imagingSource) Format() Format { return s.format }

// Resize scales the decoded original to width x height and encodes it in
// the source format. imaging.Resize allocates a fresh destination, so
// concurrent calls share nothing mutable.
func (s *imagingSource) Resize(ctx context.Context, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeResize, "invalid target size %dx%d", width, height)
	}

	enc, ok := encoders[s.format]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported, "cannot encode %s variants", s.format)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dst := imaging.Resize(s.img, width, height, s.filter)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, enc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeResize, err, "encode %s", s.format)
	}
	return buf.Bytes(), nil
}

// Ensure ImagingCodec implements Codec.
var _ Codec = (*ImagingCodec)(nil)
