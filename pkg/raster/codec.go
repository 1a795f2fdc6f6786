package raster

import (
	"context"
	"fmt"
)

// Codec decodes raw image bytes into a resizable Source.
type Codec interface {
	Decode(data []byte) (Source, error)
}

// Source is a decoded image. Resize always works from the decoded original,
// never from a previous Resize result.
type Source interface {
	Width() int
	Height() int
	Format() Format
	Resize(ctx context.Context, width, height int) ([]byte, error)
}

// Identifier is implemented by codecs whose output is fully determined by an
// identifier, making their results safe to cache.
type Identifier interface {
	ID() string
}

// CodecID returns a stable identifier for c, used in cache keys.
func CodecID(c Codec) string {
	if id, ok := c.(Identifier); ok {
		return id.ID()
	}
	return fmt.Sprintf("%T", c)
}
