// Package raster provides the decode and resize primitives the pipeline
// consumes.
//
// # Overview
//
// The pipeline only needs two operations from an image library: decode a
// byte buffer once, then produce encoded copies of that decoded image at
// arbitrary sizes. [Codec] and [Source] capture exactly that, so tests and
// alternative backends can stand in for the default implementation.
//
// # Default Codec
//
// [ImagingCodec] sniffs the format with mimetype, decodes with the standard
// library and golang.org/x/image decoders, resizes with
// github.com/disintegration/imaging and re-encodes in the source format.
// Supported formats:
//
//   - PNG, JPEG, GIF, BMP, TIFF: decode and resize
//   - WebP: decode only; resizing reports an UNSUPPORTED error
//
// A [Source] is immutable after decode and safe for concurrent Resize calls.
package raster
