// Package variant derives physical-pixel variants from a decoded source image.
//
// # Overview
//
// Given a decoded [raster.Source], its original encoded bytes and a
// [density.Resolution], a [Deriver] produces one buffer per ratio in the
// resolution's RatioSet:
//
//   - The ratio the source already represents reuses the original bytes
//     unchanged (a passthrough variant).
//   - Every other ratio is resized from the decoded original to
//     round(base*ratio) in each dimension. Variants are never derived from
//     one another.
//
// Resizes run concurrently. The first failure cancels the remaining work and
// Derive returns no variants at all.
//
// # Naming
//
// [Assign] attaches emission names and public URLs from a [naming.Namer],
// turning [Derived] buffers into [Variant] values ready to emit.
//
// [raster.Source]: github.com/matzehuels/densify/pkg/raster.Source
// [density.Resolution]: github.com/matzehuels/densify/pkg/density.Resolution
// [naming.Namer]: github.com/matzehuels/densify/pkg/naming.Namer
package variant
