// Package pkg provides the core libraries for densify.
//
// # Overview
//
// Densify turns one high-density source image (logo@3x.png) into the full
// set of lower-density variants a browser needs, plus a descriptor that
// references them through a srcset. The pkg directory is organized by stage:
//
//  1. [density] - Parse the @Nx suffix and compute the ratio set and base size
//  2. [raster] - Decode sources and resize them (imaging, x/image)
//  3. [variant] - Derive every variant concurrently and assign names
//  4. [naming] - Content ids (sha256, blake3) and public URLs
//  5. [emit] - Write variants to disk or memory
//  6. [descriptor] - Build and render the srcset descriptor
//  7. [pipeline] - Orchestrate the stages with caching
//
// Supporting packages:
//   - [cache] - Derivation cache backends (file, redis, null)
//   - [errors] - Coded errors shared by the CLI and HTTP API
//   - [observability] - Hooks for tracing and metrics
//   - [buildinfo] - Version information
//
// # Architecture
//
// The data flow for one image:
//
//	logo@2x.png bytes
//	         ↓
//	    [density] (suffix → ratio set, base size)
//	         ↓
//	    [raster] + [variant] (decode once, resize per ratio)
//	         ↓
//	    [naming] + [emit] (content-addressed names, sink)
//	         ↓
//	    [descriptor] (src, width, height, srcSet, markup)
//
// # Quick Start
//
//	sink, _ := emit.NewDirSink("dist")
//	runner, _ := pipeline.NewRunner(sink, nil, nil, pipeline.Options{
//	    PublicPath: "/img/",
//	})
//	defer runner.Close()
//
//	result, err := runner.ProcessFile(ctx, "logo@2x.png", pipeline.Config{})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Descriptor.SrcSet)
//
// [density]: github.com/matzehuels/densify/pkg/density
// [raster]: github.com/matzehuels/densify/pkg/raster
// [variant]: github.com/matzehuels/densify/pkg/variant
// [naming]: github.com/matzehuels/densify/pkg/naming
// [emit]: github.com/matzehuels/densify/pkg/emit
// [descriptor]: github.com/matzehuels/densify/pkg/descriptor
// [pipeline]: github.com/matzehuels/densify/pkg/pipeline
// [cache]: github.com/matzehuels/densify/pkg/cache
// [errors]: github.com/matzehuels/densify/pkg/errors
// [observability]: github.com/matzehuels/densify/pkg/observability
// [buildinfo]: github.com/matzehuels/densify/pkg/buildinfo
package pkg
