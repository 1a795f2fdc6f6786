// Package descriptor builds the machine-readable description of a derived
// image set.
//
// # Overview
//
// A [Descriptor] references the variants of one source image:
//
//	{
//	  "default": "/assets/3f2a9c1d0b7e4a55-1.png",
//	  "src":     "/assets/3f2a9c1d0b7e4a55-1.png",
//	  "width":   100,
//	  "height":  50,
//	  "srcSet":  "/assets/3f2a9c1d0b7e4a55-1.png 1x, /assets/3f2a9c1d0b7e4a55-2.png 2x"
//	}
//
// The default reference and the base dimensions exist only when a 1x
// variant was produced. Sources declared below 1x (`@0.5x`) only carry a
// srcSet.
//
// # Markup
//
// When requested, the descriptor also carries a pre-rendered `<img>`
// fragment. Caller-supplied attributes are appended after the generated
// ones and replace them on conflict.
//
// # Rendering
//
// [RenderJSON] writes the descriptor as indented JSON. [RenderModule]
// writes an ES module exporting the same fields, for bundler integration.
package descriptor
