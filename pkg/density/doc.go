// Package density resolves the set of pixel-density variants for a source
// image from the density suffix encoded in its filename.
//
// # Overview
//
// A source image named `icon@3x.png` is taken to be the 3x rendering of an
// icon. Its base (1x) logical size is the native size divided by three, and
// the variants to produce are 1x, 2x and 3x. This package owns that
// arithmetic and nothing else: it never touches pixels or the filesystem.
//
// # Suffix Grammar
//
// The suffix is the first match of
//
//	@(\d+(\.\d+)?)x
//
// anywhere in the filename stem (the basename without its final extension).
// A match whose value is not a finite, strictly positive number is ignored
// and the file is treated as a plain 1x asset. See [ParseSuffix].
//
// # Ratio Sets
//
// [NewRatioSet] lists every integer from 1 to floor(r), followed by r itself
// when r is fractional:
//
//	3    -> [1 2 3]
//	2.5  -> [1 2 2.5]
//	1    -> [1]
//	0.5  -> [0.5]
//
// The last case has no 1x member. It is arithmetically well defined and kept
// as-is; callers decide whether such files make sense for them.
//
// # Resolution
//
// [Resolve] combines both steps with the native pixel size:
//
//	res := density.Resolve("logo@2.5x.png", 250, 100)
//	// res.BaseWidth == 100, res.BaseHeight == 40
//	// res.Ratios == [1 2 2.5]
//	w, h := res.PixelSize(2) // 200, 80
package density
