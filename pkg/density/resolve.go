package density

import (
	"math"
	"strings"
)

// RatioSet is the ordered list of density ratios to produce.
// Integers come first in ascending order, then the fractional maximum if any.
type RatioSet []float64

// NewRatioSet builds the ratio set for a maximum ratio.
//
// max must be bounded by the caller; the set has floor(max)+1 members at
// most.
func NewRatioSet(max float64) RatioSet {
	k := math.Floor(max)
	set := make(RatioSet, 0, int(k)+1)
	for i := 1.0; i <= k; i++ {
		set = append(set, i)
	}
	if k != max {
		set = append(set, max)
	}
	return set
}

// Contains reports whether r is a member of the set.
func (s RatioSet) Contains(r float64) bool {
	for _, v := range s {
		if v == r {
			return true
		}
	}
	return false
}

// Max returns the last member of the set, or 0 for an empty set.
func (s RatioSet) Max() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// String renders the set as "1x, 2x, 2.5x".
func (s RatioSet) String() string {
	parts := make([]string, len(s))
	for i, r := range s {
		parts[i] = FormatRatio(r) + "x"
	}
	return strings.Join(parts, ", ")
}

// Resolution is the outcome of resolving a source image's densities.
type Resolution struct {
	Suffix   Suffix
	Declared bool // Whether the filename carried a usable suffix

	NativeWidth  int
	NativeHeight int

	// Base (1x) logical size. Fractional when the native size is not
	// divisible by the declared ratio.
	BaseWidth  float64
	BaseHeight float64

	Ratios RatioSet
}

// Resolve determines base dimensions and the ratio set for a source image.
// It never fails: a missing or unusable suffix yields a single 1x asset.
func Resolve(filename string, nativeWidth, nativeHeight int) Resolution {
	res := Resolution{
		NativeWidth:  nativeWidth,
		NativeHeight: nativeHeight,
		BaseWidth:    float64(nativeWidth),
		BaseHeight:   float64(nativeHeight),
		Ratios:       RatioSet{1},
	}

	suffix, ok := ParseSuffix(filename)
	if !ok {
		return res
	}

	res.Suffix = suffix
	res.Declared = true
	res.BaseWidth = float64(nativeWidth) / suffix.Ratio
	res.BaseHeight = float64(nativeHeight) / suffix.Ratio
	res.Ratios = NewRatioSet(suffix.Ratio)
	return res
}

// MaxRatio returns the ratio the source bytes already represent.
func (r Resolution) MaxRatio() float64 {
	if r.Declared {
		return r.Suffix.Ratio
	}
	return 1
}

// IsNative reports whether ratio is the one the source bytes already
// represent, so the variant needs no resize.
//
// The comparison is exact. Members of a RatioSet are either small integers
// or the very float64 the suffix parsed to, so no precision drift occurs.
func (r Resolution) IsNative(ratio float64) bool {
	return ratio == r.MaxRatio()
}

// PixelSize returns the physical pixel size of the variant at ratio.
// The native ratio reports the native size; other ratios round
// base*ratio to the nearest pixel.
func (r Resolution) PixelSize(ratio float64) (width, height int) {
	if r.IsNative(ratio) {
		return r.NativeWidth, r.NativeHeight
	}
	return int(math.Round(r.BaseWidth * ratio)), int(math.Round(r.BaseHeight * ratio))
}
