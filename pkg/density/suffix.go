package density

import (
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// suffixPattern matches a density suffix such as "@2x" or "@1.5x".
var suffixPattern = regexp.MustCompile(`@(\d+(\.\d+)?)x`)

// Suffix is a density suffix parsed from a filename.
type Suffix struct {
	Ratio float64 // Maximum density the file represents
	Text  string  // Matched number as written, e.g. "2.5"
}

// Stem returns the basename of filename without its final extension.
func Stem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseSuffix extracts the density suffix from filename.
// The second return value is false when no usable suffix is present.
func ParseSuffix(filename string) (Suffix, bool) {
	m := suffixPattern.FindStringSubmatch(Stem(filename))
	if m == nil {
		return Suffix{}, false
	}
	r, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsInf(r, 0) || math.IsNaN(r) || r <= 0 {
		return Suffix{}, false
	}
	return Suffix{Ratio: r, Text: m[1]}, true
}

// FormatRatio formats r the shortest way that round-trips: 2 as "2",
// 2.5 as "2.5". It is used in srcSet candidates and emission names.
func FormatRatio(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
