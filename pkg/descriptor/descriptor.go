package descriptor

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/matzehuels/densify/pkg/density"
	"github.com/matzehuels/densify/pkg/variant"
)

// Size is a logical (1x) image size. Fractional when the native size is
// not divisible by the declared ratio.
type Size struct {
	Width  float64
	Height float64
}

// Candidate is one srcSet entry.
type Candidate struct {
	URL   string
	Ratio float64
}

// String renders the candidate as "url 2x".
func (c Candidate) String() string {
	return c.URL + " " + density.FormatRatio(c.Ratio) + "x"
}

// Descriptor references every variant of a source image.
type Descriptor struct {
	Default string  `json:"default,omitempty"`
	Src     string  `json:"src,omitempty"`
	Width   float64 `json:"width,omitempty"`
	Height  float64 `json:"height,omitempty"`
	SrcSet  string  `json:"srcSet"`
	Markup  string  `json:"markup,omitempty"`

	Candidates []Candidate `json:"-"`
	HasBase    bool        `json:"-"` // A 1x variant exists
}

// Options controls optional descriptor output.
type Options struct {
	IncludeMarkup bool
	Attributes    map[string]string // Extra <img> attributes
}

// Build creates the descriptor for variants, which must be in RatioSet order.
func Build(variants []variant.Variant, base Size, opts Options) Descriptor {
	var d Descriptor
	d.Candidates = make([]Candidate, len(variants))
	parts := make([]string, len(variants))

	for i, v := range variants {
		c := Candidate{URL: v.URL, Ratio: v.Ratio}
		d.Candidates[i] = c
		parts[i] = c.String()

		if v.Ratio == 1 {
			d.HasBase = true
			d.Default = v.URL
			d.Src = v.URL
			d.Width = base.Width
			d.Height = base.Height
		}
	}
	d.SrcSet = strings.Join(parts, ", ")

	if opts.IncludeMarkup && d.HasBase {
		d.Markup = d.Img(opts.Attributes)
	}
	return d
}

// Img renders an <img> element for the descriptor. Generated attributes come
// first in the order src, srcset, width, height; extra attributes follow
// sorted by name. An extra attribute with the name of a generated one
// replaces its value in place. Returns "" when there is no 1x variant.
func (d Descriptor) Img(extra map[string]string) string {
	if !d.HasBase {
		return ""
	}

	attrs := []html.Attribute{
		{Key: "src", Val: d.Src},
		{Key: "srcset", Val: d.SrcSet},
		{Key: "width", Val: density.FormatRatio(d.Width)},
		{Key: "height", Val: density.FormatRatio(d.Height)},
	}

	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := strings.ToLower(k)
		if i := indexOf(attrs, key); i >= 0 {
			attrs[i].Val = extra[k]
			continue
		}
		attrs = append(attrs, html.Attribute{Key: key, Val: extra[k]})
	}

	node := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Img,
		Data:     "img",
		Attr:     attrs,
	}

	var b strings.Builder
	if err := html.Render(&b, node); err != nil {
		// Rendering into a strings.Builder only fails for malformed trees.
		return ""
	}
	return b.String()
}

func indexOf(attrs []html.Attribute, key string) int {
	for i, a := range attrs {
		if a.Key == key {
			return i
		}
	}
	return -1
}
