package density

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSuffix(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     Suffix
		wantOK   bool
	}{
		{"integer", "logo@2x.png", Suffix{Ratio: 2, Text: "2"}, true},
		{"fractional", "logo@2.5x.png", Suffix{Ratio: 2.5, Text: "2.5"}, true},
		{"one", "logo@1x.png", Suffix{Ratio: 1, Text: "1"}, true},
		{"below one", "logo@0.5x.png", Suffix{Ratio: 0.5, Text: "0.5"}, true},
		{"not anchored", "logo@3x-dark.png", Suffix{Ratio: 3, Text: "3"}, true},
		{"first match wins", "logo@2x@3x.png", Suffix{Ratio: 2, Text: "2"}, true},
		{"no extension", "logo@3x", Suffix{Ratio: 3, Text: "3"}, true},
		{"directory ignored", "assets@9x/logo@2x.png", Suffix{Ratio: 2, Text: "2"}, true},

		{"absent", "logo.png", Suffix{}, false},
		{"zero", "logo@0x.png", Suffix{}, false},
		{"uppercase X", "logo@2X.png", Suffix{}, false},
		{"missing digits", "logo@x.png", Suffix{}, false},
		{"trailing dot", "logo@2.x.png", Suffix{}, false},
		{"suffix in extension", "logo.@2x", Suffix{}, false},
		{"overflow", "logo@" + strings.Repeat("9", 400) + "x.png", Suffix{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseSuffix(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ParseSuffix(%q) ok = %v, want %v", tt.filename, ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseSuffix(%q) mismatch (-want +got):\n%s", tt.filename, diff)
			}
		})
	}
}

func TestNewRatioSet(t *testing.T) {
	tests := []struct {
		max  float64
		want RatioSet
	}{
		{1, RatioSet{1}},
		{2, RatioSet{1, 2}},
		{3, RatioSet{1, 2, 3}},
		{1.5, RatioSet{1, 1.5}},
		{2.5, RatioSet{1, 2, 2.5}},
		{3.75, RatioSet{1, 2, 3, 3.75}},
		{0.5, RatioSet{0.5}},
	}

	for _, tt := range tests {
		t.Run(FormatRatio(tt.max), func(t *testing.T) {
			got := NewRatioSet(tt.max)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NewRatioSet(%v) mismatch (-want +got):\n%s", tt.max, diff)
			}
		})
	}
}

func TestResolveWithoutSuffix(t *testing.T) {
	sizes := [][2]int{{64, 64}, {1, 1}, {333, 77}, {1920, 1080}}
	names := []string{"logo.png", "photo.jpeg", "icon", "logo@x.png"}

	for _, name := range names {
		for _, size := range sizes {
			res := Resolve(name, size[0], size[1])
			if res.Declared {
				t.Errorf("Resolve(%q) Declared = true, want false", name)
			}
			if diff := cmp.Diff(RatioSet{1}, res.Ratios); diff != "" {
				t.Errorf("Resolve(%q) ratios mismatch (-want +got):\n%s", name, diff)
			}
			if res.BaseWidth != float64(size[0]) || res.BaseHeight != float64(size[1]) {
				t.Errorf("Resolve(%q, %d, %d) base = %vx%v, want native",
					name, size[0], size[1], res.BaseWidth, res.BaseHeight)
			}
		}
	}
}

func TestResolveIntegerRatios(t *testing.T) {
	for n := 1; n <= 12; n++ {
		name := fmt.Sprintf("icon@%dx.png", n)
		res := Resolve(name, 120*n, 60*n)

		if len(res.Ratios) != n {
			t.Fatalf("%s: got %d ratios, want %d", name, len(res.Ratios), n)
		}
		for i, r := range res.Ratios {
			if r != float64(i+1) {
				t.Errorf("%s: ratio[%d] = %v, want %d", name, i, r, i+1)
			}
		}
		if res.BaseWidth != 120 || res.BaseHeight != 60 {
			t.Errorf("%s: base = %vx%v, want 120x60", name, res.BaseWidth, res.BaseHeight)
		}
	}
}

func TestResolveFractionalRatios(t *testing.T) {
	for _, r := range []float64{1.5, 2.25, 2.5, 3.75, 4.1} {
		name := "icon@" + FormatRatio(r) + "x.png"
		res := Resolve(name, 400, 200)

		k := int(math.Floor(r))
		if len(res.Ratios) != k+1 {
			t.Fatalf("%s: got %v, want %d members", name, res.Ratios, k+1)
		}
		for i := 0; i < k; i++ {
			if res.Ratios[i] != float64(i+1) {
				t.Errorf("%s: ratio[%d] = %v, want %d", name, i, res.Ratios[i], i+1)
			}
		}
		if res.Ratios.Max() != r {
			t.Errorf("%s: last ratio = %v, want %v", name, res.Ratios.Max(), r)
		}

		count := 0
		for _, v := range res.Ratios {
			if v == r {
				count++
			}
		}
		if count != 1 {
			t.Errorf("%s: ratio %v appears %d times, want 1", name, r, count)
		}
	}
}

func TestResolveScenarios(t *testing.T) {
	type variant struct{ Ratio, W, H float64 }

	tests := []struct {
		filename     string
		nativeW      int
		nativeH      int
		wantBase     [2]float64
		wantRatios   RatioSet
		wantVariants []variant
	}{
		{
			filename:   "logo@2x.png",
			nativeW:    200,
			nativeH:    100,
			wantBase:   [2]float64{100, 50},
			wantRatios: RatioSet{1, 2},
			wantVariants: []variant{
				{1, 100, 50},
				{2, 200, 100},
			},
		},
		{
			filename:   "logo@2.5x.png",
			nativeW:    250,
			nativeH:    100,
			wantBase:   [2]float64{100, 40},
			wantRatios: RatioSet{1, 2, 2.5},
			wantVariants: []variant{
				{1, 100, 40},
				{2, 200, 80},
				{2.5, 250, 100},
			},
		},
		{
			filename:     "logo.png",
			nativeW:      64,
			nativeH:      64,
			wantBase:     [2]float64{64, 64},
			wantRatios:   RatioSet{1},
			wantVariants: []variant{{1, 64, 64}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			res := Resolve(tt.filename, tt.nativeW, tt.nativeH)

			if got := [2]float64{res.BaseWidth, res.BaseHeight}; got != tt.wantBase {
				t.Errorf("base = %v, want %v", got, tt.wantBase)
			}
			if diff := cmp.Diff(tt.wantRatios, res.Ratios); diff != "" {
				t.Errorf("ratios mismatch (-want +got):\n%s", diff)
			}

			var got []variant
			for _, r := range res.Ratios {
				w, h := res.PixelSize(r)
				got = append(got, variant{r, float64(w), float64(h)})
			}
			if diff := cmp.Diff(tt.wantVariants, got); diff != "" {
				t.Errorf("variants mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveBelowOne(t *testing.T) {
	res := Resolve("thumb@0.5x.png", 50, 20)

	if diff := cmp.Diff(RatioSet{0.5}, res.Ratios); diff != "" {
		t.Errorf("ratios mismatch (-want +got):\n%s", diff)
	}
	if res.Ratios.Contains(1) {
		t.Error("ratio set should not contain 1")
	}
	if res.BaseWidth != 100 || res.BaseHeight != 40 {
		t.Errorf("base = %vx%v, want 100x40", res.BaseWidth, res.BaseHeight)
	}
	if !res.IsNative(0.5) {
		t.Error("0.5 should be the native ratio")
	}
}

func TestPixelSizeRounding(t *testing.T) {
	// 101/2 = 50.5 logical pixels
	res := Resolve("odd@2x.png", 101, 33)

	if w, h := res.PixelSize(1); w != 51 || h != 17 {
		t.Errorf("PixelSize(1) = %dx%d, want 51x17", w, h)
	}
	if w, h := res.PixelSize(2); w != 101 || h != 33 {
		t.Errorf("PixelSize(2) = %dx%d, want native 101x33", w, h)
	}
}

func TestMaxRatio(t *testing.T) {
	if got := Resolve("a.png", 10, 10).MaxRatio(); got != 1 {
		t.Errorf("MaxRatio() without suffix = %v, want 1", got)
	}
	if got := Resolve("a@3.5x.png", 35, 35).MaxRatio(); got != 3.5 {
		t.Errorf("MaxRatio() = %v, want 3.5", got)
	}
}

func TestRatioSetString(t *testing.T) {
	if got := (RatioSet{1, 2, 2.5}).String(); got != "1x, 2x, 2.5x" {
		t.Errorf("String() = %q", got)
	}
	if got := (RatioSet{}).Max(); got != 0 {
		t.Errorf("empty Max() = %v, want 0", got)
	}
}

func TestFormatRatio(t *testing.T) {
	tests := map[float64]string{1: "1", 2: "2", 2.5: "2.5", 0.25: "0.25", 1.125: "1.125"}
	for in, want := range tests {
		if got := FormatRatio(in); got != want {
			t.Errorf("FormatRatio(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"logo@2x.png":        "logo@2x",
		"dir/logo@2x.png":    "logo@2x",
		"archive.tar.gz":     "archive.tar",
		"logo@3x":            "logo@3x",
		"/abs/path/icon.svg": "icon",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
