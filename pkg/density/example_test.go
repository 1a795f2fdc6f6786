package density_test

import (
	"fmt"

	"github.com/matzehuels/densify/pkg/density"
)

func ExampleResolve() {
	res := density.Resolve("logo@2.5x.png", 250, 100)

	fmt.Println("base:", res.BaseWidth, "x", res.BaseHeight)
	fmt.Println("ratios:", res.Ratios)
	for _, r := range res.Ratios {
		w, h := res.PixelSize(r)
		fmt.Printf("%sx: %dx%d native=%v\n", density.FormatRatio(r), w, h, res.IsNative(r))
	}
	// Output:
	// base: 100 x 40
	// ratios: 1x, 2x, 2.5x
	// 1x: 100x40 native=false
	// 2x: 200x80 native=false
	// 2.5x: 250x100 native=true
}

func ExampleParseSuffix() {
	s, ok := density.ParseSuffix("icon@3x.png")
	fmt.Println(s.Ratio, ok)

	_, ok = density.ParseSuffix("icon.png")
	fmt.Println(ok)
	// Output:
	// 3 true
	// false
}
