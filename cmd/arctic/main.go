// Command arctic adds or removes charge transfer inefficiency trails in CCD
// images.
//
// Usage:
//
//	arctic add -c model.yaml image.txt trailed.txt
//	arctic remove -c model.yaml --iterations 5 trailed.txt corrected.txt
//	arctic demo
//	arctic benchmark --rows 2000 --cols 10
//
// Images are read and written as text (.txt), 16-bit TIFF (.tif, .tiff,
// scaled by --scale) or, for output only, PNG previews (.png).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "arctic:", err)
		os.Exit(1)
	}
}
