package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/ctitools/arctic"
)

// ErrInvalidScale is returned for a TIFF scale that is not a positive
// finite number.
var ErrInvalidScale = errors.New("imageio: invalid scale")

// ToGray16 quantises img to 16-bit counts of scale electrons each.
// Values outside [0, 65535*scale] are clipped.
func ToGray16(img *arctic.Image, scale float64) (*image.Gray16, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidScale, scale)
	}
	g := image.NewGray16(image.Rect(0, 0, img.Cols(), img.Rows()))
	for y := range img.Rows() {
		for x, v := range img.Row(y) {
			c := math.Round(v / scale)
			switch {
			case !(c > 0):
				c = 0
			case c > math.MaxUint16:
				c = math.MaxUint16
			}
			g.SetGray16(x, y, color.Gray16{Y: uint16(c)})
		}
	}
	return g, nil
}

// FromGray converts any image to electrons, reading its 16-bit gray level
// and multiplying by scale.
func FromGray(src image.Image, scale float64) (*arctic.Image, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidScale, scale)
	}
	b := src.Bounds()
	img, err := arctic.NewImage(b.Dy(), b.Dx())
	if err != nil {
		return nil, err
	}

	// Fast path for Gray16, the only layout SaveTIFF writes.
	if g, ok := src.(*image.Gray16); ok {
		for y := range b.Dy() {
			row := img.Row(y)
			for x := range row {
				row[x] = float64(g.Gray16At(b.Min.X+x, b.Min.Y+y).Y) * scale
			}
		}
		return img, nil
	}

	for y := range b.Dy() {
		row := img.Row(y)
		for x := range row {
			c := color.Gray16Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			row[x] = float64(c.Y) * scale
		}
	}
	return img, nil
}

// SaveTIFF writes img as a deflate-compressed 16-bit grayscale TIFF.
func SaveTIFF(path string, img *arctic.Image, scale float64) error {
	g, err := ToGray16(img, scale)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}

	if err := tiff.Encode(f, g, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = f.Close()
		return fmt.Errorf("imageio: encode TIFF: %w", err)
	}

	return f.Close()
}

// LoadTIFF reads a grayscale TIFF and multiplies each count by scale.
func LoadTIFF(path string, scale float64) (*arctic.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imageio: decode TIFF: %w", err)
	}
	return FromGray(src, scale)
}

// Preview stretches img linearly onto 8-bit gray, mapping the minimum to
// black and the maximum to white. A flat image renders black.
func Preview(img *arctic.Image) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, img.Cols(), img.Rows()))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range img.Data() {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	if !(span > 0) {
		return g
	}
	for y := range img.Rows() {
		for x, v := range img.Row(y) {
			g.Pix[y*g.Stride+x] = uint8(math.Round(255 * (v - lo) / span))
		}
	}
	return g
}

// EncodePNG writes the preview of img as PNG to w.
func EncodePNG(w io.Writer, img *arctic.Image) error {
	if img == nil {
		return ErrNilImage
	}
	if err := png.Encode(w, Preview(img)); err != nil {
		return fmt.Errorf("imageio: encode PNG: %w", err)
	}
	return nil
}

// SavePNG writes the preview of img as a PNG file.
func SavePNG(path string, img *arctic.Image) error {
	if img == nil {
		return ErrNilImage
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}

	if err := EncodePNG(f, img); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
