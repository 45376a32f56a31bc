package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ctitools/arctic"
	"github.com/ctitools/arctic/internal/imageio"
)

// readImage loads path by extension. TIFF counts are multiplied by scale.
func readImage(path string, scale float64) (*arctic.Image, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".dat", "":
		return imageio.LoadText(path)
	case ".tif", ".tiff":
		return imageio.LoadTIFF(path, scale)
	default:
		return nil, fmt.Errorf("read %s: unsupported extension %q", path, ext)
	}
}

// writeImage saves img by extension. TIFF counts are electrons / scale.
func writeImage(path string, img *arctic.Image, scale float64) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".dat", "":
		return imageio.SaveText(path, img)
	case ".tif", ".tiff":
		return imageio.SaveTIFF(path, img, scale)
	case ".png":
		return imageio.SavePNG(path, img)
	default:
		return fmt.Errorf("write %s: unsupported extension %q", path, ext)
	}
}
