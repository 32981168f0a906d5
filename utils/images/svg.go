// Package images keeps SVG rasterization helpers used to sanity check
// patcher output.
package images

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

const defaultSVGSize = 1024 // used when SVG viewBox carries no size

// maxRasterDim is the maximum pixel dimension (width or height) allowed
// when rasterizing an SVG. This prevents OOM from SVGs with enormous
// viewBox values which would otherwise allocate multi-gigabyte RGBA
// buffers.
const maxRasterDim = 8192

// RasterizeSVGToImage rasterizes SVG data to an RGBA image at its intrinsic
// size, clamped to maxRasterDim while preserving aspect ratio.
func RasterizeSVGToImage(svgData []byte) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 {
		w = defaultSVGSize
	}
	if h <= 0 {
		h = defaultSVGSize
	}

	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = max(int(math.Round(float64(w)*s)), 1)
		h = max(int(math.Round(float64(h)*s)), 1)
	}

	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}

// VerifySVG checks that the file at path still parses and renders as SVG.
// Used after patching to catch rewrites that broke the markup.
func VerifySVG(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read svg for verification (%s): %w", path, err)
	}
	if _, err := RasterizeSVGToImage(data); err != nil {
		return fmt.Errorf("patched svg does not render (%s): %w", path, err)
	}
	return nil
}
