package vision

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorSummary describes the average color of a matched window, used only
// for human-readable log lines.
type ColorSummary struct {
	Hex string // "#RRGGBB"
	H   int    // Hue: 0-360 degrees
	S   int    // Saturation: 0-100 percent
	L   int    // Lightness: 0-100 percent
}

// String formats the summary for log output.
func (c ColorSummary) String() string {
	return fmt.Sprintf("%s hsl(%d,%d%%,%d%%)", c.Hex, c.H, c.S, c.L)
}

// WindowColor averages the colors of the w*h window centered at center,
// clamped to the raster bounds. A window entirely outside the raster yields
// the zero summary.
func WindowColor(raster image.Image, center image.Point, w, h int) ColorSummary {
	bounds := raster.Bounds()
	rect := image.Rect(center.X-w/2, center.Y-h/2, center.X+(w+1)/2, center.Y+(h+1)/2)
	rect = rect.Intersect(bounds)
	if rect.Empty() {
		return ColorSummary{}
	}

	var rSum, gSum, bSum uint64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := raster.At(x, y).RGBA()
			rSum += uint64(r >> 8)
			gSum += uint64(g >> 8)
			bSum += uint64(b >> 8)
		}
	}
	n := uint64(rect.Dx() * rect.Dy())

	c := colorful.Color{
		R: float64(rSum/n) / 255.0,
		G: float64(gSum/n) / 255.0,
		B: float64(bSum/n) / 255.0,
	}
	hue, sat, light := c.Hsl()
	return ColorSummary{
		Hex: c.Hex(),
		H:   int(hue + 0.5),
		S:   int(sat*100 + 0.5),
		L:   int(light*100 + 0.5),
	}
}
