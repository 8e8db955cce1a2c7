// Package screen provides the screen-capture primitive consumed by the
// monitoring loop.
package screen

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Capture grabs a full-resolution RGBA raster of the primary display.
// Coordinates of everything the monitor detects are relative to this raster.
func Capture() (image.Image, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("no active display")
	}
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return img, nil
}
