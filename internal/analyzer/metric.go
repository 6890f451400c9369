// Package analyzer measures how far two renderings of the same frame
// diverge. Preview and export parity is approximate, so the numbers are
// reported and never used to correct either path.
package analyzer

import (
	"errors"
	"image"
	"image/draw"
)

// ErrSizeMismatch is returned when the frames have different bounds.
var ErrSizeMismatch = errors.New("frames differ in size")

// Report describes the divergence between two frames.
type Report struct {
	Metric  string
	Mean    float64           // mean absolute channel delta, 0..255
	Max     uint8             // largest channel delta
	Changed float64           // share of pixels above the threshold, 0..1
	Regions []image.Rectangle // divergent areas, only from the regions metric
}

// Metric is the interface for frame comparison strategies
type Metric interface {
	Name() string
	Compare(a, b image.Image) (Report, error)
}

// toRGBA returns img as *image.RGBA anchored at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func pair(a, b image.Image) (*image.RGBA, *image.RGBA, error) {
	if a.Bounds().Size() != b.Bounds().Size() {
		return nil, nil, ErrSizeMismatch
	}
	return toRGBA(a), toRGBA(b), nil
}

func absDiff(x, y uint8) uint8 {
	if x > y {
		return x - y
	}
	return y - x
}
