package renderer

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/canvas"
	"github.com/ivlev/composer/internal/source"
)

// Overlay draws declarative UI widgets on top of the frame.
type Overlay struct{}

func (o *Overlay) Render(dc *gg.Context, req Request) error {
	props := req.Item.Properties
	switch ref := req.Item.Renderer.ComponentRef; ref {
	case "text":
		return canvas.Title(dc, props, 1)
	case "qr-code":
		return canvas.QR(dc, props, 1)
	case "bullet-list":
		return canvas.Bullets(dc, props, 1)
	case "lower-third":
		canvas.Caption(dc, props, 0, 1)
		return nil
	default:
		return fmt.Errorf("%w: widget %q", ErrUnsupported, ref)
	}
}

// Raster draws still media and full-frame effects.
type Raster struct {
	Media *source.Resolver
}

func (r *Raster) Render(dc *gg.Context, req Request) error {
	item := req.Item
	if item.Renderer.ComponentRef == "fade" {
		canvas.Fade(dc, item.Properties, Progress(req.LocalTime, item.Duration))
		return nil
	}
	return canvas.Media(dc, r.Media, item.Properties, 1)
}

// Hybrid draws a vector document with a widget overlay on top.
type Hybrid struct {
	Vector  Renderer
	Overlay Renderer
}

func (h *Hybrid) Render(dc *gg.Context, req Request) error {
	if err := h.Vector.Render(dc, req); err != nil {
		return err
	}
	return h.Overlay.Render(dc, req)
}
