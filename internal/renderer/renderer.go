// Package renderer paints individual timeline items for interactive
// preview. Each item is drawn onto its own layer so that a failing item
// is replaced by a placeholder without disturbing its siblings.
package renderer

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/canvas"
	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/source"
	"github.com/ivlev/composer/internal/timeline"
)

var (
	// ErrNotReady is returned for vector items whose document has not
	// finished loading.
	ErrNotReady = errors.New("document not ready")
	// ErrUnsupported is returned for items without a renderer.
	ErrUnsupported = errors.New("unsupported asset type")
)

// Request is everything needed to paint one item at one instant.
type Request struct {
	Item *timeline.Item
	// LocalTime is seconds since the item's start.
	LocalTime float64
	// Frame is the document frame for vector items.
	Frame int
	// Document is the item's derived document, nil until loaded.
	Document *animation.Document
	// Opacity is the owning layer's opacity.
	Opacity float64
}

// Renderer paints a single item.
type Renderer interface {
	Render(dc *gg.Context, req Request) error
}

// RenderFunc adapts a function to Renderer.
type RenderFunc func(dc *gg.Context, req Request) error

func (f RenderFunc) Render(dc *gg.Context, req Request) error { return f(dc, req) }

// Set maps renderer technologies to implementations.
type Set struct {
	byTech map[catalog.Technology]Renderer
}

// NewSet builds the standard renderer set.
func NewSet(media *source.Resolver) *Set {
	vector := &Vector{Media: media}
	overlay := &Overlay{}
	return &Set{byTech: map[catalog.Technology]Renderer{
		catalog.TechVectorCanvas: vector,
		catalog.TechDOMOverlay:   overlay,
		catalog.TechRasterCanvas: &Raster{Media: media},
		catalog.TechHybrid:       &Hybrid{Vector: vector, Overlay: overlay},
	}}
}

// For returns the renderer registered for tech.
func (s *Set) For(tech catalog.Technology) (Renderer, bool) {
	r, ok := s.byTech[tech]
	return r, ok
}

// Paint renders req onto a private layer and composites it onto dst.
// A failure or panic inside r is returned and a placeholder naming the
// asset type and the reason is drawn instead.
func Paint(dst *gg.Context, r Renderer, req Request) error {
	layer := gg.NewContext(dst.Width(), dst.Height())
	defer layer.Close()

	err := safeRender(r, layer, req)
	if err != nil {
		Placeholder(dst, req.Item.AssetType, err)
		return err
	}
	opacity := req.Opacity
	if opacity <= 0 {
		return nil
	}
	canvas.DrawImage(dst, layer.Image(), 0, 0, float64(dst.Width()), float64(dst.Height()), opacity)
	return nil
}

func safeRender(r Renderer, dc *gg.Context, req Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v\n%s", rec, debug.Stack())
		}
	}()
	if r == nil {
		return ErrUnsupported
	}
	return r.Render(dc, req)
}

// Placeholder draws the labelled fallback box for a failed, loading or
// unsupported item.
func Placeholder(dc *gg.Context, assetType string, reason error) {
	msg := "unknown error"
	if reason != nil {
		msg = reason.Error()
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
	}
	canvas.Placeholder(dc, assetType, msg)
}
