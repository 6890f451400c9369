package renderer

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/canvas"
	"github.com/ivlev/composer/internal/source"
)

// maxNesting bounds precomposition recursion while drawing.
const maxNesting = animation.DefaultMaxDepth

// Vector draws the subset of an animation document the composer's
// templates use: precompositions, solids, images, and shape layers made of
// rectangles and ellipses with solid fills.
type Vector struct {
	Media *source.Resolver
}

func (v *Vector) Render(dc *gg.Context, req Request) error {
	doc := req.Document
	if doc == nil {
		return ErrNotReady
	}
	dw, dh := float64(doc.Width()), float64(doc.Height())
	if dw <= 0 || dh <= 0 {
		dw, dh = float64(dc.Width()), float64(dc.Height())
	}
	x, y, w, _ := canvas.Fit(dw, dh, float64(dc.Width()), float64(dc.Height()), "contain")
	k := w / dw

	dc.Push()
	defer dc.Pop()
	dc.Translate(x, y)
	dc.Scale(k, k)

	frame := doc.InPoint() + float64(req.Frame)
	return v.layers(dc, doc, doc.Layers(), frame, 1, 0)
}

// fillPath fills and clears the current path.
var fillPath = func(dc *gg.Context) error { return dc.Fill() }

// layers draws a layer list bottom-up: the first layer is the top-most.
func (v *Vector) layers(dc *gg.Context, doc *animation.Document, list []animation.Layer, frame, opacity float64, depth int) error {
	if depth > maxNesting {
		return nil
	}
	for i := len(list) - 1; i >= 0; i-- {
		if err := v.layer(dc, doc, list[i], frame, opacity, depth); err != nil {
			return err
		}
	}
	return nil
}

func (v *Vector) layer(dc *gg.Context, doc *animation.Document, l animation.Layer, frame, opacity float64, depth int) error {
	if op := l.OutPoint(); op > l.InPoint() && (frame < l.InPoint() || frame >= op) {
		return nil
	}
	if o, ok := l.Transform("o"); ok {
		opacity *= o.Scalar(frame, 100) / 100
	}
	if opacity <= 0 {
		return nil
	}

	dc.Push()
	defer dc.Pop()
	applyTransform(dc, l.Transform, frame)

	switch l.Type() {
	case animation.LayerPrecomp:
		if err := v.layers(dc, doc, doc.AssetLayers(l.RefID()), frame, opacity, depth+1); err != nil {
			return err
		}
		return v.layers(dc, doc, l.Children(), frame, opacity, depth+1)
	case animation.LayerSolid:
		c, w, h := l.Solid()
		fill(dc, canvas.HexColor(c, gg.RGBA{A: 1}), opacity)
		dc.DrawRectangle(0, 0, w, h)
		if err := fillPath(dc); err != nil {
			return fmt.Errorf("layer %q: %w", l.Name(), err)
		}
	case animation.LayerImage:
		v.image(dc, doc, l.RefID(), opacity)
	case animation.LayerShape:
		if err := shapes(dc, l.Shapes(), frame, opacity, 0); err != nil {
			return fmt.Errorf("layer %q: %w", l.Name(), err)
		}
	}
	return nil
}

func (v *Vector) image(dc *gg.Context, doc *animation.Document, refID string, opacity float64) {
	asset, ok := doc.Asset(refID)
	if !ok || asset.Payload == "" || v.Media == nil {
		return
	}
	img, err := v.Media.Image(asset.Payload, 0, 0)
	if err != nil {
		return
	}
	w, h := float64(asset.Width), float64(asset.Height)
	if w <= 0 || h <= 0 {
		b := img.Bounds()
		w, h = float64(b.Dx()), float64(b.Dy())
	}
	canvas.DrawImage(dc, img, 0, 0, w, h, opacity)
}

type transformSource func(key string) (animation.Property, bool)

// applyTransform applies position, scale and anchor in that order.
func applyTransform(dc *gg.Context, tr transformSource, frame float64) {
	if p, ok := tr("p"); ok {
		if v := p.At(frame); len(v) >= 2 {
			dc.Translate(v[0], v[1])
		}
	}
	if s, ok := tr("s"); ok {
		if v := s.At(frame); len(v) >= 2 {
			dc.Scale(v[0]/100, v[1]/100)
		}
	}
	if a, ok := tr("a"); ok {
		if v := a.At(frame); len(v) >= 2 {
			dc.Translate(-v[0], -v[1])
		}
	}
}

// shapes draws a shape list. Geometry in a list is filled with the
// list's fill; nested groups carry their own.
func shapes(dc *gg.Context, list []animation.Shape, frame, opacity float64, depth int) error {
	if depth > maxNesting {
		return nil
	}
	paint, hasFill := fillOf(list, frame)
	for i := len(list) - 1; i >= 0; i-- {
		s := list[i]
		switch s.Type() {
		case "gr":
			if err := group(dc, s, frame, opacity, depth); err != nil {
				return err
			}
		case "rc":
			if !hasFill {
				continue
			}
			p := vec2(s, "p", frame)
			size := vec2(s, "s", frame)
			r := 0.0
			if rp, ok := s.Prop("r"); ok {
				r = rp.Scalar(frame, 0)
			}
			fill(dc, paint, opacity)
			if r > 0 {
				dc.DrawRoundedRectangle(p[0]-size[0]/2, p[1]-size[1]/2, size[0], size[1], r)
			} else {
				dc.DrawRectangle(p[0]-size[0]/2, p[1]-size[1]/2, size[0], size[1])
			}
			if err := fillPath(dc); err != nil {
				return err
			}
		case "el":
			if !hasFill {
				continue
			}
			p := vec2(s, "p", frame)
			size := vec2(s, "s", frame)
			fill(dc, paint, opacity)
			dc.DrawEllipse(p[0], p[1], size[0]/2, size[1]/2)
			if err := fillPath(dc); err != nil {
				return err
			}
		}
	}
	return nil
}

func group(dc *gg.Context, g animation.Shape, frame, opacity float64, depth int) error {
	items := g.Items()
	dc.Push()
	defer dc.Pop()
	if tr, ok := transformOf(items); ok {
		if o, ok := tr.Prop("o"); ok {
			opacity *= o.Scalar(frame, 100) / 100
		}
		applyTransform(dc, tr.Prop, frame)
	}
	return shapes(dc, items, frame, opacity, depth+1)
}

func transformOf(items []animation.Shape) (animation.Shape, bool) {
	for _, it := range items {
		if it.Type() == "tr" {
			return it, true
		}
	}
	return animation.Shape{}, false
}

// fillOf returns the colour of the first fill node in list.
func fillOf(list []animation.Shape, frame float64) (gg.RGBA, bool) {
	for _, s := range list {
		if s.Type() != "fl" {
			continue
		}
		cp, ok := s.Prop("c")
		if !ok {
			return gg.RGBA{}, false
		}
		c := cp.At(frame)
		if len(c) < 3 {
			return gg.RGBA{}, false
		}
		out := gg.RGBA{R: c[0], G: c[1], B: c[2], A: 1}
		if len(c) > 3 {
			out.A = c[3]
		}
		if o, ok := s.Prop("o"); ok {
			out.A *= o.Scalar(frame, 100) / 100
		}
		return out, true
	}
	return gg.RGBA{}, false
}

func fill(dc *gg.Context, c gg.RGBA, opacity float64) {
	c = canvas.WithAlpha(c, opacity)
	dc.SetRGBA(c.R, c.G, c.B, c.A)
}

func vec2(s animation.Shape, key string, frame float64) [2]float64 {
	p, ok := s.Prop(key)
	if !ok {
		return [2]float64{}
	}
	v := p.At(frame)
	switch len(v) {
	case 0:
		return [2]float64{}
	case 1:
		return [2]float64{v[0], v[0]}
	}
	return [2]float64{v[0], v[1]}
}
