package compositor

import (
	"math"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/canvas"
	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/source"
)

// Family is a procedurally rendered animation.
type Family interface {
	Name() string
	// Params computes the frame parameters at progress p on a w×h frame.
	Params(p, w, h float64, props catalog.Properties) Params
	Draw(dc *gg.Context, p float64, props catalog.Properties, media *source.Resolver) error
}

func scaleOf(props catalog.Properties) float64 {
	if s, ok := props.Float("scale"); ok && s > 0 {
		return s
	}
	return 1
}

func background(dc *gg.Context, props catalog.Properties, def string) {
	c := props.String("backgroundColor")
	if animation.IsTransparent(c) {
		return
	}
	if c == "" {
		c = def
	}
	canvas.Fill(dc, canvas.HexColor(c, gg.RGBA{A: 1}))
}

// scaleIn is shared by the families: grow from nothing during enter,
// full size afterwards.
func scaleIn(ph Phase, local float64) float64 {
	if ph == PhaseEnter {
		return easeOutCubic(local)
	}
	return 1
}

// pulse: an accent disc that grows in, holds, then leaves to the right.
type pulse struct{}

func (pulse) Name() string { return "pulse" }

func (pulse) Params(p, w, h float64, props catalog.Properties) Params {
	ph, local := PhaseAt(p)
	full := math.Min(w, h) * 0.17 * scaleOf(props)
	out := Params{Phase: ph, Scale: scaleIn(ph, local), Opacity: 1}
	out.Radius = full * out.Scale
	if ph == PhaseExit {
		out.OffsetX = lerp(0, w/2+full, easeInOutCubic(local))
	}
	return out
}

func (f pulse) Draw(dc *gg.Context, p float64, props catalog.Properties, _ *source.Resolver) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	prm := f.Params(p, w, h, props)
	background(dc, props, "#101820")
	if prm.Radius <= 0 {
		return nil
	}
	c := canvas.WithAlpha(canvas.HexColor(props.String("accentColor"), gg.RGBA{R: 0.996, G: 0.906, B: 0.082, A: 1}), prm.Opacity)
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.DrawCircle(w/2+prm.OffsetX, h/2+prm.OffsetY, prm.Radius)
	return dc.Fill()
}

// logoReveal: the logo scales and fades in, holds, then rises off-frame.
type logoReveal struct{}

func (logoReveal) Name() string { return "logo-reveal" }

func (logoReveal) Params(p, w, h float64, props catalog.Properties) Params {
	ph, local := PhaseAt(p)
	size := math.Min(w, h) * 0.5 * scaleOf(props)
	out := Params{Phase: ph, Scale: scaleIn(ph, local), Opacity: 1}
	if ph == PhaseEnter {
		out.Opacity = local
	}
	out.Radius = size / 2 * out.Scale
	if ph == PhaseExit {
		out.OffsetY = lerp(0, -(h/2 + size/2), easeInOutCubic(local))
	}
	return out
}

func (f logoReveal) Draw(dc *gg.Context, p float64, props catalog.Properties, media *source.Resolver) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	prm := f.Params(p, w, h, props)
	background(dc, props, "#1E88E5")
	if prm.Radius <= 0 || prm.Opacity <= 0 {
		return nil
	}
	cx, cy := w/2+prm.OffsetX, h/2+prm.OffsetY
	if ref := props.String("embeddedImage"); ref != "" && media != nil {
		img, err := media.Image(ref, 0, 0)
		if err != nil {
			return err
		}
		b := img.Bounds()
		side := 2 * prm.Radius
		_, _, iw, ih := canvas.Fit(float64(b.Dx()), float64(b.Dy()), side, side, "contain")
		canvas.DrawImage(dc, img, cx-iw/2, cy-ih/2, iw, ih, prm.Opacity)
		return nil
	}
	dc.SetRGBA(1, 1, 1, prm.Opacity)
	dc.DrawCircle(cx, cy, prm.Radius)
	return dc.Fill()
}

// lowerThird: a caption bar that unfolds from the left edge, holds, then
// slides out to the left.
type lowerThird struct{}

func (lowerThird) Name() string { return "lower-third" }

func (lowerThird) Params(p, w, h float64, props catalog.Properties) Params {
	ph, local := PhaseAt(p)
	out := Params{Phase: ph, Scale: scaleIn(ph, local), Opacity: 1}
	if ph == PhaseExit {
		out.OffsetX = lerp(0, -(w*0.6 + h*0.06), easeInOutCubic(local))
	}
	return out
}

func (f lowerThird) Draw(dc *gg.Context, p float64, props catalog.Properties, _ *source.Resolver) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	prm := f.Params(p, w, h, props)
	barW, barH := w*0.6*prm.Scale, h*0.16
	x, y := h*0.03+prm.OffsetX, h*0.72
	if barW > 0 {
		c := canvas.HexColor(props.String("backgroundColor"), gg.RGBA{R: 0.13, G: 0.13, B: 0.13, A: 1})
		if animation.IsTransparent(props.String("backgroundColor")) {
			c.A = 0
		}
		c = canvas.WithAlpha(c, prm.Opacity)
		dc.SetRGBA(c.R, c.G, c.B, c.A)
		dc.DrawRectangle(x, y, barW, barH)
		if err := dc.Fill(); err != nil {
			return err
		}
	}
	if prm.Phase != PhaseEnter || prm.Scale > 0.9 {
		canvas.Caption(dc, props, prm.OffsetX, prm.Opacity)
	}
	return nil
}

// Families returns the built-in procedural families keyed by the
// component reference they reproduce.
func Families() map[string]Family {
	out := map[string]Family{}
	for _, f := range []Family{pulse{}, logoReveal{}, lowerThird{}} {
		out[f.Name()] = f
	}
	return out
}
