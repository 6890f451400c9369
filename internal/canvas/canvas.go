// Package canvas holds drawing primitives shared by the interactive
// renderers and the export compositor: colours, text labels, QR codes,
// fitted media and placeholders.
package canvas

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	"github.com/gogpu/gg"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// HexColor parses "#RGB"/"#RRGGBB"/"#RRGGBBAA", falling back to def.
func HexColor(hex string, def gg.RGBA) gg.RGBA {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	var r, g, b, a uint8
	if len(s) != 8 {
		return def
	}
	if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &r, &g, &b, &a); err != nil {
		return def
	}
	return gg.RGBA{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: float64(a) / 255}
}

// WithAlpha returns c with its alpha multiplied by k.
func WithAlpha(c gg.RGBA, k float64) gg.RGBA {
	c.A *= clamp01(k)
	return c
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Fill paints the whole context with c.
func Fill(dc *gg.Context, c gg.RGBA) {
	dc.SetRGBA(c.R, c.G, c.B, c.A)
	dc.DrawRectangle(0, 0, float64(dc.Width()), float64(dc.Height()))
	dc.Fill()
}

// Label renders text with the fixed 7x13 face and returns it as an image.
func Label(text string, c gg.RGBA) *image.RGBA {
	face := basicfont.Face7x13
	lines := strings.Split(text, "\n")
	width := 1
	for _, l := range lines {
		if w := font.MeasureString(face, l).Ceil(); w > width {
			width = w
		}
	}
	height := len(lines) * face.Height
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.Color()),
		Face: face,
	}
	for i, l := range lines {
		d.Dot = fixed.P(0, face.Ascent+i*face.Height)
		d.DrawString(l)
	}
	return img
}

// DrawText draws a label scaled by k with its top-left corner at (x, y)
// and returns the drawn size.
func DrawText(dc *gg.Context, text string, c gg.RGBA, x, y, k, opacity float64) (float64, float64) {
	img := Label(text, c)
	w := float64(img.Bounds().Dx()) * k
	h := float64(img.Bounds().Dy()) * k
	DrawImage(dc, img, x, y, w, h, opacity)
	return w, h
}

// TextScale picks a label scale proportional to the frame height.
func TextScale(dc *gg.Context, lines float64) float64 {
	k := float64(dc.Height()) / (13 * lines)
	if k < 1 {
		k = 1
	}
	return k
}

// DrawImage draws img into the rectangle (x, y, w, h).
func DrawImage(dc *gg.Context, img image.Image, x, y, w, h, opacity float64) {
	if img == nil || w <= 0 || h <= 0 || opacity <= 0 {
		return
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:             x,
		Y:             y,
		DstWidth:      w,
		DstHeight:     h,
		Interpolation: gg.InterpBilinear,
		Opacity:       clamp01(opacity),
		BlendMode:     gg.BlendNormal,
	})
}

// QRCode encodes content as a square QR image of size pixels.
func QRCode(content string, size int) (image.Image, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return q.Image(size), nil
}

// Anchor places a w×h box inside the frame according to position
// ("center", "top-left", ...), keeping margin pixels from the edges.
func Anchor(dc *gg.Context, position string, w, h, margin float64) (float64, float64) {
	fw, fh := float64(dc.Width()), float64(dc.Height())
	switch position {
	case "top-left":
		return margin, margin
	case "top-right":
		return fw - w - margin, margin
	case "bottom-left":
		return margin, fh - h - margin
	case "bottom-right":
		return fw - w - margin, fh - h - margin
	default:
		return (fw - w) / 2, (fh - h) / 2
	}
}

// Fit returns the rectangle an sw×sh source occupies inside dw×dh.
// Modes: "contain" (default), "cover", "stretch".
func Fit(sw, sh, dw, dh float64, mode string) (x, y, w, h float64) {
	if sw <= 0 || sh <= 0 {
		return 0, 0, 0, 0
	}
	switch mode {
	case "stretch":
		return 0, 0, dw, dh
	case "cover":
		k := max(dw/sw, dh/sh)
		w, h = sw*k, sh*k
	default:
		k := min(dw/sw, dh/sh)
		w, h = sw*k, sh*k
	}
	return (dw - w) / 2, (dh - h) / 2, w, h
}

// Placeholder draws the labelled box shown for unsupported, loading or
// failed items.
func Placeholder(dc *gg.Context, assetType, reason string) {
	fw, fh := float64(dc.Width()), float64(dc.Height())
	w, h := fw*0.5, fh*0.3
	x, y := (fw-w)/2, (fh-h)/2

	dc.SetRGBA(0.15, 0.15, 0.15, 0.85)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.Fill()
	dc.SetRGBA(0.95, 0.3, 0.3, 1)
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(x, y, w, h, 8)
	dc.Stroke()

	text := fmt.Sprintf("%s\n%s", assetType, reason)
	label := Label(text, gg.RGBA{R: 1, G: 1, B: 1, A: 1})
	k := min((w*0.9)/float64(label.Bounds().Dx()), (h*0.6)/float64(label.Bounds().Dy()))
	lw, lh := float64(label.Bounds().Dx())*k, float64(label.Bounds().Dy())*k
	DrawImage(dc, label, x+(w-lw)/2, y+(h-lh)/2, lw, lh, 1)
}

// ToRGBA converts any image into a tightly packed *image.RGBA.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
