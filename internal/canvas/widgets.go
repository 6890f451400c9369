package canvas

import (
	"fmt"
	"strings"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/source"
)

var (
	white = gg.RGBA{R: 1, G: 1, B: 1, A: 1}
	black = gg.RGBA{A: 1}
)

// Title draws a text widget ("text", "color", "position").
func Title(dc *gg.Context, props catalog.Properties, opacity float64) error {
	text := props.String("text")
	if text == "" {
		return fmt.Errorf("title: empty text")
	}
	c := HexColor(props.String("color"), white)
	k := TextScale(dc, 8)
	label := Label(text, c)
	w := float64(label.Bounds().Dx()) * k
	h := float64(label.Bounds().Dy()) * k
	if fw := float64(dc.Width()) * 0.9; w > fw {
		w, h = fw, h*fw/w
	}
	x, y := Anchor(dc, props.String("position"), w, h, float64(dc.Height())*0.05)
	DrawImage(dc, label, x, y, w, h, opacity)
	return nil
}

// QR draws a QR code widget ("url", "size", "position").
func QR(dc *gg.Context, props catalog.Properties, opacity float64) error {
	url := props.String("url")
	if url == "" {
		return fmt.Errorf("qr-code: empty url")
	}
	size, ok := props.Float("size")
	if !ok || size <= 0 {
		size = 256
	}
	size = min(size, float64(min(dc.Width(), dc.Height())))
	img, err := QRCode(url, int(size))
	if err != nil {
		return err
	}
	x, y := Anchor(dc, props.String("position"), size, size, float64(dc.Height())*0.04)
	DrawImage(dc, img, x, y, size, size, opacity)
	return nil
}

// Bullets draws a heading followed by one line per list entry.
func Bullets(dc *gg.Context, props catalog.Properties, opacity float64) error {
	heading := props.String("heading")
	entries, _ := props["items"].([]any)
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if label, _ := m["label"].(string); label != "" {
			lines = append(lines, "- "+label)
		}
	}
	if heading == "" && len(lines) == 0 {
		return fmt.Errorf("bullet-list: nothing to draw")
	}
	c := HexColor(props.String("textColor"), white)
	margin := float64(dc.Height()) * 0.08
	k := TextScale(dc, float64(2*(len(lines)+2)+6))

	_, h := DrawText(dc, heading, c, margin, margin, k*1.5, opacity)
	DrawText(dc, strings.Join(lines, "\n"), c, margin, margin+h+k*6, k, opacity)
	return nil
}

// Caption draws the title/subtitle text of a lower third, offset
// horizontally by dx pixels.
func Caption(dc *gg.Context, props catalog.Properties, dx, opacity float64) {
	c := HexColor(props.String("textColor"), white)
	fh := float64(dc.Height())
	k := TextScale(dc, 22)
	x := fh*0.06 + dx
	y := fh * 0.74
	_, h := DrawText(dc, props.String("title"), c, x, y, k*1.4, opacity)
	if sub := props.String("subtitle"); sub != "" {
		DrawText(dc, sub, WithAlpha(c, 0.8), x, y+h+k*2, k, opacity)
	}
}

// Fade paints a full-frame colour whose alpha follows progress (0..1):
// "in" fades from the colour to clear, "out" from clear to the colour.
func Fade(dc *gg.Context, props catalog.Properties, progress float64) {
	c := HexColor(props.String("color"), black)
	a := clamp01(progress)
	if props.String("direction") != "out" {
		a = 1 - a
	}
	Fill(dc, WithAlpha(c, a))
}

// Media draws a raster media item ("src", "page", "dpi", "fit", "opacity").
func Media(dc *gg.Context, media *source.Resolver, props catalog.Properties, opacity float64) error {
	if media == nil {
		return fmt.Errorf("media: no resolver")
	}
	ref := props.String("src")
	page, _ := props.Float("page")
	dpi, _ := props.Float("dpi")
	img, err := media.Image(ref, int(page), int(dpi))
	if err != nil {
		return err
	}
	b := img.Bounds()
	x, y, w, h := Fit(float64(b.Dx()), float64(b.Dy()), float64(dc.Width()), float64(dc.Height()), props.String("fit"))
	fitted, err := media.Fitted(ref, int(page), int(dpi), int(w+0.5), int(h+0.5))
	if err != nil {
		return err
	}
	if o, ok := props.Float("opacity"); ok {
		opacity *= o
	}
	DrawImage(dc, fitted, x, y, w, h, opacity)
	return nil
}
