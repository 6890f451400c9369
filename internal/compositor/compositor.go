package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/canvas"
	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/source"
	"github.com/ivlev/composer/internal/system"
	"github.com/ivlev/composer/internal/timeline"
)

// ErrNoFamily is returned for vector items without a procedural family.
var ErrNoFamily = errors.New("no procedural family")

// Placed is an item scheduled for composition with its layer's opacity.
type Placed struct {
	Item    *timeline.Item
	Opacity float64
}

// Failure records an item that was replaced by a placeholder.
type Failure struct {
	Frame     int
	ItemID    string
	AssetType string
	Err       error
}

func (f Failure) Error() string {
	return fmt.Sprintf("frame %d: %s (%s): %v", f.Frame, f.ItemID, f.AssetType, f.Err)
}

// Compositor renders whole frames of a timeline.
type Compositor struct {
	Width  int
	Height int
	FPS    float64
	Media  *source.Resolver
	// Supported reports whether an asset type has a renderer. Unsupported
	// visual items are drawn as placeholders. nil accepts everything.
	Supported func(assetType string) bool
	// Background fills the frame before any item is drawn.
	Background gg.RGBA
	// Frames supplies the output frames of Frame.
	Frames *system.FramePool

	families map[string]Family
}

func New(width, height int, fps float64, media *source.Resolver) *Compositor {
	return &Compositor{
		Width:      width,
		Height:     height,
		FPS:        fps,
		Media:      media,
		Background: gg.RGBA{A: 1},
		Frames:     system.NewFramePool(width, height),
		families:   Families(),
	}
}

// Family returns the procedural family registered under name.
func (c *Compositor) Family(name string) (Family, bool) {
	f, ok := c.families[name]
	return f, ok
}

// FamilyNames lists the registered families.
func (c *Compositor) FamilyNames() []string {
	out := make([]string, 0, len(c.families))
	for k := range c.families {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// FrameCount returns the number of frames covering duration seconds.
func (c *Compositor) FrameCount(duration float64) int {
	if duration <= 0 || c.FPS <= 0 {
		return 0
	}
	return int(math.Ceil(duration*c.FPS - 1e-9))
}

// TimeOf returns the project time of frame index.
func (c *Compositor) TimeOf(index int) float64 {
	if c.FPS <= 0 {
		return 0
	}
	return float64(index) / c.FPS
}

// ItemProgress returns p = frame/totalFrames for item at project time t,
// counting frames at the compositor's rate.
func (c *Compositor) ItemProgress(item *timeline.Item, t float64) float64 {
	frame := int(math.Round((t - item.Start) * c.FPS))
	total := int(math.Round(item.Duration * c.FPS))
	return Progress(frame, total)
}

// Frame composes frame index from items ordered bottom to top. Items that
// are not active at the frame's time are skipped. Each failing item is
// replaced by a placeholder and reported; the frame is always produced.
// The frame comes from c.Frames; callers may return it there once written.
func (c *Compositor) Frame(index int, items []Placed) (*image.RGBA, []Failure) {
	dc := gg.NewContext(c.Width, c.Height)
	defer dc.Close()
	dc.ClearWithColor(c.Background)

	t := c.TimeOf(index)
	var failures []Failure
	for _, pl := range items {
		item := pl.Item
		if item == nil || !item.Visible || !item.ActiveAt(t) {
			continue
		}
		if err := c.paint(dc, pl, t); err != nil {
			failures = append(failures, Failure{Frame: index, ItemID: item.ID, AssetType: item.AssetType, Err: err})
		}
	}
	out := c.Frames.Get()
	copy(out.Pix, dc.ResizeTarget().Data())
	return out, failures
}

func (c *Compositor) paint(dst *gg.Context, pl Placed, t float64) error {
	item := pl.Item
	if item.Renderer.Technology == "" {
		// audio and other non-visual assets
		return nil
	}
	if c.Supported != nil && !c.Supported(item.AssetType) {
		err := fmt.Errorf("%w: %s", catalog.ErrUnknownAssetType, item.AssetType)
		canvas.Placeholder(dst, item.AssetType, err.Error())
		return err
	}

	layer := gg.NewContext(dst.Width(), dst.Height())
	defer layer.Close()
	if err := c.safeDraw(layer, item, c.ItemProgress(item, t)); err != nil {
		canvas.Placeholder(dst, item.AssetType, err.Error())
		return err
	}
	if pl.Opacity > 0 {
		canvas.DrawImage(dst, layer.Image(), 0, 0, float64(dst.Width()), float64(dst.Height()), pl.Opacity)
	}
	return nil
}

func (c *Compositor) safeDraw(dc *gg.Context, item *timeline.Item, p float64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("render panic: %v", rec)
		}
	}()
	return c.Draw(dc, item, p)
}

// Draw paints a single item at progress p.
func (c *Compositor) Draw(dc *gg.Context, item *timeline.Item, p float64) error {
	props := item.Properties
	ref := item.Renderer.ComponentRef
	switch item.Renderer.Technology {
	case catalog.TechVectorCanvas, catalog.TechHybrid:
		f, ok := c.families[ref]
		if !ok {
			return fmt.Errorf("%w for %q", ErrNoFamily, ref)
		}
		return f.Draw(dc, p, props, c.Media)
	case catalog.TechDOMOverlay:
		switch ref {
		case "text":
			return canvas.Title(dc, props, 1)
		case "qr-code":
			return canvas.QR(dc, props, 1)
		case "bullet-list":
			return canvas.Bullets(dc, props, 1)
		}
		return fmt.Errorf("unknown widget %q", ref)
	case catalog.TechRasterCanvas:
		if ref == "fade" {
			canvas.Fade(dc, props, p)
			return nil
		}
		return canvas.Media(dc, c.Media, props, 1)
	}
	return fmt.Errorf("unknown technology %q", item.Renderer.Technology)
}
