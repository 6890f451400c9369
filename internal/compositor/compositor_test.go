package compositor

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/timeline"
)

func TestPhaseAt(t *testing.T) {
	tests := []struct {
		p         float64
		wantPhase Phase
		wantLocal float64
	}{
		{-1, PhaseEnter, 0},
		{0, PhaseEnter, 0},
		{1.0 / 6, PhaseEnter, 0.5},
		{1.0 / 3, PhaseEnter, 1},
		{0.5, PhaseHold, 0.5},
		{2.0 / 3, PhaseHold, 1},
		{5.0 / 6, PhaseExit, 0.5},
		{1, PhaseExit, 1},
		{2, PhaseExit, 1},
	}
	for _, tt := range tests {
		ph, local := PhaseAt(tt.p)
		if ph != tt.wantPhase || math.Abs(local-tt.wantLocal) > 1e-9 {
			t.Errorf("PhaseAt(%.4f) = (%v, %.4f), want (%v, %.4f)", tt.p, ph, local, tt.wantPhase, tt.wantLocal)
		}
	}
}

func TestProgress(t *testing.T) {
	if got := Progress(150, 300); got != 0.5 {
		t.Errorf("Progress(150, 300) = %v", got)
	}
	if got := Progress(400, 300); got != 1 {
		t.Errorf("Progress(400, 300) = %v", got)
	}
	if got := Progress(5, 0); got != 0 {
		t.Errorf("Progress(5, 0) = %v", got)
	}
}

func TestPulseParams(t *testing.T) {
	const w, h = 1280.0, 720.0
	f := pulse{}
	props := catalog.Properties{"scale": 1.0}
	full := h * 0.17

	if p := f.Params(0, w, h, props); p.Radius != 0 || p.Phase != PhaseEnter {
		t.Errorf("p=0: %+v, want zero radius in enter", p)
	}
	if p := f.Params(1.0/3, w, h, props); math.Abs(p.Radius-full) > 1e-9 {
		t.Errorf("p=1/3: radius %.3f, want %.3f", p.Radius, full)
	}
	if p := f.Params(0.5, w, h, props); p.Phase != PhaseHold || p.OffsetX != 0 || math.Abs(p.Radius-full) > 1e-9 {
		t.Errorf("p=0.5: %+v, want static hold", p)
	}
	end := f.Params(1, w, h, props)
	if w/2+end.OffsetX-end.Radius < w {
		t.Errorf("p=1: disc still on frame: %+v", end)
	}

	double := f.Params(0.5, w, h, catalog.Properties{"scale": 2.0})
	if math.Abs(double.Radius-2*full) > 1e-9 {
		t.Errorf("scale 2 radius = %.3f, want %.3f", double.Radius, 2*full)
	}
}

func TestLogoRevealParams(t *testing.T) {
	const w, h = 1280.0, 720.0
	f := logoReveal{}
	start := f.Params(0, w, h, nil)
	if start.Opacity != 0 || start.Radius != 0 {
		t.Errorf("p=0: %+v", start)
	}
	end := f.Params(1, w, h, nil)
	if h/2+end.OffsetY+end.Radius > 0 {
		t.Errorf("p=1: logo still on frame: %+v", end)
	}
}

func newItem(id, assetType string, ref catalog.RendererRef, props catalog.Properties) *timeline.Item {
	return &timeline.Item{
		ID:         id,
		AssetType:  assetType,
		Start:      0,
		Duration:   2,
		Properties: props,
		Renderer:   ref,
		Visible:    true,
	}
}

func TestFrameIsDeterministic(t *testing.T) {
	c := New(160, 90, 30, nil)
	items := []Placed{{
		Item:    newItem("p", "pulse-intro", catalog.RendererRef{Technology: catalog.TechVectorCanvas, ComponentRef: "pulse"}, catalog.Properties{"backgroundColor": "#101820"}),
		Opacity: 1,
	}}
	a, fa := c.Frame(15, items)
	b, fb := c.Frame(15, items)
	if len(fa)+len(fb) != 0 {
		t.Fatalf("unexpected failures: %v %v", fa, fb)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("the same frame rendered twice differs")
	}
	r, g, _, _ := a.At(80, 45).RGBA()
	if r>>8 < 200 || g>>8 < 180 {
		t.Errorf("centre (%d,%d) is not the accent colour", r>>8, g>>8)
	}
}

func TestFrameContainsFailures(t *testing.T) {
	c := New(160, 90, 30, nil)
	c.Supported = func(assetType string) bool { return assetType != "video-clip" }

	items := []Placed{
		{Item: newItem("ok", "pulse-intro", catalog.RendererRef{Technology: catalog.TechVectorCanvas, ComponentRef: "pulse"}, nil), Opacity: 1},
		{Item: newItem("clip", "video-clip", catalog.RendererRef{Technology: catalog.TechRasterCanvas}, nil), Opacity: 1},
		{Item: newItem("odd", "custom", catalog.RendererRef{Technology: catalog.TechVectorCanvas, ComponentRef: "spiral"}, nil), Opacity: 1},
		{Item: newItem("music", "background-music", catalog.RendererRef{}, nil), Opacity: 1},
		{Item: newItem("title", "title-text", catalog.RendererRef{Technology: catalog.TechDOMOverlay, ComponentRef: "text"}, catalog.Properties{"text": "Hi"}), Opacity: 1},
	}
	img, failures := c.Frame(10, items)
	if img == nil {
		t.Fatal("frame not produced")
	}
	if len(failures) != 2 {
		t.Fatalf("failures = %v, want 2", failures)
	}
	if failures[0].ItemID != "clip" || !errors.Is(failures[0].Err, catalog.ErrUnknownAssetType) {
		t.Errorf("first failure = %v", failures[0])
	}
	if failures[1].ItemID != "odd" || !errors.Is(failures[1].Err, ErrNoFamily) {
		t.Errorf("second failure = %v", failures[1])
	}
}

func TestFrameSkipsInactiveItems(t *testing.T) {
	c := New(32, 18, 10, nil)
	late := newItem("late", "pulse-intro", catalog.RendererRef{Technology: catalog.TechVectorCanvas, ComponentRef: "pulse"}, catalog.Properties{"backgroundColor": "#FFFFFF"})
	late.Start = 5
	img, failures := c.Frame(0, []Placed{{Item: late, Opacity: 1}})
	if len(failures) != 0 {
		t.Fatal(failures)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0 {
		t.Errorf("inactive item was drawn")
	}
}

func TestTransparentBackgroundIgnoresCase(t *testing.T) {
	c := New(32, 18, 10, nil)
	tests := []struct {
		color     string
		wantBlack bool
	}{
		{"transparent", true},
		{"Transparent", true},
		{"TRANSPARENT", true},
		{"#FFFFFF", false},
	}
	for _, tt := range tests {
		it := newItem("bg", "pulse-intro", catalog.RendererRef{Technology: catalog.TechVectorCanvas, ComponentRef: "pulse"}, catalog.Properties{"backgroundColor": tt.color})
		img, failures := c.Frame(0, []Placed{{Item: it, Opacity: 1}})
		if len(failures) != 0 {
			t.Fatal(failures)
		}
		r, _, _, _ := img.At(1, 1).RGBA()
		if (r == 0) != tt.wantBlack {
			t.Errorf("backgroundColor %q: corner red = %d", tt.color, r>>8)
		}
	}
}

func TestFrameCount(t *testing.T) {
	c := New(16, 9, 30, nil)
	if got := c.FrameCount(5); got != 150 {
		t.Errorf("FrameCount(5) = %d", got)
	}
	if got := c.FrameCount(0.05); got != 2 {
		t.Errorf("FrameCount(0.05) = %d", got)
	}
	if got := c.FrameCount(0); got != 0 {
		t.Errorf("FrameCount(0) = %d", got)
	}
}
