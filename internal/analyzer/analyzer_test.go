package analyzer

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func withSquare(base *image.RGBA, r image.Rectangle, c color.RGBA) *image.RGBA {
	out := image.NewRGBA(base.Bounds())
	copy(out.Pix, base.Pix)
	draw.Draw(out, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
	return out
}

func TestDeltaMetric(t *testing.T) {
	black := solid(10, 10, color.RGBA{A: 255})
	grey := solid(10, 10, color.RGBA{R: 40, G: 40, B: 40, A: 255})

	rep, err := NewDeltaMetric().Compare(black, black)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if rep.Mean != 0 || rep.Max != 0 || rep.Changed != 0 {
		t.Errorf("identical frames diverge: %+v", rep)
	}

	rep, err = NewDeltaMetric().Compare(black, grey)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	// three colour channels differ by 40, alpha by 0
	if math.Abs(rep.Mean-30) > 1e-9 {
		t.Errorf("Mean = %v, want 30", rep.Mean)
	}
	if rep.Max != 40 || rep.Changed != 1 {
		t.Errorf("unexpected report %+v", rep)
	}
}

func TestSizeMismatch(t *testing.T) {
	for _, v := range Variants() {
		m, _ := NewMetric(v)
		_, err := m.Compare(solid(4, 4, color.RGBA{}), solid(5, 4, color.RGBA{}))
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("%s: expected ErrSizeMismatch, got %v", v, err)
		}
	}
}

func TestEdgeMetricIgnoresUniformShift(t *testing.T) {
	square := image.Rect(20, 20, 60, 60)
	a := withSquare(solid(80, 80, color.RGBA{A: 255}), square, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	b := withSquare(solid(80, 80, color.RGBA{R: 10, G: 10, B: 10, A: 255}), square, color.RGBA{R: 250, G: 250, B: 250, A: 255})

	rep, err := NewEdgeMetric().Compare(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Changed != 0 {
		t.Errorf("edges moved for a colour shift: %+v", rep)
	}

	moved := withSquare(solid(80, 80, color.RGBA{A: 255}), square.Add(image.Pt(8, 0)), color.RGBA{R: 255, G: 255, B: 255, A: 255})
	rep, err = NewEdgeMetric().Compare(a, moved)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Changed == 0 {
		t.Error("expected edge divergence for a moved square")
	}
}

func TestRegionMetric(t *testing.T) {
	base := solid(200, 200, color.RGBA{A: 255})
	other := withSquare(base, image.Rect(50, 50, 150, 150), color.RGBA{R: 255, G: 255, B: 255, A: 255})

	rep, err := NewRegionMetric().Compare(base, other)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(rep.Regions) != 1 {
		t.Fatalf("expected one region, got %v", rep.Regions)
	}
	r := rep.Regions[0]
	if r.Dx() < 100 || r.Dy() < 100 || !image.Rect(50, 50, 150, 150).In(r) {
		t.Errorf("region %v does not cover the square", r)
	}
	t.Logf("mean %.2f, max %d, changed %.3f", rep.Mean, rep.Max, rep.Changed)
}

func TestMetricRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"delta", false},
		{"", false}, // default
		{"edges", false},
		{"regions", false},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			m, err := NewMetric(tt.variant)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if m == nil {
				t.Error("Expected metric, got nil")
			}
		})
	}
}
