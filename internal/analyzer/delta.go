package analyzer

import "image"

// DeltaMetric compares frames channel by channel.
type DeltaMetric struct {
	Threshold uint8 // pixel counts as changed above this delta
}

// NewDeltaMetric creates a channel delta metric with default settings
func NewDeltaMetric() *DeltaMetric {
	return &DeltaMetric{Threshold: 8}
}

func (m *DeltaMetric) Name() string { return "delta" }

// Compare computes mean and max channel deltas over RGBA.
func (m *DeltaMetric) Compare(a, b image.Image) (Report, error) {
	ra, rb, err := pair(a, b)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Metric: m.Name()}
	w, h := ra.Rect.Dx(), ra.Rect.Dy()
	if w == 0 || h == 0 {
		return rep, nil
	}

	var sum uint64
	changed := 0
	for y := 0; y < h; y++ {
		ia, ib := y*ra.Stride, y*rb.Stride
		for x := 0; x < w; x++ {
			for c := 0; c < 4; c++ {
				d := absDiff(ra.Pix[ia+c], rb.Pix[ib+c])
				sum += uint64(d)
				if d > rep.Max {
					rep.Max = d
				}
			}
			if maxDelta(ra.Pix[ia:ia+4], rb.Pix[ib:ib+4]) > m.Threshold {
				changed++
			}
			ia += 4
			ib += 4
		}
	}
	rep.Mean = float64(sum) / float64(w*h*4)
	rep.Changed = float64(changed) / float64(w*h)
	return rep, nil
}

func maxDelta(pa, pb []uint8) uint8 {
	var m uint8
	for c := range pa {
		if d := absDiff(pa[c], pb[c]); d > m {
			m = d
		}
	}
	return m
}
