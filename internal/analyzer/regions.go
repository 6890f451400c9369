package analyzer

import "image"

// RegionMetric locates the areas where two frames diverge.
type RegionMetric struct {
	Threshold     uint8 // per-pixel delta that counts as divergent
	MinRegionArea int   // smaller regions are dropped as noise
}

// NewRegionMetric creates a region metric with default settings
func NewRegionMetric() *RegionMetric {
	return &RegionMetric{
		Threshold:     16,
		MinRegionArea: 16,
	}
}

func (m *RegionMetric) Name() string { return "regions" }

func (m *RegionMetric) Compare(a, b image.Image) (Report, error) {
	ra, rb, err := pair(a, b)
	if err != nil {
		return Report{}, err
	}
	delta, err := (&DeltaMetric{Threshold: m.Threshold}).Compare(ra, rb)
	if err != nil {
		return Report{}, err
	}
	rep := delta
	rep.Metric = m.Name()
	if delta.Changed == 0 {
		return rep, nil
	}

	w, h := ra.Rect.Dx(), ra.Rect.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ia, ib := y*ra.Stride, y*rb.Stride
		for x := 0; x < w; x++ {
			if maxDelta(ra.Pix[ia:ia+4], rb.Pix[ib:ib+4]) > m.Threshold {
				mask.Pix[y*mask.Stride+x] = 255
			}
			ia += 4
			ib += 4
		}
	}

	for _, r := range contours(dilate(mask, 3, 1)) {
		if r.Dx()*r.Dy() >= m.MinRegionArea {
			rep.Regions = append(rep.Regions, r)
		}
	}
	return rep, nil
}
