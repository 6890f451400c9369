package analyzer

import "image"

// EdgeMetric compares Sobel edge maps, so a uniform colour shift that keeps
// every shape in place scores zero.
type EdgeMetric struct {
	EdgeThreshold float64
}

// NewEdgeMetric creates an edge metric with default settings
func NewEdgeMetric() *EdgeMetric {
	return &EdgeMetric{EdgeThreshold: 30}
}

func (m *EdgeMetric) Name() string { return "edges" }

func (m *EdgeMetric) Compare(a, b image.Image) (Report, error) {
	ra, rb, err := pair(a, b)
	if err != nil {
		return Report{}, err
	}
	rep := Report{Metric: m.Name()}
	ea := sobel(luma(ra), m.EdgeThreshold)
	eb := sobel(luma(rb), m.EdgeThreshold)
	if len(ea.Pix) == 0 {
		return rep, nil
	}

	differ := 0
	for i := range ea.Pix {
		if ea.Pix[i] != eb.Pix[i] {
			differ++
		}
	}
	if differ > 0 {
		rep.Max = 255
	}
	rep.Changed = float64(differ) / float64(len(ea.Pix))
	rep.Mean = rep.Changed * 255
	return rep, nil
}
