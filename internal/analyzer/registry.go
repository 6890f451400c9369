package analyzer

import "fmt"

// NewMetric creates a metric based on the specified variant
func NewMetric(variant string) (Metric, error) {
	switch variant {
	case "delta", "":
		return NewDeltaMetric(), nil
	case "edges":
		return NewEdgeMetric(), nil
	case "regions":
		return NewRegionMetric(), nil
	default:
		return nil, fmt.Errorf("unknown metric variant: %s", variant)
	}
}

// Variants lists the names accepted by NewMetric.
func Variants() []string {
	return []string{"delta", "edges", "regions"}
}
