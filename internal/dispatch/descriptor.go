// Package dispatch resolves asset types to renderer descriptors and
// manages live renderer instances: per-type caps, least-recently-active
// eviction, offscreen pause and debounced re-derivation.
package dispatch

import (
	"sort"
	"time"

	"github.com/ivlev/composer/internal/catalog"
)

// Performance is a coarse cost hint for a renderer.
type Performance string

const (
	PerformanceHigh   Performance = "high"
	PerformanceMedium Performance = "medium"
	PerformanceLow    Performance = "low"
)

// Descriptor tells the engine how to host renderers of one asset type.
type Descriptor struct {
	AssetType      string
	Technology     catalog.Technology
	Performance    Performance
	Debounce       time.Duration
	MaxInstances   int
	PauseOffscreen bool
}

// Registry is an immutable asset-type → descriptor map.
type Registry struct {
	m map[string]Descriptor
}

func NewRegistry(descs ...Descriptor) *Registry {
	m := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		m[d.AssetType] = d
	}
	return &Registry{m: m}
}

// Dispatch returns the descriptor for assetType. A miss means the type
// has no renderer and must be shown as unsupported.
func (r *Registry) Dispatch(assetType string) (Descriptor, bool) {
	d, ok := r.m[assetType]
	return d, ok
}

// Descriptors returns all descriptors ordered by asset type.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.m))
	for _, d := range r.m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetType < out[j].AssetType })
	return out
}

// DefaultRegistry covers the built-in asset types. video-clip and
// background-music deliberately have no entry.
func DefaultRegistry() *Registry {
	ms := time.Millisecond
	return NewRegistry(
		Descriptor{AssetType: "logo-reveal", Technology: catalog.TechVectorCanvas, Performance: PerformanceHigh, Debounce: 150 * ms, MaxInstances: 4, PauseOffscreen: true},
		Descriptor{AssetType: "pulse-intro", Technology: catalog.TechVectorCanvas, Performance: PerformanceHigh, Debounce: 150 * ms, MaxInstances: 4, PauseOffscreen: true},
		Descriptor{AssetType: "lower-third", Technology: catalog.TechHybrid, Performance: PerformanceMedium, Debounce: 100 * ms, MaxInstances: 3, PauseOffscreen: true},
		Descriptor{AssetType: "bullet-list", Technology: catalog.TechDOMOverlay, Performance: PerformanceLow, Debounce: 50 * ms, MaxInstances: 8},
		Descriptor{AssetType: "qr-code", Technology: catalog.TechDOMOverlay, Performance: PerformanceLow, Debounce: 250 * ms, MaxInstances: 4},
		Descriptor{AssetType: "title-text", Technology: catalog.TechDOMOverlay, Performance: PerformanceLow, Debounce: 50 * ms, MaxInstances: 16},
		Descriptor{AssetType: "image", Technology: catalog.TechRasterCanvas, Performance: PerformanceMedium, MaxInstances: 12},
		Descriptor{AssetType: "pdf-page", Technology: catalog.TechRasterCanvas, Performance: PerformanceMedium, MaxInstances: 6, PauseOffscreen: true},
		Descriptor{AssetType: "fade", Technology: catalog.TechRasterCanvas, Performance: PerformanceLow, MaxInstances: 16},
	)
}
