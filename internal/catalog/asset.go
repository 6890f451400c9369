package catalog

import (
	"sort"
)

// Category is the closed set of asset kinds the composer knows about.
type Category string

const (
	CategoryComponent Category = "component"
	CategoryMedia     Category = "media"
	CategoryEffect    Category = "effect"
	CategoryText      Category = "text"
	CategoryAudio     Category = "audio"
)

// Technology names the rendering technique used for an asset.
type Technology string

const (
	TechVectorCanvas Technology = "vector-canvas"
	TechDOMOverlay   Technology = "dom-overlay"
	TechRasterCanvas Technology = "raster-canvas"
	TechHybrid       Technology = "hybrid"
)

// RendererRef describes how an asset is drawn.
type RendererRef struct {
	Technology   Technology `json:"technology" yaml:"technology"`
	ComponentRef string     `json:"componentRef,omitempty" yaml:"componentRef,omitempty"`
}

// Metadata holds asset-specific hints.
type Metadata struct {
	AcceptedFileTypes []string `json:"acceptedFileTypes,omitempty" yaml:"acceptedFileTypes,omitempty"`
	SupportsLayers    bool     `json:"supportsLayers,omitempty" yaml:"supportsLayers,omitempty"`
}

// AssetDefinition is an immutable catalog entry.
type AssetDefinition struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Category Category         `json:"category" yaml:"category"`
	Duration float64          `json:"duration" yaml:"duration"` // nominal, seconds
	Defaults Properties       `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Renderer RendererRef      `json:"renderer" yaml:"renderer"`
	Metadata Metadata         `json:"metadata" yaml:"metadata"`
	Schema   *ComponentSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Source is the animation document path for vector-canvas assets.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Properties is an open key/value bag of item properties.
type Properties map[string]any

// Clone returns a shallow copy. Values are treated as immutable scalars,
// nested slices and maps are copied one level deep.
func (p Properties) Clone() Properties {
	if p == nil {
		return Properties{}
	}
	out := make(Properties, len(p))
	for k, v := range p {
		switch vv := v.(type) {
		case []any:
			cp := make([]any, len(vv))
			copy(cp, vv)
			out[k] = cp
		case map[string]any:
			cp := make(map[string]any, len(vv))
			for mk, mv := range vv {
				cp[mk] = mv
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}

// Merge returns defaults overlaid with overrides. Neither input is modified.
func Merge(defaults, overrides Properties) Properties {
	out := defaults.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// String returns the value under key as a string, or "" if absent.
func (p Properties) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Float returns the value under key as float64.
func (p Properties) Float(key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Keys returns the sorted property keys.
func (p Properties) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
