// Package animation loads vector animation documents, caches them by source
// path and derives per-instance copies with merge-field values injected.
//
// Cached documents are shared between instances and are never mutated: the
// exported API is read-only and the injector always works on a deep copy.
package animation

import (
	"encoding/json"
	"fmt"
	"math"
)

// Document is a loosely structured vector animation document. Fields the
// composer does not understand are preserved as-is.
type Document struct {
	root map[string]any
}

// Parse decodes a JSON animation document.
func Parse(data []byte) (*Document, error) {
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode animation: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("decode animation: empty document")
	}
	return &Document{root: root}, nil
}

// MarshalJSON encodes the document back to JSON.
func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.root)
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Document) Clone() *Document {
	return &Document{root: deepCopy(d.root).(map[string]any)}
}

func deepCopy(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(vv))
		for k, el := range vv {
			out[k] = deepCopy(el)
		}
		return out
	case []any:
		out := make([]any, len(vv))
		for i, el := range vv {
			out[i] = deepCopy(el)
		}
		return out
	default:
		return v
	}
}

// FrameRate returns frames per second ("fr").
func (d *Document) FrameRate() float64 {
	return number(d.root["fr"])
}

// Width returns the pixel width ("w").
func (d *Document) Width() int {
	return int(number(d.root["w"]))
}

// Height returns the pixel height ("h").
func (d *Document) Height() int {
	return int(number(d.root["h"]))
}

// InPoint returns the first frame ("ip").
func (d *Document) InPoint() float64 {
	return number(d.root["ip"])
}

// OutPoint returns the frame after the last one ("op").
func (d *Document) OutPoint() float64 {
	return number(d.root["op"])
}

// FrameCount returns the number of frames between in and out points.
func (d *Document) FrameCount() int {
	n := int(math.Round(d.OutPoint() - d.InPoint()))
	if n < 0 {
		return 0
	}
	return n
}

// Name returns the document name ("nm").
func (d *Document) Name() string {
	s, _ := d.root["nm"].(string)
	return s
}

// Layers returns read-only views of the top-level layers, top-most first.
func (d *Document) Layers() []Layer {
	return layerViews(d.root["layers"])
}

// Asset returns the asset-table entry with id.
func (d *Document) Asset(id string) (Asset, bool) {
	m, ok := findAsset(d.root, id)
	if !ok {
		return Asset{}, false
	}
	p, _ := m["p"].(string)
	u, _ := m["u"].(string)
	return Asset{
		ID:      id,
		Payload: u + p,
		Width:   int(number(m["w"])),
		Height:  int(number(m["h"])),
	}, true
}

// AssetLayers returns the layers of a precomposition asset.
func (d *Document) AssetLayers(id string) []Layer {
	m, ok := findAsset(d.root, id)
	if !ok {
		return nil
	}
	return layerViews(m["layers"])
}

// Asset is an asset-table entry.
type Asset struct {
	ID      string
	Payload string
	Width   int
	Height  int
}

func findAsset(root map[string]any, id string) (map[string]any, bool) {
	list, _ := root["assets"].([]any)
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		if aid, _ := m["id"].(string); aid == id {
			return m, true
		}
	}
	return nil, false
}

func number(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

func numbers(v any) ([]float64, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(list))
	for _, el := range list {
		f, ok := el.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
