package animation

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/ivlev/composer/internal/catalog"
)

// DefaultMaxDepth bounds how deep the injector descends into nested layers
// and shape groups.
const DefaultMaxDepth = 32

// ErrDepthExceeded marks a subtree skipped by the depth guard.
var ErrDepthExceeded = errors.New("maximum nesting depth exceeded")

// MergeFields are the user-supplied values injected into a document.
// Empty strings and a nil Scale mean "not supplied".
type MergeFields struct {
	BackgroundColor string
	EmbeddedImage   string
	Scale           *float64
}

// FieldsFrom extracts merge fields from an item's properties.
func FieldsFrom(props catalog.Properties) MergeFields {
	f := MergeFields{
		BackgroundColor: props.String("backgroundColor"),
		EmbeddedImage:   props.String("embeddedImage"),
	}
	if s, ok := props.Float("scale"); ok {
		f.Scale = &s
	}
	return f
}

// Skip records a patch that was not applied. It is informational only.
type Skip struct {
	Layer  string
	Reason string
}

// Report summarizes one derivation.
type Report struct {
	Patched int
	Skipped []Skip
}

// Injector derives per-instance documents from cached sources.
type Injector struct {
	BackgroundMarkers []string
	LogoMarkers       []string
	MaxDepth          int
	// Logger receives skipped patches when non-nil.
	Logger *log.Logger
}

// NewInjector returns an injector with the default layer markers.
func NewInjector() *Injector {
	return &Injector{
		BackgroundMarkers: []string{"Background", "BG", "background"},
		LogoMarkers:       []string{"Logo", "logo", "Image"},
		MaxDepth:          DefaultMaxDepth,
	}
}

// Derive deep-copies src and applies the merge fields to the copy. The
// source document is never modified. Every layer whose name equals a marker
// is patched; missing sub-structures skip that patch only.
func (inj *Injector) Derive(src *Document, f MergeFields) (*Document, Report, error) {
	if src == nil {
		return nil, Report{}, fmt.Errorf("derive: nil source document")
	}
	doc := src.Clone()
	w := &walk{inj: inj, fields: f, root: doc.root}

	if f.BackgroundColor != "" && !IsTransparent(f.BackgroundColor) {
		rgba, err := ParseHex(f.BackgroundColor)
		if err != nil {
			w.skip("", err.Error())
		} else {
			w.rgba = &rgba
		}
	}

	layers, ok := doc.root["layers"].([]any)
	if !ok {
		w.skip("", "document has no layer list")
	} else {
		w.layers(layers, 0)
	}
	// Precompositions keep their own layer lists in the asset table.
	if assets, ok := doc.root["assets"].([]any); ok {
		for _, el := range assets {
			if a, ok := el.(map[string]any); ok {
				if nested, ok := a["layers"].([]any); ok {
					w.layers(nested, 1)
				}
			}
		}
	}
	return doc, w.report, nil
}

type walk struct {
	inj    *Injector
	fields MergeFields
	root   map[string]any
	rgba   *[4]float64
	report Report
}

func (w *walk) maxDepth() int {
	if w.inj.MaxDepth > 0 {
		return w.inj.MaxDepth
	}
	return DefaultMaxDepth
}

func (w *walk) skip(layer, reason string) {
	w.report.Skipped = append(w.report.Skipped, Skip{Layer: layer, Reason: reason})
	if w.inj.Logger != nil {
		w.inj.Logger.Printf("[!] patch skipped (layer %q): %s", layer, reason)
	}
}

func (w *walk) layers(list []any, depth int) {
	if depth > w.maxDepth() {
		w.skip("", ErrDepthExceeded.Error())
		return
	}
	for _, el := range list {
		layer, ok := el.(map[string]any)
		if !ok {
			continue
		}
		name, _ := layer["nm"].(string)
		if matches(name, w.inj.BackgroundMarkers) {
			w.background(name, layer, depth)
		}
		if matches(name, w.inj.LogoMarkers) {
			w.logo(name, layer)
		}
		if nested, ok := layer["layers"].([]any); ok {
			w.layers(nested, depth+1)
		}
	}
}

func matches(name string, markers []string) bool {
	for _, m := range markers {
		if name == m {
			return true
		}
	}
	return false
}

func (w *walk) background(name string, layer map[string]any, depth int) {
	color := w.fields.BackgroundColor
	if color == "" {
		return
	}
	if IsTransparent(color) {
		if w.setOpacity(name, layer, 0) {
			w.report.Patched++
		}
		return
	}
	if w.rgba == nil {
		return
	}
	if !w.setOpacity(name, layer, 100) {
		return
	}
	shapes, ok := layer["shapes"].([]any)
	if !ok {
		w.skip(name, "layer has no shape tree")
		return
	}
	if n := w.fills(name, shapes, depth+1); n == 0 {
		w.skip(name, "no fill nodes in shape tree")
		return
	}
	w.report.Patched++
}

func (w *walk) setOpacity(name string, layer map[string]any, value float64) bool {
	ks, ok := layer["ks"].(map[string]any)
	if !ok {
		w.skip(name, "layer has no transform")
		return false
	}
	ks["o"] = map[string]any{"a": 0.0, "k": value}
	return true
}

// fills rewrites the colour of every fill node under shapes and returns
// how many were patched.
func (w *walk) fills(name string, shapes []any, depth int) int {
	if depth > w.maxDepth() {
		w.skip(name, ErrDepthExceeded.Error())
		return 0
	}
	n := 0
	for _, el := range shapes {
		node, ok := el.(map[string]any)
		if !ok {
			continue
		}
		switch node["ty"] {
		case "gr":
			if items, ok := node["it"].([]any); ok {
				n += w.fills(name, items, depth+1)
			}
		case "fl":
			c, ok := node["c"].(map[string]any)
			if !ok {
				w.skip(name, "fill without colour")
				continue
			}
			w.setColor(c)
			n++
		}
	}
	return n
}

func (w *walk) setColor(c map[string]any) {
	rgba := *w.rgba
	value := func() []any { return []any{rgba[0], rgba[1], rgba[2], rgba[3]} }
	if kfs, ok := c["k"].([]any); ok && len(kfs) > 0 {
		if _, animated := kfs[0].(map[string]any); animated {
			for _, el := range kfs {
				if kf, ok := el.(map[string]any); ok {
					if _, has := kf["s"]; has {
						kf["s"] = value()
					}
					if _, has := kf["e"]; has {
						kf["e"] = value()
					}
				}
			}
			return
		}
	}
	c["a"] = 0.0
	c["k"] = value()
}

func (w *walk) logo(name string, layer map[string]any) {
	if uri := w.fields.EmbeddedImage; uri != "" {
		w.image(name, layer, uri)
	}
	if w.fields.Scale != nil {
		w.scale(name, layer, *w.fields.Scale)
	}
}

func (w *walk) image(name string, layer map[string]any, uri string) {
	ref, _ := layer["refId"].(string)
	if ref == "" {
		w.skip(name, "layer has no asset reference")
		return
	}
	asset, ok := findAsset(w.root, ref)
	if !ok {
		w.skip(name, fmt.Sprintf("asset %q not found", ref))
		return
	}
	asset["u"] = ""
	asset["p"] = uri
	if strings.HasPrefix(uri, "data:") {
		asset["e"] = 1.0
	} else {
		asset["e"] = 0.0
	}
	w.report.Patched++
}

func (w *walk) scale(name string, layer map[string]any, factor float64) {
	ks, ok := layer["ks"].(map[string]any)
	if !ok {
		w.skip(name, "layer has no transform")
		return
	}
	s, ok := ks["s"].(map[string]any)
	if !ok {
		w.skip(name, "layer has no scale property")
		return
	}
	k, ok := s["k"].([]any)
	if !ok || len(k) == 0 {
		w.skip(name, "scale property has no value")
		return
	}
	if _, animated := k[0].(map[string]any); animated {
		n := 0
		for _, el := range k {
			kf, ok := el.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"s", "e"} {
				if v, ok := kf[key].([]any); ok && rescale(v, factor) {
					n++
				}
			}
		}
		if n == 0 {
			w.skip(name, "no two-axis keyframe values")
			return
		}
		w.report.Patched++
		return
	}
	if !rescale(k, factor) {
		w.skip(name, "scale is not a two-axis value")
		return
	}
	w.report.Patched++
}

// rescale sets both axes to the average axis magnitude times factor.
// Any difference between the axes is lost. Components past the second
// (depth) are left alone.
func rescale(v []any, factor float64) bool {
	if len(v) < 2 {
		return false
	}
	x, ok1 := v[0].(float64)
	y, ok2 := v[1].(float64)
	if !ok1 || !ok2 {
		return false
	}
	avg := (math.Abs(x) + math.Abs(y)) / 2
	v[0] = avg * factor
	v[1] = avg * factor
	return true
}
