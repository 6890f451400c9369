package animation

import "sort"

// Layer types used by the renderer.
const (
	LayerPrecomp = 0
	LayerSolid   = 1
	LayerImage   = 2
	LayerNull    = 3
	LayerShape   = 4
)

// Layer is a read-only view over a document layer.
type Layer struct {
	m map[string]any
}

func layerViews(v any) []Layer {
	list, _ := v.([]any)
	out := make([]Layer, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Layer{m: m})
		}
	}
	return out
}

func (l Layer) Name() string {
	s, _ := l.m["nm"].(string)
	return s
}

func (l Layer) Type() int {
	return int(number(l.m["ty"]))
}

func (l Layer) RefID() string {
	s, _ := l.m["refId"].(string)
	return s
}

func (l Layer) InPoint() float64  { return number(l.m["ip"]) }
func (l Layer) OutPoint() float64 { return number(l.m["op"]) }

// Children returns nested layers, if the layer carries any.
func (l Layer) Children() []Layer {
	return layerViews(l.m["layers"])
}

// Transform returns the named transform property ("p", "a", "s", "o", "r").
func (l Layer) Transform(key string) (Property, bool) {
	ks, ok := l.m["ks"].(map[string]any)
	if !ok {
		return Property{}, false
	}
	p, ok := ks[key].(map[string]any)
	return Property{m: p}, ok
}

// Solid returns the colour and size of a solid layer.
func (l Layer) Solid() (color string, w, h float64) {
	color, _ = l.m["sc"].(string)
	return color, number(l.m["sw"]), number(l.m["sh"])
}

// Shapes returns the layer's shape tree.
func (l Layer) Shapes() []Shape {
	return shapeViews(l.m["shapes"])
}

// Shape is a read-only view over a shape-tree node.
type Shape struct {
	m map[string]any
}

func shapeViews(v any) []Shape {
	list, _ := v.([]any)
	out := make([]Shape, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			out = append(out, Shape{m: m})
		}
	}
	return out
}

// Type returns the shape kind ("gr", "rc", "el", "fl", "tr", ...).
func (s Shape) Type() string {
	t, _ := s.m["ty"].(string)
	return t
}

// Items returns the children of a group node.
func (s Shape) Items() []Shape {
	return shapeViews(s.m["it"])
}

// Prop returns an animatable property of the node.
func (s Shape) Prop(key string) (Property, bool) {
	p, ok := s.m[key].(map[string]any)
	return Property{m: p}, ok
}

// Property is an animatable value: either static ({"a":0,"k":[...]}) or
// keyframed ({"a":1,"k":[{"t":..,"s":[...]}, ...]}).
type Property struct {
	m map[string]any
}

type keyframe struct {
	t float64
	s []float64
}

// Animated reports whether the property carries keyframes.
func (p Property) Animated() bool {
	_, ok := p.keyframes()
	return ok
}

func (p Property) keyframes() ([]keyframe, bool) {
	list, ok := p.m["k"].([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	if _, isKF := list[0].(map[string]any); !isKF {
		return nil, false
	}
	out := make([]keyframe, 0, len(list))
	for _, el := range list {
		m, ok := el.(map[string]any)
		if !ok {
			continue
		}
		s, ok := numbers(m["s"])
		if !ok {
			// Scalar keyframes are stored as [v] or as v.
			if f, isNum := m["s"].(float64); isNum {
				s = []float64{f}
			} else {
				continue
			}
		}
		out = append(out, keyframe{t: number(m["t"]), s: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].t < out[j].t })
	return out, len(out) > 0
}

// At samples the property at frame. Values between keyframes are
// interpolated linearly; outside the keyframe range the nearest value holds.
func (p Property) At(frame float64) []float64 {
	if kfs, ok := p.keyframes(); ok {
		if frame <= kfs[0].t {
			return append([]float64(nil), kfs[0].s...)
		}
		last := kfs[len(kfs)-1]
		if frame >= last.t {
			return append([]float64(nil), last.s...)
		}
		for i := 0; i < len(kfs)-1; i++ {
			a, b := kfs[i], kfs[i+1]
			if frame >= a.t && frame < b.t {
				f := (frame - a.t) / (b.t - a.t)
				out := make([]float64, len(a.s))
				for c := range out {
					end := a.s[c]
					if c < len(b.s) {
						end = b.s[c]
					}
					out[c] = a.s[c] + (end-a.s[c])*f
				}
				return out
			}
		}
	}
	if vals, ok := numbers(p.m["k"]); ok {
		return vals
	}
	if f, ok := p.m["k"].(float64); ok {
		return []float64{f}
	}
	return nil
}

// Scalar samples a one-dimensional property, falling back to def.
func (p Property) Scalar(frame, def float64) float64 {
	v := p.At(frame)
	if len(v) == 0 {
		return def
	}
	return v[0]
}
