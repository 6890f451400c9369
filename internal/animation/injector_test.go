package animation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/ivlev/composer/internal/catalog"
)

const testDoc = `{
  "fr": 30, "ip": 0, "op": 300, "w": 1280, "h": 720,
  "assets": [{"id": "image_0", "w": 100, "h": 100, "u": "images/", "p": "logo.png", "e": 0}],
  "layers": [
    {"nm": "Logo", "ty": 2, "refId": "image_0",
     "ks": {"o": {"a": 0, "k": 100}, "s": {"a": 0, "k": [50, 50, 100]}}},
    {"nm": "Background", "ty": 4,
     "ks": {"o": {"a": 0, "k": 100}, "s": {"a": 0, "k": [100, 100, 100]}},
     "shapes": [
       {"ty": "gr", "it": [
         {"ty": "rc", "s": {"a": 0, "k": [1280, 720]}},
         {"ty": "fl", "c": {"a": 0, "k": [0.5, 0.5, 0.5, 1]}}
       ]},
       {"ty": "fl", "c": {"a": 0, "k": [0.1, 0.1, 0.1, 1]}}
     ]}
  ]
}`

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func fillColors(doc *Document, layerName string) [][]float64 {
	var out [][]float64
	var visit func([]Shape)
	visit = func(shapes []Shape) {
		for _, s := range shapes {
			switch s.Type() {
			case "gr":
				visit(s.Items())
			case "fl":
				c, _ := s.Prop("c")
				out = append(out, c.At(0))
			}
		}
	}
	for _, l := range doc.Layers() {
		if l.Name() == layerName {
			visit(l.Shapes())
		}
	}
	return out
}

func layerNamed(doc *Document, name string) Layer {
	for _, l := range doc.Layers() {
		if l.Name() == name {
			return l
		}
	}
	return Layer{}
}

func TestBackgroundColorRoundTrip(t *testing.T) {
	src := mustParse(t, testDoc)
	inj := NewInjector()

	for r := 0; r <= 255; r += 51 {
		for g := 0; g <= 255; g += 85 {
			for b := 0; b <= 255; b += 15 {
				hex := fmt.Sprintf("#%02x%02X%02x", r, g, b)
				doc, _, err := inj.Derive(src, MergeFields{BackgroundColor: hex})
				if err != nil {
					t.Fatalf("Derive failed: %v", err)
				}
				want := []float64{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1}
				fills := fillColors(doc, "Background")
				if len(fills) != 2 {
					t.Fatalf("Expected 2 fills, got %d", len(fills))
				}
				for _, got := range fills {
					for i := range want {
						if math.Abs(got[i]-want[i]) > 1e-4 {
							t.Fatalf("%s: channel %d = %f, want %f", hex, i, got[i], want[i])
						}
					}
				}
			}
		}
	}
}

func TestTransparentBackground(t *testing.T) {
	src := mustParse(t, testDoc)
	doc, rep, err := NewInjector().Derive(src, MergeFields{BackgroundColor: "transparent"})
	if err != nil {
		t.Fatal(err)
	}
	o, _ := layerNamed(doc, "Background").Transform("o")
	if got := o.Scalar(0, -1); got != 0 {
		t.Errorf("Expected opacity 0, got %f", got)
	}
	fills := fillColors(doc, "Background")
	if fills[0][0] != 0.5 || fills[1][0] != 0.1 {
		t.Errorf("Transparent must leave fills untouched, got %v", fills)
	}
	if rep.Patched != 1 {
		t.Errorf("Expected 1 patch, got %d", rep.Patched)
	}
}

func TestDeriveNeverMutatesSource(t *testing.T) {
	src := mustParse(t, testDoc)
	before, _ := json.Marshal(src)

	inj := NewInjector()
	scale := 3.0
	var derived []*Document
	for i := 0; i < 5; i++ {
		doc, _, err := inj.Derive(src, MergeFields{
			BackgroundColor: "#FF0000",
			EmbeddedImage:   "https://cdn.example.com/logo.png",
			Scale:           &scale,
		})
		if err != nil {
			t.Fatal(err)
		}
		if doc == src {
			t.Fatal("Derived document must be a distinct object")
		}
		derived = append(derived, doc)
	}
	if derived[0] == derived[1] {
		t.Error("Each derivation must return its own document")
	}

	after, _ := json.Marshal(src)
	if !bytes.Equal(before, after) {
		t.Errorf("Source changed:\nbefore %s\nafter  %s", before, after)
	}
}

func TestStaticScale(t *testing.T) {
	src := mustParse(t, testDoc)
	factor := 2.0
	doc, _, _ := NewInjector().Derive(src, MergeFields{Scale: &factor})

	s, _ := layerNamed(doc, "Logo").Transform("s")
	got := s.At(0)
	if got[0] != 100 || got[1] != 100 || got[2] != 100 {
		t.Errorf("Expected [100 100 100], got %v", got)
	}
}

func TestAnisotropicScaleCollapses(t *testing.T) {
	src := mustParse(t, `{"layers": [{"nm": "Logo", "ks": {"s": {"a": 0, "k": [40, 80]}}}]}`)
	factor := 1.0
	doc, _, _ := NewInjector().Derive(src, MergeFields{Scale: &factor})

	s, _ := layerNamed(doc, "Logo").Transform("s")
	if got := s.At(0); got[0] != 60 || got[1] != 60 {
		t.Errorf("Expected both axes at 60, got %v", got)
	}
}

func TestKeyframedScale(t *testing.T) {
	src := mustParse(t, `{"layers": [{"nm": "Logo", "ks": {"s": {"a": 1, "k": [
		{"t": 0, "s": [10, 10, 100], "i": {"x": [0.4], "y": [1]}},
		{"t": 15, "s": [10, 10, 100], "o": {"x": [0.6], "y": [0]}},
		{"t": 30, "s": [10, 10, 100]}
	]}}}]}`)
	factor := 0.5
	doc, _, _ := NewInjector().Derive(src, MergeFields{Scale: &factor})

	raw, _ := json.Marshal(doc)
	var parsed struct {
		Layers []struct {
			Ks struct {
				S struct {
					K []struct {
						T float64        `json:"t"`
						S []float64      `json:"s"`
						I map[string]any `json:"i"`
						O map[string]any `json:"o"`
					} `json:"k"`
				} `json:"s"`
			} `json:"ks"`
		} `json:"layers"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatal(err)
	}
	kfs := parsed.Layers[0].Ks.S.K
	if len(kfs) != 3 {
		t.Fatalf("Expected 3 keyframes, got %d", len(kfs))
	}
	wantT := []float64{0, 15, 30}
	for i, kf := range kfs {
		if kf.S[0] != 5 || kf.S[1] != 5 || kf.S[2] != 100 {
			t.Errorf("Keyframe %d: got %v, want [5 5 100]", i, kf.S)
		}
		if kf.T != wantT[i] {
			t.Errorf("Keyframe %d time changed to %f", i, kf.T)
		}
	}
	if kfs[0].I == nil || kfs[1].O == nil {
		t.Error("Easing fields must be preserved")
	}
}

func TestEmbeddedImage(t *testing.T) {
	src := mustParse(t, testDoc)
	doc, _, _ := NewInjector().Derive(src, MergeFields{EmbeddedImage: "data:image/png;base64,AAAA"})

	a, ok := doc.Asset("image_0")
	if !ok || a.Payload != "data:image/png;base64,AAAA" {
		t.Errorf("Asset payload not replaced: %+v", a)
	}
	orig, _ := src.Asset("image_0")
	if orig.Payload != "images/logo.png" {
		t.Errorf("Source asset changed: %+v", orig)
	}
}

func TestMalformedSubtreesAreSkipped(t *testing.T) {
	src := mustParse(t, `{"layers": [
		{"nm": "Background"},
		{"nm": "Logo", "ks": {}},
		{"nm": "BG", "ks": {"o": {"a": 0, "k": 50}}, "shapes": [{"ty": "fl", "c": {"a": 0, "k": [0, 0, 0, 1]}}]},
		"not-a-layer"
	]}`)
	scale := 2.0
	doc, rep, err := NewInjector().Derive(src, MergeFields{BackgroundColor: "#00FF00", Scale: &scale})
	if err != nil {
		t.Fatalf("Malformed input must not abort: %v", err)
	}
	if len(rep.Skipped) < 2 {
		t.Errorf("Expected skips for missing transform and scale, got %+v", rep.Skipped)
	}
	fills := fillColors(doc, "BG")
	if len(fills) != 1 || fills[0][1] != 1 {
		t.Errorf("Well-formed sibling should still be patched, got %v", fills)
	}
}

func TestDepthGuard(t *testing.T) {
	// Build a chain of nested layers deeper than the guard allows.
	inner := `{"nm": "Background", "ks": {"o": {"a": 0, "k": 100}}, "shapes": [{"ty": "fl", "c": {"a": 0, "k": [0, 0, 0, 1]}}]}`
	for i := 0; i < 10; i++ {
		inner = fmt.Sprintf(`{"nm": "wrap%d", "layers": [%s]}`, i, inner)
	}
	src := mustParse(t, `{"layers": [`+inner+`]}`)

	inj := NewInjector()
	inj.MaxDepth = 4
	_, rep, err := inj.Derive(src, MergeFields{BackgroundColor: "#FFFFFF"})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range rep.Skipped {
		if s.Reason == ErrDepthExceeded.Error() {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected depth guard skip, got %+v", rep.Skipped)
	}
	if rep.Patched != 0 {
		t.Errorf("Nothing below the guard should be patched, got %d", rep.Patched)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want [4]float64
		err  bool
	}{
		{"#FFF", [4]float64{1, 1, 1, 1}, false},
		{"000000", [4]float64{0, 0, 0, 1}, false},
		{"#FF000080", [4]float64{1, 0, 0, 0.502}, false},
		{"#12345", [4]float64{}, true},
		{"#GGGGGG", [4]float64{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if (err != nil) != tt.err {
				t.Fatalf("err = %v, want error %v", err, tt.err)
			}
			for i := range got {
				if math.Abs(got[i]-tt.want[i]) > 1e-4 {
					t.Errorf("channel %d: got %f, want %f", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDefaultPropertiesLeaveScaleAlone(t *testing.T) {
	for _, key := range []string{"logo-reveal", "pulse-intro"} {
		capability, ok := catalog.Builtin().Capability(key)
		if !ok {
			t.Fatalf("%s missing from the catalog", key)
		}
		props := capability.DefaultProperties()
		if f := FieldsFrom(props); f.Scale != nil {
			t.Errorf("%s: defaults request a scale of %v", key, *f.Scale)
		}
		props["scale"] = 2.0
		if f := FieldsFrom(props); f.Scale == nil || *f.Scale != 2 {
			t.Errorf("%s: explicit scale lost", key)
		}
	}
}
