package project

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/composer/internal/catalog"
)

const sample = `
version: "1.0"
name: demo
width: 1280
height: 720
fps: 30
layers:
  - name: Background
    items:
      - id: intro
        asset: pulse-intro
        start: 0
        properties:
          accentColor: "#FF0000"
          scale: 2
  - name: Titles
    opacity: 0.5
    items:
      - id: lt
        asset: lower-third
        start: 1.5
        duration: 3
        locked: true
        properties:
          title: Hello
      - asset: qr-code
        start: 4
        hidden: true
        properties:
          url: https://example.com
groups:
  - name: Opening
    items: [intro, lt]
    collapsed: true
`

func TestBuildFromYAML(t *testing.T) {
	p, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	m, err := Build(p, catalog.Builtin())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	layers := m.Layers()
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if layers[1].Opacity != 0.5 {
		t.Errorf("layer opacity = %v, want 0.5", layers[1].Opacity)
	}

	items := m.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	intro := items[0]
	if got := intro.Properties.String("accentColor"); got != "#FF0000" {
		t.Errorf("accentColor = %q", got)
	}
	if got := intro.Properties.String("backgroundColor"); got != "#101820" {
		t.Errorf("default backgroundColor lost: %q", got)
	}
	if got, ok := intro.Properties.Float("scale"); !ok || got != 2 {
		t.Errorf("scale = %v, want 2", got)
	}

	lt := items[1]
	if lt.Duration != 3 || !lt.Locked {
		t.Errorf("lower third = %+v", lt)
	}
	if items[2].Visible {
		t.Error("hidden item is visible")
	}

	groups := m.Groups()
	if len(groups) != 1 || len(groups[0].ItemIDs) != 2 || !groups[0].Collapsed {
		t.Fatalf("groups = %+v", groups)
	}
	if got := m.Duration(); got != 9 {
		t.Errorf("Duration = %v, want 9", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		p    *Project
		want string
	}{
		{
			name: "unknown asset",
			p:    &Project{Layers: []LayerRecord{{Items: []ItemRecord{{Asset: "nope"}}}}},
			want: "nope",
		},
		{
			name: "missing required",
			p:    &Project{Layers: []LayerRecord{{Items: []ItemRecord{{Asset: "lower-third"}}}}},
			want: "title",
		},
		{
			name: "unknown group member",
			p: &Project{
				Layers: []LayerRecord{{Items: []ItemRecord{{ID: "a", Asset: "fade"}}}},
				Groups: []GroupRecord{{Name: "g", Items: []string{"b"}}},
			},
			want: `unknown item "b"`,
		},
		{
			name: "duplicate id",
			p:    &Project{Layers: []LayerRecord{{Items: []ItemRecord{{ID: "a", Asset: "fade"}, {ID: "a", Asset: "fade"}}}}},
			want: "duplicate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.p, catalog.Builtin())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestUnknownAssetIsTyped(t *testing.T) {
	p := &Project{Layers: []LayerRecord{{Items: []ItemRecord{{Asset: "nope"}}}}}
	_, err := Build(p, catalog.Builtin())
	if !errors.Is(err, catalog.ErrUnknownAssetType) {
		t.Fatalf("expected ErrUnknownAssetType, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, err := Decode([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Build(p, catalog.Builtin())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out", "p.yaml")
	if err := Write(Snapshot(m, "demo"), path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	m2, err := Build(back, catalog.Builtin())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if len(m2.Items()) != len(m.Items()) || m2.Duration() != m.Duration() {
		t.Errorf("rebuilt model differs: %d items, %.2fs", len(m2.Items()), m2.Duration())
	}
	if len(m2.Groups()) != 1 || !m2.Groups()[0].Collapsed {
		t.Errorf("groups lost: %+v", m2.Groups())
	}
}

func TestDefaultPath(t *testing.T) {
	got := DefaultPath("out")
	if filepath.Dir(got) != "out" || !strings.HasPrefix(filepath.Base(got), "project_") || filepath.Ext(got) != ".yaml" {
		t.Errorf("DefaultPath = %q", got)
	}
}
