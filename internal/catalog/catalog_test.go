package catalog

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	c := Builtin()

	if _, ok := c.Lookup("nonexistent-type"); ok {
		t.Error("Expected lookup miss for nonexistent-type")
	}

	def, ok := c.Lookup("logo-reveal")
	if !ok {
		t.Fatal("Expected logo-reveal to be registered")
	}
	if def.Renderer.Technology != TechVectorCanvas {
		t.Errorf("Expected vector-canvas, got %s", def.Renderer.Technology)
	}

	// Lookup hands out copies, the catalog stays read-only.
	def.Defaults["backgroundColor"] = "#000000"
	again, _ := c.Lookup("logo-reveal")
	if again.Defaults.String("backgroundColor") != "#1E88E5" {
		t.Errorf("Catalog defaults were mutated through Lookup: %v", again.Defaults)
	}
}

func TestValidate(t *testing.T) {
	c := Builtin()

	tests := []struct {
		name    string
		asset   string
		props   Properties
		missing string
		unknown bool
	}{
		{"ok", "title-text", Properties{"text": "Hello"}, "", false},
		{"missing", "title-text", Properties{}, "text", false},
		{"null", "title-text", Properties{"text": nil}, "text", false},
		{"empty string is present", "title-text", Properties{"text": ""}, "", false},
		{"nested array item", "bullet-list", Properties{
			"heading": "Agenda",
			"items":   []any{map[string]any{"label": "one"}, map[string]any{}},
		}, "items[1].label", false},
		{"unknown", "nonexistent-type", Properties{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.asset, tt.props)
			if tt.unknown {
				if !errors.Is(err, ErrUnknownAssetType) {
					t.Fatalf("Expected ErrUnknownAssetType, got %v", err)
				}
				return
			}
			if tt.missing == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			var sv *SchemaViolation
			if !errors.As(err, &sv) {
				t.Fatalf("Expected SchemaViolation, got %v", err)
			}
			if sv.MissingField != tt.missing {
				t.Errorf("Expected missing %q, got %q", tt.missing, sv.MissingField)
			}
		})
	}
}

func TestDefaultProperties(t *testing.T) {
	c := Builtin()

	capability, ok := c.Capability("qr-code")
	if !ok {
		t.Fatal("qr-code not registered")
	}
	defaults := capability.DefaultProperties()
	if defaults.String("position") != "bottom-right" {
		t.Errorf("Expected schema default position, got %v", defaults["position"])
	}
	if size, _ := defaults.Float("size"); size != 256 {
		t.Errorf("Expected size 256, got %v", size)
	}

	media, _ := c.Capability("image")
	if _, has := media.DefaultProperties()["src"]; has {
		t.Error("Media defaults should not invent a src")
	}
	if m, ok := media.(mediaAsset); !ok || !m.Accepts("photo.JPG") || m.Accepts("clip.mp4") {
		t.Error("Image asset should accept jpg and reject mp4")
	}
}

func TestNewRejectsBadDefinitions(t *testing.T) {
	if _, err := New(AssetDefinition{ID: "x", Category: "hologram"}); err == nil {
		t.Error("Expected error for unknown category")
	}
	if _, err := New(AssetDefinition{ID: "x", Category: CategoryText}, AssetDefinition{ID: "x", Category: CategoryText}); err == nil {
		t.Error("Expected error for duplicate id")
	}
}

func TestBuiltinAnimationsEmbedded(t *testing.T) {
	for _, def := range Builtin().Definitions() {
		if def.Source == "" {
			continue
		}
		name := strings.TrimPrefix(def.Source, BuiltinScheme)
		if _, err := fs.Stat(Animations(), name); err != nil {
			t.Errorf("Animation %s for %s is not embedded: %v", name, def.ID, err)
		}
	}
}
