package catalog

import (
	"embed"
	"io/fs"
)

//go:embed animations/*.json
var animations embed.FS

// BuiltinScheme prefixes animation sources served from the embedded set.
const BuiltinScheme = "builtin:"

// Animations exposes the embedded animation documents rooted at their
// directory, so "builtin:pulse.json" resolves to "pulse.json".
func Animations() fs.FS {
	sub, err := fs.Sub(animations, "animations")
	if err != nil {
		panic(err)
	}
	return sub
}

func ptr(v float64) *float64 { return &v }

// BuiltinDefinitions is the fixed definition set shipped with the composer.
func BuiltinDefinitions() []AssetDefinition {
	return []AssetDefinition{
		{
			ID:       "logo-reveal",
			Name:     "Logo Reveal",
			Category: CategoryComponent,
			Duration: 5,
			Defaults: Properties{"backgroundColor": "#1E88E5"},
			Renderer: RendererRef{Technology: TechVectorCanvas, ComponentRef: "logo-reveal"},
			Metadata: Metadata{SupportsLayers: true},
			Source:   BuiltinScheme + "logo-reveal.json",
			Schema: &ComponentSchema{
				ID: "logo-reveal",
				Properties: []ComponentProperty{
					{ID: "backgroundColor", Label: "Background", Type: TypeColor, Required: true, Default: "#1E88E5"},
					{ID: "embeddedImage", Label: "Logo", Type: TypeFile},
					{ID: "scale", Label: "Logo scale", Type: TypeNumber,
						Constraints: Constraints{Min: ptr(0.1), Max: ptr(4), Step: ptr(0.1)}},
				},
			},
		},
		{
			ID:       "pulse-intro",
			Name:     "Pulse Intro",
			Category: CategoryComponent,
			Duration: 4,
			Defaults: Properties{"backgroundColor": "#101820", "accentColor": "#FEE715"},
			Renderer: RendererRef{Technology: TechVectorCanvas, ComponentRef: "pulse"},
			Metadata: Metadata{SupportsLayers: true},
			Source:   BuiltinScheme + "pulse.json",
			Schema: &ComponentSchema{
				ID: "pulse-intro",
				Properties: []ComponentProperty{
					{ID: "backgroundColor", Type: TypeColor, Required: true, Default: "#101820"},
					{ID: "accentColor", Type: TypeColor, Default: "#FEE715"},
					{ID: "scale", Type: TypeNumber,
						Constraints: Constraints{Min: ptr(0.1), Max: ptr(3), Step: ptr(0.1)}},
				},
			},
		},
		{
			ID:       "lower-third",
			Name:     "Lower Third",
			Category: CategoryComponent,
			Duration: 6,
			Defaults: Properties{"backgroundColor": "#222222", "textColor": "#FFFFFF"},
			Renderer: RendererRef{Technology: TechHybrid, ComponentRef: "lower-third"},
			Source:   BuiltinScheme + "lower-third.json",
			Schema: &ComponentSchema{
				ID: "lower-third",
				Properties: []ComponentProperty{
					{ID: "title", Type: TypeText, Required: true},
					{ID: "subtitle", Type: TypeText},
					{ID: "backgroundColor", Type: TypeColor, Default: "#222222"},
					{ID: "textColor", Type: TypeColor, Default: "#FFFFFF"},
				},
			},
		},
		{
			ID:       "bullet-list",
			Name:     "Bullet List",
			Category: CategoryComponent,
			Duration: 6,
			Renderer: RendererRef{Technology: TechDOMOverlay, ComponentRef: "bullet-list"},
			Schema: &ComponentSchema{
				ID: "bullet-list",
				Properties: []ComponentProperty{
					{ID: "heading", Type: TypeText, Required: true},
					{ID: "items", Type: TypeArray, Required: true, Constraints: Constraints{
						Items: &ComponentSchema{ID: "bullet", Properties: []ComponentProperty{
							{ID: "label", Type: TypeText, Required: true},
						}},
					}},
					{ID: "textColor", Type: TypeColor, Default: "#FFFFFF"},
				},
			},
		},
		{
			ID:       "qr-code",
			Name:     "QR Code",
			Category: CategoryComponent,
			Duration: 5,
			Defaults: Properties{"size": 256.0},
			Renderer: RendererRef{Technology: TechDOMOverlay, ComponentRef: "qr-code"},
			Schema: &ComponentSchema{
				ID: "qr-code",
				Properties: []ComponentProperty{
					{ID: "url", Type: TypeText, Required: true},
					{ID: "size", Type: TypeNumber, Default: 256.0,
						Constraints: Constraints{Min: ptr(64), Max: ptr(1024), Step: ptr(32)}},
					{ID: "position", Type: TypeSelect, Default: "bottom-right",
						Constraints: Constraints{Options: []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}}},
				},
			},
		},
		{
			ID:       "title-text",
			Name:     "Title",
			Category: CategoryText,
			Duration: 3,
			Renderer: RendererRef{Technology: TechDOMOverlay, ComponentRef: "text"},
			Schema: &ComponentSchema{
				ID: "title-text",
				Properties: []ComponentProperty{
					{ID: "text", Type: TypeTextarea, Required: true},
					{ID: "color", Type: TypeColor, Default: "#FFFFFF"},
					{ID: "position", Type: TypeSelect, Default: "center",
						Constraints: Constraints{Options: []string{"center", "top-left", "top-right", "bottom-left", "bottom-right"}}},
				},
			},
		},
		{
			ID:       "image",
			Name:     "Image",
			Category: CategoryMedia,
			Duration: 5,
			Defaults: Properties{"fit": "contain", "opacity": 1.0},
			Renderer: RendererRef{Technology: TechRasterCanvas},
			Metadata: Metadata{AcceptedFileTypes: []string{"png", "jpg", "jpeg", "webp"}},
			Schema: &ComponentSchema{
				ID:         "image",
				Properties: []ComponentProperty{{ID: "src", Type: TypeFile, Required: true}},
			},
		},
		{
			ID:       "pdf-page",
			Name:     "PDF Page",
			Category: CategoryMedia,
			Duration: 5,
			Defaults: Properties{"fit": "contain", "page": 0.0, "dpi": 150.0},
			Renderer: RendererRef{Technology: TechRasterCanvas},
			Metadata: Metadata{AcceptedFileTypes: []string{"pdf"}},
			Schema: &ComponentSchema{
				ID:         "pdf-page",
				Properties: []ComponentProperty{{ID: "src", Type: TypeFile, Required: true}},
			},
		},
		{
			ID:       "video-clip",
			Name:     "Video Clip",
			Category: CategoryMedia,
			Duration: 10,
			Renderer: RendererRef{Technology: TechRasterCanvas},
			Metadata: Metadata{AcceptedFileTypes: []string{"mp4", "webm", "mov"}},
			Schema: &ComponentSchema{
				ID:         "video-clip",
				Properties: []ComponentProperty{{ID: "src", Type: TypeFile, Required: true}},
			},
		},
		{
			ID:       "fade",
			Name:     "Fade",
			Category: CategoryEffect,
			Duration: 1,
			Renderer: RendererRef{Technology: TechRasterCanvas, ComponentRef: "fade"},
			Schema: &ComponentSchema{
				ID: "fade",
				Properties: []ComponentProperty{
					{ID: "color", Type: TypeColor, Default: "#000000"},
					{ID: "direction", Type: TypeSelect, Default: "in",
						Constraints: Constraints{Options: []string{"in", "out"}}},
				},
			},
		},
		{
			ID:       "background-music",
			Name:     "Background Music",
			Category: CategoryAudio,
			Duration: 30,
			Defaults: Properties{"volume": 0.8},
			Metadata: Metadata{AcceptedFileTypes: []string{"mp3", "wav", "m4a", "ogg"}},
			Schema: &ComponentSchema{
				ID:         "background-music",
				Properties: []ComponentProperty{{ID: "src", Type: TypeFile, Required: true}},
			},
		},
	}
}

// Builtin returns a catalog over BuiltinDefinitions.
func Builtin() *Catalog {
	c, err := New(BuiltinDefinitions()...)
	if err != nil {
		panic(err)
	}
	return c
}
