package catalog

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Capability is the uniform behaviour bound to every registered asset.
// Concrete implementations exist per Category; binding happens once in New.
type Capability interface {
	Definition() AssetDefinition
	DefaultProperties() Properties
	Validate(props Properties) error
}

type baseAsset struct {
	def AssetDefinition
}

func (a baseAsset) Definition() AssetDefinition { return a.def }

func (a baseAsset) Validate(props Properties) error {
	if f := a.def.Schema.missing(props, ""); f != "" {
		return &SchemaViolation{AssetType: a.def.ID, MissingField: f}
	}
	return nil
}

// Component, text and effect assets carry a schema whose defaults fill in
// whatever the definition leaves out.
type componentAsset struct{ baseAsset }

func (a componentAsset) DefaultProperties() Properties {
	return Merge(a.def.Schema.Defaults(), a.def.Defaults)
}

type textAsset struct{ baseAsset }

func (a textAsset) DefaultProperties() Properties {
	return Merge(a.def.Schema.Defaults(), a.def.Defaults)
}

type effectAsset struct{ baseAsset }

func (a effectAsset) DefaultProperties() Properties {
	return Merge(a.def.Schema.Defaults(), a.def.Defaults)
}

// Media assets take defaults from the definition only.
type mediaAsset struct{ baseAsset }

func (a mediaAsset) DefaultProperties() Properties {
	return a.def.Defaults.Clone()
}

// Accepts reports whether the file name has one of the accepted extensions.
func (a mediaAsset) Accepts(name string) bool {
	if len(a.def.Metadata.AcceptedFileTypes) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, t := range a.def.Metadata.AcceptedFileTypes {
		if strings.TrimPrefix(strings.ToLower(t), ".") == ext {
			return true
		}
	}
	return false
}

type audioAsset struct{ baseAsset }

func (a audioAsset) DefaultProperties() Properties {
	return a.def.Defaults.Clone()
}

func bind(def AssetDefinition) (Capability, error) {
	base := baseAsset{def: def}
	switch def.Category {
	case CategoryComponent:
		return componentAsset{base}, nil
	case CategoryText:
		return textAsset{base}, nil
	case CategoryEffect:
		return effectAsset{base}, nil
	case CategoryMedia:
		return mediaAsset{base}, nil
	case CategoryAudio:
		return audioAsset{base}, nil
	default:
		return nil, fmt.Errorf("asset %q: unknown category %q", def.ID, def.Category)
	}
}
