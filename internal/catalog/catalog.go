// Package catalog holds the read-only registry of asset definitions and
// their property schemas.
package catalog

import (
	"errors"
	"fmt"
)

// ErrUnknownAssetType is returned when an asset-type key is not registered.
var ErrUnknownAssetType = errors.New("unknown asset type")

// Catalog is built once and never mutated afterwards.
type Catalog struct {
	entries map[string]Capability
	order   []string
}

// New binds every definition to its category capability.
func New(defs ...AssetDefinition) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]Capability, len(defs))}
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("asset definition without id")
		}
		if _, dup := c.entries[def.ID]; dup {
			return nil, fmt.Errorf("duplicate asset definition %q", def.ID)
		}
		def.Defaults = def.Defaults.Clone()
		capability, err := bind(def)
		if err != nil {
			return nil, err
		}
		c.entries[def.ID] = capability
		c.order = append(c.order, def.ID)
	}
	return c, nil
}

// Lookup returns the definition for key. A miss is not an error.
func (c *Catalog) Lookup(key string) (AssetDefinition, bool) {
	capability, ok := c.entries[key]
	if !ok {
		return AssetDefinition{}, false
	}
	def := capability.Definition()
	def.Defaults = def.Defaults.Clone()
	return def, true
}

// Capability returns the bound capability for key.
func (c *Catalog) Capability(key string) (Capability, bool) {
	capability, ok := c.entries[key]
	return capability, ok
}

// Validate checks that every required property of key is present and non-null.
func (c *Catalog) Validate(key string, props Properties) error {
	capability, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAssetType, key)
	}
	return capability.Validate(props)
}

// Definitions returns all definitions in registration order.
func (c *Catalog) Definitions() []AssetDefinition {
	out := make([]AssetDefinition, 0, len(c.order))
	for _, id := range c.order {
		def, _ := c.Lookup(id)
		out = append(out, def)
	}
	return out
}

// Len returns the number of registered assets.
func (c *Catalog) Len() int {
	return len(c.order)
}
