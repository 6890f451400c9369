// Package timeline models layers, items, tabs and groups of a composition.
//
// A Model is not safe for concurrent use. It is driven by a single event
// loop (playback ticks and UI events), as the rest of the engine.
package timeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/ivlev/composer/internal/catalog"
)

// MinDuration is the shortest duration an item can be resized to.
const MinDuration = 0.1

// MainTabID is the id of the non-closable main tab.
const MainTabID = "main"

var (
	ErrUnknownAssetType = catalog.ErrUnknownAssetType
	ErrNotFound         = errors.New("not found")
	ErrEmptyGroup       = errors.New("group selection is empty")
	ErrNotClosable      = errors.New("tab is not closable")
	ErrEmptyName        = errors.New("name must not be empty")
	ErrLocked           = errors.New("item is locked")
)

// Item is a placed asset instance.
type Item struct {
	ID         string
	AssetType  string
	LayerID    string
	Start      float64
	Duration   float64
	Properties catalog.Properties
	Renderer   catalog.RendererRef
	Locked     bool
	Visible    bool
	Muted      bool
}

// End returns Start+Duration.
func (i *Item) End() float64 {
	return i.Start + i.Duration
}

// ActiveAt reports whether t falls inside [Start, End).
func (i *Item) ActiveAt(t float64) bool {
	return t >= i.Start && t < i.End()
}

// Flags groups the behavioural switches of an item.
type Flags struct {
	Locked  bool
	Visible bool
	Muted   bool
}

// Layer is an ordered container of items.
type Layer struct {
	ID      string
	Name    string
	Order   int // z-index, unique across the model
	Visible bool
	Locked  bool
	Opacity float64
	Items   []*Item
}

// Model is the in-memory timeline.
type Model struct {
	catalog *catalog.Catalog
	layers  []*Layer
	items   map[string]*Item
	tabs    []*Tab
	groups  []*Group
	active  string
	newID   func() string
}

// NewModel creates an empty timeline with its main tab active.
func NewModel(cat *catalog.Catalog) *Model {
	return &Model{
		catalog: cat,
		items:   make(map[string]*Item),
		tabs:    []*Tab{{ID: MainTabID, Name: "Main", Kind: TabMain}},
		active:  MainTabID,
		newID:   func() string { return ulid.Make().String() },
	}
}

// Catalog returns the catalog the model validates against.
func (m *Model) Catalog() *catalog.Catalog {
	return m.catalog
}

// AddLayer appends a layer on top of the existing ones.
func (m *Model) AddLayer(name string) *Layer {
	l := &Layer{
		ID:      m.newID(),
		Name:    name,
		Order:   len(m.layers),
		Visible: true,
		Opacity: 1,
	}
	m.layers = append(m.layers, l)
	return l
}

// Layers returns layers sorted bottom to top.
func (m *Model) Layers() []*Layer {
	out := make([]*Layer, len(m.layers))
	copy(out, m.layers)
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Layer returns the layer with id.
func (m *Model) Layer(id string) (*Layer, bool) {
	for _, l := range m.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

// MoveLayer places the layer at order and renumbers the rest so order
// indices stay unique and dense.
func (m *Model) MoveLayer(id string, order int) error {
	sorted := m.Layers()
	idx := -1
	for i, l := range sorted {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("layer %s: %w", id, ErrNotFound)
	}
	l := sorted[idx]
	sorted = append(sorted[:idx], sorted[idx+1:]...)
	if order < 0 {
		order = 0
	}
	if order > len(sorted) {
		order = len(sorted)
	}
	sorted = append(sorted[:order], append([]*Layer{l}, sorted[order:]...)...)
	for i, layer := range sorted {
		layer.Order = i
	}
	m.layers = sorted
	return nil
}

// DeleteLayer removes a layer and every item it owns.
func (m *Model) DeleteLayer(id string) error {
	l, ok := m.Layer(id)
	if !ok {
		return fmt.Errorf("layer %s: %w", id, ErrNotFound)
	}
	for _, it := range append([]*Item(nil), l.Items...) {
		m.removeItem(it)
	}
	kept := m.layers[:0]
	for _, layer := range m.layers {
		if layer.ID != id {
			kept = append(kept, layer)
		}
	}
	m.layers = kept
	for i, layer := range m.Layers() {
		layer.Order = i
	}
	return nil
}

// CreateItem instantiates assetType on layerID at start. Overrides are merged
// over the asset defaults and the result is validated against the catalog.
// Nothing is added when creation fails.
func (m *Model) CreateItem(assetType string, start float64, layerID string, overrides catalog.Properties) (*Item, error) {
	capability, ok := m.catalog.Capability(assetType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAssetType, assetType)
	}
	layer, ok := m.Layer(layerID)
	if !ok {
		return nil, fmt.Errorf("layer %s: %w", layerID, ErrNotFound)
	}
	props := catalog.Merge(capability.DefaultProperties(), overrides)
	if err := capability.Validate(props); err != nil {
		return nil, err
	}

	def := capability.Definition()
	duration := def.Duration
	if duration < MinDuration {
		duration = MinDuration
	}
	if start < 0 {
		start = 0
	}

	it := &Item{
		ID:         m.newID(),
		AssetType:  assetType,
		LayerID:    layer.ID,
		Start:      start,
		Duration:   duration,
		Properties: props,
		Renderer:   def.Renderer,
		Visible:    true,
	}
	layer.Items = append(layer.Items, it)
	m.items[it.ID] = it
	return it, nil
}

// Item returns the item with id.
func (m *Model) Item(id string) (*Item, bool) {
	it, ok := m.items[id]
	return it, ok
}

// Items returns every item, bottom layer first, in insertion order per layer.
func (m *Model) Items() []*Item {
	var out []*Item
	for _, l := range m.Layers() {
		out = append(out, l.Items...)
	}
	return out
}

// MoveItem sets the start time. Negative input is clamped to zero since
// drags transiently overshoot.
func (m *Model) MoveItem(id string, start float64) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if it.Locked {
		return it, ErrLocked
	}
	if start < 0 {
		start = 0
	}
	it.Start = start
	m.refreshGroupsOf(id)
	return it, nil
}

// ResizeItem sets the duration, clamped to MinDuration.
func (m *Model) ResizeItem(id string, duration float64) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if it.Locked {
		return it, ErrLocked
	}
	if duration < MinDuration {
		duration = MinDuration
	}
	it.Duration = duration
	m.refreshGroupsOf(id)
	return it, nil
}

// MoveItemToLayer transfers ownership of an item to another layer.
func (m *Model) MoveItemToLayer(id, layerID string) error {
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	if it.Locked {
		return ErrLocked
	}
	dst, ok := m.Layer(layerID)
	if !ok {
		return fmt.Errorf("layer %s: %w", layerID, ErrNotFound)
	}
	if src, ok := m.Layer(it.LayerID); ok {
		src.Items = without(src.Items, id)
	}
	it.LayerID = dst.ID
	dst.Items = append(dst.Items, it)
	return nil
}

// UpdateProperties merges overrides into the item's properties. The merged
// set must still satisfy the schema, otherwise the item is left untouched.
func (m *Model) UpdateProperties(id string, overrides catalog.Properties) (*Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	props := catalog.Merge(it.Properties, overrides)
	if err := m.catalog.Validate(it.AssetType, props); err != nil {
		return it, err
	}
	it.Properties = props
	return it, nil
}

// SetItemFlags updates the locked/visible/muted switches.
func (m *Model) SetItemFlags(id string, f Flags) error {
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	it.Locked, it.Visible, it.Muted = f.Locked, f.Visible, f.Muted
	return nil
}

// DeleteItem removes an item from its layer and from any group.
func (m *Model) DeleteItem(id string) error {
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	m.removeItem(it)
	return nil
}

func (m *Model) removeItem(it *Item) {
	if l, ok := m.Layer(it.LayerID); ok {
		l.Items = without(l.Items, it.ID)
	}
	delete(m.items, it.ID)
	m.dropFromGroups(it.ID)
}

// Duration returns the end of the last item.
func (m *Model) Duration() float64 {
	end := 0.0
	for _, it := range m.items {
		if it.End() > end {
			end = it.End()
		}
	}
	return end
}

func without(items []*Item, id string) []*Item {
	out := items[:0]
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}
