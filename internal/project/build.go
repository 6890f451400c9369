package project

import (
	"fmt"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/timeline"
)

// Build creates a timeline model from p. Every item is validated against
// cat; the first failing item aborts the build.
func Build(p *Project, cat *catalog.Catalog) (*timeline.Model, error) {
	m := timeline.NewModel(cat)
	ids := make(map[string]string)

	for li, lr := range p.Layers {
		name := lr.Name
		if name == "" {
			name = fmt.Sprintf("Layer %d", li+1)
		}
		layer := m.AddLayer(name)
		layer.Visible = !lr.Hidden
		layer.Locked = lr.Locked
		if lr.Opacity != nil {
			layer.Opacity = clamp01(*lr.Opacity)
		}

		for ii, ir := range lr.Items {
			it, err := m.CreateItem(ir.Asset, ir.Start, layer.ID, catalog.Properties(ir.Properties))
			if err != nil {
				return nil, fmt.Errorf("layer %q item %d: %w", name, ii+1, err)
			}
			if ir.Duration > 0 {
				if _, err := m.ResizeItem(it.ID, ir.Duration); err != nil {
					return nil, err
				}
			}
			flags := timeline.Flags{Locked: ir.Locked, Visible: !ir.Hidden, Muted: ir.Muted}
			if err := m.SetItemFlags(it.ID, flags); err != nil {
				return nil, err
			}
			if ir.ID != "" {
				if _, dup := ids[ir.ID]; dup {
					return nil, fmt.Errorf("duplicate item id %q", ir.ID)
				}
				ids[ir.ID] = it.ID
			}
		}
	}

	for _, gr := range p.Groups {
		members := make([]string, 0, len(gr.Items))
		for _, ref := range gr.Items {
			id, ok := ids[ref]
			if !ok {
				return nil, fmt.Errorf("group %q: unknown item %q", gr.Name, ref)
			}
			members = append(members, id)
		}
		g, err := m.CreateGroup(gr.Name, members)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gr.Name, err)
		}
		if gr.Collapsed {
			if _, err := m.ToggleGroupCollapsed(g.ID); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Snapshot converts a model back into a project record. Item record ids
// are the model's item ids.
func Snapshot(m *timeline.Model, name string) *Project {
	p := &Project{Version: CurrentVersion, Name: name}
	for _, l := range m.Layers() {
		lr := LayerRecord{Name: l.Name, Hidden: !l.Visible, Locked: l.Locked}
		if l.Opacity != 1 {
			o := l.Opacity
			lr.Opacity = &o
		}
		for _, it := range l.Items {
			lr.Items = append(lr.Items, ItemRecord{
				ID:         it.ID,
				Asset:      it.AssetType,
				Start:      it.Start,
				Duration:   it.Duration,
				Properties: map[string]any(it.Properties.Clone()),
				Locked:     it.Locked,
				Hidden:     !it.Visible,
				Muted:      it.Muted,
			})
		}
		p.Layers = append(p.Layers, lr)
	}
	for _, g := range m.Groups() {
		p.Groups = append(p.Groups, GroupRecord{
			Name:      g.Name,
			Items:     append([]string(nil), g.ItemIDs...),
			Collapsed: g.Collapsed,
		})
	}
	return p
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
