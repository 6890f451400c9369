package timeline

import (
	"fmt"
	"math"
)

// TabKind distinguishes the main tab from group tabs.
type TabKind string

const (
	TabMain  TabKind = "main"
	TabGroup TabKind = "group"
)

// Tab is a named view over the timeline.
type Tab struct {
	ID      string
	Name    string
	Kind    TabKind
	GroupID string
}

// Closable reports whether the tab can be closed.
func (t *Tab) Closable() bool {
	return t.Kind == TabGroup
}

// Group is a named aggregate of item ids with derived bounds.
type Group struct {
	ID        string
	Name      string
	ItemIDs   []string
	Start     float64
	End       float64
	Collapsed bool
	TabID     string
}

// Tabs returns the open tabs, main first.
func (m *Model) Tabs() []*Tab {
	out := make([]*Tab, len(m.tabs))
	copy(out, m.tabs)
	return out
}

// Tab returns the tab with id.
func (m *Model) Tab(id string) (*Tab, bool) {
	for _, t := range m.tabs {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// ActiveTab returns the tab currently in focus.
func (m *Model) ActiveTab() *Tab {
	t, _ := m.Tab(m.active)
	return t
}

// SetActiveTab focuses an existing tab.
func (m *Model) SetActiveTab(id string) error {
	if _, ok := m.Tab(id); !ok {
		return fmt.Errorf("tab %s: %w", id, ErrNotFound)
	}
	m.active = id
	return nil
}

// Groups returns all groups.
func (m *Model) Groups() []*Group {
	out := make([]*Group, len(m.groups))
	copy(out, m.groups)
	return out
}

// Group returns the group with id.
func (m *Model) Group(id string) (*Group, bool) {
	for _, g := range m.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupOf returns the group referencing the item, if any.
func (m *Model) GroupOf(itemID string) (*Group, bool) {
	for _, g := range m.groups {
		for _, id := range g.ItemIDs {
			if id == itemID {
				return g, true
			}
		}
	}
	return nil, false
}

// CreateGroup groups the selected items. Unknown ids are ignored; if nothing
// remains the group is rejected. An item already in another group moves to
// the new one, so every item is referenced by at most one group.
func (m *Model) CreateGroup(name string, itemIDs []string) (*Group, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var members []string
	seen := make(map[string]bool)
	for _, id := range itemIDs {
		if _, ok := m.items[id]; ok && !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	if len(members) == 0 {
		return nil, ErrEmptyGroup
	}
	for _, id := range members {
		m.dropFromGroups(id)
	}

	g := &Group{ID: m.newID(), Name: name, ItemIDs: members}
	m.computeBounds(g)
	m.groups = append(m.groups, g)
	return g, nil
}

// Ungroup removes the group and closes its tab. Items are untouched.
func (m *Model) Ungroup(groupID string) error {
	g, ok := m.Group(groupID)
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	m.deleteGroup(g)
	return nil
}

// ToggleGroupCollapsed flips the collapsed flag.
func (m *Model) ToggleGroupCollapsed(groupID string) (bool, error) {
	g, ok := m.Group(groupID)
	if !ok {
		return false, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	g.Collapsed = !g.Collapsed
	return g.Collapsed, nil
}

// OpenGroupTab opens a tab for the group and focuses it. If the group
// already has a tab, that tab is focused instead of creating another.
func (m *Model) OpenGroupTab(groupID string) (*Tab, error) {
	g, ok := m.Group(groupID)
	if !ok {
		return nil, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if g.TabID != "" {
		if t, ok := m.Tab(g.TabID); ok {
			m.active = t.ID
			return t, nil
		}
	}
	t := &Tab{ID: m.newID(), Name: g.Name, Kind: TabGroup, GroupID: g.ID}
	m.tabs = append(m.tabs, t)
	g.TabID = t.ID
	m.active = t.ID
	return t, nil
}

// CloseTab closes a group tab. The main tab is never closed. Closing the
// active tab focuses the main tab. The group itself survives.
func (m *Model) CloseTab(tabID string) error {
	t, ok := m.Tab(tabID)
	if !ok {
		return fmt.Errorf("tab %s: %w", tabID, ErrNotFound)
	}
	if !t.Closable() {
		return ErrNotClosable
	}
	kept := m.tabs[:0]
	for _, tab := range m.tabs {
		if tab.ID != tabID {
			kept = append(kept, tab)
		}
	}
	m.tabs = kept
	if g, ok := m.Group(t.GroupID); ok && g.TabID == tabID {
		g.TabID = ""
	}
	if m.active == tabID {
		m.active = MainTabID
	}
	return nil
}

// RenameTab changes a tab's display name.
func (m *Model) RenameTab(tabID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	t, ok := m.Tab(tabID)
	if !ok {
		return fmt.Errorf("tab %s: %w", tabID, ErrNotFound)
	}
	t.Name = name
	return nil
}

// RenameGroup changes a group's display name.
func (m *Model) RenameGroup(groupID, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	g, ok := m.Group(groupID)
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	g.Name = name
	return nil
}

// ItemsInTab returns the items visible through a tab, bottom layer first.
func (m *Model) ItemsInTab(tabID string) []*Item {
	t, ok := m.Tab(tabID)
	if !ok {
		return nil
	}
	all := m.Items()
	if t.Kind == TabMain {
		return all
	}
	g, ok := m.Group(t.GroupID)
	if !ok {
		return nil
	}
	member := make(map[string]bool, len(g.ItemIDs))
	for _, id := range g.ItemIDs {
		member[id] = true
	}
	var out []*Item
	for _, it := range all {
		if member[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// InActiveTab reports whether the item is shown by the focused tab.
func (m *Model) InActiveTab(itemID string) bool {
	t := m.ActiveTab()
	if t == nil {
		return false
	}
	if t.Kind == TabMain {
		_, ok := m.items[itemID]
		return ok
	}
	g, ok := m.GroupOf(itemID)
	return ok && g.ID == t.GroupID
}

func (m *Model) computeBounds(g *Group) {
	start, end := math.Inf(1), math.Inf(-1)
	for _, id := range g.ItemIDs {
		it := m.items[id]
		start = math.Min(start, it.Start)
		end = math.Max(end, it.End())
	}
	g.Start, g.End = start, end
}

func (m *Model) refreshGroupsOf(itemID string) {
	if g, ok := m.GroupOf(itemID); ok {
		m.computeBounds(g)
	}
}

// dropFromGroups removes an item from its group. A group left without
// members is deleted together with its tab.
func (m *Model) dropFromGroups(itemID string) {
	g, ok := m.GroupOf(itemID)
	if !ok {
		return
	}
	kept := g.ItemIDs[:0]
	for _, id := range g.ItemIDs {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	g.ItemIDs = kept
	if len(g.ItemIDs) == 0 {
		m.deleteGroup(g)
		return
	}
	m.computeBounds(g)
}

func (m *Model) deleteGroup(g *Group) {
	if g.TabID != "" {
		_ = m.CloseTab(g.TabID)
	}
	kept := m.groups[:0]
	for _, other := range m.groups {
		if other.ID != g.ID {
			kept = append(kept, other)
		}
	}
	m.groups = kept
}
