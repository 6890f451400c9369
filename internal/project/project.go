// Package project reads and writes YAML project records and turns them
// into timeline models.
package project

// Project is the on-disk form of a timeline.
type Project struct {
	Version string        `yaml:"version"`
	Name    string        `yaml:"name"`
	Width   int           `yaml:"width,omitempty"`
	Height  int           `yaml:"height,omitempty"`
	FPS     int           `yaml:"fps,omitempty"`
	Layers  []LayerRecord `yaml:"layers"`
	Groups  []GroupRecord `yaml:"groups,omitempty"`
}

// LayerRecord lists items bottom layer first.
type LayerRecord struct {
	Name    string       `yaml:"name"`
	Hidden  bool         `yaml:"hidden,omitempty"`
	Locked  bool         `yaml:"locked,omitempty"`
	Opacity *float64     `yaml:"opacity,omitempty"` // 0..1, default 1
	Items   []ItemRecord `yaml:"items"`
}

// ItemRecord places one asset instance.
type ItemRecord struct {
	ID         string         `yaml:"id,omitempty"` // referenced by groups
	Asset      string         `yaml:"asset"`
	Start      float64        `yaml:"start"`
	Duration   float64        `yaml:"duration,omitempty"` // 0 = asset default
	Properties map[string]any `yaml:"properties,omitempty"`
	Locked     bool           `yaml:"locked,omitempty"`
	Hidden     bool           `yaml:"hidden,omitempty"`
	Muted      bool           `yaml:"muted,omitempty"`
}

// GroupRecord groups items by record id.
type GroupRecord struct {
	Name      string   `yaml:"name"`
	Items     []string `yaml:"items"`
	Collapsed bool     `yaml:"collapsed,omitempty"`
}

// CurrentVersion is written into new records.
const CurrentVersion = "1.0"
