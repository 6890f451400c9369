package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/dispatch"
)

var catalogFormat string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the built-in asset types",
	Long: `List every registered asset type with its renderer technology,
default duration, properties and instance limits.

Examples:
  composer catalog
  composer catalog --format json
  composer catalog --format toon`,
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.Flags().StringVar(&catalogFormat, "format", "table", "Output format: table, json, toon")
}

type catalogEntry struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Technology   string   `json:"technology,omitempty"`
	Component    string   `json:"component,omitempty"`
	Duration     float64  `json:"duration"`
	Properties   []string `json:"properties,omitempty"`
	MaxInstances int      `json:"max_instances,omitempty"`
	DebounceMS   int64    `json:"debounce_ms,omitempty"`
	Supported    bool     `json:"supported"`
}

func catalogEntries(cat *catalog.Catalog, reg *dispatch.Registry) []catalogEntry {
	var out []catalogEntry
	for _, def := range cat.Definitions() {
		e := catalogEntry{
			ID:         def.ID,
			Name:       def.Name,
			Category:   string(def.Category),
			Technology: string(def.Renderer.Technology),
			Component:  def.Renderer.ComponentRef,
			Duration:   def.Duration,
		}
		if def.Schema != nil {
			for _, p := range def.Schema.Properties {
				name := p.ID
				if p.Required {
					name += "*"
				}
				e.Properties = append(e.Properties, name)
			}
		}
		if d, ok := reg.Dispatch(def.ID); ok {
			e.Supported = true
			e.MaxInstances = d.MaxInstances
			e.DebounceMS = d.Debounce.Milliseconds()
		}
		out = append(out, e)
	}
	return out
}

func runCatalog(cmd *cobra.Command, args []string) error {
	entries := catalogEntries(catalog.Builtin(), dispatch.DefaultRegistry())

	switch catalogFormat {
	case "json":
		output, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	case "toon":
		output, err := gotoon.Encode(entries)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
	case "table":
		fmt.Printf("%-18s %-10s %-14s %6s  %s\n", "ID", "CATEGORY", "RENDERER", "SEC", "PROPERTIES")
		for _, e := range entries {
			tech := e.Technology
			if !e.Supported {
				tech = "-"
			}
			fmt.Printf("%-18s %-10s %-14s %6.1f  %s\n", e.ID, e.Category, tech, e.Duration, strings.Join(e.Properties, ", "))
		}
	default:
		return fmt.Errorf("unknown format %q (table|json|toon)", catalogFormat)
	}
	return nil
}
