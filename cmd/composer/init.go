package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/project"
	"github.com/ivlev/composer/internal/timeline"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a sample project",
	Long: `Create a small project using the built-in components and save it
as a timestamped YAML file.

Examples:
  composer init
  composer init projects/`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// sampleModel builds a short intro: a pulse, a lower third over it and a
// QR code at the end.
func sampleModel() (*timeline.Model, error) {
	m := timeline.NewModel(catalog.Builtin())
	bg := m.AddLayer("Background")
	titles := m.AddLayer("Titles")

	intro, err := m.CreateItem("pulse-intro", 0, bg.ID, nil)
	if err != nil {
		return nil, err
	}
	lt, err := m.CreateItem("lower-third", 1, titles.ID, catalog.Properties{
		"title":    "Composer",
		"subtitle": "timeline rendering",
	})
	if err != nil {
		return nil, err
	}
	if _, err := m.ResizeItem(lt.ID, 3); err != nil {
		return nil, err
	}
	if _, err := m.CreateItem("qr-code", intro.End(), titles.ID, catalog.Properties{
		"url": "https://github.com/ivlev/composer",
	}); err != nil {
		return nil, err
	}
	if _, err := m.CreateGroup("Opening", []string{intro.ID, lt.ID}); err != nil {
		return nil, err
	}
	return m, nil
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "projects"
	if len(args) == 1 {
		dir = args[0]
	}
	m, err := sampleModel()
	if err != nil {
		return err
	}
	path := project.DefaultPath(dir)
	rec := project.Snapshot(m, "sample")
	rec.Width, rec.Height, rec.FPS = 1280, 720, 30
	if err := project.Write(rec, path); err != nil {
		return err
	}
	fmt.Printf("[+++] Успех! Проект сохранен: %s\n", path)
	return nil
}
