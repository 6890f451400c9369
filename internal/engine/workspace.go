// Package engine drives a timeline: an interactive preview session and the
// frame-by-frame export pipeline.
package engine

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/afero"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/compositor"
	"github.com/ivlev/composer/internal/config"
	"github.com/ivlev/composer/internal/dispatch"
	"github.com/ivlev/composer/internal/project"
	"github.com/ivlev/composer/internal/renderer"
	"github.com/ivlev/composer/internal/source"
	"github.com/ivlev/composer/internal/timeline"
)

// Workspace holds everything shared by preview and export for one project.
type Workspace struct {
	Config    *config.Config
	Name      string
	Catalog   *catalog.Catalog
	Model     *timeline.Model
	Loader    *animation.Loader
	Injector  *animation.Injector
	Media     *source.Resolver
	Registry  *dispatch.Registry
	Renderers *renderer.Set
	Logger    *log.Logger
}

// NewWorkspace wires the services around model. fs serves animation
// documents and media relative to cfg.AssetsDir; nil means the OS
// filesystem.
func NewWorkspace(cfg *config.Config, name string, model *timeline.Model, fs afero.Fs, logger *log.Logger) *Workspace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = log.Default()
	}
	assets := fs
	if cfg.AssetsDir != "" && cfg.AssetsDir != "." {
		assets = afero.NewBasePathFs(fs, cfg.AssetsDir)
	}

	loader := animation.NewLoader(logger,
		&animation.FSFetcher{Fs: afero.FromIOFS{FS: catalog.Animations()}, Prefix: catalog.BuiltinScheme},
		&animation.HTTPFetcher{Client: &http.Client{Timeout: 30 * time.Second}},
		&animation.FSFetcher{Fs: assets},
	)
	inj := cfg.Injector()
	if cfg.Verbose {
		inj.Logger = logger
	}
	media := source.NewResolver(assets)

	return &Workspace{
		Config:    cfg,
		Name:      name,
		Catalog:   model.Catalog(),
		Model:     model,
		Loader:    loader,
		Injector:  inj,
		Media:     media,
		Registry:  dispatch.DefaultRegistry(),
		Renderers: renderer.NewSet(media),
		Logger:    logger,
	}
}

// OpenProject reads a YAML project record and builds its workspace. Frame
// size and rate stored in the record replace the configured ones.
func OpenProject(cfg *config.Config, fs afero.Fs, logger *log.Logger) (*Workspace, error) {
	rec, err := project.Read(cfg.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения проекта: %w", err)
	}
	model, err := project.Build(rec, catalog.Builtin())
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки проекта: %w", err)
	}
	if rec.Width > 0 && rec.Height > 0 {
		cfg.Width, cfg.Height = rec.Width, rec.Height
	}
	if rec.FPS > 0 {
		cfg.FPS = rec.FPS
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	name := rec.Name
	if name == "" {
		name = cfg.ProjectPath
	}
	return NewWorkspace(cfg, name, model, fs, logger), nil
}

// Compositor returns a deterministic compositor sized from the config.
// Asset types without a renderer descriptor are drawn as placeholders.
func (w *Workspace) Compositor() *compositor.Compositor {
	c := compositor.New(w.Config.Width, w.Config.Height, float64(w.Config.FPS), w.Media)
	c.Supported = func(assetType string) bool {
		_, ok := w.Registry.Dispatch(assetType)
		return ok
	}
	return c
}

// Placed lists every visible item bottom layer first with its layer
// opacity. Hidden layers are left out.
func (w *Workspace) Placed() []compositor.Placed {
	var out []compositor.Placed
	for _, l := range w.Model.Layers() {
		if !l.Visible {
			continue
		}
		for _, it := range l.Items {
			if it.Visible {
				out = append(out, compositor.Placed{Item: it, Opacity: l.Opacity})
			}
		}
	}
	return out
}

// needsDocument reports whether the item's renderer draws an animation
// document.
func (w *Workspace) needsDocument(it *timeline.Item) bool {
	def, ok := w.Catalog.Lookup(it.AssetType)
	return ok && def.Source != ""
}
