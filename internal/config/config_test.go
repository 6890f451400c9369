package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	v, err := New("")
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 1280 || cfg.Height != 720 || cfg.FPS != 30 {
		t.Errorf("frame defaults = %dx%d@%d", cfg.Width, cfg.Height, cfg.FPS)
	}
	if cfg.Sink != SinkPNG || cfg.MaxDepth != 32 {
		t.Errorf("sink=%q maxDepth=%d", cfg.Sink, cfg.MaxDepth)
	}
	inj := cfg.Injector()
	if len(inj.BackgroundMarkers) != 3 || inj.LogoMarkers[0] != "Logo" {
		t.Errorf("markers = %v / %v", inj.BackgroundMarkers, inj.LogoMarkers)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.yaml")
	data := "width: 641\nheight: 360\nsink: ffmpeg\nlogo_markers: [Brand]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("COMPOSER_FPS", "24")

	v, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 642 {
		t.Errorf("odd width not evened for ffmpeg: %d", cfg.Width)
	}
	if cfg.FPS != 24 {
		t.Errorf("env override ignored: fps=%d", cfg.FPS)
	}
	if got := cfg.Injector().LogoMarkers; len(got) != 1 || got[0] != "Brand" {
		t.Errorf("logo markers = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{Width: 10, Height: 10, FPS: 30, Sink: SinkPNG}, false},
		{"zero size", Config{Width: 0, Height: 10, FPS: 30, Sink: SinkPNG}, true},
		{"zero fps", Config{Width: 10, Height: 10, Sink: SinkPNG}, true},
		{"bad sink", Config{Width: 10, Height: 10, FPS: 30, Sink: "gif"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
