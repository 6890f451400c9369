package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/ivlev/composer/internal/animation"
)

type Config struct {
	ProjectPath       string
	OutputPath        string
	Width             int
	Height            int
	FPS               int
	Workers           int
	Sink              string
	VideoEncoder      string
	Quality           int
	AssetsDir         string
	MaxDepth          int
	BackgroundMarkers []string
	LogoMarkers       []string
	StatsDB           string
	ShowStats         bool
	Verbose           bool
	Loop              bool
	BuildVersion      string
}

// Sinks.
const (
	SinkPNG    = "png"
	SinkFFmpeg = "ffmpeg"
)

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	inj := animation.NewInjector()
	v.SetDefault("width", 1280)
	v.SetDefault("height", 720)
	v.SetDefault("fps", 30)
	v.SetDefault("workers", 4)
	v.SetDefault("output", "out")
	v.SetDefault("sink", SinkPNG)
	v.SetDefault("video_encoder", "") // пусто - лучший доступный
	v.SetDefault("quality", 0)        // 0 - авто по энкодеру
	v.SetDefault("assets_dir", ".")
	v.SetDefault("max_depth", animation.DefaultMaxDepth)
	v.SetDefault("background_markers", inj.BackgroundMarkers)
	v.SetDefault("logo_markers", inj.LogoMarkers)
	v.SetDefault("stats_db", "composer-stats.db")
	v.SetDefault("show_stats", false)
	v.SetDefault("verbose", false)
	v.SetDefault("loop", false)
}

// New returns a viper instance with defaults and COMPOSER_* environment
// binding. When file is not empty it is read as the config file.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("composer")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return v, nil
}

// Load builds a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ProjectPath:       v.GetString("project"),
		OutputPath:        v.GetString("output"),
		Width:             v.GetInt("width"),
		Height:            v.GetInt("height"),
		FPS:               v.GetInt("fps"),
		Workers:           v.GetInt("workers"),
		Sink:              v.GetString("sink"),
		VideoEncoder:      v.GetString("video_encoder"),
		Quality:           v.GetInt("quality"),
		AssetsDir:         v.GetString("assets_dir"),
		MaxDepth:          v.GetInt("max_depth"),
		BackgroundMarkers: v.GetStringSlice("background_markers"),
		LogoMarkers:       v.GetStringSlice("logo_markers"),
		StatsDB:           v.GetString("stats_db"),
		ShowStats:         v.GetBool("show_stats"),
		Verbose:           v.GetBool("verbose"),
		Loop:              v.GetBool("loop"),
		BuildVersion:      v.GetString("build_version"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and normalizes odd frame sizes, which yuv420p
// encoders reject.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("некорректное разрешение %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("некорректный fps: %d", c.FPS)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = animation.DefaultMaxDepth
	}
	switch c.Sink {
	case SinkPNG, SinkFFmpeg:
	default:
		return fmt.Errorf("неизвестный sink %q (png|ffmpeg)", c.Sink)
	}
	if c.Sink == SinkFFmpeg {
		if c.Width%2 != 0 {
			c.Width++
		}
		if c.Height%2 != 0 {
			c.Height++
		}
	}
	return nil
}

// Injector returns a property injector configured from c.
func (c *Config) Injector() *animation.Injector {
	inj := animation.NewInjector()
	if len(c.BackgroundMarkers) > 0 {
		inj.BackgroundMarkers = c.BackgroundMarkers
	}
	if len(c.LogoMarkers) > 0 {
		inj.LogoMarkers = c.LogoMarkers
	}
	inj.MaxDepth = c.MaxDepth
	return inj
}
