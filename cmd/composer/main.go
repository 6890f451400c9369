package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gg"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ivlev/composer/internal/config"
	"github.com/ivlev/composer/internal/engine"
	"github.com/ivlev/composer/internal/system"
)

var (
	cfgFile string
	v       *viper.Viper
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "composer",
	Short: "Timeline composition and animation rendering engine",
	Long: `composer renders video-template projects: layered timelines of
animated components, overlays, media and audio.

Projects are YAML files. Frames are exported as a PNG sequence or piped
into ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if v.GetBool("verbose") {
			gg.SetLogger(slog.Default())
		}
		return nil
	},
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"project":       "project",
	"output":        "output",
	"width":         "width",
	"height":        "height",
	"fps":           "fps",
	"workers":       "workers",
	"sink":          "sink",
	"video-encoder": "video_encoder",
	"quality":       "quality",
	"assets-dir":    "assets_dir",
	"stats-db":      "stats_db",
	"show-stats":    "show_stats",
	"verbose":       "verbose",
	"loop":          "loop",
}

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	if n, err := system.RaiseOpenFileLimit(2048); err != nil {
		log.Printf("[!] Не удалось изменить лимит файлов: %v", err)
	} else {
		fmt.Printf("[*] Лимит открытых файлов: %d\n", n)
	}

	if err := rootCmd.Execute(); err != nil {
		log.Printf("[-] Ошибка: %v", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (yaml)")
	pf.StringP("project", "p", "", "Путь к проекту (по умолчанию: самый свежий файл в projects/)")
	pf.StringP("output", "o", "out", "Папка кадров или путь к видео")
	pf.Int("width", 1280, "Ширина")
	pf.Int("height", 720, "Высота")
	pf.Int("fps", 30, "FPS")
	pf.Int("workers", 4, "Потоки рендеринга")
	pf.String("sink", config.SinkPNG, "Вывод: png или ffmpeg")
	pf.String("video-encoder", "", "Энкодер ffmpeg (по умолчанию: лучший доступный)")
	pf.Int("quality", 0, "Качество видео (0 - авто, x264: CRF 1-51, VideoToolbox: битрейт = Q*100кбит/с)")
	pf.String("assets-dir", ".", "Папка ассетов проекта")
	pf.String("stats-db", "composer-stats.db", "База истории экспорта (пусто - не сохранять)")
	pf.Bool("show-stats", false, "Печатать отчёт о производительности")
	pf.BoolP("verbose", "v", false, "Подробный лог")
	pf.Bool("loop", false, "Зацикливать предпросмотр")
}

func initConfig() {
	var err error
	v, err = config.New(cfgFile)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			log.Fatalf("[-] %v", err)
		}
	}
	v.Set("build_version", version)
	if v.ConfigFileUsed() != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	}
}

// loadConfig builds the config and fills in the latest project when none
// was given.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if cfg.ProjectPath == "" {
		latest, err := system.FindLatestProject("projects")
		if err != nil {
			return nil, fmt.Errorf("%w. Положите проект в projects/ или укажите --project", err)
		}
		cfg.ProjectPath = latest
		fmt.Printf("[*] Выбран проект: %s\n", latest)
	}
	return cfg, nil
}

// openWorkspace opens the configured project. Flags given explicitly win
// over the frame size and rate stored in the project.
func openWorkspace(cmd *cobra.Command) (*engine.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	width, height, fps := cfg.Width, cfg.Height, cfg.FPS

	ws, err := engine.OpenProject(cfg, afero.NewOsFs(), log.Default())
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("width") {
		cfg.Width = width
	}
	if flags.Changed("height") {
		cfg.Height = height
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return ws, nil
}

// videoPath returns the output file for the ffmpeg sink. A directory
// output gets a timestamped file named after the project.
func videoPath(output, project string) string {
	if filepath.Ext(output) != "" {
		return output
	}
	baseName := filepath.Base(project)
	nameOnly := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	cleanName := strings.ReplaceAll(nameOnly, " ", "_")
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(output, fmt.Sprintf("%s_%s.mp4", cleanName, timestamp))
}
