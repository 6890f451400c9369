package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/config"
	"github.com/ivlev/composer/internal/engine"
	"github.com/ivlev/composer/internal/stats"
	"github.com/ivlev/composer/internal/system"
	"github.com/ivlev/composer/internal/video"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render every frame of a project",
	Long: `Render the project frame by frame with the deterministic compositor.

Examples:
  composer export -p projects/intro.yaml
  composer export -p projects/intro.yaml --sink ffmpeg -o output/`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	cfg := ws.Config

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sink, target, err := openSink(ctx, ws)
	if err != nil {
		return err
	}

	exp := engine.NewExport(ws, sink)
	if cfg.StatsDB != "" {
		store, err := stats.Open(cfg.StatsDB)
		if err != nil {
			fmt.Printf("[!] История экспорта недоступна: %v\n", err)
		} else {
			defer store.Close()
			exp.Stats = store
		}
	}

	_, runErr := exp.Run(ctx)
	closeErr := sink.Close()
	if runErr != nil {
		return fmt.Errorf("ошибка экспорта: %w", runErr)
	}
	if closeErr != nil {
		return fmt.Errorf("ошибка сборки видео: %w", closeErr)
	}

	fmt.Printf("[+++] Успех! Результат: %s\n", target)
	return nil
}

func openSink(ctx context.Context, ws *engine.Workspace) (video.Sink, string, error) {
	cfg := ws.Config
	if cfg.Sink == config.SinkPNG {
		sink, err := video.NewPNGSink(afero.NewOsFs(), cfg.OutputPath)
		return sink, cfg.OutputPath, err
	}

	encoder := cfg.VideoEncoder
	if encoder == "" {
		encoder = system.GetBestH264Encoder()
		if encoder != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoder)
		}
	}
	quality := cfg.Quality
	if quality == 0 {
		switch encoder {
		case "h264_videotoolbox":
			quality = 75 // Хорошее качество для VideoToolbox
		case "h264_nvenc":
			quality = 28 // Эквивалент CRF для NVENC
		default:
			quality = 23 // Стандартный CRF для x264
		}
	}

	out := videoPath(cfg.OutputPath, cfg.ProjectPath)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return nil, "", err
	}
	sink, err := video.NewFFmpegSink(ctx, video.EncoderParams{
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
		Encoder:  encoder,
		Quality:  quality,
		Output:   out,
		Audio:    ws.AudioTracks(),
		Duration: ws.Model.Duration(),
	})
	return sink, out, err
}
