package engine

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/compositor"
	"github.com/ivlev/composer/internal/stats"
	"github.com/ivlev/composer/internal/system"
	"github.com/ivlev/composer/internal/video"
)

// Export renders a workspace frame by frame through the deterministic
// compositor and writes the frames to a sink in order.
type Export struct {
	ws   *Workspace
	Sink video.Sink
	// Stats records the run when non-nil.
	Stats *stats.Store
	// Progress is called after each written frame.
	Progress func(done, total int)
}

func NewExport(ws *Workspace, sink video.Sink) *Export {
	return &Export{ws: ws, Sink: sink}
}

type rendered struct {
	index    int
	img      *image.RGBA
	failures []compositor.Failure
}

// Run renders every frame of the timeline. Item failures are replaced by
// placeholders and counted; only sink errors and cancellation abort the
// run. The sink is not closed.
func (e *Export) Run(ctx context.Context) (stats.Run, error) {
	cfg := e.ws.Config
	startTime := time.Now()
	startUsage, _ := system.Sample()

	comp := e.ws.Compositor()
	duration := e.ws.Model.Duration()
	total := comp.FrameCount(duration)
	if total == 0 {
		return stats.Run{}, fmt.Errorf("проект не содержит элементов")
	}
	placed := e.ws.Placed()

	fmt.Println("--- [PROJECT: COMPOSER EXPORT] ---")
	fmt.Printf("[*] Проект: %s | Длительность: %.2fs | Кадров: %d\n", e.ws.Name, duration, total)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Потоков: %d\n", cfg.Width, cfg.Height, cfg.FPS, cfg.Workers)
	fmt.Println("-----------------------------")

	workers := cfg.Workers
	if workers > total {
		workers = total
	}
	if workers < 1 {
		workers = 1
	}

	// jobs -> render pool -> results -> writer (in frame order)
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)
	results := make(chan rendered, workers)
	// Ограничиваем число кадров в полёте, чтобы буфер упорядочивания не рос
	tokens := make(chan struct{}, workers*4)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < total; i++ {
			select {
			case tokens <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var wgRender sync.WaitGroup
	var renderNanos atomic.Int64
	for w := 0; w < workers; w++ {
		wgRender.Add(1)
		g.Go(func() error {
			defer wgRender.Done()
			for i := range jobs {
				t0 := time.Now()
				img, failures := comp.Frame(i, placed)
				renderNanos.Add(int64(time.Since(t0)))
				select {
				case results <- rendered{index: i, img: img, failures: failures}:
				case <-gctx.Done():
					comp.Frames.Put(img)
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wgRender.Wait()
		close(results)
	}()

	failed := 0
	written := 0
	g.Go(func() error {
		pending := make(map[int]rendered)
		for r := range results {
			pending[r.index] = r
			for {
				next, ok := pending[written]
				if !ok {
					break
				}
				delete(pending, written)
				err := e.Sink.WriteFrame(next.index, next.img)
				comp.Frames.Put(next.img)
				<-tokens
				if err != nil {
					return fmt.Errorf("кадр %d: %w", next.index, err)
				}
				for _, f := range next.failures {
					failed++
					e.ws.Logger.Printf("[!] %v", f)
				}
				written++
				if e.Progress != nil {
					e.Progress(written, total)
				}
				if (cfg.FPS > 0 && written%cfg.FPS == 0) || written == total {
					fmt.Printf("[>] Ready: %d/%d\n", written, total)
				}
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return stats.Run{}, err
	}
	if written != total {
		return stats.Run{}, fmt.Errorf("записано %d из %d кадров", written, total)
	}

	totalTime := time.Since(startTime)
	usage, _ := system.Sample()
	usage = usage.Since(startUsage)
	run := stats.Run{
		Project:      e.ws.Name,
		Build:        cfg.BuildVersion,
		Width:        cfg.Width,
		Height:       cfg.Height,
		FPS:          cfg.FPS,
		Frames:       total,
		Failures:     failed,
		Sink:         cfg.Sink,
		Total:        totalTime,
		Render:       time.Duration(renderNanos.Load()),
		CPUSeconds:   usage.CPUSeconds,
		PeakRSSBytes: usage.RSSBytes,
	}

	if cfg.ShowStats {
		fmt.Print(Report(run, usage))
		allocated, reused := comp.Frames.Stats()
		fmt.Printf("Frame Buffers: %d allocated, %d reused\n", allocated, reused)
	}
	if e.Stats != nil {
		if _, err := e.Stats.Record(ctx, run); err != nil {
			fmt.Printf("[!] Не удалось сохранить статистику: %v\n", err)
		}
	}
	if failed > 0 {
		fmt.Printf("[!] Элементов заменено заглушками: %d\n", failed)
	}
	return run, nil
}

// Report formats the performance report printed after an export.
func Report(run stats.Run, usage system.Usage) string {
	return fmt.Sprintf(
		"--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Rendering (CPU, all workers): %.2fs\n"+
			"Frames: %d (failures: %d)\n"+
			"CPU Time: %.2fs on %d cores\n"+
			"RSS: %.1f MB | System memory: %.1f%%\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
		run.Build, run.Total.Seconds(), run.Render.Seconds(), run.Frames, run.Failures,
		run.CPUSeconds, usage.LogicalCPUs,
		system.MB(run.PeakRSSBytes), usage.SystemMemUsed,
		run.EffectiveFPS(),
	)
}

// AudioTracks collects the unmuted audio items for the ffmpeg sink.
// Relative paths are resolved against the assets directory; embedded
// data URIs cannot be passed to ffmpeg and are skipped.
func (w *Workspace) AudioTracks() []video.AudioTrack {
	var tracks []video.AudioTrack
	for _, l := range w.Model.Layers() {
		for _, it := range l.Items {
			def, ok := w.Catalog.Lookup(it.AssetType)
			if !ok || def.Category != catalog.CategoryAudio || it.Muted {
				continue
			}
			src := it.Properties.String("src")
			if src == "" || strings.HasPrefix(src, "data:") {
				w.Logger.Printf("[!] %s: аудио без файла пропущено", it.ID)
				continue
			}
			if !filepath.IsAbs(src) && w.Config.AssetsDir != "" {
				src = filepath.Join(w.Config.AssetsDir, src)
			}
			volume, ok := it.Properties.Float("volume")
			if !ok {
				volume = 1
			}
			tracks = append(tracks, video.AudioTrack{
				Path:     src,
				Start:    it.Start,
				Duration: it.Duration,
				Volume:   volume,
			})
		}
	}
	return tracks
}
