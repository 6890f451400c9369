package main

import (
	"context"
	"fmt"
	"math"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/analyzer"
	"github.com/ivlev/composer/internal/engine"
	"github.com/ivlev/composer/internal/video"
)

var (
	parityAt     []float64
	parityMetric string
	parityDump   string
)

var parityCmd = &cobra.Command{
	Use:   "parity",
	Short: "Compare preview and export renderings of the same frame",
	Long: `Render the same instant through the interactive renderers and the
deterministic compositor and report how far they diverge. The two paths
are expected to differ; the report is informational.

Examples:
  composer parity -p projects/intro.yaml --at 1,2.5 --metric regions`,
	RunE: runParity,
}

func init() {
	rootCmd.AddCommand(parityCmd)
	parityCmd.Flags().Float64SliceVar(&parityAt, "at", []float64{0}, "Times in seconds")
	parityCmd.Flags().StringVar(&parityMetric, "metric", "delta", "Metric: delta, edges, regions")
	parityCmd.Flags().StringVar(&parityDump, "dump", "", "Folder for the compared frames (preview: even, export: odd)")
}

func runParity(cmd *cobra.Command, args []string) error {
	metric, err := analyzer.NewMetric(parityMetric)
	if err != nil {
		return err
	}
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}

	var dump *video.PNGSink
	if parityDump != "" {
		if dump, err = video.NewPNGSink(afero.NewOsFs(), parityDump); err != nil {
			return err
		}
	}

	s := engine.NewSession(context.Background(), ws)
	defer s.Close()
	comp := ws.Compositor()
	placed := ws.Placed()

	for i, t := range parityAt {
		index := int(math.Round(t * comp.FPS))
		s.Seek(comp.TimeOf(index))
		s.Wait()

		preview, _ := s.RenderFrame()
		export, _ := comp.Frame(index, placed)
		rep, err := metric.Compare(preview, export)
		if err == nil && dump != nil {
			if werr := dump.WriteFrame(2*i, preview); werr != nil {
				err = werr
			} else {
				err = dump.WriteFrame(2*i+1, export)
			}
		}
		s.Recycle(preview)
		comp.Frames.Put(export)
		if err != nil {
			return err
		}

		fmt.Printf("[*] %.2fs (кадр %d) %s: mean %.2f | max %d | changed %.2f%%\n",
			comp.TimeOf(index), index, rep.Metric, rep.Mean, rep.Max, rep.Changed*100)
		for _, r := range rep.Regions {
			fmt.Printf("    region %v\n", r)
		}
	}
	return nil
}
