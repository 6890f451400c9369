package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/engine"
	"github.com/ivlev/composer/internal/video"
)

var previewAt []float64

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render preview frames at given times",
	Long: `Render frames through the interactive renderers, the way the editor
shows them, and save them as PNG files.

Examples:
  composer preview -p projects/intro.yaml --at 0,1.5,3`,
	RunE: runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Float64SliceVar(&previewAt, "at", []float64{0}, "Times in seconds")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	sink, err := video.NewPNGSink(afero.NewOsFs(), ws.Config.OutputPath)
	if err != nil {
		return err
	}
	defer sink.Close()

	s := engine.NewSession(context.Background(), ws)
	defer s.Close()

	for i, t := range previewAt {
		s.Seek(t)
		s.Wait()
		img, failures := s.RenderFrame()
		for _, f := range failures {
			fmt.Printf("[!] %.2fs: %s (%s): %v\n", t, f.ItemID, f.AssetType, f.Err)
		}
		err := sink.WriteFrame(i, img)
		s.Recycle(img)
		if err != nil {
			return err
		}
		fmt.Printf("[>] %.2fs -> %s\n", s.Time(), video.FramePath(ws.Config.OutputPath, i))
	}
	fmt.Printf("[+++] Кадров: %d\n", sink.Written())
	return nil
}
