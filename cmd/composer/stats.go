package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/ivlev/composer/internal/stats"
)

var (
	statsJSON  bool
	statsToon  bool
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show export history",
	Long: `Display recorded export runs: frames, failures, timings and
resource usage.

Examples:
  composer stats
  composer stats --json
  composer stats --toon`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().BoolVar(&statsToon, "toon", false, "Output in LLM-friendly toon format")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "Number of recent runs")
}

type statsReport struct {
	Summary stats.Summary `json:"summary"`
	Recent  []stats.Run   `json:"recent"`
}

func runStats(cmd *cobra.Command, args []string) error {
	path := v.GetString("stats_db")
	if path == "" {
		return fmt.Errorf("stats_db is not configured")
	}
	store, err := stats.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	summary, err := store.Summarize(ctx)
	if err != nil {
		return err
	}
	runs, err := store.Recent(ctx, v.GetString("project"), statsLimit)
	if err != nil {
		return err
	}
	report := statsReport{Summary: summary, Recent: runs}

	if statsJSON {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}
	if statsToon {
		output, err := gotoon.Encode(report)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
		return nil
	}

	if summary.Runs == 0 {
		fmt.Println("No export runs recorded")
		return nil
	}
	fmt.Printf("Runs: %d | Frames: %d | Failures: %d | Avg FPS: %.2f | Time: %.1fs\n\n",
		summary.Runs, summary.Frames, summary.Failures, summary.AvgFPS, summary.TotalSeconds)
	for _, r := range runs {
		fmt.Printf("%s  %-24s %4dx%-4d %6d frames  %7.2fs  %6.2f fps  %5.1f MB\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Project, r.Width, r.Height,
			r.Frames, r.Total.Seconds(), r.EffectiveFPS(), float64(r.PeakRSSBytes)/(1<<20))
	}
	return nil
}
