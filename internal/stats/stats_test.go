package stats

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, project := range []string{"intro", "outro", "intro"} {
		_, err := s.Record(ctx, Run{
			Project:   project,
			Width:     1280,
			Height:    720,
			FPS:       30,
			Frames:    100 * (i + 1),
			Sink:      "png",
			Total:     time.Duration(i+1) * time.Second,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	all, err := s.Recent(ctx, "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Frames != 300 {
		t.Fatalf("Recent = %+v", all)
	}
	if all[0].ID == "" || !all[0].CreatedAt.Equal(base.Add(2*time.Minute)) {
		t.Errorf("round trip lost id/time: %+v", all[0])
	}

	intro, err := s.Recent(ctx, "intro", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(intro) != 2 {
		t.Errorf("intro runs = %d, want 2", len(intro))
	}

	limited, _ := s.Recent(ctx, "", 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if empty.Runs != 0 || empty.AvgFPS != 0 {
		t.Errorf("empty summary = %+v", empty)
	}

	s.Record(ctx, Run{Project: "a", Frames: 60, Failures: 1, Sink: "png", Total: time.Second})
	s.Record(ctx, Run{Project: "b", Frames: 90, Sink: "png", Total: 2 * time.Second})

	sum, err := s.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Runs != 2 || sum.Frames != 150 || sum.Failures != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if math.Abs(sum.AvgFPS-50) > 1e-9 {
		t.Errorf("AvgFPS = %v, want 50", sum.AvgFPS)
	}
}

func TestEffectiveFPS(t *testing.T) {
	if got := (Run{Frames: 300, Total: 10 * time.Second}).EffectiveFPS(); got != 30 {
		t.Errorf("EffectiveFPS = %v", got)
	}
	if got := (Run{Frames: 10}).EffectiveFPS(); got != 0 {
		t.Errorf("zero duration FPS = %v", got)
	}
}
