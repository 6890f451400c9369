package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/catalog"
)

func testDoc(t *testing.T) *animation.Document {
	t.Helper()
	doc, err := animation.Parse([]byte(`{"fr":30,"ip":0,"op":100,"w":10,"h":10,"layers":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestDispatchMiss(t *testing.T) {
	reg := DefaultRegistry()
	for _, key := range []string{"video-clip", "background-music", "hologram"} {
		if _, ok := reg.Dispatch(key); ok {
			t.Errorf("Dispatch(%q) should miss", key)
		}
		_, _, err := New(reg, nil).Acquire("item", key)
		if !errors.Is(err, catalog.ErrUnknownAssetType) {
			t.Errorf("Acquire(%q) err = %v, want ErrUnknownAssetType", key, err)
		}
	}
	d, ok := reg.Dispatch("logo-reveal")
	if !ok || d.Technology != catalog.TechVectorCanvas || !d.PauseOffscreen {
		t.Errorf("logo-reveal descriptor = %+v", d)
	}
}

func TestEvictsLeastRecentlyActive(t *testing.T) {
	reg := NewRegistry(Descriptor{AssetType: "anim", MaxInstances: 3})
	d := New(reg, nil)

	acquire := func(id string) *Instance {
		inst, created, err := d.Acquire(id, "anim")
		if err != nil {
			t.Fatalf("Acquire(%s): %v", id, err)
		}
		if !created {
			t.Fatalf("Acquire(%s) reused an instance", id)
		}
		return inst
	}
	a := acquire("a")
	b := acquire("b")
	c := acquire("c")
	d.Touch("a")

	acquire("d")

	if st, _ := b.State(); st != StateReleased {
		t.Errorf("b state = %v, want released", st)
	}
	for _, inst := range []*Instance{a, c} {
		if st, _ := inst.State(); st == StateReleased {
			t.Errorf("%s was released", inst.ItemID)
		}
	}
	if got := d.Live("anim"); got != 3 {
		t.Errorf("Live = %d, want 3", got)
	}
	if got := d.Evicted(); got != 1 {
		t.Errorf("Evicted = %d, want 1", got)
	}
	if _, ok := d.Instance("b"); ok {
		t.Error("b still registered")
	}
}

func TestAcquireReusesInstance(t *testing.T) {
	d := New(nil, nil)
	first, created, err := d.Acquire("x", "qr-code")
	if err != nil || !created {
		t.Fatalf("first Acquire: created=%v err=%v", created, err)
	}
	second, created, err := d.Acquire("x", "qr-code")
	if err != nil || created || second != first {
		t.Fatalf("second Acquire returned a different instance (created=%v err=%v)", created, err)
	}
}

func TestSuspendKeepsFrame(t *testing.T) {
	d := New(nil, nil)
	inst, _, err := d.Acquire("logo", "logo-reveal")
	if err != nil {
		t.Fatal(err)
	}
	inst.Resolve(inst.BeginDerive(), testDoc(t), nil)
	inst.Seek(10)

	if !d.SetVisible("logo", false) {
		t.Fatal("SetVisible(false) did not suspend")
	}
	inst.Seek(50)
	inst.Advance(1, 2)
	if got := inst.Frame(); got != 10 {
		t.Fatalf("suspended frame moved to %d", got)
	}
	if !d.SetVisible("logo", true) {
		t.Fatal("SetVisible(true) did not resume")
	}
	if got := inst.Frame(); got != 10 {
		t.Errorf("resumed at %d, want 10", got)
	}
	inst.Advance(0.5, 5)
	if got := inst.Frame(); got != 20 {
		t.Errorf("after advance frame = %d, want 20", got)
	}
}

func TestAlignMovesSuspendedInstance(t *testing.T) {
	d := New(nil, nil)
	inst, _, err := d.Acquire("logo", "logo-reveal")
	if err != nil {
		t.Fatal(err)
	}
	if inst.Align(1, 4) {
		t.Error("Align succeeded without a document")
	}
	inst.Resolve(inst.BeginDerive(), testDoc(t), nil)
	inst.Seek(90)
	d.SetVisible("logo", false)

	tests := []struct {
		local, duration float64
		want            int
	}{
		{0.5, 4, 13},
		{0, 4, 0},
		{9, 4, 99},
		{-1, 4, 0},
	}
	for _, tt := range tests {
		if !inst.Align(tt.local, tt.duration) {
			t.Fatalf("Align(%v, %v) refused", tt.local, tt.duration)
		}
		if got := inst.Frame(); got != tt.want {
			t.Errorf("Align(%v, %v) frame = %d, want %d", tt.local, tt.duration, got, tt.want)
		}
	}
	if !inst.Suspended() {
		t.Error("Align resumed the instance")
	}
}

func TestOffscreenIgnoredWithoutPause(t *testing.T) {
	d := New(nil, nil)
	if _, _, err := d.Acquire("q", "qr-code"); err != nil {
		t.Fatal(err)
	}
	if d.SetVisible("q", false) {
		t.Error("qr-code does not pause offscreen")
	}
}

func TestReleasedInstanceNeverResumes(t *testing.T) {
	d := New(nil, nil)
	inst, _, err := d.Acquire("logo", "logo-reveal")
	if err != nil {
		t.Fatal(err)
	}
	inst.Resolve(inst.BeginDerive(), testDoc(t), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.SetVisible("logo", (i+j)%2 == 0)
			}
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Release("logo")
	}()
	wg.Wait()

	if inst.Resume() {
		t.Error("released instance resumed")
	}
	if st, _ := inst.State(); st != StateReleased {
		t.Errorf("state = %v", st)
	}
	if inst.Suspended() {
		t.Error("released instance still suspended")
	}
}

func TestResolveDiscardsStaleResults(t *testing.T) {
	inst := newInstance("i", Descriptor{AssetType: "anim"})
	old := inst.BeginDerive()
	current := inst.BeginDerive()

	if inst.Resolve(old, testDoc(t), nil) {
		t.Error("stale derivation was applied")
	}
	if st, _ := inst.State(); st != StateLoading {
		t.Errorf("state = %v, want loading", st)
	}
	if !inst.Resolve(current, nil, errors.New("fetch failed")) {
		t.Fatal("current derivation rejected")
	}
	if st, err := inst.State(); st != StateErrored || err == nil {
		t.Errorf("state = %v, err = %v", st, err)
	}

	inst.release()
	if inst.Resolve(inst.BeginDerive(), testDoc(t), nil) {
		t.Error("released instance accepted a document")
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	db := NewDebouncer()
	t0 := time.Unix(0, 0)
	window := 150 * time.Millisecond

	db.Submit("logo", catalog.Properties{"scale": 1.1}, window, t0)
	db.Submit("logo", catalog.Properties{"scale": 1.2, "backgroundColor": "#000000"}, window, t0.Add(50*time.Millisecond))
	db.Submit("logo", catalog.Properties{"scale": 1.3}, window, t0.Add(100*time.Millisecond))

	if got := db.Due(t0.Add(200 * time.Millisecond)); len(got) != 0 {
		t.Fatalf("edit released before the window closed: %+v", got)
	}
	got := db.Due(t0.Add(250 * time.Millisecond))
	if len(got) != 1 {
		t.Fatalf("Due returned %d edits, want 1", len(got))
	}
	if s, _ := got[0].Properties.Float("scale"); s != 1.3 {
		t.Errorf("scale = %v, want final value 1.3", s)
	}
	if c := got[0].Properties.String("backgroundColor"); c != "#000000" {
		t.Errorf("backgroundColor = %q, want merged earlier key", c)
	}
	if db.Pending("logo") {
		t.Error("edit still pending after release")
	}
}

func TestDebouncerFlushAndDrop(t *testing.T) {
	db := NewDebouncer()
	now := time.Unix(100, 0)
	db.Submit("b", catalog.Properties{"k": 1.0}, time.Hour, now)
	db.Submit("a", catalog.Properties{"k": 2.0}, time.Hour, now)
	db.Submit("c", catalog.Properties{"k": 3.0}, time.Hour, now)
	db.Drop("c")

	got := db.Flush()
	if len(got) != 2 || got[0].ItemID != "a" || got[1].ItemID != "b" {
		t.Fatalf("Flush = %+v", got)
	}
}
