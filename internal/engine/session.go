package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/gogpu/gg"

	"github.com/ivlev/composer/internal/animation"
	"github.com/ivlev/composer/internal/catalog"
	"github.com/ivlev/composer/internal/compositor"
	"github.com/ivlev/composer/internal/dispatch"
	"github.com/ivlev/composer/internal/renderer"
	"github.com/ivlev/composer/internal/system"
	"github.com/ivlev/composer/internal/timeline"
)

var (
	// ErrLoading marks items whose renderer instance has no document yet.
	ErrLoading = errors.New("loading")
	// ErrInstanceLimit marks visible items beyond their type's instance cap.
	ErrInstanceLimit = errors.New("renderer instance limit reached")
)

// Session is an interactive preview of a workspace. Renderer instances
// are created lazily for items inside the visible region and loaded in the
// background; until then their items show a loading placeholder.
//
// The session owns the model while it is open: edits go through Edit so
// that debouncing and re-derivation stay consistent.
type Session struct {
	ws         *Workspace
	dispatcher *dispatch.Dispatcher
	debouncer  *dispatch.Debouncer

	// Now is the clock used for debouncing.
	Now func() time.Time
	// Loop restarts playback at 0 when the end is reached.
	Loop bool

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	mu      sync.Mutex
	current float64
	playing bool
	frames  *system.FramePool
	// inRange remembers whether each instanced item was active at the
	// playhead during the last sync.
	inRange map[string]bool
}

func NewSession(ctx context.Context, ws *Workspace) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ws:         ws,
		dispatcher: dispatch.New(ws.Registry, ws.Logger),
		debouncer:  dispatch.NewDebouncer(),
		Now:        time.Now,
		Loop:       ws.Config.Loop,
		ctx:        ctx,
		cancel:     cancel,
		inRange:    make(map[string]bool),
	}
	s.mu.Lock()
	s.syncLocked()
	s.mu.Unlock()
	return s
}

// Dispatcher exposes the live renderer instances.
func (s *Session) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }

// Time returns the playhead position in seconds.
func (s *Session) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= s.ws.Model.Duration() {
		s.current = 0
		s.seekLocked()
	}
	s.playing = true
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Seek moves the playhead and every running instance to t.
func (s *Session) Seek(t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = clampTime(t, s.ws.Model.Duration())
	s.syncLocked()
	s.seekLocked()
}

// Tick advances playback by dt seconds and applies edits whose debounce
// window has elapsed.
func (s *Session) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyLocked(s.debouncer.Due(s.Now()))
	if !s.playing || dt <= 0 {
		s.syncLocked()
		return
	}

	end := s.ws.Model.Duration()
	next := s.current + dt
	switch {
	case end <= 0:
		next = 0
		s.playing = false
	case next >= end && s.Loop:
		s.current = 0
		s.syncLocked()
		s.seekLocked()
		return
	case next >= end:
		next = end
		s.playing = false
	}
	s.current = next
	aligned := s.syncLocked()

	for _, it := range s.ws.Model.Items() {
		if aligned[it.ID] {
			continue
		}
		if inst, ok := s.dispatcher.Instance(it.ID); ok && it.ActiveAt(s.current) {
			inst.Advance(dt, it.Duration)
		}
	}
}

// Edit queues property overrides for an item. The edit takes effect once
// the asset type's debounce window passes without further edits to the
// same item; asset types without a window apply it at once.
func (s *Session) Edit(itemID string, overrides catalog.Properties) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.ws.Model.Item(itemID)
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, timeline.ErrNotFound)
	}
	desc, _ := s.ws.Registry.Dispatch(it.AssetType)
	if desc.Debounce <= 0 {
		return s.applyEditLocked(dispatch.Edit{ItemID: itemID, Properties: overrides})
	}
	s.debouncer.Submit(itemID, overrides, desc.Debounce, s.Now())
	return nil
}

// Flush applies every pending edit immediately.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(s.debouncer.Flush())
}

// SetActiveTab switches the visible tab. Instances of items that leave
// the visible region are paused, not released.
func (s *Session) SetActiveTab(tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.Model.SetActiveTab(tabID); err != nil {
		return err
	}
	s.syncLocked()
	return nil
}

// OpenGroupTab opens or focuses the tab of a group.
func (s *Session) OpenGroupTab(groupID string) (*timeline.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.ws.Model.OpenGroupTab(groupID)
	if err != nil {
		return nil, err
	}
	s.syncLocked()
	return t, nil
}

// DeleteItem removes an item and releases its renderer instance.
func (s *Session) DeleteItem(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ws.Model.DeleteItem(itemID); err != nil {
		return err
	}
	s.debouncer.Drop(itemID)
	s.dispatcher.Release(itemID)
	delete(s.inRange, itemID)
	return nil
}

// Wait blocks until every background load started so far has finished.
func (s *Session) Wait() {
	s.loads.Wait()
}

// Close cancels pending loads and releases every instance.
func (s *Session) Close() {
	s.cancel()
	s.loads.Wait()
	s.dispatcher.ReleaseAll()
}

func (s *Session) applyLocked(edits []dispatch.Edit) {
	for _, e := range edits {
		if err := s.applyEditLocked(e); err != nil {
			s.ws.Logger.Printf("[!] Правка %s отклонена: %v", e.ItemID, err)
		}
	}
}

func (s *Session) applyEditLocked(e dispatch.Edit) error {
	it, err := s.ws.Model.UpdateProperties(e.ItemID, e.Properties)
	if err != nil {
		return err
	}
	if inst, ok := s.dispatcher.Instance(it.ID); ok && s.ws.needsDocument(it) {
		s.deriveLocked(inst, it)
	}
	return nil
}

// visible reports whether an item is inside the visible region: shown in
// the active tab, on a visible layer and active at the playhead.
func (s *Session) visible(it *timeline.Item) bool {
	if !it.Visible || !it.ActiveAt(s.current) || !s.ws.Model.InActiveTab(it.ID) {
		return false
	}
	l, ok := s.ws.Model.Layer(it.LayerID)
	return ok && l.Visible
}

// syncLocked creates instances for newly visible items and pauses or
// resumes existing ones. Visible items beyond an asset type's instance cap
// get no instance, so the cap never evicts something on screen.
//
// Pausing offscreen keeps the paused frame, but an item whose time range
// the playhead re-enters is aligned with the playhead again. syncLocked
// returns the ids of items aligned this way.
func (s *Session) syncLocked() map[string]bool {
	live := make(map[string]bool)
	shown := make(map[string]int)
	aligned := make(map[string]bool)
	for _, it := range s.ws.Model.Items() {
		live[it.ID] = true
		if it.Renderer.Technology == "" {
			continue
		}
		vis := s.visible(it)
		if vis {
			shown[it.AssetType]++
		}
		inst, ok := s.dispatcher.Instance(it.ID)
		if !ok {
			desc, known := s.ws.Registry.Dispatch(it.AssetType)
			if !vis || !known || (desc.MaxInstances > 0 && shown[it.AssetType] > desc.MaxInstances) {
				continue
			}
			var created bool
			var err error
			inst, created, err = s.dispatcher.Acquire(it.ID, it.AssetType)
			if err != nil {
				continue
			}
			if created {
				s.startLocked(inst, it)
			}
		}
		s.dispatcher.SetVisible(it.ID, vis)
		if vis {
			s.dispatcher.Touch(it.ID)
		}

		active := it.ActiveAt(s.current)
		if was, seen := s.inRange[it.ID]; seen && active && !was {
			if inst.Align(s.current-it.Start, it.Duration) {
				aligned[it.ID] = true
			}
		}
		s.inRange[it.ID] = active
	}
	for _, inst := range s.dispatcher.Instances() {
		if !live[inst.ItemID] {
			s.dispatcher.Release(inst.ItemID)
		}
	}
	for id := range s.inRange {
		if _, ok := s.dispatcher.Instance(id); !ok {
			delete(s.inRange, id)
		}
	}
	return aligned
}

func (s *Session) startLocked(inst *dispatch.Instance, it *timeline.Item) {
	if !s.ws.needsDocument(it) {
		inst.MarkReady()
		return
	}
	s.deriveLocked(inst, it)
}

// deriveLocked loads the item's source document and derives the instance
// copy in the background. Only the newest derivation is installed.
func (s *Session) deriveLocked(inst *dispatch.Instance, it *timeline.Item) {
	def, _ := s.ws.Catalog.Lookup(it.AssetType)
	fields := animation.FieldsFrom(it.Properties)
	gen := inst.BeginDerive()
	itemID, start, duration := it.ID, it.Start, it.Duration

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		src, err := s.ws.Loader.Load(s.ctx, def.Source)
		var doc *animation.Document
		if err == nil {
			doc, _, err = s.ws.Injector.Derive(src, fields)
		}
		if !inst.Resolve(gen, doc, err) {
			return
		}
		if err != nil {
			s.ws.Logger.Printf("[!] %s: ошибка загрузки анимации: %v", itemID, err)
			return
		}
		s.mu.Lock()
		local := s.current - start
		s.mu.Unlock()
		inst.Seek(renderer.FrameFor(local, duration, doc.FrameRate(), doc.FrameCount()))
	}()
}

// seekLocked aligns every instance with the playhead.
func (s *Session) seekLocked() {
	for _, it := range s.ws.Model.Items() {
		inst, ok := s.dispatcher.Instance(it.ID)
		if !ok {
			continue
		}
		doc := inst.Document()
		if doc == nil {
			continue
		}
		inst.Seek(renderer.FrameFor(s.current-it.Start, it.Duration, doc.FrameRate(), doc.FrameCount()))
	}
}

// RenderFrame draws the active tab at the playhead. Items whose renderer is
// loading, failed or missing are drawn as placeholders and reported.
func (s *Session) RenderFrame() (*image.RGBA, []compositor.Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, h := s.ws.Config.Width, s.ws.Config.Height
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.RGBA{A: 1})

	frame := int(math.Round(s.current * float64(s.ws.Config.FPS)))
	var failures []compositor.Failure
	for _, l := range s.ws.Model.Layers() {
		if !l.Visible {
			continue
		}
		for _, it := range l.Items {
			if it.Renderer.Technology == "" || !s.visible(it) {
				continue
			}
			if err := s.paintLocked(dc, it, l.Opacity); err != nil {
				failures = append(failures, compositor.Failure{Frame: frame, ItemID: it.ID, AssetType: it.AssetType, Err: err})
			}
		}
	}

	if s.frames == nil || s.frames.Size() != image.Pt(w, h) {
		s.frames = system.NewFramePool(w, h)
	}
	out := s.frames.Get()
	copy(out.Pix, dc.ResizeTarget().Data())
	return out, failures
}

// Recycle returns a frame produced by RenderFrame.
func (s *Session) Recycle(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames != nil {
		s.frames.Put(img)
	}
}

func (s *Session) paintLocked(dc *gg.Context, it *timeline.Item, opacity float64) error {
	r, ok := s.ws.Renderers.For(it.Renderer.Technology)
	if _, known := s.ws.Registry.Dispatch(it.AssetType); !ok || !known {
		err := fmt.Errorf("%w: %s", renderer.ErrUnsupported, it.AssetType)
		renderer.Placeholder(dc, it.AssetType, err)
		return err
	}
	inst, live := s.dispatcher.Instance(it.ID)
	if !live {
		renderer.Placeholder(dc, it.AssetType, ErrInstanceLimit)
		return ErrInstanceLimit
	}

	state, cause := inst.State()
	switch state {
	case dispatch.StateErrored:
		renderer.Placeholder(dc, it.AssetType, cause)
		return cause
	case dispatch.StateLoading:
		renderer.Placeholder(dc, it.AssetType, ErrLoading)
		return ErrLoading
	}

	return renderer.Paint(dc, r, renderer.Request{
		Item:      it,
		LocalTime: s.current - it.Start,
		Frame:     inst.Frame(),
		Document:  inst.Document(),
		Opacity:   opacity,
	})
}

func clampTime(t, end float64) float64 {
	if t < 0 || math.IsNaN(t) {
		return 0
	}
	if t > end {
		return end
	}
	return t
}
