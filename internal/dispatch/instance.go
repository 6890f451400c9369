package dispatch

import (
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/ivlev/composer/internal/animation"
)

// State is the lifecycle state of a renderer instance.
type State int

const (
	StateLoading State = iota
	StateReady
	StateErrored
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Instance is one live renderer bound to a timeline item. It owns the
// item's derived document and its playback position. All methods are
// safe for concurrent use; once released an instance never changes again.
type Instance struct {
	ID         uuid.UUID
	ItemID     string
	Descriptor Descriptor

	mu         sync.Mutex
	state      State
	err        error
	doc        *animation.Document
	frame      float64
	suspended  bool
	generation uint64

	// guarded by the owning Dispatcher's mutex
	lastActive uint64
}

func newInstance(itemID string, d Descriptor) *Instance {
	return &Instance{
		ID:         uuid.New(),
		ItemID:     itemID,
		Descriptor: d,
		state:      StateLoading,
	}
}

// State returns the current state and, for StateErrored, the cause.
func (in *Instance) State() (State, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state, in.err
}

// Document returns the current derived document, nil while loading.
func (in *Instance) Document() *animation.Document {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.doc
}

// Frame returns the current playback frame, rounded like FrameFor.
func (in *Instance) Frame() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return int(math.Round(in.frame))
}

// Suspended reports whether playback is paused because the item is
// offscreen.
func (in *Instance) Suspended() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.suspended
}

// BeginDerive starts a new derivation and returns its generation. Results
// of older generations are discarded by Resolve. The previous document
// stays visible until the new one arrives.
func (in *Instance) BeginDerive() uint64 {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.generation++
	if in.state != StateReleased && in.doc == nil {
		in.state = StateLoading
	}
	return in.generation
}

// Resolve installs the outcome of derivation gen. It reports false when
// the result is stale or the instance was released meanwhile.
func (in *Instance) Resolve(gen uint64, doc *animation.Document, err error) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateReleased || gen != in.generation {
		return false
	}
	if err != nil {
		in.state, in.err, in.doc = StateErrored, err, nil
		return true
	}
	in.state, in.err, in.doc = StateReady, nil, doc
	return true
}

// MarkReady is used for renderers that need no document.
func (in *Instance) MarkReady() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state != StateReleased {
		in.state = StateReady
	}
}

// Seek jumps to frame. Suspended instances keep their paused frame.
func (in *Instance) Seek(frame int) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateReleased || in.suspended {
		return false
	}
	in.frame = float64(in.clamp(frame))
	return true
}

// Align places playback at item-local time local for an item of the given
// duration. Unlike Seek it also moves a suspended instance: the paused
// frame only survives pauses, not a trip outside the item's time range.
func (in *Instance) Align(local, itemDuration float64) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state != StateReady || in.doc == nil || itemDuration <= 0 {
		return false
	}
	count := in.doc.FrameCount()
	in.frame = math.Max(0, math.Min(float64(count-1), local*float64(count)/itemDuration))
	return true
}

// Advance moves playback forward by dt seconds for an item of the given
// duration, so that the document spans exactly that duration.
func (in *Instance) Advance(dt, itemDuration float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state != StateReady || in.suspended || in.doc == nil || itemDuration <= 0 {
		return
	}
	count := in.doc.FrameCount()
	in.frame += dt * float64(count) / itemDuration
	if last := float64(count - 1); in.frame > last {
		in.frame = last
	}
	if in.frame < 0 {
		in.frame = 0
	}
}

func (in *Instance) clamp(frame int) int {
	if in.doc == nil {
		if frame < 0 {
			return 0
		}
		return frame
	}
	if n := in.doc.FrameCount(); frame > n-1 {
		frame = n - 1
	}
	if frame < 0 {
		frame = 0
	}
	return frame
}

// Suspend pauses playback at the current frame.
func (in *Instance) Suspend() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateReleased || in.suspended {
		return false
	}
	in.suspended = true
	return true
}

// Resume continues playback from the paused frame. A released instance
// is never resumed.
func (in *Instance) Resume() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.state == StateReleased || !in.suspended {
		return false
	}
	in.suspended = false
	return true
}

func (in *Instance) release() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.state = StateReleased
	in.doc = nil
	in.suspended = false
	in.generation++
}
