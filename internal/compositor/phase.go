// Package compositor renders export frames procedurally. Animation
// families are synthesized from an item's properties with closed-form
// functions of progress; source documents are never consulted, so
// exported frames only approximate the interactive preview.
package compositor

// Phase is one of the three segments of a procedural animation.
type Phase int

const (
	PhaseEnter Phase = iota
	PhaseHold
	PhaseExit
)

const (
	enterEnd  = 1.0 / 3
	exitStart = 2.0 / 3
)

func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "enter"
	case PhaseHold:
		return "hold"
	case PhaseExit:
		return "exit"
	}
	return "unknown"
}

// Progress returns frame/totalFrames clamped to [0, 1].
func Progress(frame, totalFrames int) float64 {
	if totalFrames <= 0 {
		return 0
	}
	return clamp01(float64(frame) / float64(totalFrames))
}

// PhaseAt splits overall progress p into a phase and the progress
// within that phase, both in [0, 1]. The boundaries 1/3 and 2/3 belong
// to the earlier phase.
func PhaseAt(p float64) (Phase, float64) {
	p = clamp01(p)
	switch {
	case p <= enterEnd:
		return PhaseEnter, p / enterEnd
	case p <= exitStart:
		return PhaseHold, (p - enterEnd) / (exitStart - enterEnd)
	default:
		return PhaseExit, (p - exitStart) / (1 - exitStart)
	}
}

// Params are the numeric drawing parameters of one frame.
type Params struct {
	Phase   Phase
	Scale   float64
	Radius  float64
	OffsetX float64
	OffsetY float64
	Opacity float64
}
