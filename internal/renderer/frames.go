package renderer

import "math"

// FrameFor maps item-local time onto a frame index of a document with
// frameCount frames. The item's duration is authoritative: the whole
// document is stretched over it, so frameRate does not take part in the
// mapping. The result always lies in [0, frameCount-1].
func FrameFor(currentTime, itemDuration, frameRate float64, frameCount int) int {
	if frameCount <= 0 || itemDuration <= 0 {
		return 0
	}
	frame := int(math.Round(currentTime / itemDuration * float64(frameCount)))
	if frame < 0 {
		return 0
	}
	if frame > frameCount-1 {
		return frameCount - 1
	}
	return frame
}

// Progress returns the item-local progress fraction in [0, 1].
func Progress(currentTime, itemDuration float64) float64 {
	if itemDuration <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, currentTime/itemDuration))
}
