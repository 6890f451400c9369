package video

import (
	"fmt"
	"strings"
)

// AudioTrack is an audio item placed on the timeline.
type AudioTrack struct {
	Path     string
	Start    float64
	Duration float64
	Volume   float64
}

// AudioFilter builds a filter graph that trims each track to its item
// duration, delays it to its start time and mixes all tracks. Inputs are
// numbered from firstInput. It returns the graph and its output label.
func AudioFilter(tracks []AudioTrack, firstInput int) (string, string) {
	if len(tracks) == 0 {
		return "", ""
	}
	parts := make([]string, 0, len(tracks)+1)
	labels := ""
	for i, t := range tracks {
		delay := int(t.Start * 1000)
		volume := t.Volume
		if volume <= 0 {
			volume = 1
		}
		label := fmt.Sprintf("[a%d]", i)
		parts = append(parts, fmt.Sprintf("[%d:a]atrim=0:%f,asetpts=PTS-STARTPTS,volume=%.3f,adelay=%d:all=1%s",
			firstInput+i, t.Duration, volume, delay, label))
		labels += label
	}
	if len(tracks) == 1 {
		return strings.Join(parts, ";"), "[a0]"
	}
	parts = append(parts, fmt.Sprintf("%samix=inputs=%d:duration=longest:normalize=0[aout]", labels, len(tracks)))
	return strings.Join(parts, ";"), "[aout]"
}
