package animation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Transparent is the colour sentinel that hides a background layer.
const Transparent = "transparent"

// IsTransparent reports whether c is the Transparent sentinel, in any case.
func IsTransparent(c string) bool {
	return strings.EqualFold(strings.TrimSpace(c), Transparent)
}

// ParseHex converts "#RGB", "#RRGGBB" or "#RRGGBBAA" into normalized RGBA
// channels. Each channel is c/255.0 rounded to 4 decimal places.
func ParseHex(hex string) ([4]float64, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return [4]float64{}, fmt.Errorf("invalid hex colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return [4]float64{}, fmt.Errorf("invalid hex colour %q", hex)
	}
	return [4]float64{
		channel(uint8(v >> 24)),
		channel(uint8(v >> 16)),
		channel(uint8(v >> 8)),
		channel(uint8(v)),
	}, nil
}

func channel(c uint8) float64 {
	return math.Round(float64(c)/255.0*1e4) / 1e4
}
