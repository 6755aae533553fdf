package web

import (
	"strconv"
	"strings"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

// phaseLabel turns a wire phase such as "playing_clip" into "playing clip".
func phaseLabel(phase string) string {
	return strings.ReplaceAll(phase, "_", " ")
}

func playersLabel(count int) string {
	if count == 1 {
		return "1 player"
	}
	return itoa(count) + " players"
}
