package stt

import (
	"strings"
	"unicode/utf8"
)

// noise marks transcripts that are tool output or decoder artifacts
// rather than speech.
var noise = []string{
	"skipping",
	"filenotfounderror",
	"error",
	"no such file",
	"ffmpeg",
	"[blank_audio]",
}

// IsMeaningful reports whether text is worth handing to the assistant:
// at least two runes after trimming and free of known noise.
func IsMeaningful(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	lower := strings.ToLower(text)
	for _, n := range noise {
		if strings.Contains(lower, n) {
			return false
		}
	}
	return true
}
