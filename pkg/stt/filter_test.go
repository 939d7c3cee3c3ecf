package stt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMeaningful(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Chrome 열어줘", true},
		{"탭", false},
		{"네요", true},
		{"  a ", false},
		{"", false},
		{"ffmpeg: command not found", false},
		{"FileNotFoundError: x.wav", false},
		{"[BLANK_AUDIO]", false},
		{"Skipping silent segment", false},
		{"open Safari", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsMeaningful(tc.text), tc.text)
	}
}
