package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoice(t *testing.T) {
	assert.Equal(t, "ko", Voice("ko"))
	assert.Equal(t, "ko", Voice("ko-KR"))
	assert.Equal(t, "en-us", Voice("EN"))
	assert.Equal(t, "en-us", Voice("auto"))
	assert.Equal(t, "en-us", Voice(""))
}
