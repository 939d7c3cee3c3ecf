package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deskvox/internal/osauto"
)

func frame(level float32) []float32 {
	f := make([]float32, 320)
	for i := range f {
		f[i] = level
	}
	return f
}

func TestGate(t *testing.T) {
	g := newGate(Options{Threshold: 0.015, Silence: 60 * time.Millisecond}, 320)
	loud, quiet := frame(0.2), frame(0.001)

	keep, done := g.feed(quiet)
	assert.False(t, keep, "leading silence is dropped")
	assert.False(t, done)

	keep, done = g.feed(loud)
	assert.True(t, keep)
	assert.False(t, done)

	// 60ms of 20ms frames: two kept, the third ends the recording.
	for i := 0; i < 2; i++ {
		keep, done = g.feed(quiet)
		assert.True(t, keep)
		assert.False(t, done)
	}
	keep, done = g.feed(quiet)
	assert.False(t, keep)
	assert.True(t, done)
}

func TestGate_SpeechResetsSilence(t *testing.T) {
	g := newGate(Options{Threshold: 0.015, Silence: 40 * time.Millisecond}, 320)
	g.feed(frame(0.2))
	g.feed(frame(0))
	g.feed(frame(0.2))
	_, done := g.feed(frame(0))
	assert.False(t, done)
	_, done = g.feed(frame(0))
	assert.True(t, done)
}

func TestFrameRMS(t *testing.T) {
	assert.InDelta(t, 0.5, frameRMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.Zero(t, frameRMS(nil))
}

func TestNewRecorder_Defaults(t *testing.T) {
	r := NewRecorder(Options{Silence: time.Second})
	assert.Equal(t, time.Second, r.opt.Silence)
	assert.Equal(t, DefaultOptions().Threshold, r.opt.Threshold)
	assert.Equal(t, DefaultOptions().MaxLength, r.opt.MaxLength)
}

const sinkInputs = `Sink Input #42
	Driver: protocol-native.c
	Volume: front-left: 65536 / 100% / 0.00 dB,   front-right: 65536 / 100% / 0.00 dB
	Properties:
		application.name = "Firefox"
Sink Input #43
	Volume: front-left: 52429 /  80% / -5.81 dB
	Properties:
		application.name = "deskvox"
Sink Input #44
	Volume: front-left: 39322 /  60% / -13.31 dB
	Properties:
		application.name = "Spotify"
Sink Input #bogus
	Volume: 10%
`

// pactl fakes the PulseAudio CLI, tracking volumes it was told to set.
type pactl struct {
	listing string
	sets    []string
	failSet bool
}

func (p *pactl) Run(_ context.Context, name string, args ...string) (osauto.Output, error) {
	if name != "pactl" {
		return osauto.Output{}, fmt.Errorf("unexpected %s", name)
	}
	switch args[0] {
	case "list":
		return osauto.Output{Stdout: p.listing}, nil
	case "set-sink-input-volume":
		if p.failSet {
			return osauto.Output{ExitCode: 1}, errors.New("exit 1")
		}
		p.sets = append(p.sets, strings.Join(args[1:], " "))
		return osauto.Output{}, nil
	}
	return osauto.Output{}, fmt.Errorf("unexpected %v", args)
}

func TestParseSinkInputs(t *testing.T) {
	got := parseSinkInputs(sinkInputs)
	assert.Equal(t, []streamInfo{
		{ID: 42, Volume: 100, AppName: "Firefox"},
		{ID: 43, Volume: 80, AppName: "deskvox"},
		{ID: 44, Volume: 60, AppName: "Spotify"},
	}, got)
	assert.Empty(t, parseSinkInputs(""))
}

func TestDucker_DuckAndRestore(t *testing.T) {
	p := &pactl{listing: sinkInputs}
	d := NewDucker(p, []string{"deskvox"}, 20)
	ctx := context.Background()

	require.NoError(t, d.Duck(ctx, 0.25, 0))
	assert.Equal(t, []string{"42 25%", "44 20%"}, p.sets)

	// ducking twice is a no-op
	require.NoError(t, d.Duck(ctx, 0.25, 0))
	assert.Len(t, p.sets, 2)

	p.sets = nil
	p.listing = strings.NewReplacer("100%", "25%", " 60%", " 20%").Replace(sinkInputs)
	require.NoError(t, d.Restore(ctx, 0))
	assert.Equal(t, []string{"42 100%", "44 60%"}, p.sets)

	p.sets = nil
	require.NoError(t, d.Restore(ctx, 0))
	assert.Empty(t, p.sets)
}

func TestDucker_FadeSteps(t *testing.T) {
	p := &pactl{listing: "Sink Input #7\n\tVolume: 100%\n\tapplication.name = \"mpv\"\n"}
	d := NewDucker(p, nil, 0)
	var slept time.Duration
	d.sleep = func(dur time.Duration) { slept += dur }

	require.NoError(t, d.Duck(context.Background(), 0.5, 40*time.Millisecond))
	assert.Equal(t, []string{"7 100%", "7 88%", "7 75%", "7 63%", "7 50%"}, p.sets)
	assert.Equal(t, 40*time.Millisecond, slept)
}

func TestDucker_SetFailure(t *testing.T) {
	d := NewDucker(&pactl{listing: sinkInputs, failSet: true}, nil, 0)
	err := d.Duck(context.Background(), 0.5, 0)
	assert.ErrorContains(t, err, "set volume id=42")
	assert.False(t, d.active)
}
