// Package audio captures voice commands from the default microphone.
package audio

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const SampleRate = 16000

// ErrNoAudio means the microphone produced nothing worth transcribing.
var ErrNoAudio = errors.New("no audio recorded")

type Options struct {
	// Threshold is the frame RMS above which a frame counts as speech.
	Threshold float64
	// Silence ends the recording once speech has started.
	Silence time.Duration
	// MaxLength bounds a single recording.
	MaxLength time.Duration
}

func DefaultOptions() Options {
	return Options{
		Threshold: 0.015,
		Silence:   600 * time.Millisecond,
		MaxLength: 10 * time.Second,
	}
}

type Recorder struct {
	opt Options
}

func NewRecorder(opt Options) *Recorder {
	d := DefaultOptions()
	if opt.Threshold <= 0 {
		opt.Threshold = d.Threshold
	}
	if opt.Silence <= 0 {
		opt.Silence = d.Silence
	}
	if opt.MaxLength <= 0 {
		opt.MaxLength = d.MaxLength
	}
	return &Recorder{opt: opt}
}

func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() {
	portaudio.Terminate()
}

// RecordAuto records 16 kHz mono audio from the first loud frame until
// the speaker falls silent, MaxLength passes, or ctx is cancelled.
func (r *Recorder) RecordAuto(ctx context.Context) ([]float32, error) {
	const frameSize = 320 // 20ms

	buf := make([]float32, frameSize)
	out := make([]float32, 0, SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, SampleRate, len(buf), buf)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	g := newGate(r.opt, frameSize)
	maxFrames := int(r.opt.MaxLength.Seconds() * SampleRate / frameSize)

	for i := 0; i < maxFrames; i++ {
		if ctx.Err() != nil {
			break
		}
		if err := stream.Read(); err != nil {
			return nil, err
		}

		keep, done := g.feed(buf)
		if done {
			break
		}
		if keep {
			out = append(out, buf...)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

// RecordUntil records everything until ctx is cancelled or maxDur passes.
func (r *Recorder) RecordUntil(ctx context.Context, maxDur time.Duration) ([]float32, error) {
	if maxDur <= 0 {
		maxDur = 15 * time.Second
	}

	const frameSize = 1024

	buf := make([]float32, frameSize)

	stream, err := portaudio.OpenDefaultStream(
		1, // in
		0, // no out
		float64(SampleRate),
		len(buf),
		buf,
	)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(maxDur)
	out := make([]float32, 0, int(float64(SampleRate)*maxDur.Seconds()))

	for time.Now().Before(deadline) && ctx.Err() == nil {
		if err := stream.Read(); err != nil {
			return nil, err
		}
		out = append(out, buf...)
	}

	if len(out) == 0 {
		return nil, ErrNoAudio
	}
	return out, nil
}

// gate decides frame by frame whether speech is going on. Leading silence
// is dropped; trailing silence shorter than the limit is kept.
type gate struct {
	threshold     float64
	maxSilent     int
	speaking      bool
	silenceFrames int
}

func newGate(opt Options, frameSize int) *gate {
	frameDur := time.Duration(frameSize) * time.Second / SampleRate
	maxSilent := int(opt.Silence / frameDur)
	if maxSilent < 1 {
		maxSilent = 1
	}
	return &gate{threshold: opt.Threshold, maxSilent: maxSilent}
}

func (g *gate) feed(frame []float32) (keep, done bool) {
	if frameRMS(frame) > g.threshold {
		g.speaking = true
		g.silenceFrames = 0
		return true, false
	}
	if !g.speaking {
		return false, false
	}
	g.silenceFrames++
	if g.silenceFrames >= g.maxSilent {
		return false, true
	}
	return true, false
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
