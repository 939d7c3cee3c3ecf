package main

import (
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"deskvox/internal/audio"
	"deskvox/internal/notify"
	"deskvox/pkg/audioconv"
	"deskvox/pkg/stt"
)

const (
	duckFactor = 0.3
	duckFade   = 150 * time.Millisecond
)

// voice owns the microphone and the whisper model. One capture at a time.
type voice struct {
	mu     sync.Mutex
	rec    *audio.Recorder
	tr     *stt.Transcriber
	ducker *audio.Ducker // nil off Linux
	cue    string
	opt    stt.Options
}

func (v *voice) Listen(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := notify.Beep(v.cue); err != nil {
		log.Warn("Failed to play cue", "err", err)
	}

	if v.ducker != nil {
		if err := v.ducker.Duck(ctx, duckFactor, duckFade); err != nil {
			log.Debug("Ducking failed", "err", err)
		}
		defer func() {
			if err := v.ducker.Restore(context.WithoutCancel(ctx), duckFade); err != nil {
				log.Debug("Restoring volume failed", "err", err)
			}
		}()
	}

	log.Info("Starting listening")
	pcm, err := v.rec.RecordAuto(ctx)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	log.Info("Recorded", "samples", len(pcm))

	return v.transcribe(ctx, pcm)
}

func (v *voice) TranscribeFile(ctx context.Context, path string) (string, error) {
	pcm, err := audioconv.ConvertFile(ctx, path, audioconv.Options{})
	if err != nil {
		return "", err
	}
	log.Info("Decoded", "file", path, "samples", len(pcm))

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.transcribe(ctx, pcm)
}

func (v *voice) transcribe(ctx context.Context, pcm []float32) (string, error) {
	res, err := v.tr.TranscribePCM(ctx, pcm, v.opt)
	if err != nil {
		return "", err
	}
	log.Debug("Whisper", "lang", res.Language, "segments", len(res.Segments))
	return res.Text, nil
}

func (v *voice) Close() {
	v.rec.Close()
	if err := v.tr.Close(); err != nil {
		log.Warn("Failed to release whisper model", "err", err)
	}
}
