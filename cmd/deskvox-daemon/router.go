package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"deskvox/internal/action"
	"deskvox/internal/history"
	"deskvox/internal/ipc"
	"deskvox/internal/nlu"
	"deskvox/pkg/stt"
)

var (
	errNoVoice      = errors.New("voice input is not available")
	errNothingHeard = errors.New("nothing meaningful heard")
)

// Pipeline is the assistant surface the router drives.
type Pipeline interface {
	Handle(ctx context.Context, raw, lang string) action.Result
	Reset()
}

// Ears turns speech into text.
type Ears interface {
	Listen(ctx context.Context) (string, error)
	TranscribeFile(ctx context.Context, path string) (string, error)
}

type Recents interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// router answers ipc requests. ears, recents and speak may be nil.
type router struct {
	pipeline Pipeline
	ears     Ears
	recents  Recents
	speak    func(text, lang string) error
	language string
}

func (r *router) handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Cmd {
	case ipc.CmdRun:
		if strings.TrimSpace(req.Text) == "" {
			return ipc.Failed(errors.New("empty command text"))
		}
		return r.respond(r.pipeline.Handle(ctx, req.Text, req.Language))

	case ipc.CmdReset:
		r.pipeline.Reset()
		return ipc.Response{OK: true}

	case ipc.CmdListen:
		if r.ears == nil {
			return ipc.Failed(errNoVoice)
		}
		text, err := r.ears.Listen(ctx)
		if err != nil {
			return ipc.Failed(fmt.Errorf("listen: %w", err))
		}
		return r.voiced(ctx, text, req.Language)

	case ipc.CmdTranscribe:
		if r.ears == nil {
			return ipc.Failed(errNoVoice)
		}
		if req.Path == "" {
			return ipc.Failed(errors.New("no audio file given"))
		}
		text, err := r.ears.TranscribeFile(ctx, req.Path)
		if err != nil {
			return ipc.Failed(fmt.Errorf("transcribe: %w", err))
		}
		return r.voiced(ctx, text, req.Language)

	case ipc.CmdHistory:
		if r.recents == nil {
			return ipc.Failed(errors.New("history is disabled"))
		}
		entries, err := r.recents.Recent(ctx, req.Limit)
		if err != nil {
			return ipc.Failed(err)
		}
		return ipc.Response{OK: true, History: entries}
	}

	log.Warn("Unknown command", "cmd", req.Cmd)
	return ipc.Failed(fmt.Errorf("unknown command %q", req.Cmd))
}

func (r *router) respond(res action.Result) ipc.Response {
	return ipc.Response{OK: true, Result: &res}
}

// voiced handles a transcript and reads the reply aloud. Noise never
// reaches the assistant.
func (r *router) voiced(ctx context.Context, text, lang string) ipc.Response {
	log.Info("Transcribed", "text", text)
	if !stt.IsMeaningful(text) {
		log.Warn("Ignoring transcript", "text", text)
		return ipc.Failed(fmt.Errorf("%w: %q", errNothingHeard, text))
	}
	res := r.pipeline.Handle(ctx, text, lang)

	if r.speak != nil {
		if lang == "" {
			lang = r.language
		}
		spoken := nlu.ResolveLanguage(lang, text)
		if err := r.speak(action.PlainText(res.Message), spoken); err != nil {
			log.Error("Failed to voice out", "err", err)
		}
	}
	return r.respond(res)
}
