// Package assistant runs one transcript through the whole pipeline:
// analysis, dispatch and reply.
package assistant

import (
	"context"
	log "log/slog"
	"sync"

	"deskvox/internal/action"
	"deskvox/internal/history"
	"deskvox/internal/nlu"
)

// Journal receives every handled command.
type Journal interface {
	Save(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Assistant serializes commands: one Handle runs at a time, so the
// conversation memory and the browser session are never shared.
type Assistant struct {
	mu         sync.Mutex
	analyzer   *nlu.Analyzer
	dispatcher *action.Dispatcher
	journal    Journal
	language   string
}

type Option func(*Assistant)

func WithJournal(j Journal) Option {
	return func(a *Assistant) { a.journal = j }
}

// WithLanguage sets the language used when a caller passes none. "auto"
// detects it from each transcript.
func WithLanguage(lang string) Option {
	return func(a *Assistant) { a.language = lang }
}

func New(analyzer *nlu.Analyzer, dispatcher *action.Dispatcher, opts ...Option) *Assistant {
	a := &Assistant{
		analyzer:   analyzer,
		dispatcher: dispatcher,
		language:   "auto",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Handle interprets raw and carries it out. The result always holds a
// message fit for display.
func (a *Assistant) Handle(ctx context.Context, raw, lang string) action.Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	if lang == "" {
		lang = a.language
	}
	in, lang := a.analyzer.Analyze(ctx, raw, lang)
	log.Info("Classified", "action", in.Action, "target", in.Target, "confidence", in.Confidence, "lang", lang)

	res := a.dispatcher.Dispatch(ctx, in, lang)
	if res.Success {
		log.Info("Handled", "action", res.Action, "target", res.Target)
	} else {
		log.Warn("Command failed", "action", res.Action, "err", res.Error)
	}

	if a.journal != nil {
		_, err := a.journal.Save(ctx, history.Entry{
			Transcript: raw,
			Language:   lang,
			Action:     string(res.Action),
			Target:     res.Target,
			Success:    res.Success,
			Message:    res.Message,
		})
		if err != nil {
			log.Error("Failed to journal command", "err", err)
		}
	}
	return res
}

// Reset forgets recent commands and cached tab analyses.
func (a *Assistant) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dispatcher.Memory().Reset()
	log.Info("Conversation reset")
}
