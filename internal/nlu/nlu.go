// Package nlu turns a noisy transcript into a structured Intent:
// deterministic corrections, a best-effort language-model rewrite, then
// classification with a keyword fallback.
package nlu

import (
	"context"
	"encoding/json"
	"errors"
	log "log/slog"
	"regexp"
	"strings"

	"deskvox/internal/llm"
)

const (
	classifyTemperature = 0.05
	classifyMaxTokens   = 150
	refineTemperature   = 0.3
	refineMaxTokens     = 100
)

var (
	errNotObject  = errors.New("classifier reply is not a JSON object")
	errNoAction   = errors.New("classifier reply has no action")
	codeFenceRe   = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")
	quotePairs    = [][2]string{{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"}}
	leadingQuotes = `"'“‘`
)

// Classifier maps text onto an Intent. A nil service sends every call
// straight to Fallback.
type Classifier struct {
	svc llm.Service
}

func NewClassifier(svc llm.Service) *Classifier {
	return &Classifier{svc: svc}
}

// Classify never fails; the returned Intent always carries a valid action
// and OriginalCommand == text.
func (c *Classifier) Classify(ctx context.Context, text, lang string) Intent {
	in := c.classify(ctx, text, lang)
	in.OriginalCommand = text
	if in.Parameters == nil {
		in.Parameters = Params{}
	}
	log.Debug("Classified", "action", in.Action, "target", in.Target, "confidence", in.Confidence)
	return in
}

func (c *Classifier) classify(ctx context.Context, text, lang string) Intent {
	if c.svc == nil {
		log.Debug("Classifier service not configured, using keyword fallback")
		return Fallback(text, lang)
	}

	content, err := c.svc.Complete(ctx, llm.Request{
		System:      classifierPrompt(lang),
		User:        text,
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		log.Warn("Classifier call failed, using keyword fallback", "err", err)
		return Fallback(text, lang)
	}

	in, err := parseIntent(content)
	if err != nil {
		log.Warn("Malformed classifier reply", "err", err, "raw", content)
		if IsQuestion(text, lang) {
			return askIntent(text, 0.5)
		}
		return Fallback(text, lang)
	}
	return in
}

func parseIntent(content string) (Intent, error) {
	body := StripCodeFence(content)
	if !strings.HasPrefix(body, "{") {
		return Intent{}, errNotObject
	}

	var w wireIntent
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return Intent{}, errors.Join(errNotObject, err)
	}
	if strings.TrimSpace(w.Action) == "" {
		return Intent{}, errNoAction
	}
	return w.toIntent(), nil
}

// StripCodeFence removes a surrounding ``` block (with optional language
// tag) that models like to wrap structured output in.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// Refiner asks the model to reconstruct what the speaker most likely said.
type Refiner struct {
	svc     llm.Service
	enabled bool
}

func NewRefiner(svc llm.Service, enabled bool) *Refiner {
	return &Refiner{svc: svc, enabled: enabled}
}

// Refine is best-effort: any failure returns text unchanged.
func (r *Refiner) Refine(ctx context.Context, text string) string {
	if r == nil || r.svc == nil || !r.enabled || strings.TrimSpace(text) == "" {
		return text
	}

	content, err := r.svc.Complete(ctx, llm.Request{
		System:      refinePrompt,
		User:        `음성 인식 결과: "` + text + `"`,
		Temperature: refineTemperature,
		MaxTokens:   refineMaxTokens,
	})
	if err != nil {
		log.Warn("Refinement failed, keeping transcript", "err", err)
		return text
	}

	refined := stripQuotes(strings.TrimSpace(content))
	if refined == "" {
		return text
	}
	return refined
}

// stripQuotes removes one layer of surrounding quotes. A lone leading or
// trailing quote is dropped as well.
func stripQuotes(s string) string {
	for _, q := range quotePairs {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(s[len(q[0]) : len(s)-len(q[1])])
		}
	}
	for _, r := range leadingQuotes {
		if strings.HasPrefix(s, string(r)) {
			return strings.TrimSpace(strings.TrimPrefix(s, string(r)))
		}
	}
	for _, q := range quotePairs {
		if strings.HasSuffix(s, q[1]) {
			return strings.TrimSpace(strings.TrimSuffix(s, q[1]))
		}
	}
	return s
}

// Analyzer chains normalization, refinement and classification.
type Analyzer struct {
	refiner    *Refiner
	classifier *Classifier
}

func NewAnalyzer(refiner *Refiner, classifier *Classifier) *Analyzer {
	return &Analyzer{refiner: refiner, classifier: classifier}
}

// Analyze returns the intent for a raw transcript together with the
// resolved language. OriginalCommand is the verbatim raw text.
func (a *Analyzer) Analyze(ctx context.Context, raw, lang string) (Intent, string) {
	lang = ResolveLanguage(lang, raw)

	normalized := Normalize(raw)
	refined := a.refiner.Refine(ctx, normalized)
	log.Debug("Transcript", "raw", raw, "normalized", normalized, "refined", refined, "lang", lang)

	in := a.classifier.Classify(ctx, refined, lang)
	in.OriginalCommand = raw
	return in, lang
}
