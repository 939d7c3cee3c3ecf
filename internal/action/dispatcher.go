// Package action executes classified intents against the desktop and
// phrases the outcome for the user.
package action

import (
	"context"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"strings"
	"time"

	"deskvox/internal/browser"
	"deskvox/internal/llm"
	"deskvox/internal/memory"
	"deskvox/internal/nlu"
	"deskvox/internal/osauto"
)

// Automation is the desktop surface handlers drive. *osauto.Desktop
// implements it.
type Automation interface {
	Platform() string
	LaunchApp(ctx context.Context, name string) (osauto.Output, error)
	OpenBrowserTab(ctx context.Context, app string) (osauto.Output, error)
	OpenURI(ctx context.Context, uri string) (osauto.Output, error)
	OpenFile(ctx context.Context, path string) (osauto.Output, error)
	RunScript(ctx context.Context, script string) (osauto.Output, error)
	ClickButton(ctx context.Context, app, name string) (osauto.Output, error)
	ClickButtonContaining(ctx context.Context, app string, keywords ...string) (osauto.Output, error)
	ActiveTab(ctx context.Context) (osauto.Tab, error)
	System(ctx context.Context, op string) (osauto.Output, error)
}

// Browser is the DevTools session. *browser.Session implements it.
type Browser interface {
	Connected() bool
	ActivePageContent(ctx context.Context) (*browser.PageContent, error)
	ComposeOutlookEvent(ctx context.Context, subject string, start, end time.Time) error
}

type Options struct {
	// Aliases extend or override the built-in app alias table. Keys are
	// matched case-insensitively.
	Aliases map[string]string
	// CalendarDir receives generated .ics files; empty means the OS temp dir.
	CalendarDir string
	Now         func() time.Time
}

type handlerFunc func(ctx context.Context, in nlu.Intent, lang string) Result

// Dispatcher routes an intent to its handler and fills in the reply.
type Dispatcher struct {
	llm      llm.Service
	desk     Automation
	browser  Browser
	mem      *memory.Conversation
	composer *Composer

	aliases     map[string]string
	calendarDir string
	now         func() time.Time

	handlers map[nlu.Action]handlerFunc
}

// NewDispatcher wires handlers to their collaborators. svc and br may be
// nil; handlers that need them then fail or fall back.
func NewDispatcher(svc llm.Service, desk Automation, br Browser, mem *memory.Conversation, opts Options) *Dispatcher {
	if mem == nil {
		mem = memory.New(memory.DefaultCapacity, memory.DefaultTabTTL)
	}
	d := &Dispatcher{
		llm:         svc,
		desk:        desk,
		browser:     br,
		mem:         mem,
		composer:    NewComposer(svc),
		aliases:     mergeAliases(opts.Aliases),
		calendarDir: opts.CalendarDir,
		now:         opts.Now,
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.handlers = map[nlu.Action]handlerFunc{
		nlu.ActionOpen:            d.open,
		nlu.ActionSearch:          d.search,
		nlu.ActionAISearch:        d.aiSearch,
		nlu.ActionClick:           d.click,
		nlu.ActionType:            d.typeText,
		nlu.ActionScroll:          d.scroll,
		nlu.ActionCall:            d.call,
		nlu.ActionMessage:         d.message,
		nlu.ActionFile:            d.file,
		nlu.ActionSystem:          d.system,
		nlu.ActionTabAnalysis:     d.tabAnalysis,
		nlu.ActionOutlookCalendar: d.calendar,
		nlu.ActionSlack:           d.notImplemented("Slack"),
		nlu.ActionNotion:          d.notImplemented("Notion"),
		nlu.ActionTrello:          d.notImplemented("Trello"),
	}
	return d
}

func (d *Dispatcher) Memory() *memory.Conversation { return d.mem }

// Dispatch records the intent, runs its handler and returns a result that
// always carries a displayable message. It does not panic.
func (d *Dispatcher) Dispatch(ctx context.Context, in nlu.Intent, lang string) (res Result) {
	d.mem.Record(in, lang)

	h, found := d.handlers[in.Action]
	if !found {
		log.Info("No handler for action", "action", in.Action)
		return Result{
			Action:  in.Action,
			Message: msg(lang, msgNotUnderstood),
			Error:   fmt.Sprintf("unsupported action %q", in.Action),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Handler panicked", "action", in.Action, "panic", r, "stack", string(debug.Stack()))
			res = Result{
				Action:  in.Action,
				Target:  in.Target,
				Message: msg(lang, msgFailed),
				Error:   fmt.Sprint(r),
			}
		}
	}()

	res = h(ctx, in, lang)
	if res.Action == "" {
		res.Action = in.Action
	}
	log.Debug("Handled", "action", in.Action, "success", res.Success, "err", res.Error)

	switch in.Action {
	case nlu.ActionTabAnalysis, nlu.ActionAISearch:
		return res
	}

	if !res.Success {
		if res.Message == "" {
			res.Message = msg(lang, msgFailed)
		}
		return res
	}

	res.Error = ""
	reply := d.composer.Compose(ctx, in, res, lang)
	if res.Simulated {
		reply = strings.TrimSpace(reply + " " + msg(lang, msgClickSimulated, displayTarget(in.Target, lang)))
	}
	res.Message = reply
	return res
}

func displayTarget(target, lang string) string {
	if target != "" {
		return target
	}
	if lang == "en" {
		return "the button"
	}
	return "버튼"
}
