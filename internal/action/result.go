package action

import (
	"deskvox/internal/browser"
	"deskvox/internal/nlu"
)

// Result is the outcome of one dispatched intent. Error is set only when
// Success is false.
type Result struct {
	Success    bool                 `json:"success"`
	Action     nlu.Action           `json:"action"`
	Target     string               `json:"target,omitempty"`
	Message    string               `json:"message,omitempty"`
	Error      string               `json:"error,omitempty"`
	Query      string               `json:"query,omitempty"`
	Content    *browser.PageContent `json:"content,omitempty"`
	Analysis   string               `json:"analysis,omitempty"`
	FromCache  bool                 `json:"fromCache,omitempty"`
	IsAISearch bool                 `json:"isAISearch,omitempty"`
	Simulated  bool                 `json:"simulated,omitempty"`
	Details    map[string]string    `json:"details,omitempty"`
}

func ok(in nlu.Intent, message string) Result {
	return Result{Success: true, Action: in.Action, Target: in.Target, Message: message}
}

func fail(in nlu.Intent, message string, err error) Result {
	r := Result{Action: in.Action, Target: in.Target, Message: message}
	if err != nil {
		r.Error = err.Error()
	} else {
		r.Error = message
	}
	return r
}
