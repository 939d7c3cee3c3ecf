package nlu

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Action string

const (
	ActionOpen            Action = "open"
	ActionSearch          Action = "search"
	ActionAISearch        Action = "ai-search"
	ActionClick           Action = "click"
	ActionType            Action = "type"
	ActionScroll          Action = "scroll"
	ActionCall            Action = "call"
	ActionMessage         Action = "message"
	ActionFile            Action = "file"
	ActionSystem          Action = "system"
	ActionTabAnalysis     Action = "tab-analysis"
	ActionOutlookCalendar Action = "outlook-calendar"
	ActionSlack           Action = "slack"
	ActionNotion          Action = "notion"
	ActionTrello          Action = "trello"
	ActionUnknown         Action = "unknown"
)

// Actions lists every kind the classifier may emit, in prompt order.
var Actions = []Action{
	ActionOpen, ActionSearch, ActionAISearch, ActionClick, ActionType,
	ActionScroll, ActionCall, ActionMessage, ActionFile, ActionSystem,
	ActionTabAnalysis, ActionOutlookCalendar, ActionSlack, ActionNotion,
	ActionTrello, ActionUnknown,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ParseAction maps a classifier kind onto the enumeration; anything
// unrecognized becomes ActionUnknown.
func ParseAction(s string) Action {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if a.Valid() {
		return a
	}
	return ActionUnknown
}

// Params holds action-specific fields. The classifier may send numbers
// (e.g. "amount": 3); they are kept in their decimal text form.
type Params map[string]string

func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Params, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return err
			}
			out[k] = string(b)
		}
	}
	*p = out
	return nil
}

// Intent is the structured classification of one utterance. An empty
// Target stands for "no target".
type Intent struct {
	Action          Action  `json:"action"`
	Target          string  `json:"target,omitempty"`
	Parameters      Params  `json:"parameters,omitempty"`
	Confidence      float64 `json:"confidence"`
	Explanation     string  `json:"explanation,omitempty"`
	OriginalCommand string  `json:"originalCommand,omitempty"`
}

func (in Intent) Param(key string) string {
	if in.Parameters == nil {
		return ""
	}
	return in.Parameters[key]
}

// wireIntent mirrors the classifier JSON, where target may be null.
type wireIntent struct {
	Action      string   `json:"action"`
	Target      *string  `json:"target"`
	Parameters  Params   `json:"parameters"`
	Confidence  *float64 `json:"confidence"`
	Explanation string   `json:"explanation"`
}

func (w wireIntent) toIntent() Intent {
	in := Intent{
		Action:      ParseAction(w.Action),
		Parameters:  w.Parameters,
		Explanation: w.Explanation,
	}
	if w.Target != nil {
		in.Target = strings.TrimSpace(*w.Target)
	}
	if w.Confidence != nil {
		in.Confidence = clamp01(*w.Confidence)
	}
	if in.Parameters == nil {
		in.Parameters = Params{}
	}
	if in.Action == ActionUnknown {
		in.Target = ""
	}
	return in
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
