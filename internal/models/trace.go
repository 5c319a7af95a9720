package models

import "unicode/utf8"

// Trace stages.
const (
	StageSegment = "segment"
	StageAddress = "address"
	StageNoise   = "noise"
	StageName    = "name"
	StageAccount = "account"
)

// Trace actions.
const (
	ActionHeader    = "header"
	ActionBoundary  = "boundary"
	ActionSkipped   = "skipped"
	ActionRemoved   = "removed"
	ActionCleaned   = "cleaned"
	ActionDiscarded = "discarded"
	ActionScored    = "scored"
	ActionMatched   = "matched"
	ActionRejected  = "rejected"
	ActionEmpty     = "empty"
)

const maxTraceText = 120

// TraceEvent records one decision a pipeline stage made about a line.
type TraceEvent struct {
	Stage   string `json:"stage"`
	Action  string `json:"action"`
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Detail  string `json:"detail,omitempty"`
}

// Trace collects events in the order they happened. A nil *Trace discards
// everything, so stages can record unconditionally.
type Trace struct {
	Events []TraceEvent `json:"events"`
}

// Add appends an event. Text longer than 120 bytes is truncated on a rune
// boundary.
func (t *Trace) Add(stage, action string, lineNum int, text, detail string) {
	if t == nil {
		return
	}
	if len(text) > maxTraceText {
		n := maxTraceText
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	t.Events = append(t.Events, TraceEvent{
		Stage:   stage,
		Action:  action,
		LineNum: lineNum,
		Text:    text,
		Detail:  detail,
	})
}

// Stage returns the events recorded by one stage.
func (t *Trace) Stage(stage string) []TraceEvent {
	if t == nil {
		return nil
	}
	var out []TraceEvent
	for _, e := range t.Events {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first event of a stage with the given action.
func (t *Trace) Find(stage, action string) (TraceEvent, bool) {
	for _, e := range t.Stage(stage) {
		if e.Action == action {
			return e, true
		}
	}
	return TraceEvent{}, false
}
