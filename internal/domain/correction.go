package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the prompt template and the application strategy of a correction.
type Mode string

const (
	ModeFix      Mode = "fix"
	ModeInstruct Mode = "instruct"
)

// ParseMode converts user input into a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeFix:
		return ModeFix, nil
	case ModeInstruct:
		return ModeInstruct, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want fix|instruct)", raw)
	}
}

// Target says where the text to correct comes from.
type Target string

const (
	// TargetLine extends the selection to the start of the current line before capturing.
	TargetLine Target = "line"
	// TargetSelection captures whatever is already selected.
	TargetSelection Target = "selection"
)

// Action is a logical hotkey action.
type Action string

const (
	ActionFixLine           Action = "fix-line"
	ActionInstructLine      Action = "instruct-line"
	ActionInstructSelection Action = "instruct-selection"
	ActionNextModel         Action = "next-model"
)

// CorrectionActions lists the actions that run a correction, in hotkey order.
var CorrectionActions = []Action{ActionFixLine, ActionInstructLine, ActionInstructSelection}

// ParseAction converts user input into a correction Action.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range CorrectionActions {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q (want fix-line|instruct-line|instruct-selection)", raw)
}

// Mode returns the correction mode an action runs in.
func (a Action) Mode() Mode {
	if a == ActionFixLine {
		return ModeFix
	}
	return ModeInstruct
}

// Target returns where an action captures its text from.
func (a Action) Target() Target {
	if a == ActionInstructSelection {
		return TargetSelection
	}
	return TargetLine
}

// State is a step of the correction state machine.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateAborted    State = "aborted"
	StateRequesting State = "requesting"
	StateApplying   State = "applying"
)

// CorrectionRequest describes one triggered correction.
type CorrectionRequest struct {
	Mode   Mode
	Target Target
	// Stream applies fragments as they arrive instead of waiting for the full response.
	Stream bool
}

// CorrectionResult summarises a finished or aborted correction.
type CorrectionResult struct {
	ID        string
	Model     string
	Input     string
	Output    string
	Fragments int
	Duration  time.Duration
}

// GenerationRequest is immutable once issued; Model is captured at issue time.
type GenerationRequest struct {
	Model     string
	KeepAlive time.Duration
	Stream    bool
	Prompt    string
}
