package session

import (
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/scan"
)

// State is a snapshot of the session shared by the orchestrator, the capture
// engine and the surfaces.
type State struct {
	SessionID      string
	Stage          scan.Stage
	Continuous     bool
	CompletedCount int
	Modes          capture.ModeState
	Verification   capture.VerificationState
	// Last is the most recent successful outcome; earlier cycles are only
	// visible through OnCycleCompleted.
	Last *scan.Outcome
}

type eventKind int

const (
	eventSuccess eventKind = iota
	eventCancelled
	eventFailed
	eventRetake
)

func (k eventKind) String() string {
	return [...]string{"success", "cancelled", "failed", "retake"}[k]
}

// stageEvent is the single terminal event a stage emits.
type stageEvent struct {
	kind    eventKind
	outcome scan.Outcome
}

func succeeded(out scan.Outcome) stageEvent {
	out.Status = scan.StatusSuccess
	return stageEvent{kind: eventSuccess, outcome: out}
}

func cancelled(msg string) stageEvent {
	return stageEvent{kind: eventCancelled, outcome: scan.Cancelled(msg)}
}

func retake() stageEvent { return stageEvent{kind: eventRetake} }
