package capture

import "time"

const (
	DefaultRequiredVerifiedFrames = 2
	MinRequiredVerifiedFrames     = 1
	MaxRequiredVerifiedFrames     = 5
	DefaultCooldown               = 2000 * time.Millisecond
)

// VerificationState counts consecutive cross-verified detections.
type VerificationState struct {
	CrossVerified int
	LastCaptureAt time.Time
}

// Reset clears the counter but keeps the last capture time.
func (v *VerificationState) Reset() { v.CrossVerified = 0 }

// DecisionConfig tunes the decision engine.
type DecisionConfig struct {
	// RequiredVerifiedFrames is clamped to [1, 5]; zero selects 2.
	RequiredVerifiedFrames int
	// Cooldown applies between automatic captures in continuous mode only.
	Cooldown   time.Duration
	Continuous bool
}

// DecisionEngine decides when to trigger an automatic capture from the
// stream of detection results.
type DecisionEngine struct {
	cfg     DecisionConfig
	clock   Clock
	state   *VerificationState
	trigger func()
}

// NewDecisionEngine builds an engine over state. trigger is invoked
// synchronously when the threshold is reached; it must not block.
func NewDecisionEngine(cfg DecisionConfig, state *VerificationState, clock Clock, trigger func()) *DecisionEngine {
	switch {
	case cfg.RequiredVerifiedFrames == 0:
		cfg.RequiredVerifiedFrames = DefaultRequiredVerifiedFrames
	case cfg.RequiredVerifiedFrames < MinRequiredVerifiedFrames:
		cfg.RequiredVerifiedFrames = MinRequiredVerifiedFrames
	case cfg.RequiredVerifiedFrames > MaxRequiredVerifiedFrames:
		cfg.RequiredVerifiedFrames = MaxRequiredVerifiedFrames
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if state == nil {
		state = &VerificationState{}
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &DecisionEngine{cfg: cfg, clock: clock, state: state, trigger: trigger}
}

// SetContinuous switches the cooldown on or off.
func (e *DecisionEngine) SetContinuous(on bool) { e.cfg.Continuous = on }

// State exposes the shared verification state.
func (e *DecisionEngine) State() *VerificationState { return e.state }

// OnDetection consumes one detection result and reports whether it
// triggered a capture.
func (e *DecisionEngine) OnDetection(itemCount int, crossVerified bool) bool {
	if itemCount <= 1 {
		e.state.CrossVerified = 0
		return false
	}
	now := e.clock.Now()
	if e.cfg.Continuous && !e.state.LastCaptureAt.IsZero() &&
		now.Sub(e.state.LastCaptureAt) < e.cfg.Cooldown {
		return false
	}
	if crossVerified {
		e.state.CrossVerified++
	} else {
		e.state.CrossVerified = 0
	}
	if e.state.CrossVerified < e.cfg.RequiredVerifiedFrames {
		return false
	}
	e.state.CrossVerified = 0
	e.state.LastCaptureAt = now
	if e.trigger != nil {
		e.trigger()
	}
	return true
}
