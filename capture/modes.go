package capture

// ModeState holds the three dependent capture modes. Reachable states keep
// AutoCrop ⇒ SmartCapture ⇒ BoundsDetection.
type ModeState struct {
	BoundsDetection bool
	SmartCapture    bool
	AutoCrop        bool
}

// Valid reports whether the dependency chain holds.
func (s ModeState) Valid() bool {
	if s.AutoCrop && !s.SmartCapture {
		return false
	}
	if s.SmartCapture && !s.BoundsDetection {
		return false
	}
	return true
}

// Automatic reports whether frames may trigger a capture on their own.
func (s ModeState) Automatic() bool { return s.SmartCapture || s.AutoCrop }

// ModeController applies the cascading enable/disable rules. It is not safe
// for concurrent use; the session serializes calls.
type ModeController struct {
	state          ModeState
	showCorrection bool
	verify         *VerificationState
	onBounds       func(enabled bool)
}

// NewModeController builds a controller from configured defaults. The
// defaults are applied through the toggle rules so an inconsistent
// configuration still yields a valid state. verify may be nil.
func NewModeController(defaults ModeState, showCorrection bool, verify *VerificationState) *ModeController {
	c := &ModeController{showCorrection: showCorrection, verify: verify}
	switch {
	case defaults.AutoCrop:
		c.SetAutoCrop(true)
	case defaults.SmartCapture:
		c.SetSmartCapture(true)
	default:
		c.SetBoundsDetection(defaults.BoundsDetection)
	}
	return c
}

// OnBoundsDetectionChanged registers fn to be called whenever bounds
// detection flips; the session uses it to start or stop the analysis stream.
func (c *ModeController) OnBoundsDetectionChanged(fn func(enabled bool)) {
	c.onBounds = fn
}

// State returns the current modes.
func (c *ModeController) State() ModeState { return c.state }

func (c *ModeController) SetBoundsDetection(enabled bool) ModeState {
	next := c.state
	if enabled {
		next.BoundsDetection = true
	} else {
		next.BoundsDetection = false
		next.SmartCapture = false
		next.AutoCrop = false
	}
	return c.apply(next)
}

func (c *ModeController) SetSmartCapture(enabled bool) ModeState {
	next := c.state
	if enabled {
		next.BoundsDetection = true
		next.SmartCapture = true
	} else {
		next.SmartCapture = false
		next.AutoCrop = false
	}
	return c.apply(next)
}

func (c *ModeController) SetAutoCrop(enabled bool) ModeState {
	next := c.state
	if enabled {
		next.BoundsDetection = true
		next.SmartCapture = true
		next.AutoCrop = true
	} else {
		next.AutoCrop = false
		// Without a correction stage auto-crop and smart capture are one
		// switch: turning auto-crop off also turns smart capture off.
		if !c.showCorrection {
			next.SmartCapture = false
		}
	}
	return c.apply(next)
}

func (c *ModeController) apply(next ModeState) ModeState {
	if next == c.state {
		return c.state
	}
	boundsChanged := next.BoundsDetection != c.state.BoundsDetection
	c.state = next
	if c.verify != nil {
		c.verify.CrossVerified = 0
	}
	if boundsChanged && c.onBounds != nil {
		c.onBounds(next.BoundsDetection)
	}
	return c.state
}
