package session

import (
	"time"

	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/observability"
)

type actionKind int

const (
	actionManual actionKind = iota
	actionClose
	actionRetake
	actionAccept
	actionDone
	actionUpload
	actionViewport
)

func (k actionKind) String() string {
	return [...]string{"manual", "close", "retake", "accept", "done", "upload", "viewport"}[k]
}

// action is a user request queued for the session goroutine.
type action struct {
	kind     actionKind
	boundary *coords.Quad
	data     []byte
}

// ManualCapture captures the current camera frame.
func (s *Session) ManualCapture() { s.send(action{kind: actionManual}) }

// Close cancels the session from any stage.
func (s *Session) Close() { s.send(action{kind: actionClose}) }

// Retake discards the pending outcome and returns to capture.
func (s *Session) Retake() { s.send(action{kind: actionRetake}) }

// Accept leaves the correction stage. A non-nil boundary that differs from
// the captured one re-normalizes the original image.
func (s *Session) Accept(boundary *coords.Quad) {
	if boundary != nil {
		b := *boundary
		boundary = &b
	}
	s.send(action{kind: actionAccept, boundary: boundary})
}

// Done leaves the review stage.
func (s *Session) Done() { s.send(action{kind: actionDone}) }

// Upload substitutes an encoded image for the camera capture.
func (s *Session) Upload(data []byte) { s.send(action{kind: actionUpload, data: data}) }

// ViewportChanged notifies the session that the surface geometry changed.
// Bursts are collapsed into one notification per debounce interval.
func (s *Session) ViewportChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewport != nil {
		s.viewport.Stop()
	}
	s.viewport = time.AfterFunc(s.cfg.Capture.ViewportDebounce(), func() {
		s.send(action{kind: actionViewport})
	})
}

// ToggleBoundsDetection sets bounds detection, or flips it when enabled is
// nil, and returns the resulting modes.
func (s *Session) ToggleBoundsDetection(enabled *bool) capture.ModeState {
	return s.toggle(enabled, func(m capture.ModeState) bool { return m.BoundsDetection }, (*capture.ModeController).SetBoundsDetection)
}

// ToggleSmartCapture sets smart capture, or flips it when enabled is nil.
func (s *Session) ToggleSmartCapture(enabled *bool) capture.ModeState {
	return s.toggle(enabled, func(m capture.ModeState) bool { return m.SmartCapture }, (*capture.ModeController).SetSmartCapture)
}

// ToggleAutoCrop sets auto-crop, or flips it when enabled is nil.
func (s *Session) ToggleAutoCrop(enabled *bool) capture.ModeState {
	return s.toggle(enabled, func(m capture.ModeState) bool { return m.AutoCrop }, (*capture.ModeController).SetAutoCrop)
}

func (s *Session) toggle(enabled *bool, current func(capture.ModeState) bool, set func(*capture.ModeController, bool) capture.ModeState) capture.ModeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := !current(s.modes.State())
	if enabled != nil {
		next = *enabled
	}
	st := set(s.modes, next)
	s.state.Modes = st
	return st
}

func (s *Session) send(a action) {
	select {
	case s.actions <- a:
	default:
		s.log.Warn("action dropped, queue full", observability.String("action", a.kind.String()))
	}
}
