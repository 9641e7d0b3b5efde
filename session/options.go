package session

import (
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/extensions"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/vision"
)

// StageSurface is the UI of one stage. Present shows the outcome the stage
// works on (empty for the capture stage); the user's answer comes back
// through the Session action hooks.
type StageSurface interface {
	Present(stage scan.Stage, out scan.Outcome) error
	Dismiss(stage scan.Stage)
}

// Option configures a Session.
type Option func(*Session)

func WithCamera(c device.Camera) Option { return func(s *Session) { s.camera = c } }

func WithEngine(e vision.Engine) Option { return func(s *Session) { s.engine = e } }

// WithSurface attaches the UI for stage. Correction and result surfaces are
// required when the configuration shows those stages; the capture surface is
// optional.
func WithSurface(stage scan.Stage, surface StageSurface) Option {
	return func(s *Session) { s.surfaces[stage] = surface }
}

func WithLogger(l observability.Logger) Option { return func(s *Session) { s.log = l } }

func WithTracer(t observability.Tracer) Option { return func(s *Session) { s.tracer = t } }

func WithClock(c capture.Clock) Option { return func(s *Session) { s.clock = c } }

// WithExtensions runs hub on every successful outcome before review.
func WithExtensions(hub *extensions.Hub) Option { return func(s *Session) { s.hub = hub } }

// OnCycleCompleted is called after every successful cycle in continuous
// mode. It runs on the session goroutine and must not block.
func OnCycleCompleted(fn func(scan.Outcome)) Option { return func(s *Session) { s.onCycle = fn } }

// OnViewportChanged receives debounced viewport notifications.
func OnViewportChanged(fn func()) Option { return func(s *Session) { s.onViewport = fn } }
