// Package session drives a document scan through its stages: capture,
// optional boundary correction and optional result review. It owns the
// automatic-capture engine for the live camera stream and implements the
// continuous variant that keeps scanning until stopped.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/config"
	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/extensions"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/vision"
)

const (
	actionQueueSize = 16
	stoppedMessage  = "Continuous scanning was stopped."
)

// Session is a reusable scanner. Start runs one top-level session at a time;
// the action hooks may be called from any goroutine.
type Session struct {
	cfg        *config.Config
	camera     device.Camera
	engine     vision.Engine
	surfaces   map[scan.Stage]StageSurface
	log        observability.Logger
	tracer     observability.Tracer
	clock      capture.Clock
	hub        *extensions.Hub
	onCycle    func(scan.Outcome)
	onViewport func()

	running  atomic.Bool
	stop     atomic.Bool
	disposed atomic.Bool
	actions  chan action
	wake     chan struct{}

	mu           sync.Mutex
	state        State
	verify       capture.VerificationState
	modes        *capture.ModeController
	tracker      *capture.QualityTracker
	decision     *capture.DecisionEngine
	cameraOpen   bool
	cancel       context.CancelFunc
	viewport     *time.Timer
	sessionLog   observability.Logger
	lastDetected vision.Result
}

// New builds a session from cfg (nil selects config.Default()).
func New(cfg *config.Config, opts ...Option) *Session {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Session{
		cfg:      cfg,
		surfaces: make(map[scan.Stage]StageSurface),
		log:      observability.NopLogger{},
		tracer:   observability.NopTracer(),
		actions:  make(chan action, actionQueueSize),
		wake:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = capture.SystemClock()
	}
	s.sessionLog = s.log

	s.modes = capture.NewModeController(cfg.Capture.Modes(), cfg.Stages.ShowCorrection, &s.verify)
	s.modes.OnBoundsDetectionChanged(func(bool) { s.poke() })
	s.tracker = capture.NewQualityTracker(capture.QualityConfig{
		StaleTimeout:     cfg.Capture.StaleTimeout(),
		MinStabilization: cfg.Capture.MinStabilization(),
	}, s.clock)
	s.tracker.OnConfirm(func(f capture.FrameSample) {
		s.sessionLog.Debug("clearest frame confirmed", observability.Int64("frame", f.FrameID), observability.Float64("clarity", f.Clarity))
	})
	s.decision = capture.NewDecisionEngine(capture.DecisionConfig{
		RequiredVerifiedFrames: cfg.Capture.RequiredVerifiedFrames,
		Cooldown:               cfg.Capture.Cooldown(),
		Continuous:             cfg.Capture.Continuous,
	}, &s.verify, s.clock, func() {
		s.sessionLog.Debug("auto capture triggered")
	})
	s.state.Continuous = cfg.Capture.Continuous
	s.state.Modes = s.modes.State()
	return s
}

// Start runs a session until it completes, is cancelled or fails, and
// returns its outcome. A non-nil static image is scanned instead of the
// camera for the first capture. Errors are only returned for configuration
// problems and re-entrant calls; everything else is reported through the
// outcome status.
func (s *Session) Start(ctx context.Context, static image.Image) (scan.Outcome, error) {
	if s.disposed.Load() {
		return scan.Outcome{}, ErrDisposed
	}
	if !s.running.CompareAndSwap(false, true) {
		return scan.Outcome{}, ErrAlreadyInProgress
	}
	defer s.running.Store(false)
	if err := s.validate(static); err != nil {
		return scan.Outcome{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.stop.Store(false)
	s.drainActions()

	id := uuid.NewString()
	s.mu.Lock()
	s.cancel = cancel
	s.state.SessionID = id
	s.state.Stage = scan.StageIdle
	s.state.Continuous = s.cfg.Capture.Continuous
	s.sessionLog = s.log.With(observability.String("session", id))
	s.mu.Unlock()

	s.sessionLog.Info("scan session started",
		observability.Bool("continuous", s.cfg.Capture.Continuous),
		observability.Bool("static", static != nil))

	out := s.loop(ctx, static)
	out.SessionID = id

	if err := s.releaseCamera(); err != nil {
		s.sessionLog.Warn("camera close failed", observability.Error("err", err))
	}
	s.mu.Lock()
	s.cancel = nil
	switch out.Status {
	case scan.StatusSuccess:
		s.state.Stage = scan.StageCompleted
	case scan.StatusCancelled:
		s.state.Stage = scan.StageCancelled
	default:
		s.state.Stage = scan.StageFailed
	}
	s.mu.Unlock()

	s.sessionLog.Info("scan session finished",
		observability.String("status", out.Status.String()),
		observability.String("message", out.Message))
	return out, nil
}

// Stop ends continuous scanning. The cycle in flight runs to completion and
// the loop ends at the top of the next iteration. Use Close to abandon the
// current cycle.
func (s *Session) Stop() {
	s.stop.Store(true)
	s.poke()
}

// Dispose cancels any running session and releases the camera. The session
// cannot be started again.
func (s *Session) Dispose() error {
	s.disposed.Store(true)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	if s.viewport != nil {
		s.viewport.Stop()
	}
	s.mu.Unlock()
	return s.releaseCamera()
}

// State returns a snapshot of the shared session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.Modes = s.modes.State()
	st.Verification = s.verify
	if s.state.Last != nil {
		last := *s.state.Last
		st.Last = &last
	}
	return st
}

// LastOutcome returns the most recent successful outcome.
func (s *Session) LastOutcome() (scan.Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Last == nil {
		return scan.Outcome{}, false
	}
	return *s.state.Last, true
}

// Running reports whether Start is in flight.
func (s *Session) Running() bool { return s.running.Load() }

func (s *Session) validate(static image.Image) error {
	if err := s.cfg.Validate(); err != nil {
		return &ConfigurationError{Reason: "config", Err: err}
	}
	if s.engine == nil {
		return &ConfigurationError{Reason: "a vision engine is required"}
	}
	if s.camera == nil && (static == nil || s.cfg.Capture.Continuous) {
		return &ConfigurationError{Reason: "a camera is required unless a single static image is scanned"}
	}
	if s.cfg.Stages.ShowCorrection && s.surfaces[scan.StageCorrecting] == nil {
		return &ConfigurationError{Reason: "correction stage is enabled but has no surface"}
	}
	if s.cfg.Stages.ShowResult && s.surfaces[scan.StageReviewing] == nil {
		return &ConfigurationError{Reason: "result stage is enabled but has no surface"}
	}
	return nil
}

// loop runs cycles until one ends the session.
func (s *Session) loop(ctx context.Context, static image.Image) scan.Outcome {
	for cycle := 1; ; cycle++ {
		if s.stop.Load() {
			return scan.Cancelled(stoppedMessage)
		}
		out := s.cycle(ctx, static, cycle)
		static = nil
		if out.Status != scan.StatusSuccess || !s.cfg.Capture.Continuous {
			return out
		}
		if s.onCycle != nil {
			s.onCycle(out)
		}
	}
}

// cycle runs the stage sequence once, following retakes, and returns the
// cycle's final outcome.
func (s *Session) cycle(ctx context.Context, static image.Image, cycle int) scan.Outcome {
	for {
		ev := s.enterStage(ctx, scan.StageCapturing, func(ctx context.Context) stageEvent {
			return s.runCapture(ctx, static, cycle)
		})
		// A retake always goes back to the live camera.
		static = nil
		if ev.kind != eventSuccess {
			return s.finishCycle(ev.outcome, cycle)
		}
		out := ev.outcome

		if s.cfg.Stages.ShowCorrection && out.Method != scan.MethodAutoCrop {
			ev = s.enterStage(ctx, scan.StageCorrecting, func(ctx context.Context) stageEvent {
				return s.runCorrection(ctx, out)
			})
			if ev.kind == eventRetake {
				continue
			}
			if ev.kind != eventSuccess {
				return s.finishCycle(ev.outcome, cycle)
			}
			out = ev.outcome
		}

		enriched, err := s.enrich(ctx, out)
		if err != nil && ctx.Err() != nil {
			return s.finishCycle(scan.Cancelled("The scan was cancelled."), cycle)
		}
		if err != nil {
			s.sessionLog.Error("post-capture processing failed", observability.Error("err", err))
			return s.finishCycle(scan.Failed("The document could not be processed.", vision.Wrap("extension", err)), cycle)
		}
		out = enriched

		if s.cfg.Stages.ShowResult {
			ev = s.enterStage(ctx, scan.StageReviewing, func(ctx context.Context) stageEvent {
				return s.runReview(ctx, out)
			})
			if ev.kind == eventRetake {
				continue
			}
			if ev.kind != eventSuccess {
				return s.finishCycle(ev.outcome, cycle)
			}
			out = ev.outcome
		}

		out = s.finishCycle(out, cycle)
		s.mu.Lock()
		s.state.CompletedCount++
		completed := s.state.CompletedCount
		last := out
		s.state.Last = &last
		s.mu.Unlock()
		s.sessionLog.Info("scan cycle completed",
			observability.Int("cycle", cycle),
			observability.String("method", out.Method.String()),
			observability.Int(observability.MetricCyclesCompleted, completed))
		return out
	}
}

func (s *Session) enrich(ctx context.Context, out scan.Outcome) (scan.Outcome, error) {
	ctx, span := s.tracer.StartSpan(ctx, observability.MetricExtensionTime)
	defer span.Finish()
	enriched, err := s.hub.Run(ctx, out)
	if err != nil {
		span.SetError(err)
	}
	return enriched, err
}

func (s *Session) finishCycle(out scan.Outcome, cycle int) scan.Outcome {
	out.Cycle = cycle
	s.mu.Lock()
	out.SessionID = s.state.SessionID
	s.mu.Unlock()
	return out
}

// enterStage runs fn as the single producer of the stage's terminal event.
func (s *Session) enterStage(ctx context.Context, stage scan.Stage, fn func(context.Context) stageEvent) stageEvent {
	s.mu.Lock()
	s.state.Stage = stage
	s.mu.Unlock()
	s.sessionLog.Debug("stage entered", observability.String("stage", stage.String()))

	events := make(chan stageEvent, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				events <- s.failed(fmt.Errorf("%s stage panic: %v", stage, r))
			}
		}()
		events <- fn(ctx)
	}()
	ev := <-events
	s.sessionLog.Debug("stage exited", observability.String("stage", stage.String()), observability.String("event", ev.kind.String()))
	return ev
}

func (s *Session) failed(err error) stageEvent {
	s.sessionLog.Error("scan failed", observability.Error("err", err))
	return stageEvent{kind: eventFailed, outcome: scan.Failed(failureMessage(err), err)}
}

func (s *Session) ensureCamera(ctx context.Context) error {
	s.mu.Lock()
	open := s.cameraOpen
	s.mu.Unlock()
	if open {
		return nil
	}
	if id := s.cfg.Camera.DeviceID; id != "" {
		if err := s.camera.SelectDevice(ctx, id); err != nil {
			return device.Wrap("select", err)
		}
	}
	if w, h := s.cfg.Camera.Width, s.cfg.Camera.Height; w > 0 && h > 0 {
		if err := s.camera.SetResolution(ctx, w, h); err != nil {
			return device.Wrap("resolution", err)
		}
	}
	if err := s.camera.Open(ctx); err != nil {
		return device.Wrap("open", err)
	}
	s.mu.Lock()
	s.cameraOpen = true
	s.mu.Unlock()
	return nil
}

func (s *Session) releaseCamera() error {
	s.mu.Lock()
	open := s.cameraOpen
	s.cameraOpen = false
	s.mu.Unlock()
	if !open || s.camera == nil {
		return nil
	}
	return device.Wrap("close", s.camera.Close())
}

func (s *Session) drainActions() {
	for {
		select {
		case <-s.actions:
		default:
			return
		}
	}
}

func (s *Session) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
