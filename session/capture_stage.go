package session

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/wudi/scankit/capture"
	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/device"
	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/vision"
)

// captureResult is the response of one in-flight capture.
type captureResult struct {
	out scan.Outcome
	err error
}

// captureRequest describes what to capture. source is called on the
// capture goroutine; hint, when usable, supplies the boundary instead of a
// fresh detection.
type captureRequest struct {
	method scan.Method
	source func(context.Context) (image.Image, error)
	hint   vision.Result
	detect bool
}

// streamState tracks the analysis stream subscription of one capture stage.
type streamState struct {
	frames <-chan vision.Result
	cancel context.CancelFunc
}

func (st *streamState) stop() {
	if st.cancel != nil {
		st.cancel()
	}
	st.frames = nil
	st.cancel = nil
}

func (s *Session) runCapture(ctx context.Context, static image.Image, cycle int) stageEvent {
	if surface := s.surfaces[scan.StageCapturing]; surface != nil {
		if err := surface.Present(scan.StageCapturing, scan.Outcome{Cycle: cycle}); err != nil {
			return s.failed(err)
		}
		defer surface.Dismiss(scan.StageCapturing)
	}

	s.mu.Lock()
	s.verify.Reset()
	s.tracker.Reset()
	s.lastDetected = vision.Result{}
	s.mu.Unlock()

	var pending <-chan captureResult
	stream := &streamState{}
	defer stream.stop()

	if static != nil {
		pending = s.startCapture(ctx, captureRequest{
			method: scan.MethodStaticFile,
			source: stillSource(static),
			detect: true,
		})
	} else {
		if s.camera == nil {
			return s.failed(device.Wrap("open", device.ErrNotFound))
		}
		if err := s.ensureCamera(ctx); err != nil {
			return s.failed(err)
		}
		if err := s.reconcileStream(ctx, stream); err != nil {
			return s.failed(err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return cancelled("The scan was cancelled.")

		case res := <-pending:
			pending = nil
			if res.err != nil {
				return s.failed(res.err)
			}
			return succeeded(res.out)

		case <-s.wake:
			if err := s.reconcileStream(ctx, stream); err != nil {
				return s.failed(err)
			}

		case res, ok := <-stream.frames:
			if !ok {
				s.sessionLog.Debug("analysis stream closed")
				stream.stop()
				continue
			}
			req, fire := s.onFrame(res, pending == nil)
			if fire {
				pending = s.startCapture(ctx, req)
			}

		case a := <-s.actions:
			switch a.kind {
			case actionClose:
				// An in-flight capture is abandoned; its response is dropped.
				return cancelled("The scan was closed.")
			case actionManual:
				if pending != nil || s.camera == nil {
					continue
				}
				pending = s.startCapture(ctx, s.manualRequest())
			case actionUpload:
				if pending != nil {
					continue
				}
				data := a.data
				pending = s.startCapture(ctx, captureRequest{
					method: scan.MethodUploadedImage,
					source: func(context.Context) (image.Image, error) {
						img, _, err := imaging.Decode(data)
						return img, err
					},
					detect: true,
				})
			default:
				s.handleIdleAction(scan.StageCapturing, a)
			}
		}
	}
}

// onFrame feeds one analysis result to the quality tracker and, when idle
// is set, to the decision engine. It reports whether an automatic capture
// fired. While a capture is pending the counter and cooldown are left alone.
func (s *Session) onFrame(res vision.Result, idle bool) (captureRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastDetected = res
	modes := s.modes.State()
	if !modes.BoundsDetection {
		return captureRequest{}, false
	}
	if s.cfg.Capture.FrameVerification {
		if clarity, ok := res.Clarity(); ok {
			if img := res.Image(); img != nil {
				s.tracker.Observe(capture.FrameSample{FrameID: res.FrameID, Clarity: clarity, Image: img})
			}
		}
	}
	if !modes.Automatic() || !idle {
		return captureRequest{}, false
	}
	if !s.decision.OnDetection(len(res.Items), res.CrossVerified()) {
		return captureRequest{}, false
	}

	req := captureRequest{method: scan.MethodSmartCapture, hint: res}
	if modes.AutoCrop {
		req.method = scan.MethodAutoCrop
	}
	if clearest, ok := s.tracker.ClearestImage(); ok {
		if id, _ := s.tracker.ConfirmedFrameID(); id != res.FrameID {
			// The clearest frame predates this detection, so its boundary has
			// to be detected again.
			req.hint = vision.Result{}
			req.detect = true
		}
		req.source = stillSource(clearest)
	} else if img := res.Image(); img != nil {
		req.source = stillSource(img)
	} else {
		req.source = s.camera.FetchCurrentFrame
	}
	s.sessionLog.Debug("automatic capture fired",
		observability.Int64("frame", res.FrameID),
		observability.String("method", req.method.String()))
	return req, true
}

func (s *Session) manualRequest() captureRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return captureRequest{
		method: scan.MethodManual,
		source: s.camera.FetchCurrentFrame,
		detect: s.modes.State().BoundsDetection,
	}
}

// reconcileStream subscribes to or drops the analysis stream so that it is
// active exactly while bounds detection is on.
func (s *Session) reconcileStream(ctx context.Context, st *streamState) error {
	s.mu.Lock()
	want := s.modes.State().BoundsDetection
	if !want {
		s.tracker.Reset()
	}
	s.mu.Unlock()

	switch {
	case want && st.frames == nil:
		sctx, cancel := context.WithCancel(ctx)
		frames, err := s.engine.Stream(sctx)
		if err != nil {
			cancel()
			return vision.Wrap("stream", err)
		}
		st.frames, st.cancel = frames, cancel
		s.sessionLog.Debug("analysis stream started")
	case !want && st.frames != nil:
		st.stop()
		s.sessionLog.Debug("analysis stream stopped")
	}
	return nil
}

// startCapture runs req on its own goroutine. The returned channel yields
// exactly one result.
func (s *Session) startCapture(ctx context.Context, req captureRequest) <-chan captureResult {
	done := make(chan captureResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- captureResult{err: vision.Wrap("capture", fmt.Errorf("panic: %v", r))}
			}
		}()
		out, err := s.performCapture(ctx, req)
		done <- captureResult{out: out, err: err}
	}()
	return done
}

func (s *Session) performCapture(ctx context.Context, req captureRequest) (scan.Outcome, error) {
	ctx, span := s.tracer.StartSpan(ctx, observability.MetricCaptureTime)
	defer span.Finish()
	span.SetTag("method", req.method.String())
	start := s.clock.Now()

	img, err := req.source(ctx)
	if err != nil {
		span.SetError(err)
		if req.method == scan.MethodUploadedImage {
			return scan.Outcome{}, vision.Wrap("decode", err)
		}
		return scan.Outcome{}, device.Wrap("frame", err)
	}
	if img == nil {
		return scan.Outcome{}, device.Wrap("frame", errors.New("camera returned no frame"))
	}
	if s.cfg.Capture.Continuous && s.camera != nil && req.method != scan.MethodStaticFile && req.method != scan.MethodUploadedImage {
		if err := s.camera.Pause(); err != nil {
			return scan.Outcome{}, device.Wrap("pause", err)
		}
		defer func() {
			if err := s.camera.Resume(); err != nil {
				s.sessionLog.Warn("camera resume failed", observability.Error("err", err))
			}
		}()
	}
	bounds := img.Bounds()

	boundary := coords.FullFrame(bounds.Dx(), bounds.Dy())
	normalize := true
	switch {
	case req.hint.Usable():
		boundary = s.fitBoundary(req.hint, img)
	case req.detect:
		res, err := s.detect(ctx, img)
		if err != nil {
			span.SetError(err)
			return scan.Outcome{}, err
		}
		boundary = s.fitBoundary(res, img)
	default:
		normalize = false
	}

	out := scan.Outcome{
		ID:         uuid.NewString(),
		Status:     scan.StatusSuccess,
		Method:     req.method,
		Original:   img,
		Boundary:   &boundary,
		CapturedAt: s.clock.Now(),
	}
	if normalize {
		corrected, err := s.normalize(ctx, img, boundary)
		if err != nil {
			span.SetError(err)
			return scan.Outcome{}, err
		}
		out.Corrected = corrected
	}
	s.sessionLog.Debug("capture finished",
		observability.String("method", req.method.String()),
		observability.Duration(observability.MetricCaptureTime, s.clock.Now().Sub(start)))
	return out, nil
}

func (s *Session) detect(ctx context.Context, img image.Image) (vision.Result, error) {
	ctx, span := s.tracer.StartSpan(ctx, observability.MetricDetectTime)
	defer span.Finish()
	res, err := s.engine.DetectBoundaries(ctx, img)
	if err != nil {
		span.SetError(err)
		return vision.Result{}, vision.Wrap("detect", err)
	}
	return res, nil
}

func (s *Session) normalize(ctx context.Context, img image.Image, q coords.Quad) (image.Image, error) {
	ctx, span := s.tracer.StartSpan(ctx, observability.MetricNormalizeTime)
	defer span.Finish()
	out, err := s.engine.Normalize(ctx, img, q)
	if err != nil {
		span.SetError(err)
		return nil, vision.Wrap("normalize", err)
	}
	if out == nil {
		return nil, &vision.EngineError{Op: "normalize"}
	}
	return out, nil
}

// fitBoundary maps the boundary of res onto img, which may have been
// captured at a different resolution than the analysed frame.
func (s *Session) fitBoundary(res vision.Result, img image.Image) coords.Quad {
	b := img.Bounds()
	q, ok := res.Boundary()
	if !ok || !res.Usable() {
		return coords.FullFrame(b.Dx(), b.Dy())
	}
	if res.Width > 0 && res.Height > 0 && (res.Width != b.Dx() || res.Height != b.Dy()) {
		q = q.Rescale(res.Width, res.Height, b.Dx(), b.Dy())
	}
	return q
}

// handleIdleAction deals with actions that do not resolve the current stage.
func (s *Session) handleIdleAction(stage scan.Stage, a action) {
	if a.kind == actionViewport {
		if s.onViewport != nil {
			s.onViewport()
		}
		return
	}
	s.sessionLog.Debug("action ignored", observability.String("stage", stage.String()), observability.String("action", a.kind.String()))
}

func stillSource(img image.Image) func(context.Context) (image.Image, error) {
	return func(context.Context) (image.Image, error) { return img, nil }
}
