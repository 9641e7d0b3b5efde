package session

import (
	"context"
	"fmt"

	"github.com/wudi/scankit/coords"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/scan"
	"github.com/wudi/scankit/vision"
)

// runCorrection shows the captured boundary for adjustment. Accepting with a
// changed boundary re-normalizes the original image into a new outcome.
func (s *Session) runCorrection(ctx context.Context, out scan.Outcome) stageEvent {
	surface := s.surfaces[scan.StageCorrecting]
	if err := surface.Present(scan.StageCorrecting, out); err != nil {
		return s.failed(fmt.Errorf("present correction: %w", err))
	}
	defer surface.Dismiss(scan.StageCorrecting)

	var pending <-chan captureResult
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

		case a := <-s.actions:
			switch a.kind {
			case actionClose:
				return cancelled("The scan was closed.")
			case actionRetake:
				return retake()
			case actionAccept:
				if pending != nil {
					continue
				}
				if a.boundary == nil || (out.Boundary != nil && *a.boundary == *out.Boundary) {
					return succeeded(out)
				}
				if !a.boundary.Convex() {
					s.sessionLog.Warn("adjusted boundary rejected", observability.String("reason", "not convex"))
					continue
				}
				pending = s.startCorrection(ctx, out, *a.boundary)
			default:
				s.handleIdleAction(scan.StageCorrecting, a)
			}
		}
	}
}

func (s *Session) startCorrection(ctx context.Context, out scan.Outcome, q coords.Quad) <-chan captureResult {
	done := make(chan captureResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- captureResult{err: vision.Wrap("normalize", fmt.Errorf("panic: %v", r))}
			}
		}()
		corrected, err := s.normalize(ctx, out.Original, q)
		if err != nil {
			done <- captureResult{err: err}
			return
		}
		next := out
		next.Boundary = &q
		next.Corrected = corrected
		done <- captureResult{out: next}
	}()
	return done
}

// runReview shows the finished outcome until the user is done with it.
func (s *Session) runReview(ctx context.Context, out scan.Outcome) stageEvent {
	surface := s.surfaces[scan.StageReviewing]
	if err := surface.Present(scan.StageReviewing, out); err != nil {
		return s.failed(fmt.Errorf("present review: %w", err))
	}
	defer surface.Dismiss(scan.StageReviewing)

	for {
		select {
		case <-ctx.Done():
			return cancelled("The scan was cancelled.")
		case a := <-s.actions:
			switch a.kind {
			case actionClose:
				return cancelled("The scan was closed.")
			case actionRetake:
				return retake()
			case actionDone:
				return succeeded(out)
			default:
				s.handleIdleAction(scan.StageReviewing, a)
			}
		}
	}
}
