package capture

import (
	"image"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock                 { return &fakeClock{now: time.Unix(1700000000, 0)} }
func (c *fakeClock) Now() time.Time            { return c.now }
func (c *fakeClock) Advance(d time.Duration)   { c.now = c.now.Add(d) }
func (c *fakeClock) Set(base time.Time, ms int) { c.now = base.Add(time.Duration(ms) * time.Millisecond) }

func TestModeInvariantHoldsForAllReachableStates(t *testing.T) {
	for _, showCorrection := range []bool{true, false} {
		type op func(*ModeController) ModeState
		ops := []op{
			func(c *ModeController) ModeState { return c.SetBoundsDetection(true) },
			func(c *ModeController) ModeState { return c.SetBoundsDetection(false) },
			func(c *ModeController) ModeState { return c.SetSmartCapture(true) },
			func(c *ModeController) ModeState { return c.SetSmartCapture(false) },
			func(c *ModeController) ModeState { return c.SetAutoCrop(true) },
			func(c *ModeController) ModeState { return c.SetAutoCrop(false) },
		}
		seen := map[ModeState]bool{}
		queue := []ModeState{{}}
		for len(queue) > 0 {
			s := queue[0]
			queue = queue[1:]
			if seen[s] {
				continue
			}
			seen[s] = true
			if !s.Valid() {
				t.Fatalf("showCorrection=%v: reached invalid state %+v", showCorrection, s)
			}
			for _, o := range ops {
				c := &ModeController{state: s, showCorrection: showCorrection}
				queue = append(queue, o(c))
			}
		}
		if len(seen) != 4 {
			t.Fatalf("showCorrection=%v: expected 4 reachable states, got %d", showCorrection, len(seen))
		}
	}
}

func TestModeCascades(t *testing.T) {
	c := NewModeController(ModeState{}, true, nil)
	if s := c.SetAutoCrop(true); s != (ModeState{true, true, true}) {
		t.Fatalf("enabling auto-crop should enable everything, got %+v", s)
	}
	if s := c.SetAutoCrop(false); s != (ModeState{true, true, false}) {
		t.Fatalf("with correction shown, disabling auto-crop keeps smart capture, got %+v", s)
	}
	if s := c.SetBoundsDetection(false); s != (ModeState{}) {
		t.Fatalf("disabling bounds detection should disable everything, got %+v", s)
	}

	c = NewModeController(ModeState{}, false, nil)
	c.SetAutoCrop(true)
	if s := c.SetAutoCrop(false); s != (ModeState{true, false, false}) {
		t.Fatalf("without correction, disabling auto-crop also disables smart capture, got %+v", s)
	}
	c.SetAutoCrop(true)
	if s := c.SetSmartCapture(false); s != (ModeState{true, false, false}) {
		t.Fatalf("disabling smart capture should disable auto-crop, got %+v", s)
	}
}

func TestModeDefaultsAreNormalized(t *testing.T) {
	c := NewModeController(ModeState{AutoCrop: true}, true, nil)
	if s := c.State(); s != (ModeState{true, true, true}) {
		t.Fatalf("inconsistent defaults should normalize upward, got %+v", s)
	}
	c = NewModeController(ModeState{SmartCapture: true}, false, nil)
	if s := c.State(); s != (ModeState{true, true, false}) {
		t.Fatalf("smart capture default should survive without a correction stage, got %+v", s)
	}
}

func TestModeSideEffects(t *testing.T) {
	verify := &VerificationState{CrossVerified: 3}
	c := NewModeController(ModeState{}, true, verify)
	var streamEvents []bool
	c.OnBoundsDetectionChanged(func(on bool) { streamEvents = append(streamEvents, on) })

	c.SetSmartCapture(true)
	if verify.CrossVerified != 0 {
		t.Fatalf("toggle should reset counter")
	}
	verify.CrossVerified = 2
	c.SetSmartCapture(true)
	if verify.CrossVerified != 2 {
		t.Fatalf("no-op toggle should leave counter alone")
	}
	c.SetAutoCrop(true)
	c.SetBoundsDetection(false)
	if len(streamEvents) != 2 || !streamEvents[0] || streamEvents[1] {
		t.Fatalf("unexpected stream events %v", streamEvents)
	}
}

func TestQualityTrackerConfirmsPeakAfterStabilization(t *testing.T) {
	clock := newFakeClock()
	base := clock.Now()
	tr := NewQualityTracker(QualityConfig{}, clock)
	confirms := 0
	tr.OnConfirm(func(FrameSample) { confirms++ })
	peak := image.NewGray(image.Rect(0, 0, 1, 1))

	steps := []struct {
		ms      int
		id      int64
		clarity float64
		img     image.Image
	}{
		{0, 1, 10, nil},
		{100, 2, 20, nil},
		{200, 3, 30, peak},
		{300, 4, 25, nil},
		{400, 5, 25, nil},
	}
	for _, s := range steps {
		clock.Set(base, s.ms)
		tr.Observe(FrameSample{FrameID: s.id, Clarity: s.clarity, Image: s.img})
	}
	if _, ok := tr.ConfirmedFrameID(); ok {
		t.Fatalf("peak must not be confirmed before the stabilization window")
	}
	if _, ok := tr.ClearestImage(); ok {
		t.Fatalf("no clearest image expected yet")
	}

	clock.Set(base, 1300)
	tr.Observe(FrameSample{FrameID: 6, Clarity: 24})
	clock.Set(base, 1400)
	tr.Observe(FrameSample{FrameID: 7, Clarity: 24})

	id, ok := tr.ConfirmedFrameID()
	if !ok || id != 3 {
		t.Fatalf("expected frame 3 confirmed, got %d (%v)", id, ok)
	}
	if img, ok := tr.ClearestImage(); !ok || img != peak {
		t.Fatalf("expected peak image")
	}
	if confirms != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", confirms)
	}
}

func TestQualityTrackerStreakComparesWithPreviousFrame(t *testing.T) {
	clock := newFakeClock()
	tr := NewQualityTracker(QualityConfig{}, clock)
	tr.Observe(FrameSample{FrameID: 1, Clarity: 50})
	tr.Observe(FrameSample{FrameID: 2, Clarity: 10})
	tr.Observe(FrameSample{FrameID: 3, Clarity: 20})
	if w := tr.Window(); w.NonImprovingStreak != 0 {
		t.Fatalf("rising below the max should reset the streak, got %d", w.NonImprovingStreak)
	}
	tr.Observe(FrameSample{FrameID: 4, Clarity: 20})
	if w := tr.Window(); w.NonImprovingStreak != 1 {
		t.Fatalf("equal clarity is not an improvement, got %d", w.NonImprovingStreak)
	}
}

func TestQualityTrackerStaleMaxIsReset(t *testing.T) {
	clock := newFakeClock()
	tr := NewQualityTracker(QualityConfig{}, clock)
	tr.Observe(FrameSample{FrameID: 1, Clarity: 90})
	clock.Advance(3001 * time.Millisecond)
	tr.Observe(FrameSample{FrameID: 2, Clarity: 5})
	w := tr.Window()
	if w.MaxFrameID != 2 || w.MaxClarity != 5 {
		t.Fatalf("stale max should be replaced, got %+v", w)
	}
}

func TestQualityTrackerHistoryIsBounded(t *testing.T) {
	tr := NewQualityTracker(QualityConfig{}, newFakeClock())
	for i := 0; i < 120; i++ {
		tr.Observe(FrameSample{FrameID: int64(i), Clarity: float64(i)})
		if n := len(tr.Window().History); n > DefaultHistorySize {
			t.Fatalf("history grew to %d", n)
		}
	}
	h := tr.Window().History
	if h[0] != 70 || h[len(h)-1] != 119 {
		t.Fatalf("expected FIFO eviction, got first=%v last=%v", h[0], h[len(h)-1])
	}
	tr.Reset()
	if len(tr.Window().History) != 0 {
		t.Fatalf("reset should clear history")
	}
}

func TestDecisionEngineRequiresConsecutiveVerifiedFrames(t *testing.T) {
	fires := 0
	state := &VerificationState{}
	e := NewDecisionEngine(DecisionConfig{RequiredVerifiedFrames: 2}, state, newFakeClock(), func() { fires++ })

	e.OnDetection(2, true)
	if !e.OnDetection(2, true) || fires != 1 {
		t.Fatalf("[true true] should trigger once, fires=%d", fires)
	}
	if state.CrossVerified != 0 {
		t.Fatalf("counter must reset after a trigger")
	}

	fires = 0
	e.OnDetection(2, true)
	e.OnDetection(2, false)
	if state.CrossVerified != 0 {
		t.Fatalf("unverified detection should reset the counter")
	}
	if e.OnDetection(2, true) || fires != 0 {
		t.Fatalf("a single verified frame after a reset must not trigger")
	}
	if !e.OnDetection(2, true) || fires != 1 {
		t.Fatalf("second consecutive verified frame should trigger")
	}
}

func TestDecisionEngineResetsWithoutBoundary(t *testing.T) {
	state := &VerificationState{}
	e := NewDecisionEngine(DecisionConfig{RequiredVerifiedFrames: 3}, state, newFakeClock(), nil)
	e.OnDetection(3, true)
	e.OnDetection(3, true)
	e.OnDetection(1, true)
	if state.CrossVerified != 0 {
		t.Fatalf("single-item detection should reset the counter, got %d", state.CrossVerified)
	}
}

func TestDecisionEngineCooldownInContinuousMode(t *testing.T) {
	for _, tc := range []struct {
		gap  time.Duration
		want int
	}{
		{500 * time.Millisecond, 1},
		{2500 * time.Millisecond, 2},
	} {
		clock := newFakeClock()
		fires := 0
		e := NewDecisionEngine(DecisionConfig{RequiredVerifiedFrames: 2, Continuous: true}, nil, clock, func() { fires++ })
		burst := func() {
			e.OnDetection(2, true)
			e.OnDetection(2, true)
		}
		burst()
		clock.Advance(tc.gap)
		burst()
		if fires != tc.want {
			t.Fatalf("gap %v: expected %d captures, got %d", tc.gap, tc.want, fires)
		}
	}
}

func TestDecisionEngineClampsRequiredFrames(t *testing.T) {
	if e := NewDecisionEngine(DecisionConfig{RequiredVerifiedFrames: 9}, nil, nil, nil); e.cfg.RequiredVerifiedFrames != 5 {
		t.Fatalf("expected clamp to 5, got %d", e.cfg.RequiredVerifiedFrames)
	}
	if e := NewDecisionEngine(DecisionConfig{RequiredVerifiedFrames: -1}, nil, nil, nil); e.cfg.RequiredVerifiedFrames != 1 {
		t.Fatalf("expected clamp to 1, got %d", e.cfg.RequiredVerifiedFrames)
	}
}
