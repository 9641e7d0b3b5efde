package capture

import (
	"image"
	"time"
)

const (
	DefaultHistorySize      = 50
	DefaultStaleTimeout     = 3000 * time.Millisecond
	DefaultMinStabilization = 1000 * time.Millisecond
	// stableStreak is the number of consecutive non-improving frames needed
	// after a peak before it is confirmed.
	stableStreak = 2
)

// FrameSample is one analysed camera frame. The image is the frame the
// clarity score was computed on.
type FrameSample struct {
	FrameID int64
	Clarity float64
	Image   image.Image
}

// QualityConfig tunes the tracker. Zero values select the defaults.
type QualityConfig struct {
	HistorySize      int
	StaleTimeout     time.Duration
	MinStabilization time.Duration
}

// ClarityWindow is the tracker's state, exported so callers can inspect it.
type ClarityWindow struct {
	History            []float64
	MaxClarity         float64
	MaxClarityAt       time.Time
	MaxFrameID         int64
	NonImprovingStreak int
	ConfirmedFrameID   int64
	Confirmed          bool
}

// QualityTracker picks the sharpest recent frame once clarity has stopped
// improving, so a brief spike from camera shake is not captured.
type QualityTracker struct {
	cfg   QualityConfig
	clock Clock

	win       ClarityWindow
	maxImage  image.Image
	clearest  image.Image
	onConfirm func(FrameSample)
}

func NewQualityTracker(cfg QualityConfig, clock Clock) *QualityTracker {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = DefaultStaleTimeout
	}
	if cfg.MinStabilization <= 0 {
		cfg.MinStabilization = DefaultMinStabilization
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &QualityTracker{cfg: cfg, clock: clock}
}

// OnConfirm registers a callback fired each time a new clearest frame is
// confirmed.
func (t *QualityTracker) OnConfirm(fn func(FrameSample)) { t.onConfirm = fn }

// Observe feeds one frame.
func (t *QualityTracker) Observe(s FrameSample) {
	now := t.clock.Now()
	w := &t.win

	if now.Sub(w.MaxClarityAt) > t.cfg.StaleTimeout {
		w.MaxClarity = 0
	}

	if s.Clarity > w.MaxClarity {
		w.MaxClarity = s.Clarity
		w.MaxFrameID = s.FrameID
		w.MaxClarityAt = now
		w.NonImprovingStreak = 0
		t.maxImage = s.Image
	} else {
		// Compared with the previous frame, not the running max.
		if n := len(w.History); n == 0 || s.Clarity <= w.History[n-1] {
			w.NonImprovingStreak++
		} else {
			w.NonImprovingStreak = 0
		}
	}

	if !w.MaxClarityAt.IsZero() &&
		(!w.Confirmed || w.ConfirmedFrameID != w.MaxFrameID) &&
		now.Sub(w.MaxClarityAt) >= t.cfg.MinStabilization &&
		w.NonImprovingStreak >= stableStreak {
		w.ConfirmedFrameID = w.MaxFrameID
		w.Confirmed = true
		t.clearest = t.maxImage
		if t.onConfirm != nil {
			t.onConfirm(FrameSample{FrameID: w.MaxFrameID, Clarity: w.MaxClarity, Image: t.maxImage})
		}
	}

	w.History = append(w.History, s.Clarity)
	if over := len(w.History) - t.cfg.HistorySize; over > 0 {
		w.History = append(w.History[:0], w.History[over:]...)
	}
}

// ClearestImage returns the image of the confirmed clearest frame.
func (t *QualityTracker) ClearestImage() (image.Image, bool) {
	if !t.win.Confirmed || t.clearest == nil {
		return nil, false
	}
	return t.clearest, true
}

// ConfirmedFrameID returns the id of the confirmed clearest frame.
func (t *QualityTracker) ConfirmedFrameID() (int64, bool) {
	return t.win.ConfirmedFrameID, t.win.Confirmed
}

// Window returns a copy of the tracker state.
func (t *QualityTracker) Window() ClarityWindow {
	w := t.win
	w.History = append([]float64(nil), t.win.History...)
	return w
}

// Reset drops all history, e.g. when a new capture cycle starts.
func (t *QualityTracker) Reset() {
	t.win = ClarityWindow{}
	t.maxImage = nil
	t.clearest = nil
}
