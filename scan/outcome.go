// Package scan holds the value types exchanged between the capture engine,
// the session orchestrator and callers.
package scan

import (
	"image"
	"time"

	"github.com/wudi/scankit/coords"
)

// Status is the terminal status of one stage sequence.
type Status int

const (
	StatusSuccess Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusCancelled:
		return "cancelled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Method records what produced the captured image.
type Method int

const (
	MethodManual Method = iota
	MethodSmartCapture
	MethodAutoCrop
	MethodUploadedImage
	MethodStaticFile
)

func (m Method) String() string {
	switch m {
	case MethodManual:
		return "manual"
	case MethodSmartCapture:
		return "smart-capture"
	case MethodAutoCrop:
		return "auto-crop"
	case MethodUploadedImage:
		return "uploaded-image"
	case MethodStaticFile:
		return "static-file"
	default:
		return "unknown"
	}
}

// Outcome is the single result of a completed stage sequence. Outcomes are
// values: later stages produce a new Outcome instead of editing one that was
// already handed out.
type Outcome struct {
	ID        string
	SessionID string
	// Cycle is the 1-based loop iteration that produced the outcome.
	Cycle      int
	Status     Status
	Message    string
	Err        error
	Method     Method
	Original   image.Image
	Corrected  image.Image
	Boundary   *coords.Quad
	CapturedAt time.Time

	// Filled by post-capture extensions.
	Digest  string
	Preview image.Image
	Text    string
}

// Succeeded reports whether the outcome carries a usable capture.
func (o Outcome) Succeeded() bool { return o.Status == StatusSuccess }

// Image returns the corrected image when present, otherwise the original.
func (o Outcome) Image() image.Image {
	if o.Corrected != nil {
		return o.Corrected
	}
	return o.Original
}

// Cancelled builds a cancelled outcome.
func Cancelled(msg string) Outcome {
	return Outcome{Status: StatusCancelled, Message: msg}
}

// Failed builds a failed outcome carrying err.
func Failed(msg string, err error) Outcome {
	return Outcome{Status: StatusFailed, Message: msg, Err: err}
}
