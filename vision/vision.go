// Package vision defines the contract of the external vision engine that
// finds document boundaries in camera frames and normalizes a frame to a
// flat, perspective-corrected page. The interfaces are small so engines can
// be backed by native libraries, WASM modules or remote services.
package vision

import (
	"context"
	"image"

	"github.com/wudi/scankit/coords"
)

// ItemKind identifies what a detection item carries.
type ItemKind int

const (
	ItemBoundary ItemKind = iota
	ItemClarity
	ItemOriginalImage
)

// Item is one entry of a detection result.
type Item struct {
	Kind     ItemKind
	Boundary coords.Quad
	// CrossVerified is set on boundary items that agree with the boundary
	// found in preceding frames.
	CrossVerified bool
	Clarity       float64
	Image         image.Image
}

// Result is the payload of one boundary detection. Fewer than two items
// means no usable boundary was found and full-frame bounds should be used.
type Result struct {
	FrameID int64
	// Width and Height are the dimensions of the analysed frame; boundaries
	// are expressed in that coordinate space.
	Width, Height int
	Items         []Item
}

// Boundary returns the first boundary item.
func (r Result) Boundary() (coords.Quad, bool) {
	for _, it := range r.Items {
		if it.Kind == ItemBoundary {
			return it.Boundary, true
		}
	}
	return coords.Quad{}, false
}

// CrossVerified reports whether the boundary agrees across frames.
func (r Result) CrossVerified() bool {
	for _, it := range r.Items {
		if it.Kind == ItemBoundary && it.CrossVerified {
			return true
		}
	}
	return false
}

// Clarity returns the frame clarity score, if reported.
func (r Result) Clarity() (float64, bool) {
	for _, it := range r.Items {
		if it.Kind == ItemClarity {
			return it.Clarity, true
		}
	}
	return 0, false
}

// Image returns the analysed frame, if the engine attached it.
func (r Result) Image() image.Image {
	for _, it := range r.Items {
		if it.Kind == ItemOriginalImage && it.Image != nil {
			return it.Image
		}
	}
	return nil
}

// Usable reports whether the result carries a boundary candidate.
func (r Result) Usable() bool { return len(r.Items) > 1 }

// BoundaryOrFullFrame returns the detected boundary, or the full frame of
// img when none was found.
func (r Result) BoundaryOrFullFrame(img image.Image) coords.Quad {
	if q, ok := r.Boundary(); ok && r.Usable() {
		return q
	}
	b := img.Bounds()
	return coords.FullFrame(b.Dx(), b.Dy())
}

// Detector finds document boundaries in a still image.
type Detector interface {
	DetectBoundaries(ctx context.Context, img image.Image) (Result, error)
}

// Normalizer crops and rectifies img to the given boundary. A nil image with
// a nil error means the engine produced nothing.
type Normalizer interface {
	Normalize(ctx context.Context, img image.Image, boundary coords.Quad) (image.Image, error)
}

// Streamer pushes detection results for live camera frames until ctx ends,
// then closes the channel.
type Streamer interface {
	Stream(ctx context.Context) (<-chan Result, error)
}

// Engine is the full collaborator the session needs.
type Engine interface {
	Name() string
	Detector
	Normalizer
	Streamer
}
