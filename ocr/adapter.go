package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/wudi/scankit/imaging"
)

// InputOption mutates an OCR input generated from a captured image.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithCycle records the scan cycle that produced the image.
func WithCycle(cycle int) InputOption {
	return func(in *Input) { in.Cycle = cycle }
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromImage converts a captured image into an OCR input using PNG
// encoding.
func InputFromImage(id string, img image.Image, opts ...InputOption) (Input, error) {
	if img == nil {
		return Input{}, fmt.Errorf("nil image for %s", id)
	}
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, img); err != nil {
		return Input{}, fmt.Errorf("encode image: %w", err)
	}
	in := Input{ID: id, Image: buf.Bytes()}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
