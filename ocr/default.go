package ocr

import (
	"context"
	"fmt"
	"image"
)

var defaultEngine Engine = &noopEngine{}

// DefaultEngine returns the library's default OCR engine. Importing
// ocr/tesseract installs Tesseract as the default.
func DefaultEngine() Engine {
	return defaultEngine
}

// SetDefaultEngine sets the library's default OCR engine.
func SetDefaultEngine(engine Engine) {
	defaultEngine = engine
}

// RecognizeImage builds an input for img and runs engine on it.
func RecognizeImage(ctx context.Context, engine Engine, id string, img image.Image, opts ...InputOption) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	in, err := InputFromImage(id, img, opts...)
	if err != nil {
		return Result{}, fmt.Errorf("build input for %s: %w", id, err)
	}
	res, err := engine.Recognize(ctx, in)
	if err != nil {
		return Result{}, fmt.Errorf("recognize %s: %w", id, err)
	}
	return res, nil
}

type noopEngine struct{}

func (n noopEngine) Name() string {
	return "noop"
}

func (n noopEngine) Recognize(ctx context.Context, input Input) (Result, error) {
	return Result{InputID: input.ID}, nil
}
