package extensions

import (
	"context"
	"fmt"

	"github.com/wudi/scankit/ocr"
	"github.com/wudi/scankit/scan"
)

// OCRExtension attaches recognized text to the outcome using the default
// (Tesseract) engine unless another engine is supplied.
type OCRExtension struct {
	engine       ocr.Engine
	inputOptions []ocr.InputOption
}

// NewOCRExtension constructs an OCR extension. If engine is nil, the default
// engine is used.
func NewOCRExtension(engine ocr.Engine, opts ...ocr.InputOption) *OCRExtension {
	if engine == nil {
		engine = ocr.DefaultEngine()
	}
	return &OCRExtension{engine: engine, inputOptions: opts}
}

func (o *OCRExtension) Name() string  { return "ocr" }
func (o *OCRExtension) Phase() Phase  { return PhaseEnrich }
func (o *OCRExtension) Priority() int { return 100 }

func (o *OCRExtension) Apply(ctx context.Context, out scan.Outcome) (scan.Outcome, error) {
	img := out.Image()
	if img == nil {
		return out, nil
	}
	id := out.ID
	if id == "" {
		id = fmt.Sprintf("cycle-%d", out.Cycle)
	}
	opts := append([]ocr.InputOption{ocr.WithCycle(out.Cycle)}, o.inputOptions...)
	res, err := ocr.RecognizeImage(ctx, o.engine, id, img, opts...)
	if err != nil {
		return out, err
	}
	out.Text = res.PlainText
	return out, nil
}
