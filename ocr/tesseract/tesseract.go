package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewEngine())
}

// Engine implements ocr.Engine with a gosseract client per call.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a Tesseract-backed OCR engine.
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs Tesseract on a single input. Cancellation is checked before
// the (uninterruptible) native call starts.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}
	data, err := regionBytes(in.Image, in.Region)
	if err != nil {
		return ocr.Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()
	if err := c.SetImageFromBytes(data); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable("user_defined_dpi", fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Result{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	plain := strings.TrimSpace(text)

	words, conf := words(c)
	return ocr.Result{
		InputID:    in.ID,
		PlainText:  plain,
		Words:      words,
		Bounds:     union(words),
		Confidence: conf,
		Language:   first(in.Languages),
	}, nil
}

// words returns word boxes and their mean confidence in [0, 1].
func words(c *gosseract.Client) ([]ocr.TextWord, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	out := make([]ocr.TextWord, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		out = append(out, ocr.TextWord{
			Text:       b.Word,
			Bounds:     ocr.Region{X: float64(b.Box.Min.X), Y: float64(b.Box.Min.Y), Width: float64(b.Box.Dx()), Height: float64(b.Box.Dy())},
			Confidence: conf,
		})
	}
	return out, sum / float64(len(out))
}

func union(ws []ocr.TextWord) ocr.Region {
	if len(ws) == 0 {
		return ocr.Region{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	var maxX, maxY float64
	for _, w := range ws {
		minX = math.Min(minX, w.Bounds.X)
		minY = math.Min(minY, w.Bounds.Y)
		maxX = math.Max(maxX, w.Bounds.X+w.Bounds.Width)
		maxY = math.Max(maxY, w.Bounds.Y+w.Bounds.Height)
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func first(langs []string) string {
	if len(langs) == 0 {
		return ""
	}
	return langs[0]
}

// regionBytes re-encodes only the requested region of data.
func regionBytes(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	min := img.Bounds().Min
	rect := image.Rect(
		min.X+int(math.Round(region.X)),
		min.Y+int(math.Round(region.Y)),
		min.X+int(math.Round(region.X+region.Width)),
		min.Y+int(math.Round(region.Y+region.Height)),
	)
	cropped, err := imaging.Crop(img, rect)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, cropped); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
