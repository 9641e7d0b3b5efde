package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"github.com/wudi/scankit/imaging"
	"github.com/wudi/scankit/ocr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func page(text string) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)
	return img
}

func TestDefaultEngineIsTesseract(t *testing.T) {
	if got := ocr.DefaultEngine().Name(); got != "tesseract" {
		t.Fatalf("importing tesseract should install it as default, got %q", got)
	}
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	res, err := ocr.RecognizeImage(context.Background(), NewEngine(), "cycle-1", page("Hello SCAN"),
		ocr.WithLanguages("eng"), ocr.WithDPI(300))
	if err != nil {
		t.Fatalf("RecognizeImage() error = %v", err)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "scan") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if len(res.Words) == 0 || res.Bounds.IsEmpty() {
		t.Fatalf("expected word boxes")
	}
	if res.InputID != "cycle-1" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
}

func TestRegionBytes(t *testing.T) {
	var buf bytes.Buffer
	if err := imaging.EncodePNG(&buf, page("x")); err != nil {
		t.Fatalf("encode: %v", err)
	}
	same, err := regionBytes(buf.Bytes(), nil)
	if err != nil || !bytes.Equal(same, buf.Bytes()) {
		t.Fatalf("nil region should pass data through")
	}
	out, err := regionBytes(buf.Bytes(), &ocr.Region{X: 0, Y: 0, Width: 50, Height: 20})
	if err != nil {
		t.Fatalf("regionBytes() error = %v", err)
	}
	img, _, err := imaging.Decode(out)
	if err != nil || img.Bounds().Dx() != 50 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected cropped image %v %v", img, err)
	}
	if _, err := regionBytes(buf.Bytes(), &ocr.Region{X: 500, Y: 500, Width: 5, Height: 5}); err == nil {
		t.Fatalf("expected out-of-bounds error")
	}
}
