package vision

import (
	"errors"
	"image"
	"testing"

	"github.com/wudi/scankit/coords"
)

func TestResultAccessors(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	q := coords.Quad{{X: 1, Y: 1}, {X: 30, Y: 2}, {X: 31, Y: 18}, {X: 2, Y: 17}}
	r := Result{Items: []Item{
		{Kind: ItemBoundary, Boundary: q, CrossVerified: true},
		{Kind: ItemClarity, Clarity: 0.8},
		{Kind: ItemOriginalImage, Image: img},
	}}
	if got, ok := r.Boundary(); !ok || got != q {
		t.Fatalf("unexpected boundary %+v", got)
	}
	if !r.CrossVerified() || !r.Usable() {
		t.Fatalf("expected verified usable result")
	}
	if c, ok := r.Clarity(); !ok || c != 0.8 {
		t.Fatalf("unexpected clarity %v", c)
	}
	if r.Image() != img {
		t.Fatalf("expected attached image")
	}
	if r.BoundaryOrFullFrame(img) != q {
		t.Fatalf("expected detected boundary")
	}
}

func TestBoundaryOrFullFrameFallsBack(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	r := Result{Items: []Item{{Kind: ItemBoundary, Boundary: coords.Quad{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}}}}}
	if got := r.BoundaryOrFullFrame(img); got != coords.FullFrame(40, 20) {
		t.Fatalf("single-item result should use full frame, got %+v", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap("detect", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
	base := errors.New("wasm trap")
	err := Wrap("normalize", base)
	var ee *EngineError
	if !errors.As(err, &ee) || ee.Op != "normalize" || !errors.Is(err, base) {
		t.Fatalf("unexpected wrap result %v", err)
	}
	if Wrap("other", err) != err {
		t.Fatalf("engine errors should not be double wrapped")
	}
}
