package coords

import (
	"math"
	"testing"
)

func TestQuadRescale(t *testing.T) {
	q := FullFrame(100, 50)
	got := q.Rescale(100, 50, 200, 200)
	want := FullFrame(200, 200)
	for i := range got {
		if math.Abs(got[i].X-want[i].X) > 1e-9 || math.Abs(got[i].Y-want[i].Y) > 1e-9 {
			t.Fatalf("corner %d: got %+v want %+v", i, got[i], want[i])
		}
	}
	if same := q.Rescale(0, 50, 200, 200); same != q {
		t.Fatalf("degenerate rescale should be a no-op, got %+v", same)
	}
}

func TestQuadBoundsAndArea(t *testing.T) {
	q := Quad{{10, 20}, {110, 25}, {105, 220}, {5, 210}}
	min, max := q.Bounds()
	if min != (Point{5, 20}) || max != (Point{110, 220}) {
		t.Fatalf("unexpected bounds %+v %+v", min, max)
	}
	if a := FullFrame(4, 3).Area(); a != 12 {
		t.Fatalf("expected area 12, got %v", a)
	}
}

func TestQuadConvex(t *testing.T) {
	if !FullFrame(10, 10).Convex() {
		t.Fatalf("full frame should be convex")
	}
	bowtie := Quad{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	if bowtie.Convex() {
		t.Fatalf("self-intersecting quad reported convex")
	}
	flat := Quad{{0, 0}, {5, 0}, {10, 0}, {0, 10}}
	if flat.Convex() {
		t.Fatalf("collinear corners reported convex")
	}
}

func TestMatrixInverse(t *testing.T) {
	m := Translate(3, 4).Multiply(Scale(2, 2))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}
	p := inv.Transform(m.Transform(Point{7, -2}))
	if math.Abs(p.X-7) > 1e-9 || math.Abs(p.Y+2) > 1e-9 {
		t.Fatalf("round trip mismatch: %+v", p)
	}
	if _, err := Scale(0, 1).Inverse(); err == nil {
		t.Fatalf("expected singular matrix error")
	}
}
