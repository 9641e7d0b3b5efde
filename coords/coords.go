package coords

import (
	"errors"
	"math"
)

// Matrix is a 2D affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2], m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2], m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4], m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det, -m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det, (m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }

type Point struct{ X, Y float64 }

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// Quad is a four-point boundary in pixel coordinates, ordered clockwise
// starting from the top-left corner.
type Quad [4]Point

// FullFrame returns the quad covering a w x h frame.
func FullFrame(w, h int) Quad {
	fw, fh := float64(w), float64(h)
	return Quad{{0, 0}, {fw, 0}, {fw, fh}, {0, fh}}
}

// Transform maps every corner through m.
func (q Quad) Transform(m Matrix) Quad {
	var out Quad
	for i, p := range q {
		out[i] = m.Transform(p)
	}
	return out
}

// Rescale maps a quad detected on a from-sized frame onto a to-sized frame.
// Degenerate sizes return the quad unchanged.
func (q Quad) Rescale(fromW, fromH, toW, toH int) Quad {
	if fromW <= 0 || fromH <= 0 || toW <= 0 || toH <= 0 {
		return q
	}
	if fromW == toW && fromH == toH {
		return q
	}
	return q.Transform(Scale(float64(toW)/float64(fromW), float64(toH)/float64(fromH)))
}

// Bounds returns the axis-aligned bounding box as min and max corners.
func (q Quad) Bounds() (Point, Point) {
	min := Point{math.MaxFloat64, math.MaxFloat64}
	max := Point{-math.MaxFloat64, -math.MaxFloat64}
	for _, p := range q {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
	}
	return min, max
}

// Area is the shoelace area of the polygon.
func (q Quad) Area() float64 {
	var sum float64
	for i := range q {
		j := (i + 1) % len(q)
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}

// Convex reports whether the corners form a non-degenerate convex polygon.
func (q Quad) Convex() bool {
	sign := 0
	for i := range q {
		a, b, c := q[i], q[(i+1)%4], q[(i+2)%4]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if math.Abs(cross) < 1e-9 {
			return false
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}
