// Package geometry provides the 3x3 projective transforms used to map between
// camera frames, the board-framed image, and the projector framebuffer.
package geometry

import (
	"fmt"
	"math"
)

// Mat3 is a row-major 3x3 matrix representing a projective transform of the
// plane. Points transform as column vectors (x, y, 1) with a final divide by w.
type Mat3 [9]float64

func Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

func Translate(tx, ty float64) Mat3 {
	return Mat3{1, 0, tx, 0, 1, ty, 0, 0, 1}
}

func Scale(sx, sy float64) Mat3 {
	return Mat3{sx, 0, 0, 0, sy, 0, 0, 0, 1}
}

func Rotate(angle float64) Mat3 {
	s, c := math.Sincos(angle)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// Perspective builds the projective denominator w = 1 + px*x + py*y.
func Perspective(px, py float64) Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, px, py, 1}
}

// Mul returns m * n, the transform applying n first and then m.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += m[row*3+k] * n[k*3+col]
			}
			out[row*3+col] = sum
		}
	}
	return out
}

// Apply transforms the point (x, y), performing the projective divide.
func (m Mat3) Apply(x, y float64) (float64, float64) {
	w := m[6]*x + m[7]*y + m[8]
	if w == 0 {
		w = 1e-12
	}
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

// Invert returns the inverse transform.
func (m Mat3) Invert() (Mat3, error) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	ca := e*i - f*h
	cb := f*g - d*i
	cc := d*h - e*g
	det := a*ca + b*cb + c*cc
	if math.Abs(det) < 1e-12 {
		return Mat3{}, fmt.Errorf("matrix is singular")
	}

	inv := Mat3{
		ca, c*h - b*i, b*f - c*e,
		cb, a*i - c*g, c*d - a*f,
		cc, b*g - a*h, a*e - b*d,
	}
	for k := range inv {
		inv[k] /= det
	}
	return inv, nil
}

// Point is a 2D point used for homography control points.
type Point struct {
	X, Y float64
}

// FromControlPoints computes the projective transform taking each src[i] to
// dst[i]. It solves the standard 8-unknown homography system by Gaussian
// elimination. Fails when the source or destination quadrilateral is
// degenerate.
func FromControlPoints(src, dst [4]Point) (Mat3, error) {
	// Rows: for each correspondence,
	//   x*h0 + y*h1 + h2 - x'*x*h6 - x'*y*h7 = x'
	//   x*h3 + y*h4 + h5 - y'*x*h6 - y'*y*h7 = y'
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		s, d := src[i], dst[i]
		a[2*i] = [9]float64{s.X, s.Y, 1, 0, 0, 0, -d.X * s.X, -d.X * s.Y, d.X}
		a[2*i+1] = [9]float64{0, 0, 0, s.X, s.Y, 1, -d.Y * s.X, -d.Y * s.Y, d.Y}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for row := col + 1; row < 8; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return Mat3{}, fmt.Errorf("control points are degenerate")
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := 0; row < 8; row++ {
			if row == col {
				continue
			}
			factor := a[row][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[row][k] -= factor * a[col][k]
			}
		}
	}

	var h [8]float64
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	return Mat3{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}
