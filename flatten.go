package flock

import "math"

// DefaultTolerance is the maximum distance between a curve and its
// flattened polyline, in path units.
const DefaultTolerance = 0.25

// maxFlattenDepth bounds curve subdivision at 2^16 segments per curve.
const maxFlattenDepth = 16

// contour is a closed polyline; the closing edge from the last point back
// to the first is implicit.
type contour []Point

// flattenPath converts path elements into closed polylines. Every MoveTo
// starts a new contour and open contours are closed implicitly, as a fill
// would. Consecutive duplicate points are removed.
func flattenPath(elements []PathElement, tol float64) []contour {
	if tol <= 0 {
		tol = DefaultTolerance
	}

	var (
		contours []contour
		cur      contour
		prev     Point
		started  bool
	)

	finish := func() {
		if c := cleanContour(cur); len(c) >= 3 {
			contours = append(contours, c)
		}
		cur = nil
		started = false
	}

	for _, elem := range elements {
		switch e := elem.(type) {
		case MoveTo:
			finish()
			cur = append(cur, e.Point)
			prev = e.Point
			started = true

		case LineTo:
			if !started {
				cur = append(cur, prev)
				started = true
			}
			cur = append(cur, e.Point)
			prev = e.Point

		case QuadTo:
			if !started {
				cur = append(cur, prev)
				started = true
			}
			cur = flattenQuad(cur, prev, e.Control, e.Point, tol, 0)
			prev = e.Point

		case CubicTo:
			if !started {
				cur = append(cur, prev)
				started = true
			}
			cur = flattenCubic(cur, prev, e.Control1, e.Control2, e.Point, tol, 0)
			prev = e.Point

		case Close:
			if started {
				prev = cur[0]
			}
			finish()
		}
	}
	finish()
	return contours
}

// flattenQuad appends the end points of a quadratic Bezier's flattened
// segments using recursive de Casteljau subdivision.
func flattenQuad(dst contour, p0, c, p1 Point, tol float64, depth int) contour {
	// Flatness: deviation of the curve midpoint from the chord midpoint.
	midX := 0.25*p0.X + 0.5*c.X + 0.25*p1.X
	midY := 0.25*p0.Y + 0.5*c.Y + 0.25*p1.Y
	dx := midX - 0.5*(p0.X+p1.X)
	dy := midY - 0.5*(p0.Y+p1.Y)

	if dx*dx+dy*dy <= tol*tol || depth >= maxFlattenDepth {
		return append(dst, p1)
	}

	a := Pt(0.5*(p0.X+c.X), 0.5*(p0.Y+c.Y))
	b := Pt(0.5*(c.X+p1.X), 0.5*(c.Y+p1.Y))
	m := Pt(0.5*(a.X+b.X), 0.5*(a.Y+b.Y))

	dst = flattenQuad(dst, p0, a, m, tol, depth+1)
	return flattenQuad(dst, m, b, p1, tol, depth+1)
}

// flattenCubic appends the end points of a cubic Bezier's flattened
// segments. Both control points must lie within tolerance of the chord;
// the factor of 16 is the cubic approximation error bound.
func flattenCubic(dst contour, p0, c1, c2, p1 Point, tol float64, depth int) contour {
	ux := 3*c1.X - 2*p0.X - p1.X
	uy := 3*c1.Y - 2*p0.Y - p1.Y
	vx := 3*c2.X - p0.X - 2*p1.X
	vy := 3*c2.Y - p0.Y - 2*p1.Y

	if math.Max(ux*ux+uy*uy, vx*vx+vy*vy) <= 16*tol*tol || depth >= maxFlattenDepth {
		return append(dst, p1)
	}

	ab1 := Pt(0.5*(p0.X+c1.X), 0.5*(p0.Y+c1.Y))
	ab2 := Pt(0.5*(c1.X+c2.X), 0.5*(c1.Y+c2.Y))
	ab3 := Pt(0.5*(c2.X+p1.X), 0.5*(c2.Y+p1.Y))
	bc1 := Pt(0.5*(ab1.X+ab2.X), 0.5*(ab1.Y+ab2.Y))
	bc2 := Pt(0.5*(ab2.X+ab3.X), 0.5*(ab2.Y+ab3.Y))
	m := Pt(0.5*(bc1.X+bc2.X), 0.5*(bc1.Y+bc2.Y))

	dst = flattenCubic(dst, p0, ab1, bc1, m, tol, depth+1)
	return flattenCubic(dst, m, bc2, ab3, p1, tol, depth+1)
}

// cleanContour drops consecutive duplicates, a closing point equal to the
// first point and non-finite points.
func cleanContour(c contour) contour {
	out := c[:0:0]
	for _, p := range c {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	return out
}

// signedArea returns the shoelace area: positive for counter-clockwise
// contours in a y-up frame.
func (c contour) signedArea() float64 {
	var a float64
	n := len(c)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return a / 2
}

// contains reports whether p is inside c by the even-odd rule.
func (c contour) contains(p Point) bool {
	inside := false
	n := len(c)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := c[i], c[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// reversed returns c with its winding flipped.
func (c contour) reversed() contour {
	out := make(contour, len(c))
	for i, p := range c {
		out[len(c)-1-i] = p
	}
	return out
}
