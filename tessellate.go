package flock

import (
	"fmt"
	"math"
	"sort"
)

// maxVertices is the number of vertices a uint16 index can address.
const maxVertices = 1 << 16

// minContourArea discards slivers that cannot produce visible triangles.
const minContourArea = 1e-9

// Tessellator converts filled paths into indexed triangle meshes.
//
// Filling follows the even-odd rule over non-intersecting contours: a
// contour nested inside an odd number of others is a hole. Holes are
// bridged into their enclosing outline and every outline is triangulated
// by ear clipping. Self-intersecting contours are not supported.
type Tessellator struct {
	// Tolerance is the maximum curve flattening error. Zero means
	// DefaultTolerance.
	Tolerance float64
}

// NewTessellator returns a tessellator with the default tolerance.
func NewTessellator() *Tessellator {
	return &Tessellator{Tolerance: DefaultTolerance}
}

// Tessellate fills path with a flat colour. Every vertex gets
// (fill.R, fill.G, fill.B, opacity).
func Tessellate(path *Path, fill RGB, opacity float32) (Geometry, error) {
	return NewTessellator().Tessellate(path, fill, opacity)
}

// Tessellate fills path with a flat colour. It returns ErrEmptyPath when
// no contour encloses area and ErrTessellation when the contours cannot be
// triangulated or need more vertices than uint16 indices address.
func (t *Tessellator) Tessellate(path *Path, fill RGB, opacity float32) (Geometry, error) {
	if path == nil {
		return Geometry{}, ErrEmptyPath
	}

	var contours []contour
	for _, c := range flattenPath(path.Elements(), t.Tolerance) {
		if math.Abs(c.signedArea()) > minContourArea {
			contours = append(contours, c)
		}
	}
	if len(contours) == 0 {
		return Geometry{}, ErrEmptyPath
	}

	total := 0
	for _, c := range contours {
		total += len(c)
	}
	if total > maxVertices {
		return Geometry{}, fmt.Errorf("%w: %d points, uint16 indices address %d", ErrTessellation, total, maxVertices)
	}

	tris, pts, err := triangulateEvenOdd(contours)
	if err != nil {
		return Geometry{}, err
	}

	// Keep only referenced points, in first-use order.
	remap := make(map[int]uint16, len(pts))
	geom := Geometry{Indices: make([]uint16, 0, len(tris))}
	color := [4]float32{fill.R, fill.G, fill.B, opacity}
	for _, idx := range tris {
		v, ok := remap[idx]
		if !ok {
			if len(geom.Vertices) >= maxVertices {
				return Geometry{}, fmt.Errorf("%w: more than %d vertices", ErrTessellation, maxVertices)
			}
			v = uint16(len(geom.Vertices))
			remap[idx] = v
			p := pts[idx]
			geom.Vertices = append(geom.Vertices, Vertex{
				Position: [2]float32{float32(p.X), float32(p.Y)},
				Color:    color,
			})
		}
		geom.Indices = append(geom.Indices, v)
	}
	return geom, nil
}

// triangulateEvenOdd groups contours into outlines with holes and
// triangulates each group. It returns triangle indices into the shared
// point slice.
func triangulateEvenOdd(contours []contour) ([]int, []Point, error) {
	n := len(contours)
	depth := make([]int, n)
	for i := range contours {
		for j := range contours {
			if i != j && contours[j].contains(contours[i][0]) {
				depth[i]++
			}
		}
	}

	// The parent of a hole is the containing contour one level up.
	holes := make(map[int][]int)
	for i := range contours {
		if depth[i]%2 == 0 {
			continue
		}
		parent := -1
		for j := range contours {
			if i != j && depth[j] == depth[i]-1 && contours[j].contains(contours[i][0]) {
				parent = j
				break
			}
		}
		if parent >= 0 {
			holes[parent] = append(holes[parent], i)
		}
	}

	var (
		pts  []Point
		tris []int
	)
	for i := range contours {
		if depth[i]%2 != 0 {
			continue
		}

		outer := contours[i]
		if outer.signedArea() < 0 {
			outer = outer.reversed()
		}
		poly := appendPoints(&pts, outer)

		var holeRings [][]int
		for _, h := range holes[i] {
			hole := contours[h]
			if hole.signedArea() > 0 {
				hole = hole.reversed()
			}
			holeRings = append(holeRings, appendPoints(&pts, hole))
		}

		merged, err := bridgeHoles(poly, holeRings, pts)
		if err != nil {
			return nil, nil, err
		}
		out, err := earClip(merged, pts)
		if err != nil {
			return nil, nil, err
		}
		tris = append(tris, out...)
	}
	return tris, pts, nil
}

// appendPoints adds c to the shared point slice and returns the ring of
// indices that addresses it.
func appendPoints(pts *[]Point, c contour) []int {
	ring := make([]int, len(c))
	for k, p := range c {
		ring[k] = len(*pts)
		*pts = append(*pts, p)
	}
	return ring
}

// bridgeHoles splices every hole ring into the outline ring through a
// zero-width bridge, yielding one weakly simple polygon. Holes are
// processed from the rightmost inward.
func bridgeHoles(outer []int, holes [][]int, pts []Point) ([]int, error) {
	if len(holes) == 0 {
		return outer, nil
	}

	rightmost := func(ring []int) int {
		best := 0
		for k, idx := range ring {
			p, b := pts[idx], pts[ring[best]]
			if p.X > b.X || (p.X == b.X && p.Y < b.Y) {
				best = k
			}
		}
		return best
	}

	sort.SliceStable(holes, func(a, b int) bool {
		return pts[holes[a][rightmost(holes[a])]].X > pts[holes[b][rightmost(holes[b])]].X
	})

	poly := outer
	for h, hole := range holes {
		mk := rightmost(hole)
		m := pts[hole[mk]]

		// Closest polygon vertex whose bridge crosses no edge.
		bestK, bestD := -1, math.Inf(1)
		for k, idx := range poly {
			v := pts[idx]
			d := v.Sub(m)
			dist := d.X*d.X + d.Y*d.Y
			if dist >= bestD {
				continue
			}
			if segmentCrossesRing(m, v, poly, pts) || segmentCrossesRing(m, v, hole, pts) {
				continue
			}
			blocked := false
			for _, other := range holes[h+1:] {
				if segmentCrossesRing(m, v, other, pts) {
					blocked = true
					break
				}
			}
			if blocked || !bridgeInsideWedge(poly, k, m, pts) {
				continue
			}
			bestK, bestD = k, dist
		}
		if bestK < 0 {
			return nil, fmt.Errorf("%w: no bridge to hole", ErrTessellation)
		}

		// outer[..k], hole[m..], hole[..m], m, outer[k], outer[k+1..]
		merged := make([]int, 0, len(poly)+len(hole)+2)
		merged = append(merged, poly[:bestK+1]...)
		for j := 0; j <= len(hole); j++ {
			merged = append(merged, hole[(mk+j)%len(hole)])
		}
		merged = append(merged, poly[bestK])
		merged = append(merged, poly[bestK+1:]...)
		poly = merged
	}
	return poly, nil
}

// bridgeInsideWedge reports whether the direction from poly[k] towards m
// lies inside the polygon's interior angle at poly[k]. Needed when a
// vertex is visited more than once after earlier bridges.
func bridgeInsideWedge(poly []int, k int, m Point, pts []Point) bool {
	n := len(poly)
	prev := pts[poly[(k+n-1)%n]]
	cur := pts[poly[k]]
	next := pts[poly[(k+1)%n]]

	d := m.Sub(cur)
	a := prev.Sub(cur)
	b := next.Sub(cur)
	if orient(prev, cur, next) >= 0 {
		// Convex corner: d lies between the directions to next and prev.
		return b.Cross(d) >= 0 && d.Cross(a) >= 0
	}
	// Reflex corner: anything not inside the exterior wedge.
	return !(a.Cross(d) > 0 && d.Cross(b) > 0)
}

// segmentCrossesRing reports whether segment a-b properly intersects any
// edge of ring. Edges sharing an end point with the segment are ignored.
func segmentCrossesRing(a, b Point, ring []int, pts []Point) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		c := pts[ring[i]]
		d := pts[ring[(i+1)%n]]
		if c == a || c == b || d == a || d == b {
			continue
		}
		if segmentsIntersect(a, b, c, d) {
			return true
		}
	}
	return false
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 intersect,
// including touching and collinear overlap.
func segmentsIntersect(p1, p2, p3, p4 Point) bool {
	d1 := orient(p3, p4, p1)
	d2 := orient(p3, p4, p2)
	d3 := orient(p1, p2, p3)
	d4 := orient(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(p3, p4, p1)) ||
		(d2 == 0 && onSegment(p3, p4, p2)) ||
		(d3 == 0 && onSegment(p1, p2, p3)) ||
		(d4 == 0 && onSegment(p1, p2, p4))
}

// orient returns twice the signed area of triangle a, b, c.
func orient(a, b, c Point) float64 {
	return b.Sub(a).Cross(c.Sub(a))
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// earClip triangulates a counter-clockwise, weakly simple polygon given as
// a ring of point indices. Collinear vertices are dropped without emitting
// a triangle.
func earClip(ring []int, pts []Point) ([]int, error) {
	poly := append([]int(nil), ring...)
	tris := make([]int, 0, 3*(len(poly)-2))

	start := 0
	for len(poly) > 3 {
		n := len(poly)
		clipped := false
		for k := 0; k < n; k++ {
			i := (start + k) % n
			ia, ib, ic := poly[(i+n-1)%n], poly[i], poly[(i+1)%n]
			a, b, c := pts[ia], pts[ib], pts[ic]

			turn := orient(a, b, c)
			if turn == 0 {
				poly = append(poly[:i], poly[i+1:]...)
				start, clipped = i, true
				break
			}
			if turn < 0 {
				continue // reflex
			}
			if earBlocked(poly, ia, ib, ic, pts) {
				continue
			}
			tris = append(tris, ia, ib, ic)
			poly = append(poly[:i], poly[i+1:]...)
			start, clipped = i, true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("%w: no ear among %d vertices", ErrTessellation, n)
		}
	}
	if len(poly) == 3 && orient(pts[poly[0]], pts[poly[1]], pts[poly[2]]) != 0 {
		tris = append(tris, poly[0], poly[1], poly[2])
	}
	return tris, nil
}

// earBlocked reports whether any other polygon vertex lies strictly inside
// triangle a, b, c. Vertices coincident with a corner are bridge copies
// and never block.
func earBlocked(poly []int, ia, ib, ic int, pts []Point) bool {
	a, b, c := pts[ia], pts[ib], pts[ic]
	for _, idx := range poly {
		if idx == ia || idx == ib || idx == ic {
			continue
		}
		p := pts[idx]
		if p == a || p == b || p == c {
			continue
		}
		if orient(a, b, p) > 0 && orient(b, c, p) > 0 && orient(c, a, p) > 0 {
			return true
		}
	}
	return false
}
