// Package query implements the spatial containment tests used to resolve
// selection gestures. The tests are pure and stateless; Worker runs them on
// a dedicated goroutine reached only by correlated request/response messages.
package query

import (
	"github.com/golang/geo/r2"
)

// Point pairs an entity id with its ground-plane position. Callers build the
// slice from their projected working set (world x maps to r2 x, world z to
// r2 y).
type Point struct {
	ID string
	P  r2.Point
}

// InRectangle returns the ids of points inside the axis-aligned rectangle
// spanned by min and max, boundary-inclusive. Inverted bounds are normalized
// by swapping per axis. Results preserve input order.
func InRectangle(min, max r2.Point, points []Point) []string {
	if min.X > max.X {
		min.X, max.X = max.X, min.X
	}
	if min.Y > max.Y {
		min.Y, max.Y = max.Y, min.Y
	}
	rect := r2.RectFromPoints(min, max)

	out := make([]string, 0, len(points))
	for i := range points {
		if rect.ContainsPoint(points[i].P) {
			out = append(out, points[i].ID)
		}
	}
	return out
}

// InCircle returns the ids of points within radius of center,
// boundary-inclusive, using squared distances so no square root is taken per
// point. A negative radius selects nothing; radius zero still matches points
// exactly at the center. Results preserve input order.
func InCircle(center r2.Point, radius float64, points []Point) []string {
	if radius < 0 {
		return []string{}
	}
	rSq := radius * radius

	out := make([]string, 0, len(points))
	for i := range points {
		d := points[i].P.Sub(center)
		if d.X*d.X+d.Y*d.Y <= rSq {
			out = append(out, points[i].ID)
		}
	}
	return out
}

// InPolygon returns the ids of points inside the polygon using the even-odd
// ray-casting rule. A degenerate polygon (fewer than 3 vertices) selects
// nothing. Results preserve input order.
func InPolygon(vertices []r2.Point, points []Point) []string {
	if len(vertices) < 3 {
		return []string{}
	}

	out := make([]string, 0, len(points))
	for i := range points {
		if pointInPolygon(points[i].P, vertices) {
			out = append(out, points[i].ID)
		}
	}
	return out
}

// pointInPolygon casts a ray in +x from p and counts edge crossings; an odd
// count means inside.
func pointInPolygon(p r2.Point, vertices []r2.Point) bool {
	inside := false
	n := len(vertices)
	j := n - 1
	for i := 0; i < n; i++ {
		vi, vj := vertices[i], vertices[j]
		if (vi.Y > p.Y) != (vj.Y > p.Y) {
			xCross := (vj.X-vi.X)*(p.Y-vi.Y)/(vj.Y-vi.Y) + vi.X
			if p.X < xCross {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
