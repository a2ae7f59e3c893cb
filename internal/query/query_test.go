package query

import (
	"testing"

	"github.com/golang/geo/r2"
)

func pts(coords ...[2]float64) []Point {
	out := make([]Point, len(coords))
	for i, c := range coords {
		out[i] = Point{ID: string(rune('A' + i)), P: r2.Point{X: c[0], Y: c[1]}}
	}
	return out
}

func TestInRectangleBoundaryInclusive(t *testing.T) {
	points := pts(
		[2]float64{0, 0},   // A: min corner
		[2]float64{10, 10}, // B: max corner
		[2]float64{5, 10},  // C: on edge
		[2]float64{5, 5},   // D: interior
		[2]float64{10.01, 5},
	)

	got := InRectangle(r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 10}, points)
	want := []string{"A", "B", "C", "D"}
	assertIDs(t, got, want)
}

func TestInRectangleNormalizesInvertedBounds(t *testing.T) {
	points := pts([2]float64{5, 5})

	got := InRectangle(r2.Point{X: 10, Y: 10}, r2.Point{X: 0, Y: 0}, points)
	assertIDs(t, got, []string{"A"})
}

func TestInRectangleIdempotentAndOrderPreserving(t *testing.T) {
	points := pts(
		[2]float64{1, 1},
		[2]float64{2, 2},
		[2]float64{3, 3},
	)
	min, max := r2.Point{X: 0, Y: 0}, r2.Point{X: 10, Y: 10}

	first := InRectangle(min, max, points)
	second := InRectangle(min, max, points)

	assertIDs(t, first, []string{"A", "B", "C"})
	assertIDs(t, second, first)
}

func TestInCircleBoundaryInclusive(t *testing.T) {
	points := pts(
		[2]float64{3, 4}, // A: exactly on radius 5
		[2]float64{0, 0}, // B: centre
		[2]float64{5.1, 0},
	)

	got := InCircle(r2.Point{X: 0, Y: 0}, 5, points)
	assertIDs(t, got, []string{"A", "B"})
}

func TestInCircleZeroRadiusMatchesCentredPoint(t *testing.T) {
	points := pts(
		[2]float64{2, -3},
		[2]float64{2, -2.999},
	)

	got := InCircle(r2.Point{X: 2, Y: -3}, 0, points)
	assertIDs(t, got, []string{"A"})
}

func TestInCircleNegativeRadiusSelectsNothing(t *testing.T) {
	points := pts([2]float64{0, 0})

	if got := InCircle(r2.Point{X: 0, Y: 0}, -1, points); len(got) != 0 {
		t.Errorf("negative radius selected %v, want nothing", got)
	}
}

func TestInPolygonEvenOddRule(t *testing.T) {
	// Concave "C" shape: the notch on the right is outside.
	poly := []r2.Point{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 3},
		{X: 4, Y: 3}, {X: 4, Y: 7}, {X: 10, Y: 7},
		{X: 10, Y: 10}, {X: 0, Y: 10},
	}
	points := pts(
		[2]float64{2, 5}, // A: in the spine
		[2]float64{7, 5}, // B: in the notch
		[2]float64{7, 1}, // C: in the lower arm
	)

	got := InPolygon(poly, points)
	assertIDs(t, got, []string{"A", "C"})
}

func TestInPolygonDegenerateSelectsNothing(t *testing.T) {
	points := pts([2]float64{0, 0}, [2]float64{1, 1})

	for _, vertices := range [][]r2.Point{
		nil,
		{},
		{{X: 0, Y: 0}},
		{{X: 0, Y: 0}, {X: 5, Y: 5}},
	} {
		if got := InPolygon(vertices, points); len(got) != 0 {
			t.Errorf("polygon with %d vertices selected %v, want nothing", len(vertices), got)
		}
	}
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}
