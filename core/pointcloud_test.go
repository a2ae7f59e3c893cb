package core

import (
	"testing"

	"github.com/signalatlas/pointfield/model"
)

func TestRebuildOnlyWhenDirty(t *testing.T) {
	pc := NewPointCloud()
	pc.SetPoints([]model.ProjectedPoint{{ID: "A", X: 1, Z: 2}})

	if !pc.RebuildIfDirty() {
		t.Fatalf("first rebuild skipped, want rebuild after SetPoints")
	}
	if pc.RebuildIfDirty() {
		t.Errorf("rebuild ran with no dirty inputs")
	}

	pc.SetHover("A")
	if !pc.RebuildIfDirty() {
		t.Errorf("rebuild skipped after hover change")
	}
}

func TestSetHoverSameIDDoesNotDirty(t *testing.T) {
	pc := NewPointCloud()
	pc.SetPoints(nil)
	pc.RebuildIfDirty()

	pc.SetHover("")
	if pc.Dirty() {
		t.Errorf("unchanged hover id marked the cloud dirty")
	}
}

func TestColorPriorityHoveredOverSelected(t *testing.T) {
	pc := NewPointCloud()
	pc.SetPoints([]model.ProjectedPoint{
		{ID: "plain"},
		{ID: "picked"},
		{ID: "both"},
	})
	pc.SetSelection(map[string]struct{}{"picked": {}, "both": {}})
	pc.SetHover("both")
	pc.RebuildIfDirty()

	colors := pc.Colors()
	colorAt := func(i int) Color { return Color{colors[3*i], colors[3*i+1], colors[3*i+2]} }

	if colorAt(0) != defaultPointColor {
		t.Errorf("plain point color = %v, want default", colorAt(0))
	}
	if colorAt(1) != selectedPointColor {
		t.Errorf("selected point color = %v, want selected", colorAt(1))
	}
	if colorAt(2) != hoveredPointColor {
		t.Errorf("hovered+selected point color = %v, want hovered", colorAt(2))
	}
}

func TestBufferLayoutMatchesPoints(t *testing.T) {
	pc := NewPointCloud()
	pc.SetPoints([]model.ProjectedPoint{
		{ID: "A", X: 1, Y: 0, Z: -2},
		{ID: "B", X: 3, Y: 0, Z: 4},
	})
	pc.RebuildIfDirty()

	if pc.Count() != 2 {
		t.Fatalf("count = %d, want 2", pc.Count())
	}
	pos := pc.Positions()
	want := []float32{1, 0, -2, 3, 0, 4}
	for i := range want {
		if pos[i] != want[i] {
			t.Fatalf("positions = %v, want %v", pos, want)
		}
	}
}

func TestCapDropsInStableOrder(t *testing.T) {
	points := make([]model.ProjectedPoint, MaxRenderedPoints+10)
	for i := range points {
		points[i] = model.ProjectedPoint{ID: "p", X: float32(i)}
	}

	pc := NewPointCloud()
	pc.SetPoints(points)
	pc.RebuildIfDirty()

	if pc.Count() != MaxRenderedPoints {
		t.Fatalf("count = %d, want cap %d", pc.Count(), MaxRenderedPoints)
	}
	// The kept prefix is the input prefix: slot i holds point i.
	pos := pc.Positions()
	last := pos[3*(MaxRenderedPoints-1)]
	if last != float32(MaxRenderedPoints-1) {
		t.Errorf("last kept point x = %v, want %v", last, MaxRenderedPoints-1)
	}
}

func TestPointSizeClampedAndMonotone(t *testing.T) {
	if s := PointSize(MinZoom); s < minPointSize || s > maxPointSize {
		t.Errorf("PointSize(MinZoom) = %v outside [%v, %v]", s, minPointSize, maxPointSize)
	}
	if s := PointSize(MaxZoom); s < minPointSize || s > maxPointSize {
		t.Errorf("PointSize(MaxZoom) = %v outside [%v, %v]", s, minPointSize, maxPointSize)
	}
	if PointSize(8) >= PointSize(1) {
		t.Errorf("point size did not fall off with zoom: %v >= %v", PointSize(8), PointSize(1))
	}
}
