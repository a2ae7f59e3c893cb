package core

import (
	"math"

	"github.com/signalatlas/pointfield/model"
)

// MaxRenderedPoints caps the GPU-side buffer. Entities past the cap are
// dropped in stable input order, never sampled.
const MaxRenderedPoints = 100000

// Point size response to zoom. The falloff is deliberately sub-linear so
// points neither vanish zoomed out nor dominate zoomed in.
const (
	basePointSize    = 4.0
	pointSizeFalloff = -0.05
	minPointSize     = 2.0
	maxPointSize     = 8.0
)

// Color is an RGB triple in [0,1] channel order matching the color buffer.
type Color [3]float32

var (
	defaultPointColor  = Color{0.25, 0.55, 0.95}
	selectedPointColor = Color{0.95, 0.65, 0.15}
	hoveredPointColor  = Color{1.0, 0.25, 0.25}
)

// PointCloud maintains the renderable buffers for the visible entity set:
// one (position, color) slot per point, interleaved as flat float32 arrays
// ready for GPU upload. The buffers are allocated once at capacity; rebuilds
// overwrite in place and never allocate per point.
//
// The cloud references the working set owned by the engine; it does not copy
// entities. Single-writer: all mutation happens on the interaction goroutine.
type PointCloud struct {
	positions []float32 // 3 floats per slot
	colors    []float32 // 3 floats per slot
	count     int

	points    []model.ProjectedPoint
	hoverID   string
	selection map[string]struct{}

	dirtyEntities  bool
	dirtyHover     bool
	dirtySelection bool
}

// NewPointCloud allocates buffers for up to MaxRenderedPoints points.
func NewPointCloud() *PointCloud {
	return &PointCloud{
		positions: make([]float32, 3*MaxRenderedPoints),
		colors:    make([]float32, 3*MaxRenderedPoints),
	}
}

// SetPoints swaps in a new working set reference and marks the entity input
// dirty. The slice is not copied.
func (pc *PointCloud) SetPoints(points []model.ProjectedPoint) {
	pc.points = points
	pc.dirtyEntities = true
}

// SetHover marks the hover input dirty when the hovered id changes.
func (pc *PointCloud) SetHover(id string) {
	if pc.hoverID == id {
		return
	}
	pc.hoverID = id
	pc.dirtyHover = true
}

// SetSelection swaps in the current selection set and marks it dirty.
func (pc *PointCloud) SetSelection(sel map[string]struct{}) {
	pc.selection = sel
	pc.dirtySelection = true
}

// Dirty reports whether any renderer input changed since the last rebuild.
func (pc *PointCloud) Dirty() bool {
	return pc.dirtyEntities || pc.dirtyHover || pc.dirtySelection
}

// RebuildIfDirty refreshes the buffers when any input changed since the last
// call. It returns true when a rebuild happened. The rebuild is O(n) over
// visible points.
func (pc *PointCloud) RebuildIfDirty() bool {
	if !pc.Dirty() {
		return false
	}
	pc.rebuild()
	pc.dirtyEntities = false
	pc.dirtyHover = false
	pc.dirtySelection = false
	return true
}

func (pc *PointCloud) rebuild() {
	n := len(pc.points)
	if n > MaxRenderedPoints {
		n = MaxRenderedPoints
	}
	pc.count = n

	for i := 0; i < n; i++ {
		p := &pc.points[i]
		pc.positions[3*i] = p.X
		pc.positions[3*i+1] = p.Y
		pc.positions[3*i+2] = p.Z

		c := pc.colorFor(p.ID)
		pc.colors[3*i] = c[0]
		pc.colors[3*i+1] = c[1]
		pc.colors[3*i+2] = c[2]
	}
}

// colorFor resolves a point's color: hovered wins over selected, selected
// over default.
func (pc *PointCloud) colorFor(id string) Color {
	if id == pc.hoverID && id != "" {
		return hoveredPointColor
	}
	if _, ok := pc.selection[id]; ok {
		return selectedPointColor
	}
	return defaultPointColor
}

// Count returns the number of populated slots.
func (pc *PointCloud) Count() int { return pc.count }

// Positions returns the populated prefix of the position buffer.
func (pc *PointCloud) Positions() []float32 { return pc.positions[:3*pc.count] }

// Colors returns the populated prefix of the color buffer.
func (pc *PointCloud) Colors() []float32 { return pc.colors[:3*pc.count] }

// PointSize returns the rendered point size for a zoom level, following a
// sub-linear falloff clamped to [minPointSize, maxPointSize].
func PointSize(zoom float64) float64 {
	size := basePointSize * math.Pow(zoom, pointSizeFalloff)
	return clamp(size, minPointSize, maxPointSize)
}
