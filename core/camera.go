package core

import (
	"math"

	"github.com/signalatlas/pointfield/model"
)

// Camera movement bounds and tuning. Zoom is a unitless magnification of the
// orthographic view; pan distance is measured in ground-plane world units.
const (
	MinZoom        = 0.5
	MaxZoom        = 12.0
	MaxPanDistance = 1200.0

	defaultZoom   = 1.0
	defaultHeight = 500.0

	// World units crossed per screen pixel at zoom 1.
	baseUnitsPerPixel = 1.0

	// Pan speed in world units per input unit at zoom 1.
	basePanSpeed = 1.0

	// Multiplicative zoom response per wheel unit.
	zoomRate = 0.1
)

// CameraState is the full orthographic camera transform. Position.Y is the
// camera height above the ground plane; Target is the point the camera looks
// at, kept directly beneath the position for a top-down view.
type CameraState struct {
	Position Vec3
	Zoom     float64
	Target   Vec3
}

// Camera owns the CameraState and the screen-to-world mapping. It is
// single-writer: all mutation happens on the interaction goroutine.
type Camera struct {
	state CameraState

	viewportW float64
	viewportH float64
}

// NewCamera builds a camera over the given viewport, starting at the default
// transform.
func NewCamera(viewportW, viewportH float64) *Camera {
	c := &Camera{viewportW: viewportW, viewportH: viewportH}
	c.Reset()
	return c
}

// State returns a copy of the current camera transform.
func (c *Camera) State() CameraState { return c.state }

// SetViewport updates the screen dimensions used by unprojection.
func (c *Camera) SetViewport(w, h float64) {
	if w > 0 {
		c.viewportW = w
	}
	if h > 0 {
		c.viewportH = h
	}
}

// Reset restores the fixed default transform.
func (c *Camera) Reset() {
	c.state = CameraState{
		Position: Vec3{X: 0, Y: defaultHeight, Z: 0},
		Zoom:     defaultZoom,
		Target:   Vec3{X: 0, Y: 0, Z: 0},
	}
}

// UnitsPerPixel is the ground-plane distance covered by one screen pixel at
// the current zoom.
func (c *Camera) UnitsPerPixel() float64 {
	return baseUnitsPerPixel / c.state.Zoom
}

// Pan moves the camera across the ground plane. The move is scaled inversely
// with zoom so panning feels constant-velocity in screen space. If the move
// would carry the camera beyond MaxPanDistance from the origin, the position
// is scaled back onto the boundary instead of the move being rejected.
func (c *Camera) Pan(deltaX, deltaY float64) {
	speed := basePanSpeed / c.state.Zoom
	c.setPosition(
		c.state.Position.X+deltaX*speed,
		c.state.Position.Z+deltaY*speed,
	)
}

// setPosition places the camera on the ground plane, scaling the position
// back onto the MaxPanDistance boundary when it would land outside. Every
// position mutation goes through here so the pan bound holds regardless of
// which operation moved the camera.
func (c *Camera) setPosition(x, z float64) {
	if d := math.Sqrt(x*x + z*z); d > MaxPanDistance {
		s := MaxPanDistance / d
		x *= s
		z *= s
	}
	c.state.Position.X = x
	c.state.Position.Z = z
	c.state.Target.X = x
	c.state.Target.Z = z
}

// Zoom applies a multiplicative zoom delta anchored at a screen coordinate:
// the world point under the anchor stays fixed as the view scales
// (zoom-to-cursor). The new zoom is clamped to [MinZoom, MaxZoom], and the
// anchor translation respects the same pan boundary panning does.
func (c *Camera) Zoom(delta, anchorScreenX, anchorScreenY float64) {
	before, okBefore := c.Unproject(anchorScreenX, anchorScreenY)

	z := c.state.Zoom + delta*c.state.Zoom*zoomRate
	c.state.Zoom = clamp(z, MinZoom, MaxZoom)

	if !okBefore {
		return
	}
	after, okAfter := c.Unproject(anchorScreenX, anchorScreenY)
	if !okAfter {
		return
	}

	c.setPosition(
		c.state.Position.X+before.X-after.X,
		c.state.Position.Z+before.Z-after.Z,
	)
}

// Unproject maps a screen coordinate onto the ground plane under the current
// transform. Screen space is top-left-origin pixels. ok is false when the
// view ray does not meet the plane.
func (c *Camera) Unproject(screenX, screenY float64) (Vec3, bool) {
	upp := c.UnitsPerPixel()
	origin := Vec3{
		X: c.state.Position.X + (screenX-c.viewportW/2)*upp,
		Y: c.state.Position.Y,
		Z: c.state.Position.Z + (screenY-c.viewportH/2)*upp,
	}
	return intersectGroundPlane(origin, Vec3{X: 0, Y: -1, Z: 0})
}

// HitTest returns the id of the nearest projected point within a screen-space
// tolerance of radiusPx around the given screen coordinate. The tolerance
// shrinks as zoom grows, so precision scales with visual density. ok is false
// when no point is within reach.
func (c *Camera) HitTest(screenX, screenY float64, points []model.ProjectedPoint, radiusPx float64) (string, bool) {
	world, wok := c.Unproject(screenX, screenY)
	if !wok {
		return "", false
	}

	tol := radiusPx * c.UnitsPerPixel()
	tolSq := tol * tol

	bestID := ""
	bestSq := math.MaxFloat64
	for i := range points {
		dx := float64(points[i].X) - world.X
		dz := float64(points[i].Z) - world.Z
		dSq := dx*dx + dz*dz
		if dSq <= tolSq && dSq < bestSq {
			bestSq = dSq
			bestID = points[i].ID
		}
	}
	if bestID == "" {
		return "", false
	}
	return bestID, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
