package core

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/signalatlas/pointfield/model"
)

// Albers equal-area conic parameterization for the contiguous-US landmass.
// Standard parallels and the reference point follow the usual national-map
// convention (29.5°/45.5°, centred on 38°N 96°W).
const (
	albersParallel1Deg = 29.5
	albersParallel2Deg = 45.5
	albersOriginLatDeg = 38.0
	albersOriginLonDeg = -96.0

	// Inputs farther than this from the projection origin are outside the
	// valid domain and are rejected rather than approximated.
	maxLatOffsetDeg = 60.0
	maxLonOffsetDeg = 90.0
)

// Projection converts geographic coordinates to world-space positions on the
// ground plane. The parameterization (cone constants, scale, translation) is
// fixed at construction; Project is a pure function of it.
type Projection struct {
	n    float64 // cone constant
	c    float64
	rho0 float64

	scale      float64
	translateX float64
	translateZ float64
}

// NewProjection builds an Albers projection with the given world-unit scale
// and translation. The cone constants are derived once and cached.
func NewProjection(scale, translateX, translateZ float64) *Projection {
	phi1 := albersParallel1Deg * math.Pi / 180
	phi2 := albersParallel2Deg * math.Pi / 180
	phi0 := albersOriginLatDeg * math.Pi / 180

	n := (math.Sin(phi1) + math.Sin(phi2)) / 2
	c := math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1)

	return &Projection{
		n:          n,
		c:          c,
		rho0:       math.Sqrt(c-2*n*math.Sin(phi0)) / n,
		scale:      scale,
		translateX: translateX,
		translateZ: translateZ,
	}
}

// DefaultProjection is parameterized so the contiguous US spans roughly
// ±500 world units around the origin.
func DefaultProjection() *Projection {
	return NewProjection(1000.0, 0, 0)
}

// Project converts (lat, lon) in degrees to map-plane coordinates. ok is
// false when the input lies outside the projection's valid domain; no
// approximate value is produced in that case.
func (p *Projection) Project(lat, lon float64) (x, y float64, ok bool) {
	ll := s2.LatLngFromDegrees(lat, lon)
	if !ll.IsValid() {
		return 0, 0, false
	}
	if math.Abs(lat-albersOriginLatDeg) > maxLatOffsetDeg {
		return 0, 0, false
	}
	dLon := wrapDegrees(lon - albersOriginLonDeg)
	if math.Abs(dLon) > maxLonOffsetDeg {
		return 0, 0, false
	}

	phi := lat * math.Pi / 180
	rad := p.c - 2*p.n*math.Sin(phi)
	if rad < 0 {
		return 0, 0, false
	}
	rho := math.Sqrt(rad) / p.n
	theta := p.n * dLon * math.Pi / 180

	px := rho * math.Sin(theta)
	py := p.rho0 - rho*math.Cos(theta)
	return px*p.scale + p.translateX, py*p.scale + p.translateZ, true
}

// ProjectEntity places an entity on the ground plane. North maps to -z so a
// top-down view keeps the conventional map orientation. ok is false when the
// entity's coordinates are outside the projection domain.
func (p *Projection) ProjectEntity(e model.Entity) (model.ProjectedPoint, bool) {
	x, y, ok := p.Project(e.Lat, e.Lon)
	if !ok {
		return model.ProjectedPoint{}, false
	}
	return model.ProjectedPoint{
		ID: e.ID,
		X:  float32(x),
		Y:  0,
		Z:  float32(-y),
	}, true
}

// ProjectAll projects a full entity snapshot, silently excluding entities
// outside the projection domain.
func (p *Projection) ProjectAll(entities []model.Entity) []model.ProjectedPoint {
	out := make([]model.ProjectedPoint, 0, len(entities))
	for _, e := range entities {
		if pt, ok := p.ProjectEntity(e); ok {
			out = append(out, pt)
		}
	}
	return out
}

// wrapDegrees normalizes an angle to (-180, 180].
func wrapDegrees(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg <= -180 {
		deg += 360
	}
	return deg
}
