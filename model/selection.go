package model

import "time"

// SelectionMode selects how pointer gestures are interpreted.
type SelectionMode int

const (
	ModePan SelectionMode = iota
	ModeRectangle
	ModeCircle
	ModePolygon
	ModeLasso
)

func (m SelectionMode) String() string {
	switch m {
	case ModePan:
		return "pan"
	case ModeRectangle:
		return "rectangle"
	case ModeCircle:
		return "circle"
	case ModePolygon:
		return "polygon"
	case ModeLasso:
		return "lasso"
	default:
		return "unknown"
	}
}

// Point2D is a 2D coordinate. During gesture capture it is screen pixels;
// after unprojection it is world x/z.
type Point2D struct {
	X float64
	Y float64
}

// GeometryKind tags the active variant of a SelectionGeometry.
type GeometryKind int

const (
	GeometryRectangle GeometryKind = iota
	GeometryCircle
	GeometryPolygon
	GeometryLasso
)

// SelectionGeometry is the tagged union of capturable selection shapes.
// Created at gesture-start, mutated during gesture-move, consumed at
// gesture-end. Only the fields of the tagged variant are meaningful.
type SelectionGeometry struct {
	Kind GeometryKind

	// Rectangle
	Min Point2D
	Max Point2D

	// Circle
	Center Point2D
	Radius float64

	// Polygon / lasso vertices, in capture order.
	Points []Point2D
}

// Clone returns a deep copy so history snapshots do not alias the live
// capture buffer.
func (g SelectionGeometry) Clone() SelectionGeometry {
	out := g
	if g.Points != nil {
		out.Points = make([]Point2D, len(g.Points))
		copy(out.Points, g.Points)
	}
	return out
}

// HistoryEntry records one completed selection.
type HistoryEntry struct {
	ID        string
	Timestamp time.Time
	EntityIDs []string
	Geometry  SelectionGeometry
	Mode      SelectionMode
}
