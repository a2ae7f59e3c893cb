package core

import (
	"math"
	"time"

	"github.com/signalatlas/pointfield/model"
)

// MaxPolygonVertices bounds freehand capture so a long lasso drag cannot
// grow a gesture without limit.
const MaxPolygonVertices = 1000

// SelectionPhase is the discrete state of the gesture machine.
type SelectionPhase int

const (
	PhaseIdle SelectionPhase = iota
	PhaseCapturing
	PhaseEvaluating
)

// SelectionMachine orchestrates gesture capture and result aggregation. It
// owns the current selection set and the bounded history. Geometry capture
// happens in screen space; the engine unprojects at gesture-end and routes
// the query, reporting the correlation id back via AwaitResult.
//
// Mode changes while a gesture or query is in flight are queued, latest
// wins, and applied on the next return to Idle.
type SelectionMachine struct {
	phase       SelectionPhase
	mode        model.SelectionMode
	pendingMode *model.SelectionMode

	anchor   model.Point2D
	geometry model.SelectionGeometry

	currentQueryID string

	selection map[string]struct{}
	ordered   []string
	history   *History

	onSelectionChanged func([]string)
	now                func() time.Time
}

// NewSelectionMachine starts Idle in pan mode with an empty selection.
func NewSelectionMachine(history *History) *SelectionMachine {
	return &SelectionMachine{
		mode:      model.ModePan,
		selection: map[string]struct{}{},
		history:   history,
		now:       time.Now,
	}
}

// OnSelectionChanged registers the single observer notified whenever the
// selection set is replaced.
func (m *SelectionMachine) OnSelectionChanged(fn func([]string)) {
	m.onSelectionChanged = fn
}

// Phase returns the current machine state.
func (m *SelectionMachine) Phase() SelectionPhase { return m.phase }

// Mode returns the active selection mode.
func (m *SelectionMachine) Mode() model.SelectionMode { return m.mode }

// SetMode switches the gesture interpretation. While not Idle the request is
// queued (latest wins) and applied once the machine returns to Idle.
func (m *SelectionMachine) SetMode(mode model.SelectionMode) {
	if m.phase == PhaseIdle {
		m.mode = mode
		return
	}
	queued := mode
	m.pendingMode = &queued
}

// Geometry returns the live capture geometry, for overlay rendering.
func (m *SelectionMachine) Geometry() (model.SelectionGeometry, bool) {
	if m.phase != PhaseCapturing {
		return model.SelectionGeometry{}, false
	}
	return m.geometry, true
}

// Selection returns the current selection ids in the order the query
// returned them. The returned slice is a copy.
func (m *SelectionMachine) Selection() []string {
	return append([]string(nil), m.ordered...)
}

// BeginGesture starts capture at a screen coordinate. It returns false when
// the active mode is pan, in which case the caller routes the gesture to the
// camera instead. Starting a new gesture while a query is outstanding
// supersedes that query; its eventual response will be discarded.
func (m *SelectionMachine) BeginGesture(x, y float64) bool {
	if m.mode == model.ModePan {
		return false
	}

	// A gesture begun mid-evaluation abandons the in-flight query.
	m.currentQueryID = ""

	m.anchor = model.Point2D{X: x, Y: y}
	switch m.mode {
	case model.ModeRectangle:
		m.geometry = model.SelectionGeometry{Kind: model.GeometryRectangle, Min: m.anchor, Max: m.anchor}
	case model.ModeCircle:
		m.geometry = model.SelectionGeometry{Kind: model.GeometryCircle, Center: m.anchor}
	case model.ModePolygon:
		m.geometry = model.SelectionGeometry{Kind: model.GeometryPolygon, Points: []model.Point2D{m.anchor}}
	case model.ModeLasso:
		m.geometry = model.SelectionGeometry{Kind: model.GeometryLasso, Points: []model.Point2D{m.anchor}}
	}
	m.phase = PhaseCapturing
	return true
}

// UpdateGesture extends the capture with the current pointer position:
// rectangle and circle track the drag extent, polygon and lasso append a
// vertex. No-op outside Capturing.
func (m *SelectionMachine) UpdateGesture(x, y float64) {
	if m.phase != PhaseCapturing {
		return
	}
	p := model.Point2D{X: x, Y: y}
	switch m.geometry.Kind {
	case model.GeometryRectangle:
		m.geometry.Min = m.anchor
		m.geometry.Max = p
	case model.GeometryCircle:
		dx := p.X - m.anchor.X
		dy := p.Y - m.anchor.Y
		m.geometry.Center = m.anchor
		m.geometry.Radius = math.Sqrt(dx*dx + dy*dy)
	case model.GeometryPolygon, model.GeometryLasso:
		if len(m.geometry.Points) < MaxPolygonVertices {
			m.geometry.Points = append(m.geometry.Points, p)
		}
	}
}

// EndGesture finishes capture. When the geometry warrants a containment
// query it returns the captured screen-space geometry with evaluate=true and
// the machine enters Evaluating. A degenerate polygon or lasso (fewer than 3
// vertices) completes immediately as an empty selection with evaluate=false,
// without any query.
func (m *SelectionMachine) EndGesture() (geom model.SelectionGeometry, evaluate bool) {
	if m.phase != PhaseCapturing {
		return model.SelectionGeometry{}, false
	}

	captured := m.geometry.Clone()
	switch captured.Kind {
	case model.GeometryPolygon, model.GeometryLasso:
		if len(captured.Points) < 3 {
			m.complete(nil, captured)
			return model.SelectionGeometry{}, false
		}
	}

	m.phase = PhaseEvaluating
	m.currentQueryID = ""
	return captured, true
}

// AwaitResult records the correlation id of the dispatched query so a stale
// response from a superseded query can be told apart from the current one.
func (m *SelectionMachine) AwaitResult(queryID string) {
	if m.phase == PhaseEvaluating {
		m.currentQueryID = queryID
	}
}

// HandleResult applies a query response. A response whose correlation id
// does not match the current query is stale and ignored; applied is false.
// On a match the selection is replaced wholesale, a history entry is
// appended, and the machine returns to Idle.
func (m *SelectionMachine) HandleResult(queryID string, entityIDs []string) (applied bool) {
	if m.phase != PhaseEvaluating || queryID == "" || queryID != m.currentQueryID {
		return false
	}
	m.complete(entityIDs, m.geometry.Clone())
	return true
}

// Fail completes the current evaluation with an empty selection. Used when
// the query backend is unavailable; the machine still returns to Idle.
func (m *SelectionMachine) Fail() {
	if m.phase != PhaseEvaluating {
		return
	}
	m.complete(nil, m.geometry.Clone())
}

func (m *SelectionMachine) complete(entityIDs []string, geometry model.SelectionGeometry) {
	m.selection = make(map[string]struct{}, len(entityIDs))
	m.ordered = append(m.ordered[:0], entityIDs...)
	for _, id := range entityIDs {
		m.selection[id] = struct{}{}
	}

	if m.history != nil {
		m.history.Append(entityIDs, geometry, m.mode, m.now())
	}

	m.geometry = model.SelectionGeometry{}
	m.currentQueryID = ""
	m.phase = PhaseIdle

	if m.pendingMode != nil {
		m.mode = *m.pendingMode
		m.pendingMode = nil
	}

	if m.onSelectionChanged != nil {
		m.onSelectionChanged(m.Selection())
	}
}

// SelectionSet returns the selection as a set for renderer coloring. The map
// is owned by the machine; treat it as read-only.
func (m *SelectionMachine) SelectionSet() map[string]struct{} { return m.selection }
