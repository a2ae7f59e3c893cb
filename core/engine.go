package core

import (
	"context"
	"time"

	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalatlas/pointfield/internal/logging"
	"github.com/signalatlas/pointfield/internal/observability"
	"github.com/signalatlas/pointfield/internal/query"
	"github.com/signalatlas/pointfield/model"
)

// defaultHoverRadiusPx is the screen-space hit-test tolerance for hover.
const defaultHoverRadiusPx = 8.0

// FrameStats is the per-frame performance counter snapshot published to the
// host.
type FrameStats struct {
	VisiblePoints int
	FrameCost     time.Duration
}

// Engine wires the projection, camera, point cloud, selection machine, and
// query worker into one interactive unit. All methods must be called from a
// single goroutine (the interaction/render goroutine); the only concurrent
// collaborator is the query worker, reached exclusively through correlated
// messages drained in Step.
type Engine struct {
	log     logging.Logger
	metrics *observability.EngineCollector
	tracer  trace.Tracer

	projection *Projection
	camera     *Camera
	cloud      *PointCloud
	history    *History
	machine    *SelectionMachine
	worker     *query.Worker

	points      []model.ProjectedPoint
	queryPoints []query.Point

	hoverID  string
	dragging bool
	last     model.Point2D

	hoverRadiusPx float64

	onHoverChanged     func(string)
	onSelectionChanged func([]string)
	onFrameStats       func(FrameStats)

	querySpan trace.Span
}

// EngineConfig carries the engine's collaborators. Logger and Metrics may be
// nil; Worker may be nil, in which case every selection query degrades to an
// empty result.
type EngineConfig struct {
	Logger     logging.Logger
	Metrics    *observability.EngineCollector
	Projection *Projection
	Worker     *query.Worker

	ViewportW float64
	ViewportH float64
}

// NewEngine builds an engine over an empty entity set.
func NewEngine(cfg EngineConfig) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	proj := cfg.Projection
	if proj == nil {
		proj = DefaultProjection()
	}

	history := NewHistory()
	e := &Engine{
		log:           log,
		metrics:       cfg.Metrics,
		tracer:        otel.Tracer("pointfield/engine"),
		projection:    proj,
		camera:        NewCamera(cfg.ViewportW, cfg.ViewportH),
		cloud:         NewPointCloud(),
		history:       history,
		machine:       NewSelectionMachine(history),
		worker:        cfg.Worker,
		hoverRadiusPx: defaultHoverRadiusPx,
	}

	e.machine.OnSelectionChanged(func(ids []string) {
		e.cloud.SetSelection(e.machine.SelectionSet())
		if e.onSelectionChanged != nil {
			e.onSelectionChanged(ids)
		}
	})
	return e
}

// Camera exposes the viewport manager, e.g. for host-driven reset.
func (e *Engine) Camera() *Camera { return e.camera }

// History exposes the selection history.
func (e *Engine) History() *History { return e.history }

// Cloud exposes the render buffers for the host's draw path.
func (e *Engine) Cloud() *PointCloud { return e.cloud }

// OnHoverChanged registers the hover-changed sink. An empty id means no
// point is hovered.
func (e *Engine) OnHoverChanged(fn func(string)) { e.onHoverChanged = fn }

// OnSelectionChanged registers the selection-changed sink.
func (e *Engine) OnSelectionChanged(fn func([]string)) { e.onSelectionChanged = fn }

// OnFrameStats registers the per-frame performance counter sink.
func (e *Engine) OnFrameStats(fn func(FrameStats)) { e.onFrameStats = fn }

// SetEntities replaces the entity snapshot wholesale. Entities outside the
// projection domain are silently excluded from the visible set.
func (e *Engine) SetEntities(ctx context.Context, entities []model.Entity) {
	e.points = e.projection.ProjectAll(entities)

	// Fresh allocation: an in-flight worker request may still reference the
	// previous slice.
	e.queryPoints = make([]query.Point, 0, len(e.points))
	for i := range e.points {
		e.queryPoints = append(e.queryPoints, query.Point{
			ID: e.points[i].ID,
			P:  r2.Point{X: float64(e.points[i].X), Y: float64(e.points[i].Z)},
		})
	}

	e.cloud.SetPoints(e.points)
	if dropped := len(entities) - len(e.points); dropped > 0 {
		e.log.Info(ctx, "entities outside projection domain excluded",
			logging.Int("dropped", dropped),
			logging.Int("visible", len(e.points)),
		)
	}
}

// Points returns the current projected working set. The engine retains
// ownership; callers must not mutate it.
func (e *Engine) Points() []model.ProjectedPoint { return e.points }

// SetMode forwards a mode change to the selection machine, which queues it
// while a gesture or query is in flight.
func (e *Engine) SetMode(mode model.SelectionMode) { e.machine.SetMode(mode) }

// Mode returns the active selection mode.
func (e *Engine) Mode() model.SelectionMode { return e.machine.Mode() }

// Selection returns the current selection ids.
func (e *Engine) Selection() []string { return e.machine.Selection() }

// PointerDown begins either a drag-pan (pan mode) or a selection capture.
// Beginning a capture supersedes any query still in flight, so its span is
// closed here rather than lingering until the next dispatch.
func (e *Engine) PointerDown(x, y float64) {
	e.last = model.Point2D{X: x, Y: y}
	if !e.machine.BeginGesture(x, y) {
		e.dragging = true
		return
	}
	e.endQuerySpan("superseded")
}

// PointerMove pans during a drag, extends an active capture, and recomputes
// hover synchronously. Hover stays live during capture so the cursor keeps
// tracking density even mid-gesture.
func (e *Engine) PointerMove(x, y float64) {
	if e.dragging {
		e.camera.Pan(e.last.X-x, e.last.Y-y)
	} else {
		e.machine.UpdateGesture(x, y)
		e.updateHover(x, y)
	}
	e.last = model.Point2D{X: x, Y: y}
}

// PointerUp ends a drag-pan or finishes a capture, dispatching the captured
// geometry to the query worker.
func (e *Engine) PointerUp(ctx context.Context) {
	if e.dragging {
		e.dragging = false
		return
	}
	geom, evaluate := e.machine.EndGesture()
	if !evaluate {
		return
	}
	e.dispatch(ctx, geom)
}

// Wheel applies a zoom delta anchored at the pointer position.
func (e *Engine) Wheel(delta, x, y float64) {
	e.camera.Zoom(delta, x, y)
}

// dispatch unprojects the captured screen-space geometry to the ground plane
// and sends it to the worker. Worker unavailability and unprojectable
// geometry both degrade to an empty selection.
func (e *Engine) dispatch(ctx context.Context, geom model.SelectionGeometry) {
	req, kind, ok := e.buildRequest(geom)
	if !ok {
		e.machine.Fail()
		return
	}

	req.ID = uuid.NewString()
	req.Points = e.queryPoints

	if e.metrics != nil {
		e.metrics.QueriesDispatched.WithLabelValues(kind).Inc()
	}
	e.endQuerySpan("superseded")
	_, e.querySpan = e.tracer.Start(ctx, "selection.query",
		trace.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("correlation_id", req.ID),
			attribute.Int("points", len(req.Points)),
		),
	)

	if e.worker == nil || !e.worker.Dispatch(req) {
		if e.metrics != nil {
			e.metrics.QueriesFailed.Inc()
		}
		e.log.Warn(ctx, "query worker unavailable; selection degraded to empty",
			logging.String("kind", kind))
		e.endQuerySpan("worker unavailable")
		e.machine.Fail()
		return
	}
	e.machine.AwaitResult(req.ID)
}

// buildRequest converts screen-space geometry to a world-space worker
// request. ok is false when any part of the geometry cannot be unprojected.
func (e *Engine) buildRequest(geom model.SelectionGeometry) (query.Request, string, bool) {
	toPlane := func(p model.Point2D) (r2.Point, bool) {
		w, ok := e.camera.Unproject(p.X, p.Y)
		if !ok {
			return r2.Point{}, false
		}
		return r2.Point{X: w.X, Y: w.Z}, true
	}

	switch geom.Kind {
	case model.GeometryRectangle:
		min, ok1 := toPlane(geom.Min)
		max, ok2 := toPlane(geom.Max)
		if !ok1 || !ok2 {
			return query.Request{}, "rectangle", false
		}
		return query.Request{Kind: query.KindRectangle, Min: min, Max: max}, "rectangle", true

	case model.GeometryCircle:
		center, ok := toPlane(geom.Center)
		if !ok {
			return query.Request{}, "circle", false
		}
		radius := geom.Radius * e.camera.UnitsPerPixel()
		return query.Request{Kind: query.KindCircle, Center: center, Radius: radius}, "circle", true

	case model.GeometryPolygon, model.GeometryLasso:
		name := "polygon"
		if geom.Kind == model.GeometryLasso {
			name = "lasso"
		}
		vertices := make([]r2.Point, 0, len(geom.Points))
		for _, p := range geom.Points {
			v, ok := toPlane(p)
			if !ok {
				return query.Request{}, name, false
			}
			vertices = append(vertices, v)
		}
		return query.Request{Kind: query.KindPolygon, Vertices: vertices}, name, true
	}
	return query.Request{}, "unknown", false
}

// Step runs one frame: drain worker responses, apply or discard them by
// correlation id, rebuild dirty render buffers, and publish frame stats.
// Never blocks on the worker.
func (e *Engine) Step(now time.Time) {
	start := time.Now()

	if e.worker != nil {
	drain:
		for {
			select {
			case resp := <-e.worker.Responses():
				if e.machine.HandleResult(resp.ID, resp.EntityIDs) {
					if e.metrics != nil {
						e.metrics.QueriesApplied.Inc()
					}
					e.endQuerySpan("")
				} else {
					if e.metrics != nil {
						e.metrics.QueriesStale.Inc()
					}
				}
			default:
				break drain
			}
		}
	}

	if e.cloud.RebuildIfDirty() {
		if e.metrics != nil {
			e.metrics.BufferRebuilds.Inc()
			e.metrics.VisiblePoints.Set(float64(e.cloud.Count()))
		}
	}

	cost := time.Since(start)
	if e.metrics != nil {
		e.metrics.FrameDuration.Observe(cost.Seconds())
	}
	if e.onFrameStats != nil {
		e.onFrameStats(FrameStats{VisiblePoints: e.cloud.Count(), FrameCost: cost})
	}
}

// updateHover recomputes the hovered point on every pointer move. Linear
// scan; cheap enough for 60 Hz input without debouncing.
func (e *Engine) updateHover(x, y float64) {
	id, _ := e.camera.HitTest(x, y, e.points, e.hoverRadiusPx)
	if id == e.hoverID {
		return
	}
	e.hoverID = id
	e.cloud.SetHover(id)
	if e.metrics != nil {
		e.metrics.HoverChanges.Inc()
	}
	if e.onHoverChanged != nil {
		e.onHoverChanged(id)
	}
}

func (e *Engine) endQuerySpan(reason string) {
	if e.querySpan == nil {
		return
	}
	if reason != "" {
		e.querySpan.AddEvent(reason)
	}
	e.querySpan.End()
	e.querySpan = nil
}
