package query

import (
	"sync"

	"github.com/golang/geo/r2"
)

// Kind tags the geometry variant of a Request.
type Kind int

const (
	KindRectangle Kind = iota
	KindCircle
	KindPolygon
)

// Request is one containment query. Coordinates are pre-projected world x/z;
// the full point list travels with every call so the worker holds no state
// between requests. ID is a caller-generated correlation id echoed on the
// response.
type Request struct {
	ID   string
	Kind Kind

	// Rectangle
	Min r2.Point
	Max r2.Point

	// Circle
	Center r2.Point
	Radius float64

	// Polygon (lasso evaluates as polygon)
	Vertices []r2.Point

	Points []Point
}

// Response carries the filtered entity ids for the request with the same ID.
type Response struct {
	ID        string
	EntityIDs []string
}

// Worker evaluates requests on its own goroutine. It owns no mutable state;
// each request is self-sufficient, so calls are idempotent and late responses
// can be discarded safely by correlation id.
type Worker struct {
	requests  chan Request
	responses chan Response
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewWorker builds a worker with buffered channels sized so the interaction
// goroutine never blocks on dispatch in practice.
func NewWorker() *Worker {
	return &Worker{
		requests:  make(chan Request, 16),
		responses: make(chan Response, 16),
		stop:      make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop terminates the worker goroutine. In-flight requests may be dropped.
// Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Worker) run() {
	for {
		select {
		case <-w.stop:
			return
		case req := <-w.requests:
			select {
			case w.responses <- Response{ID: req.ID, EntityIDs: Evaluate(req)}:
			case <-w.stop:
				return
			}
		}
	}
}

// Dispatch enqueues a request. It returns false without blocking when the
// queue is full; the caller treats that as an empty result.
func (w *Worker) Dispatch(req Request) bool {
	select {
	case w.requests <- req:
		return true
	default:
		return false
	}
}

// Responses exposes the response channel for non-blocking draining by the
// interaction goroutine.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Evaluate runs the containment test described by req. Exposed so a caller
// without a live worker can still degrade gracefully, and for tests.
func Evaluate(req Request) []string {
	switch req.Kind {
	case KindRectangle:
		return InRectangle(req.Min, req.Max, req.Points)
	case KindCircle:
		return InCircle(req.Center, req.Radius, req.Points)
	case KindPolygon:
		return InPolygon(req.Vertices, req.Points)
	default:
		return []string{}
	}
}
