// mapd hosts the point-field engine behind an HTTP surface: entity snapshots
// come in over REST, pointer gestures over a websocket, and hover/selection/
// performance events stream back out. Prometheus metrics are served on
// /metrics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/signalatlas/pointfield/core"
	"github.com/signalatlas/pointfield/frameloop"
	"github.com/signalatlas/pointfield/internal/logging"
	"github.com/signalatlas/pointfield/internal/observability"
	"github.com/signalatlas/pointfield/internal/query"
	"github.com/signalatlas/pointfield/internal/regions"
	"github.com/signalatlas/pointfield/model"
)

const (
	defaultAddr      = ":8080"
	inputQueueDepth  = 256
	statsEveryFrames = 60 // roughly once per second at the default rate

	// Buffer around the snapshot's bounding box so the published coverage
	// comfortably encloses points near the edge.
	coverageBufferKm = 25.0
)

// entityRecord is the wire form of one entity plus its display attributes.
type entityRecord struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// inputEvent is one host command consumed by the frame loop. All engine
// mutation funnels through these so the engine stays single-writer.
type inputEvent struct {
	Kind     string         `json:"type"`
	X        float64        `json:"x"`
	Y        float64        `json:"y"`
	Delta    float64        `json:"delta"`
	Mode     string         `json:"mode"`
	Entities []entityRecord `json:"entities,omitempty"`
}

func main() {
	entitiesPath := flag.String("entities", "", "optional JSON file with the initial entity snapshot")
	regionsPath := flag.String("regions", "", "optional GeoJSON file with choropleth region outlines")
	viewportW := flag.Float64("viewport-width", 1280, "logical viewport width in pixels")
	viewportH := flag.Float64("viewport-height", 800, "logical viewport height in pixels")
	flag.Parse()

	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := observability.NewEngineCollector(nil)
	if err != nil {
		log.Error(ctx, "metrics setup failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	tracing, err := observability.NewTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing setup failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer tracing.Close(context.Background())

	worker := query.NewWorker()
	worker.Start()
	defer worker.Stop()

	engine := core.NewEngine(core.EngineConfig{
		Logger:    log,
		Metrics:   collector,
		Worker:    worker,
		ViewportW: *viewportW,
		ViewportH: *viewportH,
	})

	h := newHub()
	inputs := make(chan inputEvent, inputQueueDepth)

	// Host-side attribute table, owned by the frame-loop goroutine.
	attrs := map[string]model.DisplayAttributes{}
	entities := map[string]model.Entity{}

	engine.OnHoverChanged(func(id string) {
		h.broadcast(map[string]any{"type": "hover", "id": id})
	})
	engine.OnSelectionChanged(func(ids []string) {
		ranked := core.RankByDistance(ids, entities)
		stats := core.AggregateSelection(ids, attrs, 10)
		h.broadcast(map[string]any{
			"type":          "selection",
			"ids":           ranked,
			"count":         stats.Count,
			"mean_price":    stats.MeanPrice,
			"total_volume":  stats.TotalVolume,
			"top_by_volume": stats.TopByVolume,
		})
	})
	engine.History().OnMutated(func(m core.HistoryMutation, entry model.HistoryEntry) {
		event := map[string]any{"type": "history"}
		switch m {
		case core.HistoryAppended:
			event["op"] = "append"
			event["id"] = entry.ID
			event["mode"] = entry.Mode.String()
			event["size"] = len(entry.EntityIDs)
		case core.HistoryRemoved:
			event["op"] = "remove"
			event["id"] = entry.ID
		case core.HistoryCleared:
			event["op"] = "clear"
		}
		h.broadcast(event)
	})

	frames := 0
	engine.OnFrameStats(func(s core.FrameStats) {
		frames++
		if frames%statsEveryFrames != 0 {
			return
		}
		h.broadcast(map[string]any{
			"type":       "perf",
			"visible":    s.VisiblePoints,
			"frame_cost": s.FrameCost.Seconds(),
			"zoom":       engine.Camera().State().Zoom,
		})
	})

	apply := func(ev inputEvent) {
		switch ev.Kind {
		case "pointerdown":
			engine.PointerDown(ev.X, ev.Y)
		case "pointermove":
			engine.PointerMove(ev.X, ev.Y)
		case "pointerup":
			engine.PointerUp(ctx)
		case "wheel":
			engine.Wheel(ev.Delta, ev.X, ev.Y)
		case "mode":
			engine.SetMode(parseMode(ev.Mode))
		case "reset":
			engine.Camera().Reset()
		case "snapshot":
			applySnapshot(ctx, log, engine, h, ev.Entities, attrs, entities)
		default:
			log.Warn(ctx, "unknown input event", logging.String("kind", ev.Kind))
		}
	}

	if *entitiesPath != "" {
		records, err := loadEntitiesFile(*entitiesPath)
		if err != nil {
			log.Error(ctx, "entity snapshot load failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		applySnapshot(ctx, log, engine, h, records, attrs, entities)
	}

	var colors *core.RegionColorAssignment
	if *regionsPath != "" {
		adjacency, err := regions.Load(*regionsPath)
		if err != nil {
			log.Error(ctx, "regions load failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		colors = core.AssignRegionColors(adjacency, core.DefaultPaletteSize)
		log.Info(ctx, "region colors assigned", logging.Int("regions", colors.Len()))
	}

	loop := frameloop.NewLoop(frameloop.DefaultInterval)
	loop.AddListener(func(now time.Time) {
		for {
			select {
			case ev := <-inputs:
				apply(ev)
			default:
				engine.Step(now)
				return
			}
		}
	})
	loopDone := loop.Start()
	defer func() {
		loop.Stop()
		<-loopDone
	}()

	router := chi.NewRouter()
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", collector.Handler())
	router.Post("/api/entities", func(w http.ResponseWriter, r *http.Request) {
		var records []entityRecord
		if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
			http.Error(w, "invalid entity snapshot: "+err.Error(), http.StatusBadRequest)
			return
		}
		select {
		case inputs <- inputEvent{Kind: "snapshot", Entities: records}:
			w.WriteHeader(http.StatusAccepted)
		default:
			http.Error(w, "input queue full", http.StatusServiceUnavailable)
		}
	})
	router.Get("/api/regions/colors", func(w http.ResponseWriter, _ *http.Request) {
		if colors == nil {
			http.Error(w, "no regions loaded", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(colors.Assigned())
	})
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(ctx, log, h, inputs, w, r)
	})

	addr := os.Getenv("POINTFIELD_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "mapd listening", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, "server failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

// applySnapshot replaces the engine's entity set and the host attribute
// tables wholesale, then publishes the buffered geographic coverage of the
// new snapshot to connected clients. Runs on the frame-loop goroutine.
func applySnapshot(ctx context.Context, log logging.Logger, engine *core.Engine, h *hub, records []entityRecord, attrs map[string]model.DisplayAttributes, entities map[string]model.Entity) {
	snapshot := make([]model.Entity, 0, len(records))
	for k := range attrs {
		delete(attrs, k)
	}
	for k := range entities {
		delete(entities, k)
	}

	for _, r := range records {
		e := model.Entity{ID: r.ID, Lat: r.Lat, Lon: r.Lon}
		snapshot = append(snapshot, e)
		entities[r.ID] = e
		attrs[r.ID] = model.DisplayAttributes{Price: r.Price, Volume: r.Volume}
	}

	engine.SetEntities(ctx, snapshot)

	if bounds, ok := core.BoundsOf(snapshot); ok {
		coverage := bounds.Expand(coverageBufferKm)
		h.broadcast(map[string]any{
			"type":     "coverage",
			"entities": len(snapshot),
			"min_lat":  coverage.MinLat,
			"max_lat":  coverage.MaxLat,
			"min_lon":  coverage.MinLon,
			"max_lon":  coverage.MaxLon,
		})
		log.Info(ctx, "entity snapshot applied",
			logging.Int("entities", len(snapshot)),
			logging.Float64("min_lat", coverage.MinLat),
			logging.Float64("max_lat", coverage.MaxLat),
			logging.Float64("min_lon", coverage.MinLon),
			logging.Float64("max_lon", coverage.MaxLon),
		)
	}
}

func loadEntitiesFile(path string) ([]entityRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []entityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseMode(s string) model.SelectionMode {
	switch s {
	case "rectangle":
		return model.ModeRectangle
	case "circle":
		return model.ModeCircle
	case "polygon":
		return model.ModePolygon
	case "lasso":
		return model.ModeLasso
	default:
		return model.ModePan
	}
}

// hub fans engine events out to all connected websocket clients.
type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newHub() *hub {
	return &hub{conns: map[*websocket.Conn]struct{}{}}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

// broadcast sends an event to every client, dropping connections whose
// writes fail.
func (h *hub) broadcast(event map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		if err := c.WriteJSON(event); err != nil {
			_ = c.Close()
			delete(h.conns, c)
		}
	}
}

var upgrader = websocket.Upgrader{
	// The daemon is a local development surface; cross-origin hosts are
	// expected when the viewer is served elsewhere.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS upgrades the connection, registers it with the hub, and pumps
// inbound pointer/mode frames into the engine's input queue.
func serveWS(ctx context.Context, log logging.Logger, h *hub, inputs chan<- inputEvent, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.String("error", err.Error()))
		return
	}
	h.add(conn)
	defer func() {
		h.remove(conn)
		_ = conn.Close()
	}()

	for {
		var ev inputEvent
		if err := conn.ReadJSON(&ev); err != nil {
			return
		}
		select {
		case inputs <- ev:
		default:
			// Queue full: drop the event rather than stall the reader;
			// pointer streams tolerate loss.
		}
	}
}
