package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"pointage.org/internal/access"
	"pointage.org/internal/obs"
	"pointage.org/internal/stream"
)

// ReadyProbe reports whether the service can take traffic (for example a
// database ping). A zero probe is always ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the access engine.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	engine     *access.Engine
	feed       *stream.Feed
	version    string

	rateBurst  int
	ratePerSec int
}

func New(rp ReadyProbe, version string, engine *access.Engine, feed *stream.Feed) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		engine:     engine,
		feed:       feed,
		version:    version,
		rateBurst:  20,
		ratePerSec: 10,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// scan ingestion and authorization checks
	a.mux.HandleFunc("/v1/scans", a.handleScans)
	a.mux.HandleFunc("/v1/scans/stream", a.Stream)
	a.mux.HandleFunc("/v1/authorize", a.handleAuthorize)

	// presence and worked-time views (back office only)
	a.mux.Handle("/v1/people/", RequireRole("admin")(http.HandlerFunc(a.handlePersonResource)))

	// kiosk enrollment
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "pointage-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "pointage-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
