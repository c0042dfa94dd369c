package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/healthrun/cache"
	"github.com/jonwraymond/healthrun/observe"
)

// DefaultRoute is the route a health handler is mounted on when none is configured.
const DefaultRoute = "/health"

// HandlerConfig configures the health endpoint.
type HandlerConfig struct {
	// RunnerName selects the runner from the registry in Mount.
	// Default: "" (the default runner)
	RunnerName string

	// Route is the path the handler is mounted on. Leading and trailing
	// slashes are normalized.
	// Default: "/health"
	Route string

	// Indent pretty-prints the JSON body.
	Indent bool

	// StatusCodes maps the overall status to the HTTP response code.
	// Missing entries fall back to DefaultStatusCodes.
	StatusCodes map[Status]int

	// Coalesce lets concurrent requests share one in-flight run.
	Coalesce bool

	// CacheTTL serves a rendered report for this long before the checks run
	// again. Zero disables caching.
	CacheTTL time.Duration

	// Cache stores rendered reports when CacheTTL is set.
	// Default: in-memory
	Cache cache.Cache

	// Logger receives serialization failures.
	// Default: no-op
	Logger observe.Logger
}

// DefaultStatusCodes returns the default status mapping:
// Healthy and Degraded answer 200, Unhealthy answers 503.
func DefaultStatusCodes() map[Status]int {
	return map[Status]int{
		StatusHealthy:   http.StatusOK,
		StatusDegraded:  http.StatusOK,
		StatusUnhealthy: http.StatusServiceUnavailable,
	}
}

// NormalizeRoute returns route with exactly one leading slash and no trailing
// slash. An empty route yields DefaultRoute.
func NormalizeRoute(route string) string {
	if strings.TrimSpace(route) == "" {
		return DefaultRoute
	}
	return "/" + strings.Trim(strings.TrimSpace(route), "/")
}

// Handler serves a runner's report as JSON.
type Handler struct {
	runner  *Runner
	config  HandlerConfig
	codes   map[Status]int
	logger  observe.Logger
	group   singleflight.Group
	reports *cache.Middleware
}

// NewHandler creates a handler serving runner.
func NewHandler(runner *Runner, config HandlerConfig) *Handler {
	codes := DefaultStatusCodes()
	for status, code := range config.StatusCodes {
		codes[status] = code
	}
	logger := config.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	config.Route = NormalizeRoute(config.Route)

	h := &Handler{
		runner: runner,
		config: config,
		codes:  codes,
		logger: logger,
	}
	if config.CacheTTL > 0 {
		policy := cache.Policy{DefaultTTL: config.CacheTTL, MaxTTL: config.CacheTTL}
		h.reports = cache.NewMiddleware(config.Cache, policy)
	}
	return h
}

// Route returns the normalized route.
func (h *Handler) Route() string {
	return h.config.Route
}

// StatusCode returns the HTTP code for an overall status.
func (h *Handler) StatusCode(status Status) int {
	if code, ok := h.codes[status]; ok {
		return code
	}
	return http.StatusInternalServerError
}

type rendered struct {
	status Status
	body   []byte
	cached bool
}

// ServeHTTP runs the checks and writes the report.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	out, err := h.render(r.Context())
	if err != nil {
		h.logger.Error(r.Context(), "health report serialization failed",
			observe.Field{Key: "runner.name", Value: h.runner.Name()},
			observe.Field{Key: "error", Value: err.Error()},
		)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(out.body)))
	w.Header().Set("Cache-Control", "no-store")
	if h.reports != nil {
		if out.cached {
			w.Header().Set("X-Health-Cache", "hit")
		} else {
			w.Header().Set("X-Health-Cache", "miss")
		}
	}
	w.WriteHeader(h.StatusCode(out.status))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(out.body)
}

func (h *Handler) render(ctx context.Context) (rendered, error) {
	if h.reports == nil {
		return h.coalesce(ctx)
	}

	// A cached report outlives the request, so a client that goes away
	// must not leave "canceled" results behind for the next caller.
	var fresh rendered
	body, hit, err := h.reports.Execute(context.WithoutCancel(ctx), h.cacheKey(), func(ctx context.Context) ([]byte, time.Duration, error) {
		out, err := h.coalesce(ctx)
		fresh = out
		return out.body, 0, err
	})
	if err != nil {
		return rendered{}, err
	}
	if !hit {
		return fresh, nil
	}

	status, err := ParseStatus(gjson.GetBytes(body, "status").String())
	if err != nil {
		return rendered{}, fmt.Errorf("cached report: %w", err)
	}
	return rendered{status: status, body: body, cached: true}, nil
}

// cacheKey separates runners and output formats sharing one Cache.
func (h *Handler) cacheKey() string {
	format := "compact"
	if h.config.Indent {
		format = "indent"
	}
	return "health:" + h.runner.Name() + ":" + format
}

func (h *Handler) coalesce(ctx context.Context) (rendered, error) {
	if !h.config.Coalesce {
		return h.run(ctx)
	}

	// The shared run must not die with whichever request started it.
	v, err, _ := h.group.Do(h.runner.Name(), func() (any, error) {
		return h.run(context.WithoutCancel(ctx))
	})
	if err != nil {
		return rendered{}, err
	}
	return v.(rendered), nil
}

func (h *Handler) run(ctx context.Context) (rendered, error) {
	report := h.runner.Run(ctx)
	body, err := Serialize(report, h.config.Indent)
	if err != nil {
		return rendered{}, err
	}
	return rendered{status: report.Status, body: body}, nil
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Mount resolves the configured runner from registry and registers its
// handler on mux. A missing runner fails immediately with a
// *ConfigurationError rather than on the first request.
func Mount(mux *http.ServeMux, registry *Registry, config HandlerConfig) (*Handler, error) {
	runner, err := registry.Get(config.RunnerName)
	if err != nil {
		return nil, err
	}
	h := NewHandler(runner, config)
	mux.Handle(h.Route(), h)
	return h, nil
}

// LivenessHandler returns an HTTP handler for liveness probes.
// It reports that the process is serving without running any checks.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
