package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/searchkit/retrieval/internal/index"
	pkgerrors "github.com/searchkit/retrieval/pkg/errors"
	"github.com/searchkit/retrieval/pkg/logger"
	"github.com/searchkit/retrieval/pkg/metrics"
)

// Handler is the HTTP surface over the query engine.
type Handler struct {
	engine  *Engine
	cache   *QueryCache // nil disables caching
	metrics *metrics.Metrics
	cfg     HandlerConfig
	logger  *slog.Logger
}

// HandlerConfig carries the query limits and defaults from configuration.
type HandlerConfig struct {
	DefaultLimit     int
	MaxResults       int
	DefaultProximity int
	FuzzyMaxDistance float64
}

// NewHandler wires the engine, optional cache, and metrics into an HTTP
// handler set.
func NewHandler(engine *Engine, cache *QueryCache, m *metrics.Metrics, cfg HandlerConfig) *Handler {
	return &Handler{
		engine:  engine,
		cache:   cache,
		metrics: m,
		cfg:     cfg,
		logger:  slog.Default().With("component", "search-handler"),
	}
}

// Register attaches all search routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Boolean)
	mux.HandleFunc("GET /api/v1/search/proximity", h.Proximity)
	mux.HandleFunc("GET /api/v1/search/wildcard", h.Wildcard)
	mux.HandleFunc("GET /api/v1/search/fuzzy", h.Fuzzy)
	mux.HandleFunc("GET /api/v1/index/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/index/gapped", h.Gapped)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// BooleanResponse is the payload for boolean queries.
type BooleanResponse struct {
	Query string        `json:"query"`
	Mode  Mode          `json:"mode"`
	Total int           `json:"total"`
	Docs  []index.DocID `json:"docs"`
}

// Boolean handles GET /api/v1/search?q=term1+term2&mode=and|or&limit=N.
func (h *Handler) Boolean(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	mode := Mode(strings.ToLower(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = ModeAnd
	}
	if mode != ModeAnd && mode != ModeOr {
		h.writeError(w, http.StatusBadRequest, "mode must be 'and' or 'or'")
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	h.respond(w, r, "boolean", Key("boolean", string(mode), query, strconv.Itoa(limit)), func() (any, int, error) {
		docs, err := h.engine.Boolean(mode, strings.Fields(query))
		if err != nil {
			return nil, 0, err
		}
		total := len(docs)
		return &BooleanResponse{
			Query: query,
			Mode:  mode,
			Total: total,
			Docs:  truncate(docs, limit),
		}, total, nil
	})
}

// ProximityResponse is the payload for proximity queries.
type ProximityResponse struct {
	Term1    string           `json:"term1"`
	Term2    string           `json:"term2"`
	Distance int              `json:"distance"`
	Total    int              `json:"total"`
	Matches  []ProximityMatch `json:"matches"`
}

// Proximity handles GET /api/v1/search/proximity?term1=a&term2=b&distance=K.
func (h *Handler) Proximity(w http.ResponseWriter, r *http.Request) {
	term1 := r.URL.Query().Get("term1")
	term2 := r.URL.Query().Get("term2")
	if term1 == "" || term2 == "" {
		h.writeError(w, http.StatusBadRequest, "query parameters 'term1' and 'term2' are required")
		return
	}
	distance := h.cfg.DefaultProximity
	if s := r.URL.Query().Get("distance"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "distance must be a non-negative integer")
			return
		}
		distance = parsed
	}

	h.respond(w, r, "proximity", Key("proximity", term1, term2, strconv.Itoa(distance)), func() (any, int, error) {
		matches, err := h.engine.Proximity(term1, term2, distance)
		if err != nil {
			return nil, 0, err
		}
		return &ProximityResponse{
			Term1:    term1,
			Term2:    term2,
			Distance: distance,
			Total:    len(matches),
			Matches:  matches,
		}, len(matches), nil
	})
}

// WildcardResponse is the payload for wildcard queries.
type WildcardResponse struct {
	Pattern string        `json:"pattern"`
	Terms   []string      `json:"terms"`
	Total   int           `json:"total"`
	Docs    []index.DocID `json:"docs"`
}

// Wildcard handles GET /api/v1/search/wildcard?pattern=ca*&limit=N.
func (h *Handler) Wildcard(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'pattern' is required")
		return
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	h.respond(w, r, "wildcard", Key("wildcard", pattern, strconv.Itoa(limit)), func() (any, int, error) {
		result, err := h.engine.Wildcard(pattern)
		if err != nil {
			return nil, 0, err
		}
		total := len(result.Docs)
		return &WildcardResponse{
			Pattern: pattern,
			Terms:   result.Terms,
			Total:   total,
			Docs:    truncate(result.Docs, limit),
		}, total, nil
	})
}

// FuzzyResponse is the payload for fuzzy term suggestions.
type FuzzyResponse struct {
	Term        string       `json:"term"`
	MaxDistance float64      `json:"max_distance"`
	Suggestions []Suggestion `json:"suggestions"`
}

// Fuzzy handles GET /api/v1/search/fuzzy?term=kitten&max=2&limit=N.
func (h *Handler) Fuzzy(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'term' is required")
		return
	}
	maxDistance := h.cfg.FuzzyMaxDistance
	if s := r.URL.Query().Get("max"); s != "" {
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "max must be a non-negative number")
			return
		}
		maxDistance = parsed
	}
	limit, ok := h.limit(w, r)
	if !ok {
		return
	}

	h.respond(w, r, "fuzzy", Key("fuzzy", term, strconv.FormatFloat(maxDistance, 'g', -1, 64), strconv.Itoa(limit)), func() (any, int, error) {
		suggestions, err := h.engine.Fuzzy(term, maxDistance, limit)
		if err != nil {
			return nil, 0, err
		}
		return &FuzzyResponse{
			Term:        term,
			MaxDistance: maxDistance,
			Suggestions: suggestions,
		}, len(suggestions), nil
	})
}

// StatsResponse summarises the live snapshot.
type StatsResponse struct {
	Docs    int       `json:"docs"`
	Terms   int       `json:"terms"`
	BuiltAt time.Time `json:"built_at"`
}

// Stats handles GET /api/v1/index/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, pkgerrors.ErrIndexNotReady.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, &StatsResponse{
		Docs:    snap.Docs,
		Terms:   len(snap.Inverted),
		BuiltAt: snap.BuiltAt,
	})
}

// Gapped handles GET /api/v1/index/gapped, exporting the inverted index in
// its gap-encoded transmission form.
func (h *Handler) Gapped(w http.ResponseWriter, r *http.Request) {
	gapped, err := h.engine.Gapped()
	if err != nil {
		h.writeEngineError(w, r.Context(), "gapped export", err)
		return
	}
	h.writeJSON(w, http.StatusOK, gapped)
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	hits, misses := h.cache.Stats()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"enabled": true,
		"hits":    hits,
		"misses":  misses,
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"enabled": false})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"invalidated": true})
}

// respond runs compute (through the cache when enabled), records metrics for
// the operation, and writes the JSON payload.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, op, cacheKey string, compute func() (any, int, error)) {
	start := time.Now()
	ctx := r.Context()

	run := func() ([]byte, error) {
		payload, count, err := compute()
		if err != nil {
			return nil, err
		}
		h.metrics.QueryResultsCount.WithLabelValues(op).Observe(float64(count))
		return json.Marshal(payload)
	}

	var (
		data []byte
		hit  bool
		err  error
	)
	if h.cache != nil {
		data, hit, err = h.cache.GetOrCompute(ctx, cacheKey, run)
	} else {
		data, err = run()
	}

	h.metrics.QueryLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		h.metrics.QueriesTotal.WithLabelValues(op, "error").Inc()
		h.writeEngineError(w, ctx, op, err)
		return
	}
	if hit {
		h.metrics.CacheHitsTotal.Inc()
	} else if h.cache != nil {
		h.metrics.CacheMissesTotal.Inc()
	}
	h.metrics.QueriesTotal.WithLabelValues(op, "ok").Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) writeEngineError(w http.ResponseWriter, ctx context.Context, op string, err error) {
	logger.FromContext(ctx).Error("query failed", "op", op, "error", err)
	h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
}

// limit parses the limit query parameter, clamped to MaxResults. The second
// return value is false when the response has already been written.
func (h *Handler) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.cfg.DefaultLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return 0, false
		}
		limit = parsed
	}
	if limit > h.cfg.MaxResults {
		limit = h.cfg.MaxResults
	}
	return limit, true
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
