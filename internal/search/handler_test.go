package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/searchkit/retrieval/internal/analyzer"
	"github.com/searchkit/retrieval/internal/corpus"
	"github.com/searchkit/retrieval/internal/index"
	"github.com/searchkit/retrieval/pkg/config"
	"github.com/searchkit/retrieval/pkg/metrics"
)

// Prometheus collectors register globally, so the whole test binary shares
// one Metrics value.
var testMetrics = metrics.New()

func testHandler(t *testing.T, e *Engine) *httptest.Server {
	t.Helper()
	h := NewHandler(e, nil, testMetrics, HandlerConfig{
		DefaultLimit:     10,
		MaxResults:       100,
		DefaultProximity: 1,
		FuzzyMaxDistance: 2,
	})
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding response from %s: %v", url, err)
		}
	}
}

func TestHandlerBoolean(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res BooleanResponse
	getJSON(t, srv.URL+"/api/v1/search?q=cold+summer&mode=and", http.StatusOK, &res)
	if res.Total != 1 || len(res.Docs) != 1 || res.Docs[0] != "doc3" {
		t.Errorf("boolean response = %+v, want doc3", res)
	}
	if res.Mode != ModeAnd {
		t.Errorf("mode = %q, want and", res.Mode)
	}
}

func TestHandlerBooleanDefaultsToAnd(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res BooleanResponse
	getJSON(t, srv.URL+"/api/v1/search?q=cold+night", http.StatusOK, &res)
	if res.Mode != ModeAnd {
		t.Errorf("default mode = %q, want and", res.Mode)
	}
	if want := []index.DocID{"doc1"}; len(res.Docs) != 1 || res.Docs[0] != want[0] {
		t.Errorf("docs = %v, want %v", res.Docs, want)
	}
}

func TestHandlerBooleanBadRequests(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	getJSON(t, srv.URL+"/api/v1/search", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/v1/search?q=cold&mode=xor", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/v1/search?q=cold&limit=0", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/v1/search?q=cold&limit=nope", http.StatusBadRequest, nil)
}

func TestHandlerBooleanLimitTruncates(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res BooleanResponse
	getJSON(t, srv.URL+"/api/v1/search?q=night&mode=or&limit=1", http.StatusOK, &res)
	if res.Total != 2 {
		t.Errorf("total = %d, want 2", res.Total)
	}
	if len(res.Docs) != 1 {
		t.Errorf("docs = %v, want exactly one after truncation", res.Docs)
	}
}

func TestHandlerProximity(t *testing.T) {
	srv := testHandler(t, testEngine(t, corpus.Collection{
		"1": "alpha beta gamma",
		"2": "x alpha y beta",
	}))

	var res ProximityResponse
	getJSON(t, srv.URL+"/api/v1/search/proximity?term1=alpha&term2=beta&distance=1", http.StatusOK, &res)
	if res.Total != 1 || res.Matches[0].Doc != "1" {
		t.Errorf("proximity response = %+v, want doc 1 only", res)
	}

	getJSON(t, srv.URL+"/api/v1/search/proximity?term1=alpha", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/v1/search/proximity?term1=a&term2=b&distance=-1", http.StatusBadRequest, nil)
}

func TestHandlerWildcard(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res WildcardResponse
	getJSON(t, srv.URL+"/api/v1/search/wildcard?pattern=co*", http.StatusOK, &res)
	if len(res.Terms) != 1 || res.Terms[0] != "cold" {
		t.Errorf("wildcard terms = %v, want [cold]", res.Terms)
	}
	if res.Total != 2 {
		t.Errorf("wildcard total = %d, want 2", res.Total)
	}

	getJSON(t, srv.URL+"/api/v1/search/wildcard", http.StatusBadRequest, nil)
}

func TestHandlerFuzzy(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res FuzzyResponse
	getJSON(t, srv.URL+"/api/v1/search/fuzzy?term=cald&max=1", http.StatusOK, &res)
	if len(res.Suggestions) != 1 || res.Suggestions[0].Term != "cold" {
		t.Errorf("fuzzy suggestions = %v, want [cold]", res.Suggestions)
	}

	getJSON(t, srv.URL+"/api/v1/search/fuzzy", http.StatusBadRequest, nil)
	getJSON(t, srv.URL+"/api/v1/search/fuzzy?term=x&max=-1", http.StatusBadRequest, nil)
}

func TestHandlerStats(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res StatsResponse
	getJSON(t, srv.URL+"/api/v1/index/stats", http.StatusOK, &res)
	if res.Docs != 3 {
		t.Errorf("stats docs = %d, want 3", res.Docs)
	}
	if res.Terms == 0 {
		t.Error("stats terms = 0, want vocabulary size")
	}
}

func TestHandlerStatsBeforeFirstBuild(t *testing.T) {
	e := NewEngine(analyzer.New(analyzer.Config{}), config.IndexConfig{KGramSize: 2})
	srv := testHandler(t, e)

	getJSON(t, srv.URL+"/api/v1/index/stats", http.StatusServiceUnavailable, nil)
	getJSON(t, srv.URL+"/api/v1/search?q=cold", http.StatusServiceUnavailable, nil)
}

func TestHandlerGapped(t *testing.T) {
	e := testEngine(t, testCollection())
	srv := testHandler(t, e)

	var gapped index.GappedIndex
	getJSON(t, srv.URL+"/api/v1/index/gapped", http.StatusOK, &gapped)
	decoded, err := gapped.Decode()
	if err != nil {
		t.Fatalf("decoding exported index: %v", err)
	}
	if len(decoded) != len(e.Snapshot().Inverted) {
		t.Errorf("exported index has %d terms, live index has %d", len(decoded), len(e.Snapshot().Inverted))
	}
}

func TestHandlerCacheDisabled(t *testing.T) {
	srv := testHandler(t, testEngine(t, testCollection()))

	var res map[string]any
	getJSON(t, srv.URL+"/api/v1/cache/stats", http.StatusOK, &res)
	if enabled, _ := res["enabled"].(bool); enabled {
		t.Error("cache stats report enabled with no cache wired")
	}
}

func TestKeyStable(t *testing.T) {
	a := Key("boolean", "and", "cold summer", "10")
	b := Key("boolean", "and", "cold summer", "10")
	if a != b {
		t.Errorf("identical inputs produced different keys: %q vs %q", a, b)
	}
	if c := Key("boolean", "or", "cold summer", "10"); c == a {
		t.Error("different mode produced the same key")
	}
	if !strings.HasPrefix(a, "query:boolean:") {
		t.Errorf("key %q missing operation prefix", a)
	}
}
