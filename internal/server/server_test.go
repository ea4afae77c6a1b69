package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/b-franke/recyclebot/internal/advisor"
	"github.com/b-franke/recyclebot/internal/analytics"
)

// fakeAdviser serves canned advice.
type fakeAdviser struct {
	advice *advisor.Advice
	err    error
}

func (f *fakeAdviser) Advise(_ context.Context, query string) (*advisor.Advice, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.advice
	out.Query = query
	return &out, nil
}

// fakeIngester records submitted items.
type fakeIngester struct {
	err  error
	item string
}

func (f *fakeIngester) AddItem(_ context.Context, example, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.item = example
	return "00000000-0000-0000-0000-000000000001", nil
}

// failingPinger always reports its dependency as down.
type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }
func (failingPinger) Name() string               { return "qdrant" }

func newTestServer(t *testing.T, adv adviser, ing ingester, cfg *Config) (*Server, *analytics.Counters) {
	t.Helper()
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.Registry = prometheus.NewRegistry()
	counters := analytics.New()
	s, err := New(adv, ing, counters, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, counters
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAnalyze_KnownItem(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{
		Known:        true,
		Category:     "organic",
		Instructions: "Biotonne",
		Confidence:   0.91,
	}}
	s, counters := newTestServer(t, adv, nil, nil)

	w := postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Bananenschale"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var advice advisor.Advice
	if err := json.Unmarshal(w.Body.Bytes(), &advice); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if advice.Category != "organic" {
		t.Errorf("category = %q, want organic", advice.Category)
	}

	snap := counters.Snapshot()
	if snap.TotalQueries != 1 {
		t.Errorf("total = %d, want 1", snap.TotalQueries)
	}
	if got := snap.ByCategory["organic"]; got != 1 {
		t.Errorf("organic counter = %d, want 1", got)
	}
}

func TestAnalyze_ShortQuery(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{err: advisor.ErrQueryTooShort}
	s, counters := newTestServer(t, adv, nil, nil)

	w := postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "ab"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	// Rejected queries still count toward the total, just not any category.
	snap := counters.Snapshot()
	if snap.TotalQueries != 1 {
		t.Errorf("total = %d, want 1", snap.TotalQueries)
	}
	if len(snap.ByCategory) != 0 {
		t.Errorf("categories = %v, want empty", snap.ByCategory)
	}
}

func TestAnalyze_UnknownItem(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{Known: false, Confidence: 0.3}}
	s, counters := newTestServer(t, adv, nil, nil)

	w := postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Raumschiff"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	var advice advisor.Advice
	if err := json.Unmarshal(w.Body.Bytes(), &advice); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	// The near-miss confidence is still reported.
	if advice.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", advice.Confidence)
	}
	// Unanswered queries count toward the total but no category bucket.
	snap := counters.Snapshot()
	if snap.TotalQueries != 1 {
		t.Errorf("total = %d, want 1", snap.TotalQueries)
	}
	if len(snap.ByCategory) != 0 {
		t.Errorf("categories = %v, want empty", snap.ByCategory)
	}
}

func TestAnalyze_EngineFailure(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{err: errors.New("qdrant unreachable")}
	s, counters := newTestServer(t, adv, nil, nil)

	w := postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Karton"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	// Failed queries were still received, so they count toward the total.
	if got := counters.Snapshot().TotalQueries; got != 1 {
		t.Errorf("total = %d, want 1", got)
	}
}

func TestAnalyze_InvalidBody(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{Known: true, Category: "paper"}}
	s, counters := newTestServer(t, adv, nil, nil)

	w := postJSON(t, s.Handler(), "/api/analyze", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	// A body that never decodes is not a query.
	if got := counters.Snapshot().TotalQueries; got != 0 {
		t.Errorf("total = %d, want 0", got)
	}
}

func TestStats_ReflectsRecordedQueries(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{Known: true, Category: "glass"}}
	s, _ := newTestServer(t, adv, nil, nil)

	for range 3 {
		postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Weinflasche"}`)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap analytics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if snap.TotalQueries != 3 {
		t.Errorf("total = %d, want 3", snap.TotalQueries)
	}
	if snap.MostCommon != "glass" {
		t.Errorf("most common = %q, want glass", snap.MostCommon)
	}
}

func TestStats_IncludesUnansweredQueries(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{Known: false, Confidence: 0.2}}
	s, _ := newTestServer(t, adv, nil, nil)

	for range 2 {
		postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Raumschiff"}`)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var snap analytics.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if snap.TotalQueries != 2 {
		t.Errorf("total = %d, want 2", snap.TotalQueries)
	}
	if len(snap.ByCategory) != 0 {
		t.Errorf("categories = %v, want empty", snap.ByCategory)
	}
	if snap.RecyclingRate != 0 {
		t.Errorf("recycling rate = %v, want 0", snap.RecyclingRate)
	}
}

func TestIngest_SingleItem(t *testing.T) {
	t.Parallel()

	ing := &fakeIngester{}
	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, ing, nil)

	w := postJSON(t, s.Handler(), "/api/ingest", `{"item": "Pizzakarton", "category": "paper"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ing.item != "Pizzakarton" {
		t.Errorf("ingested item = %q, want Pizzakarton", ing.item)
	}

	var resp ingestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID == "" {
		t.Error("expected a point ID in the response")
	}
}

func TestIngest_MissingFields(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, &fakeIngester{}, nil)

	w := postJSON(t, s.Handler(), "/api/ingest", `{"item": "Pizzakarton"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing category, got %d", w.Code)
	}
}

func TestIngest_Failure(t *testing.T) {
	t.Parallel()

	ing := &fakeIngester{err: errors.New("qdrant down")}
	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, ing, nil)

	w := postJSON(t, s.Handler(), "/api/ingest", `{"item": "Pizzakarton", "category": "paper"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReady_NoPingers(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with no pingers, got %d", w.Code)
	}
}

func TestReady_FailingDependency(t *testing.T) {
	t.Parallel()

	cfg := &Config{Pingers: []Pinger{failingPinger{}}}
	s, _ := newTestServer(t, &fakeAdviser{advice: &advisor.Advice{}}, nil, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}

	var resp readyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Ready {
		t.Error("ready = true with a failing dependency")
	}
	if len(resp.Checks) != 1 || resp.Checks[0].Name != "qdrant" {
		t.Errorf("checks = %+v, want one qdrant entry", resp.Checks)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	adv := &fakeAdviser{advice: &advisor.Advice{Known: true, Category: "paper"}}
	s, _ := newTestServer(t, adv, nil, nil)

	postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Zeitung"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "recyclebot_analyze_requests_total") {
		t.Error("metrics output missing recyclebot_analyze_requests_total")
	}
	if !strings.Contains(body, `outcome="ok"`) {
		t.Error("metrics output missing ok outcome label")
	}
}

func TestAuthProtectsAPIRoutes(t *testing.T) {
	t.Parallel()

	cfg := &Config{APIKey: "secret"}
	adv := &fakeAdviser{advice: &advisor.Advice{Known: true, Category: "paper"}}
	s, _ := newTestServer(t, adv, nil, cfg)

	// Without a token the protected route is rejected.
	w := postJSON(t, s.Handler(), "/api/analyze", `{"item_description": "Zeitung"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Health stays open for probes.
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected 200 without token, got %d", rec.Code)
	}

	// With the token the route works.
	req2 := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(`{"item_description": "Zeitung"}`))
	req2.Header.Set("Authorization", "Bearer secret")
	rec2 := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec2.Code)
	}
}
