package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/store"
	"github.com/halcyard/windrose/internal/task"
	"github.com/halcyard/windrose/internal/travel"
)

type fakeTripStore struct {
	plans map[string]*orchestrator.PlanResult
}

func (f *fakeTripStore) GetTrip(_ context.Context, id string) (*orchestrator.PlanResult, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, fmt.Errorf("trip %s not found", id)
	}
	return p, nil
}

func (f *fakeTripStore) ListTrips(_ context.Context, limit int) ([]store.TripRecord, error) {
	var records []store.TripRecord
	for id, p := range f.plans {
		records = append(records, store.TripRecord{
			ID:          id,
			Destination: p.Request.Destination,
			Headline:    p.Headline(),
		})
	}
	return records, nil
}

func (f *fakeTripStore) DeleteTrip(_ context.Context, id string) error {
	if _, ok := f.plans[id]; !ok {
		return fmt.Errorf("trip %s not found", id)
	}
	delete(f.plans, id)
	return nil
}

type fakeRecall struct {
	matches []string
}

func (f *fakeRecall) Similar(_ context.Context, _ string, _ int) ([]string, error) {
	return f.matches, nil
}

func newTestHandler(t *testing.T) (*Handler, *fakeTripStore) {
	t.Helper()
	logger := zap.NewNop()
	h := hub.New(nil, logger)

	af := travel.NewAttractionFinder()
	he := travel.NewHotelEstimator()
	ib := travel.NewItineraryBuilder(af)
	for _, a := range []agent.Agent{
		agent.NewCoordinator(logger),
		agent.NewTravelAdvisor(logger),
		agent.NewBudgetOptimizer(logger),
		agent.NewWeatherAnalyst(logger),
		agent.NewLocalExpert(logger),
		agent.NewItineraryPlanner(ib, logger),
	} {
		if err := h.Register(a); err != nil {
			t.Fatal(err)
		}
	}
	h.ConnectAll()

	orch := orchestrator.New(h, hub.NewDecisionEngine(logger), orchestrator.Services{
		Weather:     travel.NewWeatherService("", logger),
		Hotels:      he,
		Attractions: af,
		Expenses:    travel.NewExpenseCalculator(he, af),
		Currency:    travel.NewCurrencyConverterStatic(logger),
		Itinerary:   ib,
	}, logger)
	tasks := task.NewManager(orch, logger)

	trips := &fakeTripStore{plans: make(map[string]*orchestrator.PlanResult)}
	recall := &fakeRecall{matches: []string{"杭州 3日 文化之旅"}}
	return NewHandler(tasks, orch, h, nil, trips, recall, logger), trips
}

func doRequest(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func planBody() map[string]interface{} {
	return map[string]interface{}{
		"destination": "杭州",
		"start_date":  "2026-05-01",
		"end_date":    "2026-05-03",
		"budget":      "mid",
		"group_size":  2,
	}
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	var resp map[string]interface{}
	decode(t, rec, &resp)
	if resp["status"] != "ok" {
		t.Errorf("got status %v, want ok", resp["status"])
	}
	if resp["agents"].(float64) != 6 {
		t.Errorf("got %v agents, want 6", resp["agents"])
	}
}

func TestSubmitPlanAndPoll(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	rec := doRequest(t, router, http.MethodPost, "/api/plan", planBody())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("got status %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var accepted map[string]string
	decode(t, rec, &accepted)
	id := accepted["task_id"]
	if id == "" {
		t.Fatal("expected a task_id")
	}

	deadline := time.Now().Add(10 * time.Second)
	for {
		rec = doRequest(t, router, http.MethodGet, "/api/status/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, want 200", rec.Code)
		}
		var status task.Task
		decode(t, rec, &status)
		if status.Status == task.StatusDone {
			if status.Result == nil {
				t.Fatal("done task should carry a result")
			}
			break
		}
		if status.Status == task.StatusFailed {
			t.Fatalf("task failed: %s", status.Error)
		}
		if time.Now().After(deadline) {
			t.Fatal("task did not finish in time")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// The finished plan is downloadable as an attachment.
	rec = doRequest(t, router, http.MethodGet, "/api/download/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got == "" {
		t.Error("expected a Content-Disposition header")
	}
}

func TestSubmitPlanInvalid(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodPost, "/api/plan", map[string]string{"destination": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", rec.Code)
	}
}

func TestDownloadBeforeDone(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodGet, "/api/download/no-such-task", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404", rec.Code)
	}
}

func TestSimplePlan(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodPost, "/api/simple-plan", planBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result orchestrator.PlanResult
	decode(t, rec, &result)
	if len(result.Summary.Itinerary) != 3 {
		t.Fatal("expected a 3 day itinerary")
	}
	if result.Engine != "quick" {
		t.Errorf("got engine %q, want quick", result.Engine)
	}
}

func TestMockPlanDefaults(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodPost, "/api/mock-plan", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var result orchestrator.PlanResult
	decode(t, rec, &result)
	if result.Request.Destination != "北京" {
		t.Errorf("got destination %q, want the canned default", result.Request.Destination)
	}
	if result.Engine != "mock" {
		t.Errorf("got engine %q, want mock", result.Engine)
	}
}

func TestListAgents(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodGet, "/api/agents", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	var infos []agentInfo
	decode(t, rec, &infos)
	if len(infos) != 6 {
		t.Fatalf("got %d agents, want 6", len(infos))
	}
}

func TestListProvidersEmpty(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := doRequest(t, h.Router(), http.MethodGet, "/api/providers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	var infos []providerInfo
	decode(t, rec, &infos)
	if len(infos) != 0 {
		t.Errorf("got %d providers, want 0", len(infos))
	}
}

func TestTripRoutes(t *testing.T) {
	h, trips := newTestHandler(t)
	router := h.Router()

	trips.plans["trip-1"] = &orchestrator.PlanResult{
		ID:      "trip-1",
		Request: &travel.TripRequest{Destination: "杭州", StartDate: "2026-05-01", EndDate: "2026-05-03"},
	}

	rec := doRequest(t, router, http.MethodGet, "/api/trips", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}
	var records []store.TripRecord
	decode(t, rec, &records)
	if len(records) != 1 {
		t.Fatalf("got %d trips, want 1", len(records))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/trips/trip-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/trips/trip-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/trips/trip-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got status %d after delete, want 404", rec.Code)
	}
}

func TestSimilarTrips(t *testing.T) {
	h, _ := newTestHandler(t)
	router := h.Router()

	rec := doRequest(t, router, http.MethodGet, "/api/trips/similar?q=%E6%9D%AD%E5%B7%9E", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Query   string   `json:"query"`
		Matches []string `json:"matches"`
	}
	decode(t, rec, &resp)
	if len(resp.Matches) != 1 {
		t.Errorf("got %d matches, want 1", len(resp.Matches))
	}

	rec = doRequest(t, router, http.MethodGet, "/api/trips/similar", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing q should be 400, got %d", rec.Code)
	}
}
