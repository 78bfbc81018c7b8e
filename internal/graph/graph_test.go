package graph

import (
	"context"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/provider"
	"github.com/halcyard/windrose/internal/tools"
	"github.com/halcyard/windrose/internal/travel"
)

// scripted is a provider that replies from a fixed queue per role.
type scripted struct {
	id      string
	mu      sync.Mutex
	replies map[string][]string // role keyword in system prompt -> queue
	calls   int
}

func (s *scripted) ID() string   { return s.id }
func (s *scripted) Name() string { return s.id }

func (s *scripted) Chat(ctx context.Context, req *provider.ChatRequest) (*provider.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	system := ""
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = m.Content
		}
	}
	// Every role prompt opens with "你是…<role name>", so the key that
	// appears earliest in the system prompt identifies the role being
	// addressed (the coordinator prompt also lists specialist names later).
	best, bestIdx := "", -1
	for key, queue := range s.replies {
		if len(queue) == 0 {
			continue
		}
		if idx := strings.Index(system, key); idx >= 0 && (bestIdx < 0 || idx < bestIdx) {
			best, bestIdx = key, idx
		}
	}
	if best != "" {
		reply := s.replies[best][0]
		s.replies[best] = s.replies[best][1:]
		return &provider.ChatResponse{Content: reply}, nil
	}
	return &provider.ChatResponse{Content: "好的。"}, nil
}

func (s *scripted) ListModels(ctx context.Context) ([]provider.Model, error) { return nil, nil }
func (s *scripted) HealthCheck(ctx context.Context) error                    { return nil }

// fakeSearch satisfies tools.Searcher without the network.
type fakeSearch struct{ queries []string }

func (f *fakeSearch) Search(ctx context.Context, query string, limit int) ([]tools.SearchResult, error) {
	f.queries = append(f.queries, query)
	return []tools.SearchResult{{Title: "结果", Snippet: "模拟检索结果"}}, nil
}

func tripRequest() *travel.TripRequest {
	return &travel.TripRequest{
		Destination: "杭州",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
		Budget:      travel.TierMid,
		GroupSize:   2,
	}
}

func newEngine(t *testing.T, p provider.Provider, search tools.Searcher) *Engine {
	t.Helper()
	router := provider.NewRouter(zap.NewNop())
	router.Register(p)
	registry := tools.NewRegistry()
	tools.RegisterTravelTools(registry, search)
	return NewEngine(router, registry, zap.NewNop())
}

func TestRunConsultsEveryoneByDefault(t *testing.T) {
	// The coordinator never names a specialist, so the default order runs.
	p := &scripted{id: "fake", replies: map[string][]string{
		"协调员": {"继续", "继续", "继续", "继续", "继续", "FINAL_PLAN 按天行程..."},
	}}
	e := newEngine(t, p, &fakeSearch{})

	var events []string
	result, err := e.Run(context.Background(), tripRequest(), func(agentName, detail string) {
		events = append(events, agentName)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Outputs) != len(agent.Specialists) {
		t.Errorf("expected %d specialist outputs, got %d", len(agent.Specialists), len(result.Outputs))
	}
	for _, role := range agent.Specialists {
		if result.Outputs[role] == "" {
			t.Errorf("no output for %s", role)
		}
	}
	if !strings.Contains(result.FinalPlan, "按天行程") {
		t.Errorf("final plan not compiled: %q", result.FinalPlan)
	}
	if strings.Contains(result.FinalPlan, "FINAL_PLAN") {
		t.Error("marker should be stripped from the final plan")
	}
	if result.Hops > defaultMaxHops {
		t.Errorf("hop budget exceeded: %d", result.Hops)
	}
	if len(events) == 0 {
		t.Error("expected progress events")
	}
}

func TestRunCoordinatorRouting(t *testing.T) {
	// The coordinator names weather first, then asks for the final plan.
	p := &scripted{id: "fake", replies: map[string][]string{
		"协调员":   {"先问 weather_analyst", "FINAL_PLAN", "FINAL_PLAN 规划如下"},
		"天气分析师": {"五月杭州多雨，建议备伞"},
	}}
	e := newEngine(t, p, &fakeSearch{})

	result, err := e.Run(context.Background(), tripRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result.Outputs[agent.RoleWeatherAnalyst], "备伞") {
		t.Errorf("weather output missing: %v", result.Outputs)
	}
	// Only the named specialist ran before the early FINAL_PLAN.
	if len(result.Outputs) != 1 {
		t.Errorf("expected 1 output, got %d", len(result.Outputs))
	}
}

func TestRunSearchDetour(t *testing.T) {
	search := &fakeSearch{}
	p := &scripted{id: "fake", replies: map[string][]string{
		"协调员":   {"travel_advisor", "FINAL_PLAN", "FINAL_PLAN done"},
		"目的地顾问": {"NEED_SEARCH: 杭州 必去景点", "推荐西湖与灵隐寺"},
	}}
	e := newEngine(t, p, search)

	result, err := e.Run(context.Background(), tripRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Searches) != 1 {
		t.Fatalf("expected 1 search step, got %d", len(result.Searches))
	}
	step := result.Searches[0]
	if step.Tool != "search_attractions" {
		t.Errorf("keyword routing picked %s", step.Tool)
	}
	if step.Query != "杭州 必去景点" {
		t.Errorf("query %q", step.Query)
	}
	if len(search.queries) != 1 {
		t.Errorf("search executed %d times", len(search.queries))
	}
	if result.Outputs[agent.RoleTravelAdvisor] != "推荐西湖与灵隐寺" {
		t.Errorf("second turn should be the output, got %q", result.Outputs[agent.RoleTravelAdvisor])
	}
}

func TestRunHopBudget(t *testing.T) {
	// A coordinator that always stalls still terminates via the hop cap.
	p := &scripted{id: "fake", replies: map[string][]string{}}
	e := newEngine(t, p, &fakeSearch{})
	e.maxHops = 3

	result, err := e.Run(context.Background(), tripRequest(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Hops > 3 {
		t.Errorf("hops %d exceed cap", result.Hops)
	}
	// Default routing still consulted as many specialists as hops allowed.
	if len(result.Outputs) != 3 {
		t.Errorf("expected 3 outputs under cap, got %d", len(result.Outputs))
	}
}

func TestRunInvalidRequest(t *testing.T) {
	e := newEngine(t, &scripted{id: "fake"}, &fakeSearch{})
	req := tripRequest()
	req.StartDate = "not-a-date"
	if _, err := e.Run(context.Background(), req, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseSearchRequest(t *testing.T) {
	if q, ok := parseSearchRequest("NEED_SEARCH: 杭州天气\n其余内容"); !ok || q != "杭州天气" {
		t.Errorf("got %q, %v", q, ok)
	}
	if _, ok := parseSearchRequest("没有检索需求"); ok {
		t.Error("false positive")
	}
	if _, ok := parseSearchRequest("NEED_SEARCH:   "); ok {
		t.Error("empty query should not count")
	}
}
