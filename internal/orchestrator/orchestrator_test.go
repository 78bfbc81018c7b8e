package orchestrator

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/travel"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
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

	return New(h, hub.NewDecisionEngine(logger), Services{
		Weather:     travel.NewWeatherService("", logger),
		Hotels:      he,
		Attractions: af,
		Expenses:    travel.NewExpenseCalculator(he, af),
		Currency:    staticCurrency(logger),
		Itinerary:   ib,
	}, logger)
}

// staticCurrency returns a converter that never fetches live rates.
func staticCurrency(logger *zap.Logger) *travel.CurrencyConverter {
	return travel.NewCurrencyConverterStatic(logger)
}

func planRequest() *travel.TripRequest {
	return &travel.TripRequest{
		Destination: "杭州",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
		Budget:      travel.TierMid,
		GroupSize:   2,
	}
}

func TestPlanFullPipeline(t *testing.T) {
	o := newTestOrchestrator(t)

	var mu sync.Mutex
	var seen []Phase
	lastPercent := -1
	result, err := o.Plan(context.Background(), planRequest(), func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p.Phase)
		if p.Percent < lastPercent && p.Phase != PhaseConsult {
			t.Errorf("progress went backwards: %d after %d", p.Percent, lastPercent)
		}
		if p.Percent > lastPercent {
			lastPercent = p.Percent
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if result.ID == "" || result.Engine != "society" {
		t.Errorf("bad result identity: id=%q engine=%q", result.ID, result.Engine)
	}
	if len(result.Recommendations) != len(agent.Specialists) {
		t.Errorf("expected %d recommendations, got %d",
			len(agent.Specialists), len(result.Recommendations))
	}
	if len(result.Decisions) != len(synthesisTopics) {
		t.Errorf("expected %d decisions, got %d", len(synthesisTopics), len(result.Decisions))
	}
	if result.Consensus <= 0 || result.Consensus > 1 {
		t.Errorf("consensus %.3f out of range", result.Consensus)
	}
	if len(result.Summary.Itinerary) != 3 {
		t.Errorf("expected 3 day plans, got %d", len(result.Summary.Itinerary))
	}
	if result.MessagesUsed < 5 {
		t.Errorf("kickoff broadcast should log at least 5 messages, got %d", result.MessagesUsed)
	}

	wantOverall := (0.95 + 0.90 + 0.88 + 0.92 + 0.91) / 5
	if diff := result.Validation.Overall - wantOverall; diff > 0.0001 || diff < -0.0001 {
		t.Errorf("overall validation %.4f, want %.4f", result.Validation.Overall, wantOverall)
	}

	if result.CurrencyView["CNY"] == "" || result.CurrencyView["USD"] == "" {
		t.Errorf("currency view incomplete: %v", result.CurrencyView)
	}

	mu.Lock()
	defer mu.Unlock()
	if seen[0] != PhaseContext || seen[len(seen)-1] != PhaseDone {
		t.Errorf("phase sequence wrong: %v", seen)
	}
}

func TestPlanInvalidRequest(t *testing.T) {
	o := newTestOrchestrator(t)
	req := planRequest()
	req.Destination = ""
	if _, err := o.Plan(context.Background(), req, nil); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestQuickPlan(t *testing.T) {
	o := newTestOrchestrator(t)

	result, err := o.QuickPlan(context.Background(), planRequest())
	if err != nil {
		t.Fatal(err)
	}
	if result.Engine != "quick" {
		t.Errorf("engine %q, want quick", result.Engine)
	}
	if len(result.Recommendations) != 0 {
		t.Error("quick plan should not consult specialists")
	}
	if len(result.Summary.Itinerary) != 3 || result.Summary.Costs.Total() <= 0 {
		t.Error("quick plan should still produce itinerary and costs")
	}
}

func TestHistory(t *testing.T) {
	o := newTestOrchestrator(t)
	if len(o.History(0)) != 0 {
		t.Fatal("fresh orchestrator should have no history")
	}
	if _, err := o.Plan(context.Background(), planRequest(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Plan(context.Background(), planRequest(), nil); err != nil {
		t.Fatal(err)
	}
	if got := len(o.History(0)); got != 2 {
		t.Errorf("expected 2 history entries, got %d", got)
	}
	if got := len(o.History(1)); got != 1 {
		t.Errorf("expected 1 entry with limit, got %d", got)
	}
}
