package hub

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/travel"
)

func newTestHub(t *testing.T) (*Hub, []agent.Agent) {
	t.Helper()
	logger := zap.NewNop()
	h := New(nil, logger)
	agents := []agent.Agent{
		agent.NewCoordinator(logger),
		agent.NewTravelAdvisor(logger),
		agent.NewBudgetOptimizer(logger),
		agent.NewWeatherAnalyst(logger),
		agent.NewLocalExpert(logger),
		agent.NewItineraryPlanner(travel.NewItineraryBuilder(travel.NewAttractionFinder()), logger),
	}
	for _, a := range agents {
		if err := h.Register(a); err != nil {
			t.Fatalf("register %s: %v", a.ID(), err)
		}
	}
	return h, agents
}

func TestRegisterDuplicate(t *testing.T) {
	h, agents := newTestHub(t)
	if err := h.Register(agents[0]); err == nil {
		t.Error("expected error on duplicate registration")
	}
	if h.Status().Agents != 6 {
		t.Errorf("expected 6 agents, got %d", h.Status().Agents)
	}
}

func TestByRole(t *testing.T) {
	h, _ := newTestHub(t)
	a, err := h.ByRole(agent.RoleWeatherAnalyst)
	if err != nil {
		t.Fatal(err)
	}
	if a.Role() != agent.RoleWeatherAnalyst {
		t.Errorf("wrong role: %s", a.Role())
	}
	h.Unregister(a.ID())
	if _, err := h.ByRole(agent.RoleWeatherAnalyst); err == nil {
		t.Error("expected ErrAgentNotFound after unregister")
	}
}

func TestConnectAll(t *testing.T) {
	h, agents := newTestHub(t)
	h.ConnectAll()

	advisor := agents[1].(*agent.TravelAdvisor)
	peers := advisor.Peers()
	if len(peers) != 5 {
		t.Errorf("expected 5 peers, got %d", len(peers))
	}
	if _, self := peers[advisor.ID()]; self {
		t.Error("agent should not peer with itself")
	}
}

func TestSendRecordsBothDirections(t *testing.T) {
	h, _ := newTestHub(t)
	msg := agent.NewMessage("coordinator-1", "advisor-1", agent.TypeQuery, "去杭州玩什么")

	reply, err := h.Send(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if reply == nil || reply.Sender != "advisor-1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	// Query plus response.
	if got := h.Status().Delivered; got != 2 {
		t.Errorf("expected 2 transcript entries, got %d", got)
	}
}

func TestSendUnknownReceiver(t *testing.T) {
	h, _ := newTestHub(t)
	_, err := h.Send(context.Background(), agent.NewMessage("a", "ghost", agent.TypeQuery, "?"))
	if err == nil {
		t.Fatal("expected error for unknown receiver")
	}
}

func TestBroadcastFanout(t *testing.T) {
	h, _ := newTestHub(t)
	msg := agent.NewMessage("coordinator-1", "", agent.TypeBroadcast, "开始规划")

	replies, err := h.Broadcast(context.Background(), msg)
	if err != nil {
		t.Fatal(err)
	}
	// Broadcasts are absorbed without replies, but every delivery is logged.
	if len(replies) != 0 {
		t.Errorf("broadcast should collect no replies, got %d", len(replies))
	}
	if got := h.Status().Delivered; got != 5 {
		t.Errorf("expected 5 deliveries (one per peer), got %d", got)
	}

	tr := h.Transcript(0)
	if len(tr) != 5 {
		t.Fatalf("expected 5 transcript entries, got %d", len(tr))
	}
	seen := make(map[string]bool)
	for _, m := range tr {
		if seen[m.Receiver] {
			t.Errorf("duplicate delivery to %s", m.Receiver)
		}
		seen[m.Receiver] = true
		if m.Receiver == "coordinator-1" {
			t.Error("sender should not receive its own broadcast")
		}
	}
}

func TestTranscriptLimit(t *testing.T) {
	h, _ := newTestHub(t)
	tr := h.Transcript(3)
	if len(tr) != 0 {
		t.Errorf("fresh hub should have empty transcript, got %d", len(tr))
	}
}

func TestDecideWeighting(t *testing.T) {
	de := NewDecisionEngine(zap.NewNop())
	recs := []*agent.Recommendation{
		{AgentID: "budget-1", Role: agent.RoleBudgetOptimizer, Confidence: 0.9, Summary: "b"},
		{AgentID: "weather-1", Role: agent.RoleWeatherAnalyst, Confidence: 0.6, Summary: "w"},
	}

	// Weather is the primary concern: 0.6*2 > 0.9*1.
	d, err := de.Decide("activity fit", agent.RoleWeatherAnalyst, recs)
	if err != nil {
		t.Fatal(err)
	}
	if d.Winner.Role != agent.RoleWeatherAnalyst {
		t.Errorf("expected weather analyst to win, got %s", d.Winner.Role)
	}
	wantConsensus := 1.2 / (1.2 + 0.9)
	if diff := d.Consensus - wantConsensus; diff > 0.001 || diff < -0.001 {
		t.Errorf("consensus %.3f, want %.3f", d.Consensus, wantConsensus)
	}

	// Without the concern match the higher confidence wins.
	d, err = de.Decide("spend", agent.RoleBudgetOptimizer, recs)
	if err != nil {
		t.Fatal(err)
	}
	if d.Winner.Role != agent.RoleBudgetOptimizer {
		t.Errorf("expected budget optimizer to win, got %s", d.Winner.Role)
	}
}

func TestDecideEmpty(t *testing.T) {
	de := NewDecisionEngine(zap.NewNop())
	if _, err := de.Decide("x", agent.RoleCoordinator, nil); err == nil {
		t.Error("expected error for empty input")
	}
}
