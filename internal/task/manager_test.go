package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/travel"
)

func newTestManager(t *testing.T) *Manager {
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
	return NewManager(orch, logger)
}

func tripRequest() *travel.TripRequest {
	return &travel.TripRequest{
		Destination: "杭州",
		StartDate:   "2026-05-01",
		EndDate:     "2026-05-03",
		Budget:      travel.TierMid,
	}
}

// waitDone polls until the task reaches a terminal state.
func waitDone(t *testing.T, m *Manager, id string) *Task {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		task, err := m.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if task.terminal() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task did not finish in time")
	return nil
}

func TestSubmitAndComplete(t *testing.T) {
	m := newTestManager(t)

	task, err := m.Submit(tripRequest(), EngineSociety)
	if err != nil {
		t.Fatal(err)
	}
	if task.ID == "" || task.Status != StatusPending {
		t.Errorf("unexpected initial state: %+v", task)
	}

	done := waitDone(t, m, task.ID)
	if done.Status != StatusDone {
		t.Fatalf("status %s, error %q", done.Status, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("progress %d, want 100", done.Progress)
	}
	if done.Result == nil || len(done.Result.Summary.Itinerary) != 3 {
		t.Error("result missing or itinerary wrong")
	}
}

func TestSubmitInvalid(t *testing.T) {
	m := newTestManager(t)
	req := tripRequest()
	req.EndDate = "2020-01-01"
	if _, err := m.Submit(req, EngineSociety); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSubmitGraphUnconfigured(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Submit(tripRequest(), EngineGraph); err == nil {
		t.Fatal("expected error when graph engine is absent")
	}
}

func TestGetUnknown(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Get("nope"); err == nil {
		t.Fatal("expected not-found error")
	}
}

func TestListOrder(t *testing.T) {
	m := newTestManager(t)
	first, err := m.Submit(tripRequest(), EngineSociety)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, m, first.ID)

	second, err := m.Submit(tripRequest(), EngineSociety)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, m, second.ID)

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(list))
	}
	if !list[0].CreatedAt.After(list[1].CreatedAt) && list[0].ID != second.ID {
		t.Error("list should be newest first")
	}
}

// captureStore records saved tasks and trips.
type captureStore struct {
	mu    sync.Mutex
	saved []*Task
	trips []*orchestrator.PlanResult
}

func (c *captureStore) SaveTask(ctx context.Context, t *Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, t)
	return nil
}

func (c *captureStore) SaveTrip(ctx context.Context, p *orchestrator.PlanResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trips = append(c.trips, p)
	return nil
}

// captureGrapher records place feedback.
type captureGrapher struct {
	mu     sync.Mutex
	cities []string
	places int
}

func (c *captureGrapher) RecordPlan(_ context.Context, city string, places map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cities = append(c.cities, city)
	c.places += len(places)
}

// captureNotifier records announcements.
type captureNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (c *captureNotifier) Announce(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	return nil
}

func TestCompletionSinks(t *testing.T) {
	m := newTestManager(t)
	store := &captureStore{}
	notifier := &captureNotifier{}
	grapher := &captureGrapher{}
	m.WithStore(store).WithNotifier(notifier).WithGrapher(grapher)

	task, err := m.Submit(tripRequest(), EngineSociety)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, m, task.ID)

	// finish runs after the terminal update; give the sinks a moment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		saved := len(store.saved)
		trips := len(store.trips)
		store.mu.Unlock()
		notifier.mu.Lock()
		notified := len(notifier.texts)
		notifier.mu.Unlock()
		grapher.mu.Lock()
		linked := len(grapher.cities)
		grapher.mu.Unlock()
		if saved == 1 && trips == 1 && notified == 1 && linked == 1 {
			if grapher.cities[0] != "杭州" {
				t.Errorf("got city %q, want 杭州", grapher.cities[0])
			}
			if grapher.places == 0 {
				t.Error("expected at least one linked place")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("store, notifier or grapher never saw the completed task")
}

func TestSweep(t *testing.T) {
	m := newTestManager(t)
	task, err := m.Submit(tripRequest(), EngineSociety)
	if err != nil {
		t.Fatal(err)
	}
	waitDone(t, m, task.ID)

	m.sweep(time.Nanosecond)
	if _, err := m.Get(task.ID); err == nil {
		t.Error("finished task should be swept")
	}

	// Unfinished tasks survive regardless of age.
	m.mu.Lock()
	m.tasks["held"] = &Task{ID: "held", Status: StatusRunning, UpdatedAt: time.Now().Add(-24 * time.Hour)}
	m.mu.Unlock()
	m.sweep(time.Nanosecond)
	if _, err := m.Get("held"); err != nil {
		t.Error("running task should never be swept")
	}
}
