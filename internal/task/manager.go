// Package task runs planning jobs in the background and tracks their
// lifecycle: submit, poll progress, fetch the result.
package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/graph"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/orchestrator"
	"github.com/halcyard/windrose/internal/travel"
)

// Status is a task's lifecycle state. done and failed are terminal.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Engine selects which planner runs the task.
type Engine string

const (
	EngineSociety Engine = "society"
	EngineGraph   Engine = "graph"
)

// Task is one background planning job.
type Task struct {
	ID           string                   `json:"id"`
	Request      *travel.TripRequest      `json:"request"`
	Engine       Engine                   `json:"engine"`
	Status       Status                   `json:"status"`
	Progress     int                      `json:"progress"`
	CurrentAgent string                   `json:"current_agent,omitempty"`
	Message      string                   `json:"message,omitempty"`
	Error        string                   `json:"error,omitempty"`
	Result       *orchestrator.PlanResult `json:"result,omitempty"`
	GraphResult  *graph.Result            `json:"graph_result,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// terminal reports whether the task has finished.
func (t *Task) terminal() bool {
	return t.Status == StatusDone || t.Status == StatusFailed
}

// Store persists finished tasks and their plans. Implemented by the
// Postgres store.
type Store interface {
	SaveTask(ctx context.Context, t *Task) error
	SaveTrip(ctx context.Context, p *orchestrator.PlanResult) error
}

// Grapher feeds the places of a finished plan into the destination graph.
type Grapher interface {
	RecordPlan(ctx context.Context, city string, places map[string]string)
}

// Notifier announces completed plans. Implemented by the chat notifiers.
type Notifier interface {
	Announce(ctx context.Context, text string) error
}

// Indexer records finished plans for similarity recall.
type Indexer interface {
	IndexTrip(ctx context.Context, id, text string) error
}

// Janitor and timeout defaults.
const (
	defaultTimeout   = 5 * time.Minute
	defaultRetention = time.Hour
	janitorInterval  = 10 * time.Minute
)

// Manager owns the task table and the background runners.
type Manager struct {
	orch    *orchestrator.Orchestrator
	graph   *graph.Engine // optional
	store   Store         // optional
	events  *hub.EventStream
	notify  Notifier // optional
	index   Indexer  // optional
	places  Grapher  // optional
	logger  *zap.Logger
	timeout time.Duration

	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewManager creates a task manager over the simulated engine. The graph
// engine and all sinks are optional.
func NewManager(orch *orchestrator.Orchestrator, logger *zap.Logger) *Manager {
	return &Manager{
		orch:    orch,
		logger:  logger,
		timeout: defaultTimeout,
		tasks:   make(map[string]*Task),
	}
}

// WithGraph wires the LLM graph engine.
func (m *Manager) WithGraph(g *graph.Engine) *Manager { m.graph = g; return m }

// WithStore wires task persistence.
func (m *Manager) WithStore(s Store) *Manager { m.store = s; return m }

// WithEvents wires the planning event stream.
func (m *Manager) WithEvents(es *hub.EventStream) *Manager { m.events = es; return m }

// WithNotifier wires completion announcements.
func (m *Manager) WithNotifier(n Notifier) *Manager { m.notify = n; return m }

// WithIndexer wires similar-trip indexing.
func (m *Manager) WithIndexer(i Indexer) *Manager { m.index = i; return m }

// WithGrapher wires the destination knowledge graph feedback.
func (m *Manager) WithGrapher(g Grapher) *Manager { m.places = g; return m }

// WithTimeout overrides the per-task deadline. Non-positive values keep the
// default.
func (m *Manager) WithTimeout(d time.Duration) *Manager {
	if d > 0 {
		m.timeout = d
	}
	return m
}

// Submit validates the request and starts a background run. The returned
// task snapshot is immediately pollable.
func (m *Manager) Submit(req *travel.TripRequest, engine Engine) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if engine == "" {
		engine = EngineSociety
	}
	if engine == EngineGraph && m.graph == nil {
		return nil, fmt.Errorf("graph engine is not configured")
	}

	t := &Task{
		ID:        uuid.NewString(),
		Request:   req,
		Engine:    engine,
		Status:    StatusPending,
		Message:   "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.mu.Lock()
	m.tasks[t.ID] = t
	m.mu.Unlock()

	go m.run(t.ID)
	return snapshot(t), nil
}

// Get returns a snapshot of one task.
func (m *Manager) Get(id string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return snapshot(t), nil
}

// List returns snapshots of every task, newest first.
func (m *Manager) List() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, snapshot(t))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// StartJanitor expires finished tasks older than retention. Runs until the
// context is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, retention time.Duration) {
	if retention <= 0 {
		retention = defaultRetention
	}
	ticker := time.NewTicker(janitorInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(retention)
			}
		}
	}()
}

func (m *Manager) sweep(retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, t := range m.tasks {
		if t.terminal() && t.UpdatedAt.Before(cutoff) {
			delete(m.tasks, id)
			m.logger.Debug("task expired", zap.String("id", id))
		}
	}
}

func (m *Manager) run(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.update(id, func(t *Task) {
		t.Status = StatusRunning
		t.Message = "planning started"
	})
	m.publish(ctx, id, "task started")

	var (
		result *orchestrator.PlanResult
		gres   *graph.Result
		err    error
	)
	switch m.engine(id) {
	case EngineGraph:
		gres, err = m.graph.Run(ctx, m.request(id), func(agentName, detail string) {
			m.update(id, func(t *Task) {
				t.CurrentAgent = agentName
				t.Message = detail
				if t.Progress < 90 {
					t.Progress += 10
				}
			})
		})
		if err != nil {
			// The LLM path degrades to the deterministic quick plan.
			m.logger.Warn("graph run failed, falling back to quick plan",
				zap.String("task", id), zap.Error(err))
			result, err = m.orch.QuickPlan(context.Background(), m.request(id))
		}
	default:
		result, err = m.orch.Plan(ctx, m.request(id), func(p orchestrator.Progress) {
			m.update(id, func(t *Task) {
				if p.Percent > t.Progress {
					t.Progress = p.Percent
				}
				t.CurrentAgent = p.Agent
				t.Message = p.Message
			})
		})
		if err != nil && ctx.Err() != nil {
			result, err = m.orch.QuickPlan(context.Background(), m.request(id))
		}
	}

	if err != nil {
		m.update(id, func(t *Task) {
			t.Status = StatusFailed
			t.Error = err.Error()
			t.Message = "planning failed"
		})
		m.publish(context.Background(), id, "task failed: "+err.Error())
		return
	}

	m.update(id, func(t *Task) {
		t.Status = StatusDone
		t.Progress = 100
		t.CurrentAgent = ""
		t.Message = "plan ready"
		t.Result = result
		t.GraphResult = gres
	})
	m.finish(id)
}

// finish persists, indexes and announces a completed task.
func (m *Manager) finish(id string) {
	t, err := m.Get(id)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if m.store != nil {
		if err := m.store.SaveTask(ctx, t); err != nil {
			m.logger.Warn("task persistence failed", zap.String("id", id), zap.Error(err))
		}
		if t.Result != nil {
			if err := m.store.SaveTrip(ctx, t.Result); err != nil {
				m.logger.Warn("trip persistence failed", zap.String("id", id), zap.Error(err))
			}
		}
	}
	if m.places != nil && t.Result != nil {
		seen := make(map[string]string)
		for _, a := range t.Result.Summary.Attractions {
			seen[a.Name] = a.Category
		}
		m.places.RecordPlan(ctx, t.Result.Request.Destination, seen)
	}
	if m.index != nil && t.Result != nil {
		if err := m.index.IndexTrip(ctx, t.Result.ID, t.Result.Headline()); err != nil {
			m.logger.Warn("trip indexing failed", zap.String("id", id), zap.Error(err))
		}
	}
	headline := "plan ready"
	if t.Result != nil {
		headline = t.Result.Headline()
	}
	if m.notify != nil {
		if err := m.notify.Announce(ctx, "行程规划完成: "+headline); err != nil {
			m.logger.Warn("notification failed", zap.Error(err))
		}
	}
	m.publish(ctx, id, "task done: "+headline)
}

func (m *Manager) publish(ctx context.Context, id, detail string) {
	if err := m.events.Publish(ctx, &hub.Event{
		ID:        uuid.NewString(),
		TaskID:    id,
		Kind:      "task",
		Detail:    detail,
		Timestamp: time.Now(),
	}); err != nil {
		m.logger.Debug("event publish failed", zap.Error(err))
	}
}

func (m *Manager) update(id string, fn func(*Task)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		fn(t)
		t.UpdatedAt = time.Now()
	}
}

func (m *Manager) request(id string) *travel.TripRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return t.Request
	}
	return nil
}

func (m *Manager) engine(id string) Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return t.Engine
	}
	return EngineSociety
}

func snapshot(t *Task) *Task {
	c := *t
	return &c
}
