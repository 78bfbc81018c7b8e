// Package orchestrator drives a planning run through its phases: gather
// context, open the round, consult specialists in parallel, synthesize the
// recommendations, then validate and price the final plan.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/travel"
)

// Specialist consultations running at once.
const consultPool = 3

// Fixed validation scores of the final pass.
const (
	scoreFeasibility = 0.95
	scoreBudgetFit   = 0.90
	scoreWeatherFit  = 0.88
	scoreCoverage    = 0.92
	scoreBalance     = 0.91
)

// Currencies offered alongside the CNY estimate.
var viewCurrencies = []string{"USD", "EUR", "JPY"}

// Recaller surfaces past trips similar to a query. Implemented by the
// vector index; nil when recall is not wired.
type Recaller interface {
	Similar(ctx context.Context, query string, limit int) ([]string, error)
}

// PlaceGraph answers which places relate to a destination. Implemented by
// the knowledge graph; nil when not wired.
type PlaceGraph interface {
	Related(ctx context.Context, city string) ([]string, error)
}

// Services bundles the travel estimators the orchestrator consumes.
type Services struct {
	Weather     *travel.WeatherService
	Hotels      *travel.HotelEstimator
	Attractions *travel.AttractionFinder
	Expenses    *travel.ExpenseCalculator
	Currency    *travel.CurrencyConverter
	Itinerary   *travel.ItineraryBuilder
}

// Orchestrator runs the simulated planning engine.
type Orchestrator struct {
	hub       *hub.Hub
	decisions *hub.DecisionEngine
	services  Services
	recall    Recaller   // optional
	places    PlaceGraph // optional
	logger    *zap.Logger

	mu      sync.RWMutex
	history []*PlanResult
}

// New creates an orchestrator over a connected hub.
func New(h *hub.Hub, de *hub.DecisionEngine, services Services, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		hub:       h,
		decisions: de,
		services:  services,
		logger:    logger,
	}
}

// WithRecall wires the similar-trip index.
func (o *Orchestrator) WithRecall(r Recaller) *Orchestrator {
	o.recall = r
	return o
}

// WithPlaceGraph wires the destination knowledge graph.
func (o *Orchestrator) WithPlaceGraph(pg PlaceGraph) *Orchestrator {
	o.places = pg
	return o
}

// Plan executes the full five-phase pipeline.
func (o *Orchestrator) Plan(ctx context.Context, req *travel.TripRequest, onProgress ProgressFunc) (*PlanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	baseline := o.hub.Status().Delivered

	// Phase 1: assemble everything the specialists will reason over.
	o.report(onProgress, PhaseContext, "", "收集天气、酒店与景点数据")
	pc, err := o.prepareContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("prepare context: %w", err)
	}

	// Phase 2: the coordinator opens the round.
	o.report(onProgress, PhaseCoordinate, "coordinator-1", "协调员广播规划请求")
	coordinator, err := o.hub.ByRole(agent.RoleCoordinator)
	if err != nil {
		return nil, err
	}
	kickoff := coordinator.(*agent.Coordinator).Kickoff(pc)
	if _, err := o.hub.Broadcast(ctx, kickoff); err != nil {
		return nil, fmt.Errorf("kickoff broadcast: %w", err)
	}

	// Phase 3: consult every specialist, bounded by the pool.
	o.report(onProgress, PhaseConsult, "", "专家并行会诊")
	recs, err := o.consult(ctx, pc, onProgress)
	if err != nil {
		return nil, err
	}

	// Phase 4: weighted synthesis per concern.
	o.report(onProgress, PhaseSynthesize, "", "汇总专家建议")
	decisions, consensus, err := o.synthesize(recs)
	if err != nil {
		return nil, err
	}

	// Phase 5: final assembly, pricing and validation.
	o.report(onProgress, PhaseValidate, "", "校验与成本核算")
	result := o.finalize(ctx, req, pc, recs, decisions, consensus)
	result.MessagesUsed = o.hub.Status().Delivered - baseline
	result.Elapsed = time.Since(started)

	o.mu.Lock()
	o.history = append(o.history, result)
	o.mu.Unlock()

	o.logger.Info("plan complete",
		zap.String("id", result.ID),
		zap.String("destination", req.Destination),
		zap.Float64("consensus", consensus),
		zap.Duration("elapsed", result.Elapsed))
	o.report(onProgress, PhaseDone, "", "规划完成")
	return result, nil
}

// QuickPlan skips the agent round entirely: context, itinerary and costs
// only. Used by the synchronous endpoint and as the timeout fallback.
func (o *Orchestrator) QuickPlan(ctx context.Context, req *travel.TripRequest) (*PlanResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	pc, err := o.prepareContext(ctx, req)
	if err != nil {
		return nil, err
	}
	result := o.finalize(ctx, req, pc, nil, nil, 0)
	result.Engine = "quick"
	result.Elapsed = time.Since(started)
	return result, nil
}

// History returns up to n most recent results, newest last.
func (o *Orchestrator) History(n int) []*PlanResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if n <= 0 || n > len(o.history) {
		n = len(o.history)
	}
	out := make([]*PlanResult, n)
	copy(out, o.history[len(o.history)-n:])
	return out
}

func (o *Orchestrator) prepareContext(ctx context.Context, req *travel.TripRequest) (*agent.PlanContext, error) {
	forecast, err := o.services.Weather.Forecast(ctx, req.Destination, req.Days())
	if err != nil {
		return nil, err
	}
	hotels := o.services.Hotels.Rank(req.Destination, req.Budget,
		o.services.Hotels.MockHotels(req.Destination, req.Budget))
	attractions := o.services.Attractions.Find(req.Destination, req.Budget, req.Interests)

	pc := &agent.PlanContext{
		Request:     req,
		Weather:     forecast,
		WeatherNote: o.services.Weather.Summarize(forecast),
		Hotels:      hotels,
		Attractions: attractions,
		Costs:       o.services.Expenses.Breakdown(req),
	}

	if o.recall != nil {
		if similar, err := o.recall.Similar(ctx, req.Destination, 1); err == nil && len(similar) > 0 {
			pc.SimilarTrip = similar[0]
		}
	}
	if o.places != nil {
		if related, err := o.places.Related(ctx, req.Destination); err == nil {
			pc.LocalGraph = related
		}
	}
	return pc, nil
}

func (o *Orchestrator) consult(ctx context.Context, pc *agent.PlanContext, onProgress ProgressFunc) ([]*agent.Recommendation, error) {
	type outcome struct {
		rec *agent.Recommendation
		err error
	}

	pool := make(chan struct{}, consultPool)
	results := make(chan outcome, len(agent.Specialists))
	var wg sync.WaitGroup

	for _, role := range agent.Specialists {
		specialist, err := o.hub.ByRole(role)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(a agent.Agent) {
			defer wg.Done()
			pool <- struct{}{}
			defer func() { <-pool }()

			o.report(onProgress, PhaseConsult, a.ID(), string(a.Role())+" 分析中")
			rec, err := a.Recommend(ctx, pc)
			results <- outcome{rec: rec, err: err}
		}(specialist)
	}
	wg.Wait()
	close(results)

	recs := make([]*agent.Recommendation, 0, len(agent.Specialists))
	for out := range results {
		if out.err != nil {
			return nil, fmt.Errorf("consultation: %w", out.err)
		}
		recs = append(recs, out.rec)
	}
	return recs, nil
}

// Concerns voted on during synthesis, with the role whose view dominates.
var synthesisTopics = []struct {
	topic   string
	concern agent.Role
}{
	{"destination strategy", agent.RoleTravelAdvisor},
	{"spending plan", agent.RoleBudgetOptimizer},
	{"daily schedule", agent.RoleItineraryPlanner},
}

func (o *Orchestrator) synthesize(recs []*agent.Recommendation) ([]*hub.Decision, float64, error) {
	var (
		decisions []*hub.Decision
		total     float64
	)
	for _, st := range synthesisTopics {
		d, err := o.decisions.Decide(st.topic, st.concern, recs)
		if err != nil {
			return nil, 0, err
		}
		decisions = append(decisions, d)
		total += d.Consensus
	}
	return decisions, total / float64(len(synthesisTopics)), nil
}

func (o *Orchestrator) finalize(ctx context.Context, req *travel.TripRequest,
	pc *agent.PlanContext, recs []*agent.Recommendation,
	decisions []*hub.Decision, consensus float64) *PlanResult {

	itinerary := o.services.Itinerary.Build(req, pc.Attractions)
	summary := travel.TripSummary{
		ID:          uuid.NewString(),
		Request:     *req,
		Days:        req.Days(),
		Weather:     pc.Weather,
		WeatherNote: pc.WeatherNote,
		Hotels:      pc.Hotels,
		Attractions: pc.Attractions,
		Itinerary:   itinerary,
		Costs:       pc.Costs,
		CreatedAt:   time.Now(),
	}

	return &PlanResult{
		ID:              summary.ID,
		Request:         req,
		Summary:         summary,
		CurrencyView:    o.services.Currency.View(ctx, pc.Costs.Total(), viewCurrencies),
		Recommendations: recs,
		Decisions:       decisions,
		Consensus:       consensus,
		Validation: ValidationReport{
			Feasibility: scoreFeasibility,
			BudgetFit:   scoreBudgetFit,
			WeatherFit:  scoreWeatherFit,
			Coverage:    scoreCoverage,
			Balance:     scoreBalance,
			Overall: (scoreFeasibility + scoreBudgetFit + scoreWeatherFit +
				scoreCoverage + scoreBalance) / 5,
		},
		Engine:    "society",
		CreatedAt: time.Now(),
	}
}

func (o *Orchestrator) report(fn ProgressFunc, phase Phase, agentID, message string) {
	if fn == nil {
		return
	}
	fn(Progress{
		Phase:   phase,
		Percent: phasePercent(phase),
		Agent:   agentID,
		Message: message,
	})
}

func phasePercent(phase Phase) int {
	if phase == PhaseDone {
		return 100
	}
	for i, p := range phaseOrder {
		if p == phase {
			return i * 100 / len(phaseOrder)
		}
	}
	return 0
}
