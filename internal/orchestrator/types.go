package orchestrator

import (
	"time"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/hub"
	"github.com/halcyard/windrose/internal/travel"
)

// Phase names the stages of a planning run, in order.
type Phase string

const (
	PhaseContext    Phase = "context"
	PhaseCoordinate Phase = "coordinate"
	PhaseConsult    Phase = "consult"
	PhaseSynthesize Phase = "synthesize"
	PhaseValidate   Phase = "validate"
	PhaseDone       Phase = "done"
)

// phaseOrder drives progress percentages.
var phaseOrder = []Phase{PhaseContext, PhaseCoordinate, PhaseConsult, PhaseSynthesize, PhaseValidate}

// Progress is emitted as a run advances. Percent is monotonic.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Percent int    `json:"percent"`
	Agent   string `json:"agent,omitempty"`
	Message string `json:"message"`
}

// ProgressFunc receives progress callbacks. May be nil.
type ProgressFunc func(Progress)

// ValidationReport carries the quality checks of the final pass.
type ValidationReport struct {
	Feasibility float64 `json:"feasibility"`
	BudgetFit   float64 `json:"budget_fit"`
	WeatherFit  float64 `json:"weather_fit"`
	Coverage    float64 `json:"coverage"`
	Balance     float64 `json:"balance"`
	Overall     float64 `json:"overall"`
}

// PlanResult is the comprehensive output of one planning run.
type PlanResult struct {
	ID              string                  `json:"id"`
	Request         *travel.TripRequest     `json:"request"`
	Summary         travel.TripSummary      `json:"summary"`
	CurrencyView    map[string]string       `json:"currency_view,omitempty"`
	Recommendations []*agent.Recommendation `json:"recommendations"`
	Decisions       []*hub.Decision         `json:"decisions"`
	Consensus       float64                 `json:"consensus"`
	Validation      ValidationReport        `json:"validation"`
	MessagesUsed    int                     `json:"messages_used"`
	Elapsed         time.Duration           `json:"elapsed"`
	Engine          string                  `json:"engine"`
	CreatedAt       time.Time               `json:"created_at"`
}

// Headline is a one-line description used for notifications and recall.
func (r *PlanResult) Headline() string {
	return r.Request.Destination + " " + r.Request.StartDate + " ~ " + r.Request.EndDate
}
