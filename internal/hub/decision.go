package hub

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
)

// Weight given to a recommendation whose role matches the primary concern.
// Everything else counts at baseline.
const (
	matchWeight    = 2.0
	baselineWeight = 1.0
)

// Decision is the outcome of one weighted vote over recommendations.
type Decision struct {
	Topic     string                  `json:"topic"`
	Winner    *agent.Recommendation   `json:"winner"`
	Consensus float64                 `json:"consensus"` // winner weight / total weight
	Inputs    []*agent.Recommendation `json:"inputs"`
}

// DecisionEngine merges specialist recommendations into a single pick.
type DecisionEngine struct {
	logger *zap.Logger
}

// NewDecisionEngine creates a decision engine.
func NewDecisionEngine(logger *zap.Logger) *DecisionEngine {
	return &DecisionEngine{logger: logger}
}

// Decide weighs recommendations by confidence, doubling those whose role
// matches the primary concern, and picks the heaviest.
func (de *DecisionEngine) Decide(topic string, primaryConcern agent.Role, recs []*agent.Recommendation) (*Decision, error) {
	if len(recs) == 0 {
		return nil, fmt.Errorf("no recommendations for topic %q", topic)
	}

	var (
		winner       *agent.Recommendation
		winnerWeight float64
		totalWeight  float64
	)
	for _, rec := range recs {
		weight := rec.Confidence * baselineWeight
		if rec.Role == primaryConcern {
			weight = rec.Confidence * matchWeight
		}
		totalWeight += weight
		if winner == nil || weight > winnerWeight {
			winner = rec
			winnerWeight = weight
		}
	}

	d := &Decision{
		Topic:     topic,
		Winner:    winner,
		Consensus: winnerWeight / totalWeight,
		Inputs:    recs,
	}
	de.logger.Debug("decision made",
		zap.String("topic", topic),
		zap.String("winner", string(winner.Role)),
		zap.Float64("consensus", d.Consensus))
	return d, nil
}
