package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/travel"
)

// ItineraryPlanner turns the gathered candidates into a daily schedule.
type ItineraryPlanner struct {
	Base
	builder *travel.ItineraryBuilder
}

// NewItineraryPlanner creates the itinerary planner agent.
func NewItineraryPlanner(builder *travel.ItineraryBuilder, logger *zap.Logger) *ItineraryPlanner {
	a := &ItineraryPlanner{
		Base: NewBase("planner-1", RoleItineraryPlanner,
			[]string{"daily scheduling", "pace balancing", "style templates"},
			logger),
		builder: builder,
	}
	a.Remember("slots_per_day", 3)
	return a
}

func (a *ItineraryPlanner) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		return a.ack(msg, "行程按上午、下午、晚间三段安排，每天三项活动"), nil
	default:
		return nil, nil
	}
}

func (a *ItineraryPlanner) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	plans := a.builder.Build(pc.Request, pc.Attractions)

	var activityTotal float64
	for i := range plans {
		activityTotal += plans[i].Cost()
	}

	rec := &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.9,
		Summary: fmt.Sprintf("已排出 %d 天行程 (%s风格)，每天 3 项安排，活动花费约 %.0f 元。",
			len(plans), pc.Request.TripStyle, activityTotal),
		Details: map[string]interface{}{
			"itinerary":     plans,
			"activity_cost": activityTotal,
		},
	}
	if len(plans) > 0 {
		rec.Details["first_day"] = travel.Describe(&plans[0])
	}
	return rec, nil
}
