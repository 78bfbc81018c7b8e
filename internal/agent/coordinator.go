package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Coordinator opens planning rounds and frames what each specialist owes.
type Coordinator struct {
	Base
}

// NewCoordinator creates the coordinator agent.
func NewCoordinator(logger *zap.Logger) *Coordinator {
	return &Coordinator{
		Base: NewBase("coordinator-1", RoleCoordinator,
			[]string{"round kickoff", "task framing", "result assembly"},
			logger),
	}
}

func (a *Coordinator) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		return a.ack(msg, "协调中：已通知各专家并等待建议汇总"), nil
	default:
		return nil, nil
	}
}

// Kickoff builds the broadcast that opens a planning round.
func (a *Coordinator) Kickoff(pc *PlanContext) *Message {
	req := pc.Request
	content := fmt.Sprintf("规划请求: %s, %s 至 %s, %d 人, %s预算, 兴趣: %s",
		req.Destination, req.StartDate, req.EndDate, req.GroupSize,
		tierLabel(req.Budget), strings.Join(req.Interests, "、"))
	msg := NewMessage(a.ID(), "", TypeBroadcast, content)
	msg.Payload = map[string]interface{}{"destination": req.Destination, "days": req.Days()}
	return msg
}

func (a *Coordinator) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	return &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.8,
		Summary: fmt.Sprintf("协调 %d 位专家完成 %s 行程规划。",
			len(Specialists), pc.Request.Destination),
	}, nil
}

func containsAny(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
