package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/travel"
)

// Saving strategies per spend category, ordered from highest impact.
var budgetStrategies = map[string][]string{
	"lodging":   {"避开节假日出行可省 20-40%", "连住多晚通常有折扣", "考虑地铁沿线的非核心区酒店"},
	"food":      {"午餐选套餐、晚餐选本地馆子", "跟着本地人排队的店走", "控制景区内餐饮消费"},
	"transport": {"办理当地交通卡", "机票提前 3-4 周预订", "市内优先地铁和公交"},
	"activity":  {"多数博物馆有免费开放日", "景点联票比单买划算", "提前线上购票常有优惠"},
}

// BudgetOptimizer reviews the cost breakdown and surfaces savings.
type BudgetOptimizer struct {
	Base
}

// NewBudgetOptimizer creates the budget optimizer agent.
func NewBudgetOptimizer(logger *zap.Logger) *BudgetOptimizer {
	a := &BudgetOptimizer{
		Base: NewBase("budget-1", RoleBudgetOptimizer,
			[]string{"cost analysis", "saving strategies", "tier guidance"},
			logger),
	}
	for category, tips := range budgetStrategies {
		a.Remember(category, tips)
	}
	return a
}

func (a *BudgetOptimizer) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		for category, tips := range budgetStrategies {
			if containsAny(msg.Content, category) {
				return a.ack(msg, fmt.Sprintf("%s 省钱建议: %s", category, tips[0])), nil
			}
		}
		return a.ack(msg, "可提供住宿、餐饮、交通、活动四类省钱策略"), nil
	default:
		return nil, nil
	}
}

func (a *BudgetOptimizer) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	total := pc.Costs.Total()
	days := pc.Request.Days()
	perDay := total / float64(days)

	rec := &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.88,
		Summary: fmt.Sprintf("预计总花费 %.0f 元 (日均 %.0f 元, %s)。",
			total, perDay, tierLabel(pc.Request.Budget)),
		Details: map[string]interface{}{
			"total":     total,
			"per_day":   perDay,
			"breakdown": pc.Costs,
		},
	}

	// Flag the dominant category and attach its top strategy.
	biggest, amount := biggestCategory(pc.Costs)
	if tips := budgetStrategies[biggest]; len(tips) > 0 {
		rec.Summary += fmt.Sprintf(" 最大开销为%s (%.0f 元): %s",
			categoryLabel(biggest), amount, tips[0])
		rec.Details["focus_category"] = biggest
		rec.Details["tips"] = tips
	}
	return rec, nil
}

func biggestCategory(c travel.CostBreakdown) (string, float64) {
	name, amount := "lodging", c.Lodging
	if c.Food > amount {
		name, amount = "food", c.Food
	}
	if c.Transport > amount {
		name, amount = "transport", c.Transport
	}
	if c.Activities > amount {
		name, amount = "activity", c.Activities
	}
	return name, amount
}

func tierLabel(t travel.BudgetTier) string {
	switch t {
	case travel.TierBudget:
		return "经济型"
	case travel.TierLuxury:
		return "豪华型"
	default:
		return "中等预算"
	}
}

func categoryLabel(c string) string {
	switch c {
	case "lodging":
		return "住宿"
	case "food":
		return "餐饮"
	case "transport":
		return "交通"
	case "activity":
		return "活动"
	default:
		return c
	}
}
