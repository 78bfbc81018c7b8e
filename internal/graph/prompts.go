package graph

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/halcyard/windrose/internal/agent"
)

// PromptDir is where per-role prompt overrides live. A file named
// <role>.md replaces the built-in prompt for that role.
var PromptDir = "prompts"

const needSearchMarker = "NEED_SEARCH:"

const finalPlanMarker = "FINAL_PLAN"

var rolePrompts = map[agent.Role]string{
	agent.RoleCoordinator: `你是旅行规划协调员，负责调度以下专家: travel_advisor (目的地顾问)、
budget_optimizer (预算优化师)、weather_analyst (天气分析师)、local_expert (本地向导)、
itinerary_planner (行程规划师)。
根据已有信息决定下一步: 回复需要咨询的专家名称；若信息已充分，回复 FINAL_PLAN 并给出完整规划。`,

	agent.RoleTravelAdvisor: `你是资深目的地顾问。针对用户的目的地给出核心景点、最佳游览顺序与适合天数。
如需实时信息，回复 "NEED_SEARCH: <搜索内容>"。`,

	agent.RoleBudgetOptimizer: `你是旅行预算优化师。估算住宿、餐饮、交通、活动花费并给出省钱建议。
如需实时价格，回复 "NEED_SEARCH: <搜索内容>"。`,

	agent.RoleWeatherAnalyst: `你是天气分析师。根据行程日期分析天气趋势，给出活动安排与行装建议。
如需实时天气，回复 "NEED_SEARCH: <搜索内容>"。`,

	agent.RoleLocalExpert: `你是本地向导。提供地道美食、小众去处与本地注意事项。
如需实时信息，回复 "NEED_SEARCH: <搜索内容>"。`,

	agent.RoleItineraryPlanner: `你是行程规划师。把各位专家的建议整合成按天排布的行程，
每天上午、下午、晚间各一项安排。`,
}

// promptFor returns the role's prompt, preferring a file override.
func promptFor(role agent.Role) string {
	data, err := os.ReadFile(filepath.Join(PromptDir, string(role)+".md"))
	if err == nil {
		if s := strings.TrimSpace(string(data)); s != "" {
			return s
		}
	}
	return rolePrompts[role]
}
