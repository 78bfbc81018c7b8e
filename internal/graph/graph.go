// Package graph runs the LLM planning workflow: a coordinator model routes
// between specialist turns, specialists may request web research, and the
// round ends in a compiled plan.
package graph

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/halcyard/windrose/internal/agent"
	"github.com/halcyard/windrose/internal/provider"
	"github.com/halcyard/windrose/internal/tools"
	"github.com/halcyard/windrose/internal/travel"
)

// Routing turns allowed before the run is force-compiled.
const defaultMaxHops = 16

// SearchStep records one research detour.
type SearchStep struct {
	Role    agent.Role `json:"role"`
	Query   string     `json:"query"`
	Tool    string     `json:"tool"`
	Results string     `json:"results"`
}

// Step is one entry in the execution trace.
type Step struct {
	Agent   string    `json:"agent"`
	Action  string    `json:"action"` // "route", "consult", "search", "compile"
	Detail  string    `json:"detail"`
	At      time.Time `json:"at"`
}

// Result is the outcome of one graph run.
type Result struct {
	FinalPlan string                `json:"final_plan"`
	Outputs   map[agent.Role]string `json:"outputs"`
	Searches  []SearchStep          `json:"searches"`
	Trace     []Step                `json:"trace"`
	Hops      int                   `json:"hops"`
	Elapsed   time.Duration         `json:"elapsed"`
}

// state is the mutable blackboard shared across turns.
type state struct {
	req       *travel.TripRequest
	outputs   map[agent.Role]string
	consulted map[agent.Role]bool
	searches  []SearchStep
	trace     []Step
}

// EventFunc receives turn-by-turn notifications. May be nil.
type EventFunc func(agentName, detail string)

// Engine executes the coordinator-routed workflow.
type Engine struct {
	router  *provider.Router
	tools   *tools.Registry
	logger  *zap.Logger
	maxHops int
}

// NewEngine creates a graph engine over a provider router and tool registry.
func NewEngine(router *provider.Router, registry *tools.Registry, logger *zap.Logger) *Engine {
	return &Engine{
		router:  router,
		tools:   registry,
		logger:  logger,
		maxHops: defaultMaxHops,
	}
}

// WithMaxHops overrides the hop budget. Non-positive values keep the default.
func (e *Engine) WithMaxHops(n int) *Engine {
	if n > 0 {
		e.maxHops = n
	}
	return e
}

// Run plans the trip with LLM specialists. Blocks until the plan compiles,
// the hop budget runs out, or the context is cancelled.
func (e *Engine) Run(ctx context.Context, req *travel.TripRequest, onEvent EventFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	st := &state{
		req:       req,
		outputs:   make(map[agent.Role]string),
		consulted: make(map[agent.Role]bool),
	}

	hops := 0
	for hops < e.maxHops {
		hops++
		next, err := e.route(ctx, st)
		if err != nil {
			return nil, err
		}
		e.record(st, "coordinator", "route", string(next))
		e.notify(onEvent, "coordinator", "下一步: "+string(next))

		if next == agent.RoleCoordinator {
			break // coordinator called for the final plan
		}
		if err := e.consult(ctx, st, next, onEvent); err != nil {
			return nil, err
		}
	}

	final, err := e.compile(ctx, st)
	if err != nil {
		return nil, err
	}
	e.record(st, "coordinator", "compile", "final plan ready")
	e.notify(onEvent, "coordinator", "最终规划完成")

	return &Result{
		FinalPlan: final,
		Outputs:   st.outputs,
		Searches:  st.searches,
		Trace:     st.trace,
		Hops:      hops,
		Elapsed:   time.Since(started),
	}, nil
}

// route asks the coordinator model for the next turn, falling back to the
// fixed consult order when its answer names no known specialist.
func (e *Engine) route(ctx context.Context, st *state) (agent.Role, error) {
	remaining := remainingSpecialists(st)
	if len(remaining) == 0 {
		return agent.RoleCoordinator, nil
	}

	resp, err := e.router.Route(ctx, string(agent.RoleCoordinator), &provider.ChatRequest{
		Messages: []provider.ChatMessage{
			{Role: "system", Content: promptFor(agent.RoleCoordinator)},
			{Role: "user", Content: e.routeContext(st)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("coordinator turn: %w", err)
	}

	reply := resp.Content
	if strings.Contains(reply, finalPlanMarker) {
		return agent.RoleCoordinator, nil
	}
	for _, role := range agent.Specialists {
		if st.consulted[role] {
			continue
		}
		if strings.Contains(reply, string(role)) {
			return role, nil
		}
	}
	// Default router: next unconsulted specialist in order.
	return remaining[0], nil
}

// consult runs one specialist turn, with at most one research detour.
func (e *Engine) consult(ctx context.Context, st *state, role agent.Role, onEvent EventFunc) error {
	e.notify(onEvent, string(role), "分析中")

	reply, err := e.specialistTurn(ctx, st, role, "")
	if err != nil {
		return err
	}

	if query, ok := parseSearchRequest(reply); ok {
		toolName := tools.SelectTool(query)
		e.notify(onEvent, string(role), "检索: "+query)

		results, err := e.tools.Execute(ctx, toolName, query)
		if err != nil {
			e.logger.Warn("tool execution failed, continuing without results",
				zap.String("tool", toolName), zap.Error(err))
			results = "检索失败，请基于已知信息作答。"
		}
		st.searches = append(st.searches, SearchStep{
			Role: role, Query: query, Tool: toolName, Results: results,
		})
		e.record(st, string(role), "search", toolName+": "+query)

		reply, err = e.specialistTurn(ctx, st, role, results)
		if err != nil {
			return err
		}
	}

	st.outputs[role] = reply
	st.consulted[role] = true
	e.record(st, string(role), "consult", firstLine(reply))
	return nil
}

func (e *Engine) specialistTurn(ctx context.Context, st *state, role agent.Role, searchResults string) (string, error) {
	user := e.requestBrief(st)
	if searchResults != "" {
		user += "\n\n检索结果:\n" + searchResults + "\n请基于以上信息给出最终建议，不要再请求检索。"
	}
	resp, err := e.router.Route(ctx, string(role), &provider.ChatRequest{
		Messages: []provider.ChatMessage{
			{Role: "system", Content: promptFor(role)},
			{Role: "user", Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", fmt.Errorf("%s turn: %w", role, err)
	}
	return resp.Content, nil
}

func (e *Engine) compile(ctx context.Context, st *state) (string, error) {
	var b strings.Builder
	b.WriteString(e.requestBrief(st))
	b.WriteString("\n\n各专家结论:\n")
	for _, role := range agent.Specialists {
		if out, ok := st.outputs[role]; ok {
			fmt.Fprintf(&b, "[%s]\n%s\n\n", role, out)
		}
	}
	b.WriteString("请输出以 FINAL_PLAN 开头的完整行程规划，按天排布并附预算小结。")

	resp, err := e.router.Route(ctx, string(agent.RoleCoordinator), &provider.ChatRequest{
		Messages: []provider.ChatMessage{
			{Role: "system", Content: promptFor(agent.RoleCoordinator)},
			{Role: "user", Content: b.String()},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("compile turn: %w", err)
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(resp.Content), finalPlanMarker)), nil
}

func (e *Engine) requestBrief(st *state) string {
	req := st.req
	return fmt.Sprintf("目的地: %s\n日期: %s 至 %s (%d 天)\n人数: %d\n预算档位: %s\n兴趣: %s",
		req.Destination, req.StartDate, req.EndDate, req.Days(),
		req.GroupSize, req.Budget, strings.Join(req.Interests, "、"))
}

func (e *Engine) routeContext(st *state) string {
	var b strings.Builder
	b.WriteString(e.requestBrief(st))
	b.WriteString("\n\n已咨询专家: ")
	if len(st.outputs) == 0 {
		b.WriteString("无")
	}
	for _, role := range agent.Specialists {
		if out, ok := st.outputs[role]; ok {
			fmt.Fprintf(&b, "\n[%s] %s", role, firstLine(out))
		}
	}
	b.WriteString("\n\n请回复下一位要咨询的专家名称，或在信息充分时回复 FINAL_PLAN。")
	return b.String()
}

func (e *Engine) record(st *state, agentName, action, detail string) {
	st.trace = append(st.trace, Step{
		Agent:  agentName,
		Action: action,
		Detail: detail,
		At:     time.Now(),
	})
}

func (e *Engine) notify(fn EventFunc, agentName, detail string) {
	if fn != nil {
		fn(agentName, detail)
	}
}

func remainingSpecialists(st *state) []agent.Role {
	var out []agent.Role
	for _, role := range agent.Specialists {
		if !st.consulted[role] {
			out = append(out, role)
		}
	}
	return out
}

func parseSearchRequest(reply string) (string, bool) {
	idx := strings.Index(reply, needSearchMarker)
	if idx < 0 {
		return "", false
	}
	query := reply[idx+len(needSearchMarker):]
	if nl := strings.IndexByte(query, '\n'); nl >= 0 {
		query = query[:nl]
	}
	query = strings.TrimSpace(query)
	return query, query != ""
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[:nl]
	}
	r := []rune(s)
	if len(r) > 80 {
		return string(r[:80]) + "..."
	}
	return s
}
