package tools

import (
	"context"
	"fmt"
	"strings"
)

// Result caps per tool. Attractions get a wider net.
const (
	defaultResults    = 5
	attractionResults = 8
)

// Searcher is the search capability the travel tools run on.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// travelTool pairs a tool definition with its query template.
var travelTools = []struct {
	name        string
	description string
	queryFmt    string
	limit       int
}{
	{"search_destination_info", "目的地概况、景点与玩法", "%s 旅游攻略 景点介绍", defaultResults},
	{"search_weather_info", "目的地近期天气情况", "%s 天气预报 近期", defaultResults},
	{"search_attractions", "必去景点与门票信息", "%s 必去景点 门票 开放时间", attractionResults},
	{"search_hotels", "酒店与住宿推荐", "%s 酒店推荐 性价比", defaultResults},
	{"search_restaurants", "餐厅与本地美食", "%s 美食推荐 本地餐厅", defaultResults},
	{"search_local_tips", "本地人建议与注意事项", "%s 本地人 旅行建议 避坑", defaultResults},
	{"search_budget_info", "旅行花费与预算参考", "%s 旅游预算 人均花费", defaultResults},
}

// RegisterTravelTools installs every travel search tool into the registry.
func RegisterTravelTools(r *Registry, search Searcher) {
	for _, tt := range travelTools {
		tt := tt
		r.Register(Definition{Name: tt.name, Description: tt.description},
			func(ctx context.Context, arg string) (string, error) {
				query := fmt.Sprintf(tt.queryFmt, strings.TrimSpace(arg))
				results, err := search.Search(ctx, query, tt.limit)
				if err != nil {
					return "", fmt.Errorf("%s: %w", tt.name, err)
				}
				return formatResults(query, results), nil
			})
	}
}

// SelectTool maps a research topic onto the best-fitting tool name.
func SelectTool(topic string) string {
	lower := strings.ToLower(topic)
	switch {
	case hasAny(lower, "天气", "weather", "温度", "下雨"):
		return "search_weather_info"
	case hasAny(lower, "景点", "attraction", "门票", "博物馆"):
		return "search_attractions"
	case hasAny(lower, "预算", "budget", "花费", "价格", "cost"):
		return "search_budget_info"
	case hasAny(lower, "酒店", "hotel", "住宿", "民宿"):
		return "search_hotels"
	case hasAny(lower, "餐厅", "美食", "restaurant", "food", "小吃"):
		return "search_restaurants"
	case hasAny(lower, "本地", "local", "建议", "tips", "注意"):
		return "search_local_tips"
	default:
		return "search_destination_info"
	}
}

func formatResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("没有找到与 %q 相关的结果。", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "搜索 %q 共 %d 条结果:\n", query, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(r.Snippet, 160))
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
	}
	return b.String()
}

func hasAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
