package travel

import "fmt"

// Per-tier cost estimates by place category, CNY per person.
var categoryCosts = map[string]map[BudgetTier]float64{
	"attraction": {TierBudget: 100, TierMid: 180, TierLuxury: 320},
	"restaurant": {TierBudget: 150, TierMid: 280, TierLuxury: 560},
	"activity":   {TierBudget: 200, TierMid: 420, TierLuxury: 840},
}

const maxAttractions = 12

// AttractionFinder produces sight, dining and activity candidates with
// per-tier cost estimates. Live lookups come through the search tools; this
// layer guarantees a usable candidate set either way.
type AttractionFinder struct{}

// NewAttractionFinder creates an attraction finder.
func NewAttractionFinder() *AttractionFinder {
	return &AttractionFinder{}
}

// EstimateCost returns the per-person estimate for a category and tier.
func (af *AttractionFinder) EstimateCost(category string, tier BudgetTier) float64 {
	costs, ok := categoryCosts[category]
	if !ok {
		costs = categoryCosts["attraction"]
	}
	if c, ok := costs[tier]; ok {
		return c
	}
	return costs[TierMid]
}

// Find returns a candidate list for the destination, capped at maxAttractions.
// Interests bias the mix toward activities.
func (af *AttractionFinder) Find(city string, tier BudgetTier, interests []string) []Attraction {
	found := af.mockAttractions(city, tier)

	wantsActive := false
	for _, it := range interests {
		if containsFold(it, "adventure") || containsFold(it, "户外") || containsFold(it, "运动") {
			wantsActive = true
		}
	}
	if wantsActive {
		found = append(found, Attraction{
			Name:        fmt.Sprintf("%s户外探险营地", city),
			Category:    "activity",
			Rating:      4.5,
			Cost:        af.EstimateCost("activity", tier),
			Description: "徒步、骑行与溯溪等户外项目",
		})
	}
	if len(found) > maxAttractions {
		found = found[:maxAttractions]
	}
	return found
}

func (af *AttractionFinder) mockAttractions(city string, tier BudgetTier) []Attraction {
	specs := []struct {
		name, category, desc string
		rating               float64
	}{
		{"%s博物馆", "attraction", "了解本地历史文化的首选", 4.6},
		{"%s古城区", "attraction", "保存完好的历史街区", 4.5},
		{"%s中央公园", "attraction", "市中心的城市绿地", 4.3},
		{"%s观景塔", "attraction", "俯瞰全城的最佳位置", 4.4},
		{"%s老字号餐馆", "restaurant", "本地人推荐的传统菜", 4.5},
		{"%s美食街", "restaurant", "汇集本地小吃", 4.2},
		{"%s河畔餐厅", "restaurant", "环境优雅的景观餐厅", 4.4},
		{"%s手工艺体验馆", "activity", "传统手工艺制作体验", 4.3},
		{"%s夜游船", "activity", "夜景游览路线", 4.4},
	}
	result := make([]Attraction, 0, len(specs))
	for _, s := range specs {
		result = append(result, Attraction{
			Name:        fmt.Sprintf(s.name, city),
			Category:    s.category,
			Address:     city,
			Rating:      s.rating,
			Cost:        af.EstimateCost(s.category, tier),
			Description: s.desc,
		})
	}
	return result
}
