package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// destinationProfile is the advisor's built-in knowledge of a city.
type destinationProfile struct {
	Highlights    []string
	BestSeason    string
	SuggestedDays int
}

var destinationProfiles = map[string]destinationProfile{
	"北京": {[]string{"故宫", "长城", "颐和园", "胡同"}, "春秋", 4},
	"上海": {[]string{"外滩", "豫园", "田子坊", "迪士尼"}, "春秋", 3},
	"杭州": {[]string{"西湖", "灵隐寺", "西溪湿地", "龙井茶园"}, "春季", 3},
	"成都": {[]string{"大熊猫基地", "宽窄巷子", "都江堰", "锦里"}, "春秋", 3},
	"西安": {[]string{"兵马俑", "古城墙", "大雁塔", "回民街"}, "春秋", 3},
	"广州": {[]string{"沙面", "陈家祠", "珠江夜游", "早茶"}, "秋冬", 2},
	"南京": {[]string{"中山陵", "夫子庙", "玄武湖", "总统府"}, "春秋", 3},
	"三亚": {[]string{"亚龙湾", "天涯海角", "蜈支洲岛"}, "冬季", 4},
}

// TravelAdvisor judges destination fit and trip length.
type TravelAdvisor struct {
	Base
}

// NewTravelAdvisor creates the travel advisor agent.
func NewTravelAdvisor(logger *zap.Logger) *TravelAdvisor {
	a := &TravelAdvisor{
		Base: NewBase("advisor-1", RoleTravelAdvisor,
			[]string{"destination knowledge", "trip length advice", "highlight selection"},
			logger),
	}
	for city, profile := range destinationProfiles {
		a.Remember(city, profile)
	}
	return a
}

func (a *TravelAdvisor) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		if profile, ok := a.lookup(msg.Content); ok {
			return a.ack(msg, fmt.Sprintf("推荐景点: %s，最佳季节: %s，建议游玩 %d 天",
				strings.Join(profile.Highlights, "、"), profile.BestSeason, profile.SuggestedDays)), nil
		}
		return a.ack(msg, "该目的地暂无深度资料，建议结合实时搜索结果规划"), nil
	default:
		return nil, nil
	}
}

func (a *TravelAdvisor) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	dest := pc.Request.Destination
	rec := &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.7,
		Details:    map[string]interface{}{},
	}

	profile, known := a.lookup(dest)
	if known {
		rec.Confidence = 0.92
		rec.Summary = fmt.Sprintf("%s 值得游览: %s。最佳季节为%s。",
			dest, strings.Join(profile.Highlights, "、"), profile.BestSeason)
		rec.Details["highlights"] = profile.Highlights
		rec.Details["best_season"] = profile.BestSeason

		days := pc.Request.Days()
		if days < profile.SuggestedDays {
			rec.Summary += fmt.Sprintf(" 行程偏紧，建议至少 %d 天。", profile.SuggestedDays)
			rec.Details["suggested_days"] = profile.SuggestedDays
		}
	} else {
		rec.Summary = fmt.Sprintf("%s 不在内置资料库中，已按通用城市策略给出游览建议。", dest)
	}

	if pc.SimilarTrip != "" {
		rec.Details["similar_trip"] = pc.SimilarTrip
	}
	return rec, nil
}

func (a *TravelAdvisor) lookup(text string) (destinationProfile, bool) {
	for city := range destinationProfiles {
		if strings.Contains(text, city) {
			return destinationProfiles[city], true
		}
	}
	return destinationProfile{}, false
}
