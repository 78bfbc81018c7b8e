package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// localInsight is an expert's street-level knowledge of a city.
type localInsight struct {
	FoodStreets []string
	Customs     []string
	Transport   string
}

var localInsights = map[string]localInsight{
	"北京": {[]string{"簋街", "南锣鼓巷", "牛街"}, []string{"故宫需提前预约", "地铁早晚高峰非常拥挤"}, "地铁覆盖完善，优先地铁出行"},
	"上海": {[]string{"云南南路", "进贤路", "虹泉路"}, []string{"外滩夜景 19 点后最佳"}, "地铁+共享单车组合最方便"},
	"杭州": {[]string{"河坊街", "胜利河美食街"}, []string{"西湖景区节假日限行", "龙井村品茶注意明码标价"}, "景区间公交接驳便利"},
	"成都": {[]string{"建设路", "奎星楼街", "玉林"}, []string{"熊猫基地要赶早", "茶馆小费不是惯例"}, "市内地铁+打车都便宜"},
	"西安": {[]string{"回民街", "洒金桥", "永兴坊"}, []string{"兵马俑请导游讲解更值", "城墙骑行约 2 小时"}, "景点集中，公交地铁可达"},
}

// Seasonal notes keyed by month (1-12).
var seasonalTips = map[int]string{
	1: "冬季出行注意保暖，北方室内有暖气", 2: "春节前后多数景点人流量大",
	3: "春季适合赏花，注意花粉过敏", 4: "清明前后是踏青高峰",
	5: "五一假期请务必提前订房", 6: "南方进入雨季，备好雨具",
	7: "暑期亲子游高峰，热门景点排队长", 8: "高温天气安排好室内行程",
	9: "秋高气爽，是全年最佳出行季之一", 10: "国庆长假出行成本全年最高",
	11: "秋末景色佳且游客回落", 12: "年末促销多，酒店性价比高",
}

// LocalExpert supplies street-level insights and seasonal context.
type LocalExpert struct {
	Base
}

// NewLocalExpert creates the local expert agent.
func NewLocalExpert(logger *zap.Logger) *LocalExpert {
	a := &LocalExpert{
		Base: NewBase("local-1", RoleLocalExpert,
			[]string{"food streets", "local customs", "seasonal tips"},
			logger),
	}
	for city, insight := range localInsights {
		a.Remember(city, insight)
	}
	return a
}

func (a *LocalExpert) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		for city, insight := range localInsights {
			if strings.Contains(msg.Content, city) {
				return a.ack(msg, fmt.Sprintf("%s本地美食街: %s。%s",
					city, strings.Join(insight.FoodStreets, "、"), insight.Transport)), nil
			}
		}
		return a.ack(msg, "这个城市我没有一手资料，建议查询实时攻略"), nil
	default:
		return nil, nil
	}
}

func (a *LocalExpert) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	dest := pc.Request.Destination
	rec := &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.6,
		Details:    map[string]interface{}{},
	}

	if insight, ok := localInsights[dest]; ok {
		rec.Confidence = 0.9
		rec.Summary = fmt.Sprintf("本地人推荐去 %s。%s。",
			strings.Join(insight.FoodStreets, "、"), insight.Transport)
		rec.Details["food_streets"] = insight.FoodStreets
		rec.Details["customs"] = insight.Customs
		rec.Details["transport"] = insight.Transport
	} else {
		rec.Summary = fmt.Sprintf("%s 暂无本地一手资料，建议抵达后咨询住宿前台。", dest)
	}

	if month := startMonth(pc); month > 0 {
		if tip, ok := seasonalTips[month]; ok {
			rec.Summary += " " + tip + "。"
			rec.Details["seasonal_tip"] = tip
		}
	}
	if len(pc.LocalGraph) > 0 {
		rec.Details["related_places"] = pc.LocalGraph
	}
	return rec, nil
}

func startMonth(pc *PlanContext) int {
	if len(pc.Request.StartDate) < 7 {
		return 0
	}
	var year, month int
	if _, err := fmt.Sscanf(pc.Request.StartDate, "%d-%d", &year, &month); err != nil {
		return 0
	}
	return month
}
