package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// weatherKind buckets conditions for activity and packing advice.
type weatherKind string

const (
	kindCold  weatherKind = "cold"
	kindHot   weatherKind = "hot"
	kindRainy weatherKind = "rainy"
	kindMild  weatherKind = "mild"
)

var weatherAdvice = map[weatherKind]struct {
	Activities []string
	Packing    []string
}{
	kindCold: {
		Activities: []string{"博物馆与室内展馆", "温泉", "火锅与热饮"},
		Packing:    []string{"厚外套", "围巾手套", "保温杯"},
	},
	kindHot: {
		Activities: []string{"清晨或傍晚的户外活动", "水上项目", "室内商场避暑"},
		Packing:    []string{"防晒霜", "遮阳帽", "便携水壶"},
	},
	kindRainy: {
		Activities: []string{"室内景点优先", "雨中古镇别有风味", "咖啡馆与书店"},
		Packing:    []string{"雨伞", "防水鞋", "备用袜子"},
	},
	kindMild: {
		Activities: []string{"户外徒步", "公园野餐", "步行游览老城区"},
		Packing:    []string{"舒适步行鞋", "薄外套"},
	},
}

// WeatherAnalyst reads the forecast and shapes activity choices around it.
type WeatherAnalyst struct {
	Base
}

// NewWeatherAnalyst creates the weather analyst agent.
func NewWeatherAnalyst(logger *zap.Logger) *WeatherAnalyst {
	a := &WeatherAnalyst{
		Base: NewBase("weather-1", RoleWeatherAnalyst,
			[]string{"forecast interpretation", "activity fit", "packing lists"},
			logger),
	}
	for kind, advice := range weatherAdvice {
		a.Remember(string(kind), advice)
	}
	return a
}

func (a *WeatherAnalyst) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	a.Receive(msg)
	switch msg.Type {
	case TypeQuery, TypeRequest:
		kind := classify(22, msg.Content)
		advice := weatherAdvice[kind]
		return a.ack(msg, fmt.Sprintf("适合: %s。建议携带: %s",
			strings.Join(advice.Activities, "、"), strings.Join(advice.Packing, "、"))), nil
	default:
		return nil, nil
	}
}

func (a *WeatherAnalyst) Recommend(ctx context.Context, pc *PlanContext) (*Recommendation, error) {
	rec := &Recommendation{
		AgentID:    a.ID(),
		Role:       a.Role(),
		Confidence: 0.85,
		Details:    map[string]interface{}{},
	}

	if pc.WeatherNote == nil || len(pc.Weather) == 0 {
		rec.Confidence = 0.5
		rec.Summary = "没有可用的天气数据，按温和天气准备即可。"
		return rec, nil
	}

	note := pc.WeatherNote
	desc := ""
	for _, w := range pc.Weather {
		desc += w.Description + " "
	}
	kind := classify(note.AvgTemp, desc)
	if note.RainyDays > 0 {
		kind = kindRainy
	}
	advice := weatherAdvice[kind]

	rec.Summary = fmt.Sprintf("行程期间平均 %.0f°C (%.0f~%.0f°C)，%d 天有雨。推荐: %s。",
		note.AvgTemp, note.MinTemp, note.MaxTemp, note.RainyDays,
		strings.Join(advice.Activities, "、"))
	rec.Details["kind"] = string(kind)
	rec.Details["activities"] = advice.Activities
	rec.Details["packing"] = advice.Packing
	rec.Details["notes"] = note.Notes
	if note.RainyDays > pc.Request.Days()/2 {
		rec.Confidence = 0.95
		rec.Summary += " 雨天较多，行程以室内为主。"
	}
	return rec, nil
}

// classify buckets by temperature first, then by condition keywords.
func classify(avgTemp float64, description string) weatherKind {
	switch {
	case avgTemp < 10:
		return kindCold
	case avgTemp > 28:
		return kindHot
	}
	for _, kw := range []string{"雨", "rain", "drizzle"} {
		if strings.Contains(strings.ToLower(description), kw) {
			return kindRainy
		}
	}
	return kindMild
}
