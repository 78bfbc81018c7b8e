package travel

import (
	"fmt"
	"time"
)

// Activity slots for one day.
var daySlots = []string{"09:00-12:00", "13:00-17:00", "18:00-21:00"}

// Day themes per trip style, cycled across the trip.
var styleThemes = map[string][]string{
	"cultural":  {"历史古迹探索", "博物馆与艺术", "古城漫步", "传统文化体验"},
	"adventure": {"户外徒步", "城市骑行", "水上活动", "登高望远"},
	"family":    {"亲子乐园", "科技馆与动物园", "公园野餐", "互动体验馆"},
	"romantic":  {"湖畔漫步", "日落观景", "情调晚餐", "夜景巡游"},
}

// ItineraryBuilder arranges attractions into a day-by-day schedule.
type ItineraryBuilder struct {
	attractions *AttractionFinder
}

// NewItineraryBuilder creates an itinerary builder.
func NewItineraryBuilder(attractions *AttractionFinder) *ItineraryBuilder {
	return &ItineraryBuilder{attractions: attractions}
}

// Build produces one DayPlan per trip day with three scheduled activities:
// a sight in the morning, a sight or activity in the afternoon, and dinner
// plus an evening option. Candidates rotate so days do not repeat.
func (ib *ItineraryBuilder) Build(req *TripRequest, candidates []Attraction) []DayPlan {
	days := req.Days()
	if len(candidates) == 0 {
		candidates = ib.attractions.Find(req.Destination, req.Budget, req.Interests)
	}

	var sights, restaurants, activities []Attraction
	for _, a := range candidates {
		switch a.Category {
		case "restaurant":
			restaurants = append(restaurants, a)
		case "activity":
			activities = append(activities, a)
		default:
			sights = append(sights, a)
		}
	}

	themes := styleThemes[req.TripStyle]
	if len(themes) == 0 {
		themes = styleThemes["cultural"]
	}

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		start = time.Now()
	}

	plans := make([]DayPlan, 0, days)
	for d := 0; d < days; d++ {
		plan := DayPlan{
			Day:   d + 1,
			Date:  start.AddDate(0, 0, d).Format(dateLayout),
			Theme: themes[d%len(themes)],
		}

		morning := pick(sights, d*2)
		plan.Schedule = append(plan.Schedule, ScheduleItem{
			Time:     daySlots[0],
			Activity: "游览 " + morning.Name,
			Place:    morning.Name,
			Cost:     morning.Cost,
		})

		afternoon := pick(sights, d*2+1)
		if len(activities) > 0 && d%2 == 1 {
			afternoon = pick(activities, d/2)
		}
		plan.Schedule = append(plan.Schedule, ScheduleItem{
			Time:     daySlots[1],
			Activity: "前往 " + afternoon.Name,
			Place:    afternoon.Name,
			Cost:     afternoon.Cost,
		})

		evening := pick(restaurants, d)
		plan.Schedule = append(plan.Schedule, ScheduleItem{
			Time:     daySlots[2],
			Activity: "晚餐于 " + evening.Name,
			Place:    evening.Name,
			Cost:     evening.Cost,
		})

		plans = append(plans, plan)
	}
	return plans
}

// pick rotates through a candidate list, falling back to a placeholder when
// the category is empty.
func pick(list []Attraction, i int) Attraction {
	if len(list) == 0 {
		return Attraction{Name: "自由活动", Category: "activity", Cost: 0}
	}
	return list[i%len(list)]
}

// Describe renders a short single-line summary of a day plan.
func Describe(p *DayPlan) string {
	return fmt.Sprintf("第%d天 %s · %s (%d 项安排, 约%.0f元)",
		p.Day, p.Date, p.Theme, len(p.Schedule), p.Cost())
}
