package travel

import (
	"fmt"
	"strings"
	"time"
)

// BudgetTier is the traveler's spending level.
type BudgetTier string

const (
	TierBudget BudgetTier = "budget"
	TierMid    BudgetTier = "mid"
	TierLuxury BudgetTier = "luxury"
)

// ParseTier normalizes user input into a BudgetTier, defaulting to mid.
func ParseTier(s string) BudgetTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "budget", "low", "economy", "经济型":
		return TierBudget
	case "luxury", "high", "豪华型":
		return TierLuxury
	default:
		return TierMid
	}
}

// TripRequest is the user's planning input.
type TripRequest struct {
	Destination string     `json:"destination"`
	StartDate   string     `json:"start_date"` // YYYY-MM-DD
	EndDate     string     `json:"end_date"`   // YYYY-MM-DD
	Budget      BudgetTier `json:"budget"`
	Interests   []string   `json:"interests,omitempty"`
	GroupSize   int        `json:"group_size,omitempty"`
	TripStyle   string     `json:"trip_style,omitempty"` // cultural, adventure, family, romantic
}

const dateLayout = "2006-01-02"

// Validate checks the request and fills defaults in place.
func (r *TripRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("destination is required")
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start_date %q: %w", r.StartDate, err)
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return fmt.Errorf("invalid end_date %q: %w", r.EndDate, err)
	}
	if end.Before(start) {
		return fmt.Errorf("end_date %s is before start_date %s", r.EndDate, r.StartDate)
	}
	if r.Budget == "" {
		r.Budget = TierMid
	}
	if r.GroupSize <= 0 {
		r.GroupSize = 1
	}
	if r.TripStyle == "" {
		r.TripStyle = "cultural"
	}
	return nil
}

// Days returns the trip length, counting both endpoints.
func (r *TripRequest) Days() int {
	start, err1 := time.Parse(dateLayout, r.StartDate)
	end, err2 := time.Parse(dateLayout, r.EndDate)
	if err1 != nil || err2 != nil {
		return 1
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// Weather is a single observation or daily forecast entry.
type Weather struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like,omitempty"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity,omitempty"`
	WindSpeed   float64 `json:"wind_speed,omitempty"`
}

// WeatherSummary aggregates a forecast window.
type WeatherSummary struct {
	AvgTemp   float64  `json:"avg_temp"`
	MinTemp   float64  `json:"min_temp"`
	MaxTemp   float64  `json:"max_temp"`
	RainyDays int      `json:"rainy_days"`
	Notes     []string `json:"notes,omitempty"`
}

// Attraction is a point of interest with an estimated entry cost.
type Attraction struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"` // attraction, restaurant, activity
	Address     string  `json:"address,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Cost        float64 `json:"cost"`
	Description string  `json:"description,omitempty"`
}

// Hotel is a lodging option with a nightly price estimate.
type Hotel struct {
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	Rating     float64  `json:"rating"`
	PriceLevel int      `json:"price_level"` // 0..4
	Nightly    float64  `json:"nightly"`
	Amenities  []string `json:"amenities,omitempty"`
	Score      float64  `json:"score,omitempty"`
}

// Transportation is the inter-city travel estimate.
type Transportation struct {
	Mode    string  `json:"mode"`
	Cost    float64 `json:"cost"`
	Details string  `json:"details,omitempty"`
}

// ScheduleItem is one activity slot within a day.
type ScheduleItem struct {
	Time     string  `json:"time"` // e.g. 09:00-12:00
	Activity string  `json:"activity"`
	Place    string  `json:"place,omitempty"`
	Cost     float64 `json:"cost"`
}

// DayPlan is a single day of the itinerary.
type DayPlan struct {
	Day      int            `json:"day"`
	Date     string         `json:"date"`
	Theme    string         `json:"theme,omitempty"`
	Schedule []ScheduleItem `json:"schedule"`
}

// Cost sums the day's scheduled spend.
func (d *DayPlan) Cost() float64 {
	var total float64
	for _, item := range d.Schedule {
		total += item.Cost
	}
	return total
}

// CostBreakdown itemizes the trip estimate in the base currency.
type CostBreakdown struct {
	Currency   string  `json:"currency"`
	Lodging    float64 `json:"lodging"`
	Food       float64 `json:"food"`
	Transport  float64 `json:"transport"`
	Activities float64 `json:"activities"`
	Misc       float64 `json:"misc"`
}

// Total sums all breakdown categories.
func (c CostBreakdown) Total() float64 {
	return c.Lodging + c.Food + c.Transport + c.Activities + c.Misc
}

// TripSummary is the assembled plan for one trip.
type TripSummary struct {
	ID          string          `json:"id"`
	Request     TripRequest     `json:"request"`
	Days        int             `json:"days"`
	Weather     []Weather       `json:"weather,omitempty"`
	WeatherNote *WeatherSummary `json:"weather_note,omitempty"`
	Hotels      []Hotel         `json:"hotels,omitempty"`
	Attractions []Attraction    `json:"attractions,omitempty"`
	Transport   *Transportation `json:"transport,omitempty"`
	Itinerary   []DayPlan       `json:"itinerary"`
	Costs       CostBreakdown   `json:"costs"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TotalCost is the full trip estimate including scheduled activities.
func (s *TripSummary) TotalCost() float64 {
	return s.Costs.Total()
}
