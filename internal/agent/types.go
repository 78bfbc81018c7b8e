package agent

import (
	"time"

	"github.com/google/uuid"

	"github.com/halcyard/windrose/internal/travel"
)

// Role identifies an agent's specialty within the planning society.
type Role string

const (
	RoleCoordinator      Role = "coordinator"
	RoleTravelAdvisor    Role = "travel_advisor"
	RoleBudgetOptimizer  Role = "budget_optimizer"
	RoleWeatherAnalyst   Role = "weather_analyst"
	RoleLocalExpert      Role = "local_expert"
	RoleItineraryPlanner Role = "itinerary_planner"
)

// Specialists lists every role except the coordinator, in consultation order.
var Specialists = []Role{
	RoleTravelAdvisor,
	RoleBudgetOptimizer,
	RoleWeatherAnalyst,
	RoleLocalExpert,
	RoleItineraryPlanner,
}

// MessageType classifies traffic between agents.
type MessageType string

const (
	TypeRequest        MessageType = "request"
	TypeResponse       MessageType = "response"
	TypeBroadcast      MessageType = "broadcast"
	TypeQuery          MessageType = "query"
	TypeRecommendation MessageType = "recommendation"
)

// Message is one unit of inter-agent communication.
type Message struct {
	ID        string                 `json:"id"`
	Sender    string                 `json:"sender"`
	Receiver  string                 `json:"receiver"` // empty for broadcast
	Type      MessageType            `json:"type"`
	Content   string                 `json:"content"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewMessage builds a message with a fresh ID and timestamp.
func NewMessage(sender, receiver string, mt MessageType, content string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Receiver:  receiver,
		Type:      mt,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// PlanContext is everything gathered before the specialists are consulted.
type PlanContext struct {
	Request     *travel.TripRequest
	Weather     []travel.Weather
	WeatherNote *travel.WeatherSummary
	Hotels      []travel.Hotel
	Attractions []travel.Attraction
	Costs       travel.CostBreakdown
	SimilarTrip string // headline of the closest past trip, when recall is wired
	LocalGraph  []string
}

// Recommendation is one specialist's weighted contribution to the plan.
type Recommendation struct {
	AgentID    string                 `json:"agent_id"`
	Role       Role                   `json:"role"`
	Confidence float64                `json:"confidence"` // 0..1
	Summary    string                 `json:"summary"`
	Details    map[string]interface{} `json:"details,omitempty"`
}
