package travel

// Daily transport and miscellaneous allowances per tier, CNY.
var (
	tierMultipliers = map[BudgetTier]float64{
		TierBudget: 0.8,
		TierMid:    1.0,
		TierLuxury: 1.5,
	}
	transportPerDay = map[BudgetTier]float64{
		TierBudget: 100,
		TierMid:    250,
		TierLuxury: 420,
	}
	miscPerDay = map[BudgetTier]float64{
		TierBudget: 140,
		TierMid:    280,
		TierLuxury: 560,
	}
)

// ExpenseCalculator produces a full trip cost breakdown in CNY.
type ExpenseCalculator struct {
	hotels      *HotelEstimator
	attractions *AttractionFinder
}

// NewExpenseCalculator creates an expense calculator.
func NewExpenseCalculator(hotels *HotelEstimator, attractions *AttractionFinder) *ExpenseCalculator {
	return &ExpenseCalculator{hotels: hotels, attractions: attractions}
}

// Breakdown estimates lodging, food, transport, activities and misc for the
// trip. Lodging assumes one room per two travelers, rounded up.
func (ec *ExpenseCalculator) Breakdown(req *TripRequest) CostBreakdown {
	days := req.Days()
	nights := days - 1
	if nights < 1 {
		nights = 1
	}
	tier := req.Budget
	mult := tierMultipliers[tier]
	if mult == 0 {
		mult = 1.0
	}
	group := req.GroupSize
	if group < 1 {
		group = 1
	}
	rooms := (group + 1) / 2

	band := ec.hotels.Band(req.Destination, tier)
	lodging := band.Avg * float64(nights) * float64(rooms)

	foodDaily := ec.attractions.EstimateCost("restaurant", tier) * 2 // two sit-down meals
	food := foodDaily * float64(days) * float64(group) * mult

	transport := transportPerDay[tier] * float64(days) * float64(group)
	activities := ec.attractions.EstimateCost("attraction", tier) * 2 * float64(days) * float64(group)
	misc := miscPerDay[tier] * float64(days) * float64(group)

	return CostBreakdown{
		Currency:   "CNY",
		Lodging:    lodging,
		Food:       food,
		Transport:  transport,
		Activities: activities,
		Misc:       misc,
	}
}
