package travel

import (
	"fmt"
	"sort"
)

// PriceBand is the nightly CNY range for one budget tier.
type PriceBand struct {
	Min, Max, Avg float64
}

var tierBands = map[BudgetTier]PriceBand{
	TierBudget: {Min: 200, Max: 560, Avg: 350},
	TierMid:    {Min: 560, Max: 1400, Avg: 910},
	TierLuxury: {Min: 1400, Max: 3500, Avg: 2100},
}

// Larger cities run markedly more expensive than the baseline.
var cityMultipliers = map[string]float64{
	"北京": 1.6,
	"上海": 1.7,
	"广州": 1.4,
	"深圳": 1.5,
	"杭州": 1.3,
	"成都": 1.2,
	"西安": 1.1,
	"南京": 1.2,
}

var priceLevelMultipliers = map[int]float64{
	0: 0.6, 1: 0.8, 2: 1.0, 3: 1.3, 4: 1.8,
}

const maxRankedHotels = 6

// HotelEstimator prices and ranks lodging options for a destination.
type HotelEstimator struct{}

// NewHotelEstimator creates a hotel estimator.
func NewHotelEstimator() *HotelEstimator {
	return &HotelEstimator{}
}

// Band returns the nightly price range for a tier, adjusted for the city.
func (he *HotelEstimator) Band(city string, tier BudgetTier) PriceBand {
	band, ok := tierBands[tier]
	if !ok {
		band = tierBands[TierMid]
	}
	m := he.cityMultiplier(city)
	return PriceBand{Min: band.Min * m, Max: band.Max * m, Avg: band.Avg * m}
}

// Nightly estimates a single hotel's nightly rate from its attributes.
func (he *HotelEstimator) Nightly(city string, tier BudgetTier, priceLevel int, rating float64) float64 {
	band := he.Band(city, tier)
	price := band.Avg

	if m, ok := priceLevelMultipliers[priceLevel]; ok {
		price *= m
	}
	switch {
	case rating >= 4.5:
		price *= 1.2
	case rating >= 4.0:
		price *= 1.1
	case rating > 0 && rating < 3.5:
		price *= 0.9
	}
	return price
}

// Rank scores candidates against the requested band and returns the best,
// capped at maxRankedHotels. Score favors rating, price fit and amenities.
func (he *HotelEstimator) Rank(city string, tier BudgetTier, hotels []Hotel) []Hotel {
	band := he.Band(city, tier)
	ranked := make([]Hotel, len(hotels))
	copy(ranked, hotels)

	for i := range ranked {
		h := &ranked[i]
		if h.Nightly == 0 {
			h.Nightly = he.Nightly(city, tier, h.PriceLevel, h.Rating)
		}
		score := h.Rating * 10

		// Closer to the tier average is better.
		diff := h.Nightly - band.Avg
		if diff < 0 {
			diff = -diff
		}
		proximity := 10 - diff/band.Avg*10
		if proximity < 0 {
			proximity = 0
		}
		score += proximity

		if h.Nightly >= band.Min && h.Nightly <= band.Max {
			score += 5
		}
		score += float64(len(h.Amenities)) * 0.5
		h.Score = score
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > maxRankedHotels {
		ranked = ranked[:maxRankedHotels]
	}
	return ranked
}

// MockHotels fabricates plausible candidates when no live source is wired.
func (he *HotelEstimator) MockHotels(city string, tier BudgetTier) []Hotel {
	specs := []struct {
		name       string
		rating     float64
		priceLevel int
		amenities  []string
	}{
		{"%s国际大酒店", 4.6, 3, []string{"wifi", "breakfast", "gym", "pool"}},
		{"%s城市精品酒店", 4.3, 2, []string{"wifi", "breakfast"}},
		{"%s湖畔度假酒店", 4.7, 4, []string{"wifi", "breakfast", "spa", "pool", "restaurant"}},
		{"%s快捷连锁酒店", 4.0, 1, []string{"wifi"}},
		{"%s古城客栈", 4.4, 2, []string{"wifi", "breakfast", "courtyard"}},
		{"%s商务酒店", 3.9, 2, []string{"wifi", "meeting room"}},
		{"%s青年旅舍", 4.2, 0, []string{"wifi", "shared kitchen"}},
	}
	hotels := make([]Hotel, 0, len(specs))
	for _, s := range specs {
		hotels = append(hotels, Hotel{
			Name:       fmt.Sprintf(s.name, city),
			Address:    city,
			Rating:     s.rating,
			PriceLevel: s.priceLevel,
			Amenities:  s.amenities,
		})
	}
	return hotels
}

func (he *HotelEstimator) cityMultiplier(city string) float64 {
	if m, ok := cityMultipliers[city]; ok {
		return m
	}
	return 1.0
}
