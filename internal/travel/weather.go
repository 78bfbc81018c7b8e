package travel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const openWeatherBase = "https://api.openweathermap.org/data/2.5"

// WeatherService fetches current conditions and a daily forecast from
// OpenWeather. Without an API key it serves deterministic mock data so the
// planning pipeline stays usable offline.
type WeatherService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWeatherService creates a weather service. apiKey may be empty.
func NewWeatherService(apiKey string, logger *zap.Logger) *WeatherService {
	return &WeatherService{
		apiKey:     apiKey,
		baseURL:    openWeatherBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

type owWeather struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type owForecast struct {
	List []struct {
		DtTxt   string `json:"dt_txt"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	} `json:"list"`
}

// Current returns today's conditions for a city.
func (ws *WeatherService) Current(ctx context.Context, city string) (*Weather, error) {
	if ws.apiKey == "" {
		return ws.mockCurrent(), nil
	}
	var out owWeather
	if err := ws.get(ctx, "/weather", city, &out); err != nil {
		ws.logger.Warn("weather lookup failed, using mock data",
			zap.String("city", city), zap.Error(err))
		return ws.mockCurrent(), nil
	}
	w := &Weather{
		Date:        time.Now().Format(dateLayout),
		Temperature: out.Main.Temp,
		FeelsLike:   out.Main.FeelsLike,
		Humidity:    out.Main.Humidity,
		WindSpeed:   out.Wind.Speed,
	}
	if len(out.Weather) > 0 {
		w.Description = out.Weather[0].Description
	}
	return w, nil
}

// Forecast returns up to days daily entries, one per calendar day.
func (ws *WeatherService) Forecast(ctx context.Context, city string, days int) ([]Weather, error) {
	if days <= 0 {
		days = 1
	}
	if ws.apiKey == "" {
		return ws.mockForecast(days), nil
	}
	var out owForecast
	if err := ws.get(ctx, "/forecast", city, &out); err != nil {
		ws.logger.Warn("forecast lookup failed, using mock data",
			zap.String("city", city), zap.Error(err))
		return ws.mockForecast(days), nil
	}
	// The API returns 3-hour steps. Keep the first entry per date.
	seen := make(map[string]bool)
	var result []Weather
	for _, item := range out.List {
		if len(item.DtTxt) < 10 {
			continue
		}
		date := item.DtTxt[:10]
		if seen[date] {
			continue
		}
		seen[date] = true
		w := Weather{
			Date:        date,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
		}
		if len(item.Weather) > 0 {
			w.Description = item.Weather[0].Description
		}
		result = append(result, w)
		if len(result) >= days {
			break
		}
	}
	if len(result) == 0 {
		return ws.mockForecast(days), nil
	}
	return result, nil
}

// Summarize aggregates a forecast into averages and advisory notes.
func (ws *WeatherService) Summarize(forecast []Weather) *WeatherSummary {
	if len(forecast) == 0 {
		return &WeatherSummary{}
	}
	s := &WeatherSummary{MinTemp: forecast[0].Temperature, MaxTemp: forecast[0].Temperature}
	var sum, maxWind float64
	for _, w := range forecast {
		sum += w.Temperature
		if w.Temperature < s.MinTemp {
			s.MinTemp = w.Temperature
		}
		if w.Temperature > s.MaxTemp {
			s.MaxTemp = w.Temperature
		}
		if w.WindSpeed > maxWind {
			maxWind = w.WindSpeed
		}
		if isRainy(w.Description) {
			s.RainyDays++
		}
	}
	s.AvgTemp = sum / float64(len(forecast))

	if s.AvgTemp < 10 {
		s.Notes = append(s.Notes, "天气寒冷，建议携带厚外套")
	}
	if s.AvgTemp > 30 {
		s.Notes = append(s.Notes, "天气炎热，注意防晒补水")
	}
	if s.RainyDays > 0 {
		s.Notes = append(s.Notes, fmt.Sprintf("预计 %d 天有雨，请携带雨具", s.RainyDays))
	}
	if maxWind > 10 {
		s.Notes = append(s.Notes, "风力较大，户外活动注意安全")
	}
	return s
}

func (ws *WeatherService) get(ctx context.Context, path, city string, out interface{}) error {
	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", ws.apiKey)
	q.Set("units", "metric")
	q.Set("lang", "zh_cn")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ws.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := ws.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("weather API error %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (ws *WeatherService) mockCurrent() *Weather {
	return &Weather{
		Date:        time.Now().Format(dateLayout),
		Temperature: 22,
		FeelsLike:   22,
		Description: "多云",
		Humidity:    60,
		WindSpeed:   3.5,
	}
}

var mockConditions = []string{"晴朗", "多云", "阴天", "小雨"}

func (ws *WeatherService) mockForecast(days int) []Weather {
	result := make([]Weather, 0, days)
	start := time.Now()
	for i := 0; i < days; i++ {
		result = append(result, Weather{
			Date:        start.AddDate(0, 0, i).Format(dateLayout),
			Temperature: float64(20 + i%10),
			Description: mockConditions[i%len(mockConditions)],
			Humidity:    55 + i%20,
			WindSpeed:   2 + float64(i%5),
		})
	}
	return result
}

func isRainy(description string) bool {
	for _, kw := range []string{"雨", "rain", "drizzle", "shower"} {
		if containsFold(description, kw) {
			return true
		}
	}
	return false
}
