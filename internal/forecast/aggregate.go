package forecast

import (
	"math"

	"github.com/bbernstein/eventcast/internal/models"
)

// Aggregate averages air temperature and wind speed across points, each
// rounded half-up to one decimal place. An empty slice yields a zero result;
// callers that need to tell "no data" apart must check before aggregating.
func Aggregate(points []models.ForecastPoint) models.ForecastResult {
	if len(points) == 0 {
		return models.ForecastResult{}
	}

	var sumTemp, sumWind float64
	for _, p := range points {
		sumTemp += p.AirTemperature
		sumWind += p.WindSpeed
	}

	n := float64(len(points))

	return models.ForecastResult{
		AirTemperature: roundToTenth(sumTemp / n),
		WindSpeed:      roundToTenth(sumWind / n),
	}
}

// roundToTenth rounds half toward positive infinity, so -10.05 becomes -10.0
func roundToTenth(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}
