package forecast

import (
	"time"

	"github.com/bbernstein/eventcast/internal/models"
)

// SelectPoints reduces a raw series to the points relevant to [start, end].
//
// Points inside the window (inclusive) and strictly before now+Horizon are
// kept in provider order. When none qualify, the point closest to start and
// the point closest to end are returned instead, so fixed-grid provider data
// still yields an estimate for short events. The result is empty only when
// no point lies before the horizon.
func SelectPoints(series models.RawSeries, start, end, now time.Time) []models.ForecastPoint {
	maxAllowed := now.Add(Horizon)

	var selected []models.ForecastPoint
	for _, p := range series {
		if !p.Time.Before(start) && !p.Time.After(end) && p.Time.Before(maxAllowed) {
			selected = append(selected, p)
		}
	}
	if len(selected) > 0 {
		return selected
	}

	closestStart, ok := findClosest(series, start, maxAllowed)
	if !ok {
		return []models.ForecastPoint{}
	}
	closestEnd, _ := findClosest(series, end, maxAllowed)

	return []models.ForecastPoint{closestStart, closestEnd}
}

// findClosest returns the point nearest to target in whole seconds among
// points before maxAllowed. Ties keep the earliest point in series order.
func findClosest(series models.RawSeries, target, maxAllowed time.Time) (models.ForecastPoint, bool) {
	var (
		best     models.ForecastPoint
		bestDiff int64
		found    bool
	)

	for _, p := range series {
		if !p.Time.Before(maxAllowed) {
			continue
		}
		diff := absSeconds(p.Time.Unix() - target.Unix())
		if !found || diff < bestDiff {
			best = p
			bestDiff = diff
			found = true
		}
	}

	return best, found
}

func absSeconds(d int64) int64 {
	if d < 0 {
		return -d
	}
	return d
}
