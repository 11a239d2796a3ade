package analytics

import (
	"math"
	"strings"
	"time"

	"github.com/fernwell/insightd/internal/stats"
	"github.com/fernwell/insightd/internal/wellness"
)

// minBucketObservations is how many entries a day/time bucket needs before
// it can be reported as a best time.
const minBucketObservations = 2

// timeOfDay buckets the clock into coarse periods.
func timeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 23:
		return "evening"
	default:
		return "night"
	}
}

// bestTimes reports the day of week and coarse time of day with the highest
// mean mood, provided the bucket has at least two observations. Confidence
// scales with the total sample size.
func bestTimes(records []wellness.MoodRecord) wellness.BestTimes {
	dayMoods := make(map[time.Weekday][]float64)
	periodMoods := make(map[string][]float64)

	for _, r := range records {
		dayMoods[r.Timestamp.Weekday()] = append(dayMoods[r.Timestamp.Weekday()], r.Mood)
		period := timeOfDay(r.Timestamp.Hour())
		periodMoods[period] = append(periodMoods[period], r.Mood)
	}

	out := wellness.BestTimes{
		Confidence: stats.Clamp01(math.Min(0.9, float64(len(records))/30.0)),
	}

	bestDayMean := math.Inf(-1)
	for day := time.Sunday; day <= time.Saturday; day++ {
		moods := dayMoods[day]
		if len(moods) < minBucketObservations {
			continue
		}
		if m := stats.Mean(moods); m > bestDayMean {
			bestDayMean = m
			out.DayOfWeek = strings.ToLower(day.String())
		}
	}

	bestPeriodMean := math.Inf(-1)
	for _, period := range []string{"morning", "afternoon", "evening", "night"} {
		moods := periodMoods[period]
		if len(moods) < minBucketObservations {
			continue
		}
		if m := stats.Mean(moods); m > bestPeriodMean {
			bestPeriodMean = m
			out.TimeOfDay = period
		}
	}

	return out
}
