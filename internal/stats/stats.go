// Package stats provides the closed-form statistical primitives used by the
// analytics engine: means, winsorized deviation, Pearson correlation, and a
// two-tailed significance approximation.
//
// All functions are pure. Wrappers around montanaflynn/stats convert its
// error returns into the zero-value contracts documented per function, so
// callers in the hot path never branch on statistics errors.
package stats

import (
	"errors"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
)

// ErrInsufficientData is returned when a computation needs more samples
// than were provided.
var ErrInsufficientData = errors.New("insufficient data")

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	m, err := mstats.Mean(values)
	if err != nil {
		return 0
	}
	return m
}

// StdDev returns the sample standard deviation, or 0 when fewer than two
// values are provided.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sd, err := mstats.StandardDeviationSample(values)
	if err != nil {
		return 0
	}
	return sd
}

// Percentile returns the value at the given percentile (0 < pct <= 100),
// or 0 for an empty slice.
func Percentile(values []float64, pct float64) float64 {
	p, err := mstats.Percentile(values, pct)
	if err != nil {
		return 0
	}
	return p
}

// Winsorize clamps values below the loPct percentile and above the hiPct
// percentile to those bounds. Outliers are limited, not discarded, so the
// sample size is preserved. The input slice is not modified.
func Winsorize(values []float64, loPct, hiPct float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	copy(out, values)
	if len(values) < 3 {
		return out
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// Percentile is undefined at the extremes for short slices; fall back
	// to the observed min/max, which leaves those values unclamped.
	lo, err := mstats.Percentile(sorted, loPct)
	if err != nil {
		lo = sorted[0]
	}
	hi, err := mstats.Percentile(sorted, hiPct)
	if err != nil {
		hi = sorted[len(sorted)-1]
	}

	for i, v := range out {
		if v < lo {
			out[i] = lo
		} else if v > hi {
			out[i] = hi
		}
	}
	return out
}

// WinsorizedStdDev returns the sample standard deviation after winsorizing
// at the given percentile bounds.
func WinsorizedStdDev(values []float64, loPct, hiPct float64) float64 {
	return StdDev(Winsorize(values, loPct, hiPct))
}

// PearsonR computes the Pearson correlation coefficient for two series of
// equal length. Returns ErrInsufficientData when fewer than two pairs exist
// and an error for mismatched lengths or zero variance.
func PearsonR(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.New("series length mismatch")
	}
	if len(x) < 2 {
		return 0, ErrInsufficientData
	}
	r, err := mstats.Pearson(x, y)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(r) {
		return 0, errors.New("correlation undefined for zero-variance series")
	}
	return r, nil
}

// tCritical holds two-tailed t critical values for alpha levels
// {0.10, 0.05, 0.01, 0.001}, indexed by degrees of freedom.
var tCritical = map[int][4]float64{
	1:  {6.314, 12.706, 63.657, 636.619},
	2:  {2.920, 4.303, 9.925, 31.599},
	3:  {2.353, 3.182, 5.841, 12.924},
	4:  {2.132, 2.776, 4.604, 8.610},
	5:  {2.015, 2.571, 4.032, 6.869},
	6:  {1.943, 2.447, 3.707, 5.959},
	7:  {1.895, 2.365, 3.499, 5.408},
	8:  {1.860, 2.306, 3.355, 5.041},
	9:  {1.833, 2.262, 3.250, 4.781},
	10: {1.812, 2.228, 3.169, 4.587},
	15: {1.753, 2.131, 2.947, 4.073},
	20: {1.725, 2.086, 2.845, 3.850},
	25: {1.708, 2.060, 2.787, 3.725},
	30: {1.697, 2.042, 2.750, 3.646},
}

// tableDFs are the table rows in ascending order, for nearest-lower lookup.
var tableDFs = []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 20, 25, 30}

// TwoTailedP approximates the two-tailed p-value for a Pearson r with n
// samples. For df <= 30 the t statistic is bucketed against a critical-value
// table; above that a normal approximation is used. Returns 1 when the test
// cannot be performed (n < 3 or |r| >= 1).
func TwoTailedP(r float64, n int) float64 {
	df := n - 2
	if df < 1 {
		return 1
	}
	abs := math.Abs(r)
	if abs >= 1 {
		return 0.001
	}

	t := abs * math.Sqrt(float64(df)/(1-abs*abs))

	if df > 30 {
		// Normal approximation of the t distribution.
		p := 2 * (1 - normalCDF(t))
		if p < 0.001 {
			p = 0.001
		}
		return p
	}

	crit := tCritical[nearestTableDF(df)]
	switch {
	case t >= crit[3]:
		return 0.001
	case t >= crit[2]:
		return 0.01
	case t >= crit[1]:
		return 0.05
	case t >= crit[0]:
		return 0.10
	default:
		return 0.5
	}
}

// nearestTableDF returns the largest table row not exceeding df.
func nearestTableDF(df int) int {
	best := tableDFs[0]
	for _, d := range tableDFs {
		if d <= df {
			best = d
		}
	}
	return best
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// Clamp01 limits v to the unit interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
