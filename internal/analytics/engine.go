// Package analytics computes clinical-style mood statistics from a mood time
// series: weekly delta, winsorized volatility, rolling baselines, gated
// pairwise correlations, an emotional-profile classification, best-time
// estimation, and a composite confidence score.
//
// Everything here is closed-form statistics over a bounded window. Small
// samples degrade confidence instead of failing.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fernwell/insightd/internal/logging"
	"github.com/fernwell/insightd/internal/stats"
	"github.com/fernwell/insightd/internal/wellness"
)

const (
	// NeutralBaseline is the midpoint of the 0-100 mood scale, reported
	// when too little data exists to measure a real baseline.
	NeutralBaseline = 50.0

	// minEntries is the valid-entry floor below which the engine returns
	// a degraded low-confidence snapshot.
	minEntries = 3

	// correlationGate is the minimum paired sample size for reporting a
	// correlation. Below it, r and p are nil, never zero.
	correlationGate = 10

	// baselineWindow bounds the rolling-baseline and volatility windows.
	baselineWindow = 14 * 24 * time.Hour

	// winsorLo/winsorHi are the percentile clamps applied before the
	// volatility computation.
	winsorLo = 5.0
	winsorHi = 95.0
)

// Engine computes mood analytics snapshots.
type Engine struct {
	logger *logging.Logger
}

// NewEngine creates an analytics engine.
func NewEngine(logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{logger: logger.Named("analytics")}
}

// Analyze produces the full statistical readout for a mood series.
// It never returns nil: with fewer than three valid entries the snapshot is
// degraded (neutral baselines, nil correlations, stable profile) rather than
// an error.
func (e *Engine) Analyze(ctx context.Context, records []wellness.MoodRecord) *wellness.MoodAnalyticsSnapshot {
	valid := validRecords(records)
	n := len(valid)

	if n < minEntries {
		return degradedSnapshot(n)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Timestamp.Before(valid[j].Timestamp)
	})
	latest := valid[n-1].Timestamp

	delta := weeklyDelta(valid, latest)
	volatility := e.volatility(valid, latest)
	baselines := computeBaselines(valid, latest)
	correlations := computeCorrelations(valid)
	quality := dataQuality(valid)

	profile := ClassifyProfile(ProfileInput{
		Baselines:  baselines,
		Volatility: volatility,
		Delta:      delta,
		SampleSize: n,
	})

	snapshot := &wellness.MoodAnalyticsSnapshot{
		WeeklyDelta:  stats.Round1(delta),
		Volatility:   stats.Round1(volatility),
		Baselines:    baselines,
		Correlations: correlations,
		Profile:      profile,
		BestTimes:    bestTimes(valid),
		SampleSize:   n,
		DataQuality:  quality,
	}
	snapshot.Confidence = compositeConfidence(snapshot)

	e.logger.Debug(ctx, "mood analytics computed",
		zap.Int("sample_size", n),
		zap.String("profile", string(profile.Type)),
		zap.Float64("confidence", snapshot.Confidence),
	)
	return snapshot
}

// validRecords keeps entries whose mood is on-scale and timestamped.
func validRecords(records []wellness.MoodRecord) []wellness.MoodRecord {
	out := make([]wellness.MoodRecord, 0, len(records))
	for _, r := range records {
		if r.Timestamp.IsZero() {
			continue
		}
		if r.Mood < 0 || r.Mood > 100 || math.IsNaN(r.Mood) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// degradedSnapshot is the fixed low-confidence readout for tiny samples.
func degradedSnapshot(n int) *wellness.MoodAnalyticsSnapshot {
	return &wellness.MoodAnalyticsSnapshot{
		Baselines: wellness.Baselines{
			Mood:    NeutralBaseline,
			Energy:  NeutralBaseline,
			Anxiety: NeutralBaseline,
		},
		Correlations: nilCorrelations(0),
		Profile: wellness.EmotionalProfile{
			Type:       wellness.ProfileStable,
			Confidence: 0.1,
			Rationale:  []string{"not enough data to classify"},
		},
		SampleSize:  n,
		DataQuality: 0.1,
		Confidence:  0.1,
	}
}

// weeklyDelta is the mean of the current 7-day window minus the mean of the
// prior 7-day window, anchored at the most recent entry. When either window
// is too thin the comparison degrades to 3-day windows before giving up.
func weeklyDelta(sorted []wellness.MoodRecord, latest time.Time) float64 {
	if delta, ok := windowDelta(sorted, latest, 7*24*time.Hour); ok {
		return delta
	}
	if delta, ok := windowDelta(sorted, latest, 3*24*time.Hour); ok {
		return delta
	}
	return 0
}

// windowDelta compares the [latest-span, latest] window against the one
// before it. Both windows need at least two points.
func windowDelta(sorted []wellness.MoodRecord, latest time.Time, span time.Duration) (float64, bool) {
	currentStart := latest.Add(-span)
	previousStart := latest.Add(-2 * span)

	var current, previous []float64
	for _, r := range sorted {
		switch {
		case !r.Timestamp.Before(currentStart):
			current = append(current, r.Mood)
		case !r.Timestamp.Before(previousStart):
			previous = append(previous, r.Mood)
		}
	}
	if len(current) < 2 || len(previous) < 2 {
		return 0, false
	}
	return stats.Mean(current) - stats.Mean(previous), true
}

// volatility is the winsorized standard deviation of the most recent
// 14 days of mood scores. Clamping at the 5th/95th percentile keeps a single
// extreme entry from dominating the variance signal.
func (e *Engine) volatility(sorted []wellness.MoodRecord, latest time.Time) float64 {
	cutoff := latest.Add(-baselineWindow)
	var moods []float64
	for _, r := range sorted {
		if !r.Timestamp.Before(cutoff) {
			moods = append(moods, r.Mood)
		}
	}
	return stats.WinsorizedStdDev(moods, winsorLo, winsorHi)
}

// computeBaselines takes simple means over the most recent 14-day window,
// or all available data if shorter, rounded to one decimal. Energy and
// anxiety fall back to the neutral midpoint when never reported.
func computeBaselines(sorted []wellness.MoodRecord, latest time.Time) wellness.Baselines {
	cutoff := latest.Add(-baselineWindow)

	var moods, energies, anxieties []float64
	for _, r := range sorted {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		moods = append(moods, r.Mood)
		if r.Energy != nil {
			energies = append(energies, *r.Energy)
		}
		if r.Anxiety != nil {
			anxieties = append(anxieties, *r.Anxiety)
		}
	}

	baselines := wellness.Baselines{
		Mood:    NeutralBaseline,
		Energy:  NeutralBaseline,
		Anxiety: NeutralBaseline,
	}
	if len(moods) > 0 {
		baselines.Mood = stats.Round1(stats.Mean(moods))
	}
	if len(energies) > 0 {
		baselines.Energy = stats.Round1(stats.Mean(energies))
	}
	if len(anxieties) > 0 {
		baselines.Anxiety = stats.Round1(stats.Mean(anxieties))
	}
	return baselines
}

// Correlation pair keys.
const (
	PairMoodEnergy    = "mood-energy"
	PairMoodAnxiety   = "mood-anxiety"
	PairEnergyAnxiety = "energy-anxiety"
)

// computeCorrelations reports Pearson r and a two-tailed p approximation for
// each variable pair, but only when at least correlationGate paired samples
// exist. Below the gate the pair is reported with nil r/p so callers cannot
// mistake "unmeasured" for "no relationship".
func computeCorrelations(records []wellness.MoodRecord) map[string]wellness.Correlation {
	var moodE, energy []float64
	var moodA, anxiety []float64
	var energyA, anxietyE []float64

	for _, r := range records {
		if r.Energy != nil {
			moodE = append(moodE, r.Mood)
			energy = append(energy, *r.Energy)
		}
		if r.Anxiety != nil {
			moodA = append(moodA, r.Mood)
			anxiety = append(anxiety, *r.Anxiety)
		}
		if r.Energy != nil && r.Anxiety != nil {
			energyA = append(energyA, *r.Energy)
			anxietyE = append(anxietyE, *r.Anxiety)
		}
	}

	return map[string]wellness.Correlation{
		PairMoodEnergy:    correlate(moodE, energy),
		PairMoodAnxiety:   correlate(moodA, anxiety),
		PairEnergyAnxiety: correlate(energyA, anxietyE),
	}
}

func correlate(x, y []float64) wellness.Correlation {
	n := len(x)
	if n < correlationGate {
		return wellness.Correlation{N: n}
	}
	r, err := stats.PearsonR(x, y)
	if err != nil {
		return wellness.Correlation{N: n}
	}
	p := stats.TwoTailedP(r, n)
	return wellness.Correlation{R: &r, N: n, P: &p}
}

// nilCorrelations returns the three pairs with nil r/p at the given n.
func nilCorrelations(n int) map[string]wellness.Correlation {
	return map[string]wellness.Correlation{
		PairMoodEnergy:    {N: n},
		PairMoodAnxiety:   {N: n},
		PairEnergyAnxiety: {N: n},
	}
}

// dataQuality scores the series in [0,1], penalizing missing energy/anxiety
// fields and statistical mood outliers beyond three deviations.
func dataQuality(records []wellness.MoodRecord) float64 {
	n := len(records)
	if n == 0 {
		return 0
	}

	var missingEnergy, missingAnxiety int
	moods := make([]float64, n)
	for i, r := range records {
		moods[i] = r.Mood
		if r.Energy == nil {
			missingEnergy++
		}
		if r.Anxiety == nil {
			missingAnxiety++
		}
	}

	quality := 1.0
	quality -= 0.25 * float64(missingEnergy) / float64(n)
	quality -= 0.25 * float64(missingAnxiety) / float64(n)

	mean := stats.Mean(moods)
	sd := stats.StdDev(moods)
	if sd > 0 {
		var outliers int
		for _, m := range moods {
			if math.Abs(m-mean) > 3*sd {
				outliers++
			}
		}
		quality -= 0.2 * float64(outliers) / float64(n)
	}

	return stats.Clamp01(quality)
}

// compositeConfidence is the convex combination mandated for every snapshot:
// sample size (<=0.4) + data quality (<=0.3) + profile confidence (<=0.2) +
// mean absolute correlation strength (<=0.1), capped at 0.95.
func compositeConfidence(s *wellness.MoodAnalyticsSnapshot) float64 {
	sampleComponent := 0.4 * math.Min(1, float64(s.SampleSize)/30.0)
	qualityComponent := 0.3 * stats.Clamp01(s.DataQuality)
	profileComponent := 0.2 * stats.Clamp01(s.Profile.Confidence)

	var sum float64
	var measured int
	for _, c := range s.Correlations {
		if c.R != nil {
			sum += math.Abs(*c.R)
			measured++
		}
	}
	corrComponent := 0.0
	if measured > 0 {
		corrComponent = 0.1 * stats.Clamp01(sum/float64(measured))
	}

	return math.Min(0.95, sampleComponent+qualityComponent+profileComponent+corrComponent)
}
