package trend

import (
	"math"

	"github.com/intervention-engine/cvrisk/plugin"
)

// Direction classifies the fitted trend.
type Direction string

const (
	Improving     Direction = "improving"
	Stable        Direction = "stable"
	Deteriorating Direction = "deteriorating"
)

// AlertLevel grades how urgently a trend needs attention.
type AlertLevel string

const (
	AlertNone     AlertLevel = "none"
	AlertCaution  AlertLevel = "caution"
	AlertWarning  AlertLevel = "warning"
	AlertCritical AlertLevel = "critical"
)

// Reliability labels how much the fitted trend can be trusted.
type Reliability string

const (
	ReliabilityLow    Reliability = "low"
	ReliabilityMedium Reliability = "medium"
	ReliabilityHigh   Reliability = "high"
)

const (
	daysPerMonth = 30.0
	// rateThreshold is the monthly change, in points, beyond which a trend is
	// no longer stable.
	rateThreshold = 1.0
)

// Alert and reliability thresholds.
const (
	criticalScore   = 75.0
	warningChange   = 10.0
	cautionChange   = 5.0
	highPoints      = 12
	highStability   = 75.0
	mediumPoints    = 6
	mediumStability = 50.0
)

// ProjectionMonths are the horizons projected forward from the last score.
var ProjectionMonths = []int{3, 6, 12}

// Projection is the projected score at a horizon.
type Projection struct {
	Months int     `json:"months"`
	Score  float64 `json:"score"`
}

// Analysis is the outcome of fitting a series.
type Analysis struct {
	Points        int          `json:"points"`
	SpanDays      float64      `json:"spanDays"`
	FirstScore    float64      `json:"firstScore"`
	LastScore     float64      `json:"lastScore"`
	Direction     Direction    `json:"direction"`
	Slope         float64      `json:"slope"`
	MonthlyRate   float64      `json:"monthlyRate"`
	PercentChange float64      `json:"percentChange"`
	Projections   []Projection `json:"projections"`
	Alert         AlertLevel   `json:"alert"`
	Stability     float64      `json:"stability"`
	Reliability   Reliability  `json:"reliability"`
	Emerging      []string     `json:"emergingFactors,omitempty"`
	Resolved      []string     `json:"resolvedFactors,omitempty"`
	Degenerate    bool         `json:"degenerate,omitempty"`
}

// Analyze fits an ordinary least-squares line of score against days since
// the first snapshot. The input is not modified. Fewer than two points, or
// points that all share one timestamp, give a stable result with no
// projected change.
func Analyze(snapshots []Snapshot) Analysis {
	snaps := make([]Snapshot, len(snapshots))
	copy(snaps, snapshots)
	sortSnapshots(snaps)

	a := Analysis{Points: len(snaps), Direction: Stable, Alert: AlertNone, Reliability: ReliabilityLow}
	if len(snaps) == 0 {
		a.Projections = project(0, 0)
		a.Stability = 100
		a.Degenerate = true
		return a
	}
	first, last := snaps[0], snaps[len(snaps)-1]
	a.FirstScore, a.LastScore = first.Score, last.Score
	a.SpanDays = plugin.Round(last.AsOf.Sub(first.AsOf).Hours() / 24)
	a.Emerging, a.Resolved = factorChanges(first.KeyFactors, last.KeyFactors)

	scores := make([]float64, len(snaps))
	for i, s := range snaps {
		scores[i] = s.Score
	}
	a.Stability = plugin.Round(stability(scores))
	a.Reliability = reliability(len(snaps), a.Stability)

	if len(snaps) < 2 || !last.AsOf.After(first.AsOf) {
		a.Projections = project(last.Score, 0)
		a.Degenerate = true
		return a
	}

	slope := fitSlope(snaps)
	a.Slope = plugin.Round(slope)
	a.MonthlyRate = plugin.Round(slope * daysPerMonth)
	switch {
	case slope*daysPerMonth < -rateThreshold:
		a.Direction = Improving
	case slope*daysPerMonth > rateThreshold:
		a.Direction = Deteriorating
	}
	a.Projections = project(last.Score, slope*daysPerMonth)
	a.PercentChange = plugin.Round(percentChange(first.Score, last.Score))

	// Only rising risk alerts.
	switch {
	case last.Score > criticalScore && a.Direction == Deteriorating:
		a.Alert = AlertCritical
	case a.PercentChange > warningChange:
		a.Alert = AlertWarning
	case a.PercentChange > cautionChange:
		a.Alert = AlertCaution
	}
	return a
}

// fitSlope returns (nΣxy − ΣxΣy)/(nΣx² − (Σx)²) in points per day, or 0 when
// the denominator vanishes or every score is equal.
func fitSlope(snaps []Snapshot) float64 {
	n := float64(len(snaps))
	var sx, sy, sxy, sxx float64
	flat := true
	for _, s := range snaps {
		x := s.AsOf.Sub(snaps[0].AsOf).Hours() / 24
		y := s.Score
		sx += x
		sy += y
		sxy += x * y
		sxx += x * x
		if y != snaps[0].Score {
			flat = false
		}
	}
	den := n*sxx - sx*sx
	if flat || den == 0 || math.IsNaN(den) {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

func project(last, monthlyRate float64) []Projection {
	out := make([]Projection, len(ProjectionMonths))
	for i, m := range ProjectionMonths {
		out[i] = Projection{Months: m, Score: plugin.Round(plugin.Clamp(last+monthlyRate*float64(m), 0, 100))}
	}
	return out
}

// percentChange is the relative change from first to last. A series that
// starts at zero counts any rise as a 100% change.
func percentChange(first, last float64) float64 {
	if first <= 0 {
		if last > 0 {
			return 100
		}
		return 0
	}
	return (last - first) / first * 100
}

// stability is 100 − 2·CV%, floored at 0.
func stability(scores []float64) float64 {
	if len(scores) == 0 {
		return 100
	}
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	if mean == 0 {
		return 100
	}
	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	cv := math.Sqrt(variance/float64(len(scores))) / mean * 100
	return math.Max(0, 100-2*cv)
}

func reliability(points int, stability float64) Reliability {
	switch {
	case points >= highPoints && stability > highStability:
		return ReliabilityHigh
	case points >= mediumPoints && stability > mediumStability:
		return ReliabilityMedium
	default:
		return ReliabilityLow
	}
}

// factorChanges lists factors present only in the last snapshot, then those
// present only in the first.
func factorChanges(first, last []string) (emerging, resolved []string) {
	in := func(list []string, name string) bool {
		for _, v := range list {
			if v == name {
				return true
			}
		}
		return false
	}
	for _, f := range last {
		if !in(first, f) {
			emerging = append(emerging, f)
		}
	}
	for _, f := range first {
		if !in(last, f) {
			resolved = append(resolved, f)
		}
	}
	return emerging, resolved
}
