package plugin

import (
	"math"
	"sort"

	"github.com/intervention-engine/cvrisk/record"
)

// Estimator provides the interface that risk estimators adhere to. Each
// estimator is a pure function of the patient record; several of them are run
// side by side and cross-checked by the ensemble.
type Estimator interface {
	// Config returns the configuration information for the estimator
	Config() EstimatorConfig
	// Estimate scores the record. It never fails: missing or malformed fields
	// contribute nothing.
	Estimate(r *record.PatientRecord) ScoreEstimate
}

// EstimatorConfig represents key information about an estimator.
type EstimatorConfig struct {
	Name             string
	Method           string
	DefaultPieSlices []Slice
	// ConfidenceFloor is the confidence reported for a score of exactly 50;
	// ConfidenceSpan is added on top of it as the score approaches 0 or 100.
	ConfidenceFloor float64
	ConfidenceSpan  float64
}

// Category is the coarse risk band of a score.
type Category string

const (
	CategoryLow    Category = "LOW"
	CategoryMedium Category = "MEDIUM"
	CategoryHigh   Category = "HIGH"
)

// Score thresholds separating the categories.
const (
	MediumThreshold = 35.0
	HighThreshold   = 60.0
)

// CategoryForScore maps a 0-100 score to its category.
func CategoryForScore(score float64) Category {
	switch {
	case score < MediumThreshold:
		return CategoryLow
	case score < HighThreshold:
		return CategoryMedium
	default:
		return CategoryHigh
	}
}

// Factor is a named contributor to a score, with a free-text reason and a
// magnitude in score points used for ranking.
type Factor struct {
	Name      string  `json:"name" bson:"name"`
	Reason    string  `json:"reason,omitempty" bson:"reason,omitempty"`
	Magnitude float64 `json:"magnitude" bson:"magnitude"`
}

// ScoreEstimate is the output of one estimator for one record.
type ScoreEstimate struct {
	Name       string   `json:"name"`
	Method     string   `json:"method"`
	Score      float64  `json:"score"`
	Confidence float64  `json:"confidence"`
	Category   Category `json:"category"`
	Factors    []Factor `json:"factors"`
	Pie        *Pie     `json:"pie,omitempty"`
	// Notes lists corrections applied on top of the pie total, in order.
	Notes []string `json:"notes,omitempty"`
}

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one piece of advice produced by a scoring stage.
type Recommendation struct {
	Area     string   `json:"area" bson:"area"`
	Priority Priority `json:"priority" bson:"priority"`
	Text     string   `json:"text" bson:"text"`
}

// MaxFactors is the number of ranked factors each estimator reports.
const MaxFactors = 4

// NewEstimate builds the estimate for a final score and the pie that produced
// it. Confidence grows with the distance from the midpoint.
func (cfg EstimatorConfig) NewEstimate(score float64, pie *Pie) ScoreEstimate {
	score = Round(Clamp(score, 0, 100))
	return ScoreEstimate{
		Name:       cfg.Name,
		Method:     cfg.Method,
		Score:      score,
		Confidence: ExtremityConfidence(score, cfg.ConfidenceFloor, cfg.ConfidenceSpan),
		Category:   CategoryForScore(score),
		Factors:    pie.TopFactors(MaxFactors),
		Pie:        pie,
	}
}

// ExtremityConfidence returns floor + span*|score-50|/50, capped to [0,1].
func ExtremityConfidence(score, floor, span float64) float64 {
	conf := floor + span*math.Abs(score-50)/50
	return Round(Clamp(conf, 0, 1))
}

// SortFactors orders factors by descending magnitude. Ties are ordered by name
// so the result never depends on input order.
func SortFactors(factors []Factor) {
	sort.SliceStable(factors, func(i, j int) bool {
		if factors[i].Magnitude != factors[j].Magnitude {
			return factors[i].Magnitude > factors[j].Magnitude
		}
		return factors[i].Name < factors[j].Name
	})
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Round rounds to two decimals, the precision scores are reported at.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}
