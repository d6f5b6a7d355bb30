package ensemble

import (
	"math"

	"github.com/intervention-engine/cvrisk/plugin"
)

// Weights maps an estimator's method code to its vote weight. Weights are
// normalised over the estimators actually present.
type Weights map[string]float64

// DefaultWeights are the fixed weights of the three standard estimators.
func DefaultWeights() Weights {
	return Weights{
		"baseline":    0.35,
		"interaction": 0.35,
		"calibrated":  0.30,
	}
}

// Level buckets the dispersion between estimators.
type Level string

const (
	ConflictLow    Level = "LOW"
	ConflictMedium Level = "MEDIUM"
	ConflictHigh   Level = "HIGH"
)

const (
	// agreementScale is the standard deviation at which agreement reaches 0.
	agreementScale = 50.0
	// AgreementBoost scales agreement into a confidence bonus.
	AgreementBoost = 0.10
	// MaxTopFactors is the number of factors kept after de-duplication.
	MaxTopFactors = 3

	mediumConflictSD = 8.0
	highConflictSD   = 15.0
)

// Member is one estimator's vote in the ensemble.
type Member struct {
	Method    string          `json:"method"`
	Score     float64         `json:"score"`
	Weight    float64         `json:"weight"`
	Deviation float64         `json:"deviation"`
	Category  plugin.Category `json:"category"`
}

// Outcome is the aggregate of several estimates. Agreement is kept at full
// precision so that it is 1 only for identical scores.
type Outcome struct {
	Score             float64         `json:"score"`
	Confidence        float64         `json:"confidence"`
	Category          plugin.Category `json:"category"`
	Agreement         float64         `json:"agreement"`
	StdDev            float64         `json:"stdDev"`
	Conflict          Level           `json:"conflict"`
	TopFactors        []plugin.Factor `json:"topFactors"`
	Members           []Member        `json:"members"`
	CategoryConsensus bool            `json:"categoryConsensus"`
}

// Aggregate combines the estimates into one result. The score is a convex
// combination of the estimate scores; estimators without a weight fall back
// to equal weighting when no estimator has one.
func Aggregate(estimates []plugin.ScoreEstimate, weights Weights) Outcome {
	if len(estimates) == 0 {
		return Outcome{Category: plugin.CategoryLow, Agreement: 1, Conflict: ConflictLow}
	}

	norm := normalise(estimates, weights)
	score, confSum := 0.0, 0.0
	scores := make([]float64, len(estimates))
	for i, e := range estimates {
		score += norm[i] * e.Score
		confSum += e.Confidence
		scores[i] = e.Score
	}
	score = plugin.Round(plugin.Clamp(score, 0, 100))

	sd := StdDev(scores)
	agreement := Agreement(sd)
	res := Outcome{
		Score:             score,
		Confidence:        plugin.Round(math.Min(1, confSum/float64(len(estimates))+agreement*AgreementBoost)),
		Category:          plugin.CategoryForScore(score),
		Agreement:         agreement,
		StdDev:            plugin.Round(sd),
		Conflict:          ConflictLevel(sd),
		TopFactors:        TopFactors(estimates, MaxTopFactors),
		CategoryConsensus: true,
	}
	for i, e := range estimates {
		res.Members = append(res.Members, Member{
			Method:    e.Method,
			Score:     e.Score,
			Weight:    plugin.Round(norm[i]),
			Deviation: plugin.Round(e.Score - score),
			Category:  e.Category,
		})
		if e.Category != estimates[0].Category {
			res.CategoryConsensus = false
		}
	}
	return res
}

func normalise(estimates []plugin.ScoreEstimate, weights Weights) []float64 {
	methods := make([]string, len(estimates))
	for i, e := range estimates {
		methods[i] = e.Method
	}
	return Normalise(methods, weights)
}

// Normalise returns the weight of each method scaled so that the weights sum
// to 1. Methods without a positive weight get 0, unless none has one, in
// which case every method gets an equal share.
func Normalise(methods []string, weights Weights) []float64 {
	norm := make([]float64, len(methods))
	total := 0.0
	for i, m := range methods {
		if w := weights[m]; w > 0 {
			norm[i] = w
			total += w
		}
	}
	if total == 0 {
		for i := range norm {
			norm[i] = 1 / float64(len(norm))
		}
		return norm
	}
	for i := range norm {
		norm[i] /= total
	}
	return norm
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return math.Sqrt(variance / float64(len(values)))
}

// Agreement maps dispersion to [0,1]: 1 for identical scores, falling
// linearly to 0 at a standard deviation of 50.
func Agreement(sd float64) float64 {
	return math.Max(0, 1-sd/agreementScale)
}

// ConflictLevel buckets a standard deviation.
func ConflictLevel(sd float64) Level {
	switch {
	case sd < mediumConflictSD:
		return ConflictLow
	case sd < highConflictSD:
		return ConflictMedium
	default:
		return ConflictHigh
	}
}

// TopFactors merges the estimates' factors, keeping the largest magnitude per
// name, and returns the top n.
func TopFactors(estimates []plugin.ScoreEstimate, n int) []plugin.Factor {
	byName := map[string]plugin.Factor{}
	for _, e := range estimates {
		for _, f := range e.Factors {
			if cur, ok := byName[f.Name]; !ok || f.Magnitude > cur.Magnitude {
				byName[f.Name] = f
			}
		}
	}
	factors := make([]plugin.Factor, 0, len(byName))
	for _, f := range byName {
		factors = append(factors, f)
	}
	plugin.SortFactors(factors)
	if len(factors) > n {
		factors = factors[:n]
	}
	return factors
}
