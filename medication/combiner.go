package medication

import (
	"math"
	"sort"
)

// MaxReduction is the physiological ceiling on the combined risk reduction,
// in percent.
const MaxReduction = 50.0

// rankWeights are the weights applied to contributions by rank, largest
// first. Every rank past the list uses tailWeight.
var rankWeights = []float64{1.0, 0.8, 0.6, 0.4}

const tailWeight = 0.2

// Conditions are the patient characteristics that change how much a drug
// class reduces risk.
type Conditions struct {
	Age      int
	Diabetic bool
	Smoking  bool
	PriorMI  bool
}

// Contribution is one drug class's share of the combined reduction.
type Contribution struct {
	Class     Class   `json:"class"`
	Reduction float64 `json:"reduction"`
	Rank      int     `json:"rank"`
	Weight    float64 `json:"weight"`
	Effective float64 `json:"effective"`
	Rationale string  `json:"rationale"`
}

// Impact is the estimated effect of the active medications on risk.
type Impact struct {
	CurrentRisk     float64        `json:"currentRisk"`
	RiskWithoutMeds float64        `json:"riskWithoutMeds"`
	TotalReduction  float64        `json:"totalReduction"`
	Capped          bool           `json:"capped"`
	Contributions   []Contribution `json:"contributions"`
}

// Reduction returns the relative risk reduction, in percent, of one drug
// class for the given conditions. Current smoking blunts every class by 10%.
func Reduction(c Class, cond Conditions) (float64, string) {
	var pct float64
	var why string
	switch c {
	case Statin:
		pct, why = 25, "Statin lowers LDL-driven risk"
		if cond.Diabetic || cond.PriorMI {
			pct, why = 35, "Statin in diabetes or after infarction gives larger benefit"
		}
	case BetaBlocker:
		pct, why = 15, "Beta-blocker lowers heart rate and pressure"
		if cond.PriorMI {
			pct, why = 25, "Beta-blocker after infarction reduces recurrence"
		}
	case ACEInhibitor:
		pct, why = 20, "ACE inhibitor lowers pressure and protects the vasculature"
		if cond.Diabetic {
			pct, why = 25, "ACE inhibitor in diabetes adds renal protection"
		}
	case Aspirin:
		pct, why = 10, "Aspirin for primary prevention"
		switch {
		case cond.PriorMI:
			pct, why = 20, "Aspirin for secondary prevention"
		case cond.Age >= 70:
			pct, why = 5, "Aspirin over 70 without prior events has limited net benefit"
		}
	case Diuretic:
		pct, why = 10, "Diuretic lowers blood pressure"
	case CalciumChannelBlocker:
		pct, why = 12, "Calcium-channel blocker lowers blood pressure"
	default:
		return 0, ""
	}
	if cond.Smoking {
		pct *= 0.9
		why += "; reduced while smoking"
	}
	return pct, why
}

// CombineReductions applies the diminishing-returns rule to a set of
// reductions: sorted descending, the first counts fully, then 80%, 60%, 40%
// and 20% for every later one. The total is capped at MaxReduction.
func CombineReductions(reductions []float64) float64 {
	sorted := make([]float64, len(reductions))
	copy(sorted, reductions)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))
	total := 0.0
	for i, r := range sorted {
		total += r * rankWeight(i)
	}
	return math.Min(total, MaxReduction)
}

func rankWeight(rank int) float64 {
	if rank < len(rankWeights) {
		return rankWeights[rank]
	}
	return tailWeight
}

// Combine estimates the combined effect of the profile's active classes on a
// score that already reflects treatment, and the counterfactual risk without
// it.
func Combine(currentScore float64, p Profile, cond Conditions) Impact {
	contributions := make([]Contribution, 0, len(Classes))
	for _, c := range p.Active() {
		pct, why := Reduction(c, cond)
		contributions = append(contributions, Contribution{Class: c, Reduction: round(pct), Rationale: why})
	}
	// Stable sort keeps declaration order for equal reductions
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Reduction > contributions[j].Reduction
	})

	total := 0.0
	for i := range contributions {
		contributions[i].Rank = i + 1
		contributions[i].Weight = rankWeight(i)
		contributions[i].Effective = round(contributions[i].Reduction * contributions[i].Weight)
		total += contributions[i].Reduction * contributions[i].Weight
	}

	impact := Impact{
		CurrentRisk:     round(currentScore),
		RiskWithoutMeds: round(currentScore),
		Contributions:   contributions,
	}
	if total > MaxReduction {
		total = MaxReduction
		impact.Capped = true
	}
	impact.TotalReduction = round(total)
	if total > 0 {
		impact.RiskWithoutMeds = round(math.Min(100, currentScore/(1-total/100)))
	}
	return impact
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
