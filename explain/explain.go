package explain

import (
	"fmt"
	"strings"

	"github.com/intervention-engine/cvrisk/calibration"
	"github.com/intervention-engine/cvrisk/ensemble"
	"github.com/intervention-engine/cvrisk/lifestyle"
	"github.com/intervention-engine/cvrisk/medication"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/trend"
)

// Disclaimer closes every explanation.
const Disclaimer = "This estimate is for information only and is not a diagnosis. Discuss your results with a qualified healthcare professional before changing treatment."

// Input is everything the composer can describe. Nil stages are skipped.
type Input struct {
	Score       float64
	Ensemble    ensemble.Outcome
	Calibration *calibration.Adjustment
	Lifestyle   *lifestyle.Assessment
	Medication  *medication.Impact
	Trend       *trend.Analysis

	// Recommendations are rendered grouped by priority, highest first.
	Recommendations []plugin.Recommendation
}

// Compose renders the input as plain text, one paragraph per stage.
func Compose(in Input) string {
	var paras []string
	paras = append(paras, summary(in))
	if f := factors(in.Ensemble); f != "" {
		paras = append(paras, f)
	}
	if in.Calibration != nil {
		paras = append(paras, fmt.Sprintf("Adjusted for the %s population profile (%s-aggregation): %.1f became %.1f.",
			in.Calibration.Profile, in.Calibration.Stage, in.Calibration.InputScore, in.Calibration.AdjustedScore))
	}
	if in.Lifestyle != nil {
		paras = append(paras, lifestyleText(in.Lifestyle))
	}
	if in.Medication != nil && in.Medication.TotalReduction > 0 {
		paras = append(paras, fmt.Sprintf("Your medications are estimated to lower risk by %.0f%%; without them the estimate would be about %.1f.",
			in.Medication.TotalReduction, in.Medication.RiskWithoutMeds))
	}
	if in.Trend != nil {
		paras = append(paras, trendText(in.Trend))
	}
	paras = append(paras, recommendations(in.Recommendations)...)
	paras = append(paras, Disclaimer)
	return strings.Join(paras, "\n\n")
}

func summary(in Input) string {
	e := in.Ensemble
	s := fmt.Sprintf("Estimated cardiovascular risk: %.1f/100 (%s), confidence %.0f%%.", in.Score, plugin.CategoryForScore(in.Score), e.Confidence*100)
	switch e.Conflict {
	case ensemble.ConflictLow:
		s += fmt.Sprintf(" The scoring models agree closely (agreement %.2f).", e.Agreement)
	case ensemble.ConflictMedium:
		s += fmt.Sprintf(" The scoring models differ somewhat (agreement %.2f); treat the category as approximate.", e.Agreement)
	default:
		s += fmt.Sprintf(" The scoring models disagree substantially (agreement %.2f); a clinical review is advised.", e.Agreement)
	}
	return s
}

func factors(e ensemble.Outcome) string {
	if len(e.TopFactors) == 0 {
		return ""
	}
	parts := make([]string, len(e.TopFactors))
	for i, f := range e.TopFactors {
		parts[i] = f.Name
		if f.Reason != "" {
			parts[i] += " (" + f.Reason + ")"
		}
	}
	return "Main contributing factors: " + strings.Join(parts, "; ") + "."
}

var priorities = []struct {
	priority plugin.Priority
	label    string
}{
	{plugin.PriorityHigh, "High priority"},
	{plugin.PriorityMedium, "Medium priority"},
	{plugin.PriorityLow, "Low priority"},
}

// recommendations returns one paragraph per priority that has advice. Advice
// keeps its order within a priority.
func recommendations(recs []plugin.Recommendation) []string {
	var paras []string
	for _, p := range priorities {
		var texts []string
		for _, r := range recs {
			if r.Priority == p.priority {
				texts = append(texts, r.Text)
			}
		}
		if len(texts) > 0 {
			paras = append(paras, p.label+": "+strings.Join(texts, " "))
		}
	}
	return paras
}

func lifestyleText(a *lifestyle.Assessment) string {
	s := fmt.Sprintf("Lifestyle score %.0f/100 (sleep %.0f, stress %.0f, activity %.0f, diet %.0f).",
		a.Overall, a.Sleep.Score, a.Stress.Score, a.Activity.Score, a.Diet.Score)
	if len(a.Missing) > 0 {
		s += " Not reported: " + strings.Join(a.Missing, ", ") + "."
	}
	return s
}

func trendText(t *trend.Analysis) string {
	if t.Degenerate {
		return fmt.Sprintf("Not enough history to fit a trend (%d assessment(s)).", t.Points)
	}
	s := fmt.Sprintf("Over %d assessments spanning %.0f days the risk is %s (%+.1f points per month).",
		t.Points, t.SpanDays, t.Direction, t.MonthlyRate)
	if n := len(t.Projections); n > 0 {
		p := t.Projections[n-1]
		s += fmt.Sprintf(" Projected %d-month risk: %.1f.", p.Months, p.Score)
	}
	if t.Alert != trend.AlertNone {
		s += fmt.Sprintf(" Alert level: %s.", t.Alert)
	}
	if len(t.Emerging) > 0 {
		s += " New factors: " + strings.Join(t.Emerging, ", ") + "."
	}
	return s
}
