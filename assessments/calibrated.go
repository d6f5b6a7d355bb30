package assessments

import (
	"fmt"

	"github.com/intervention-engine/cvrisk/medication"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// Correction factors applied by the CalibratedEstimator, in application order.
const (
	medicationDiscount = 0.85
	activityDiscount   = 0.90
	protectiveDiscount = 0.90
	populationUplift   = 1.05
)

// CalibratedEstimator starts from the baseline score and applies sequential
// multiplicative corrections: age band, medication presence, high activity,
// multiple protective factors, and a fixed population-baseline uplift.
type CalibratedEstimator struct {
	baseline *BaselineEstimator
}

// NewCalibratedEstimator returns a new CalibratedEstimator
func NewCalibratedEstimator() *CalibratedEstimator {
	return &CalibratedEstimator{baseline: NewBaselineEstimator()}
}

// Config provides the configuration parameters for the CalibratedEstimator.
// Its slices mirror the baseline's, rescaled by the combined correction.
func (e *CalibratedEstimator) Config() plugin.EstimatorConfig {
	base := e.baseline.Config()
	return plugin.EstimatorConfig{
		Name:             "Calibrated-correction score",
		Method:           "calibrated",
		DefaultPieSlices: base.DefaultPieSlices,
		ConfidenceFloor:  0.65,
		ConfidenceSpan:   0.3,
	}
}

type correction struct {
	factor float64
	note   string
}

// Estimate applies the corrections to the baseline estimate.
func (e *CalibratedEstimator) Estimate(r *record.PatientRecord) plugin.ScoreEstimate {
	cfg := e.Config()
	base := e.baseline.Estimate(r)

	corrections := []correction{ageBand(r.Age)}
	if medication.Parse(r.Medications).Any() {
		corrections = append(corrections, correction{medicationDiscount, "Active cardiovascular medication"})
	}
	if r.Activity.High() {
		corrections = append(corrections, correction{activityDiscount, "High physical activity"})
	}
	if n := protectiveCount(r); n >= 3 {
		corrections = append(corrections, correction{protectiveDiscount, fmt.Sprintf("%d protective factors", n)})
	}
	corrections = append(corrections, correction{populationUplift, "Population baseline uplift"})

	score := base.Score
	multiplier := 1.0
	var notes []string
	for _, c := range corrections {
		if c.factor == 1 {
			continue
		}
		score *= c.factor
		multiplier *= c.factor
		notes = append(notes, fmt.Sprintf("%s (x%.2f)", c.note, c.factor))
	}

	pie := plugin.NewPie(cfg.Method, r.SubjectID, nil)
	pie.Slices = make([]plugin.Slice, len(base.Pie.Slices))
	for i, s := range base.Pie.Slices {
		pie.Slices[i] = plugin.Slice{Name: s.Name, Value: s.Value * multiplier, Reason: s.Reason}
	}

	est := cfg.NewEstimate(score, pie)
	est.Notes = notes
	return est
}

// ageBand recalibrates the baseline for age bands the linear brackets under-
// or over-estimate. A missing age leaves the score unchanged.
func ageBand(age int) correction {
	switch {
	case age <= 0:
		return correction{1, ""}
	case age < 40:
		return correction{0.85, "Age band under 40"}
	case age < 55:
		return correction{0.95, "Age band 40-54"}
	case age < 65:
		return correction{1.05, "Age band 55-64"}
	case age < 75:
		return correction{1.15, "Age band 65-74"}
	default:
		return correction{1.25, "Age band 75 and over"}
	}
}

// protectiveCount counts independent protective factors.
func protectiveCount(r *record.PatientRecord) int {
	count := 0
	if r.HDL != nil && *r.HDL >= 60 {
		count++
	}
	if r.Smoking == record.HabitNever {
		count++
	}
	if bmi := r.BMI(); bmi != nil && *bmi >= 18.5 && *bmi < 25 {
		count++
	}
	if r.Diet.Healthy() {
		count++
	}
	if r.SleepHours != nil && *r.SleepHours >= 7 && *r.SleepHours <= 9 {
		count++
	}
	return count
}
