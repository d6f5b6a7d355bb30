package assessments

import (
	"fmt"

	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// Baseline score bounds; the estimator never reports certainty at either end.
const (
	baselineMin = 5.0
	baselineMax = 95.0
)

// BaselineEstimator sums independent, individually capped contributions for
// each risk factor.
type BaselineEstimator struct {
}

// NewBaselineEstimator returns a new BaselineEstimator
func NewBaselineEstimator() *BaselineEstimator {
	return &BaselineEstimator{}
}

// Config provides the configuration parameters for the BaselineEstimator
func (b *BaselineEstimator) Config() plugin.EstimatorConfig {
	return plugin.EstimatorConfig{
		Name:   "Baseline linear score",
		Method: "baseline",
		DefaultPieSlices: []plugin.Slice{
			{Name: "Age", MaxValue: 20},
			{Name: "Male Sex", MaxValue: 3},
			{Name: "Total Cholesterol", MaxValue: 10},
			{Name: "LDL Cholesterol", MaxValue: 8},
			{Name: "Low HDL", MaxValue: 6},
			{Name: "Triglycerides", MaxValue: 4},
			{Name: "Blood Pressure", MaxValue: 15},
			{Name: "Smoking", MaxValue: 15},
			{Name: "Betel Nut", MaxValue: 5},
			{Name: "Diabetes", MaxValue: 15},
			{Name: "Family History", MaxValue: 8},
			{Name: "Prior Events", MaxValue: 20},
			{Name: "Biomarkers", MaxValue: 8},
			{Name: "Adiposity", MaxValue: 6},
			{Name: "Sedentary Lifestyle", MaxValue: 4},
		},
		ConfidenceFloor: 0.6,
		ConfidenceSpan:  0.35,
	}
}

// Estimate scores the record and clamps the total to [5,95].
func (b *BaselineEstimator) Estimate(r *record.PatientRecord) plugin.ScoreEstimate {
	cfg := b.Config()
	pie := plugin.NewPie(cfg.Method, r.SubjectID, cfg.DefaultPieSlices)

	switch {
	case r.Age >= 70:
		pie.UpdateSliceValue("Age", 20, fmt.Sprintf("Age %d is in the highest risk bracket", r.Age))
	case r.Age >= 60:
		pie.UpdateSliceValue("Age", 15, fmt.Sprintf("Age %d (60-69) raises baseline risk", r.Age))
	case r.Age >= 50:
		pie.UpdateSliceValue("Age", 10, fmt.Sprintf("Age %d (50-59) raises baseline risk", r.Age))
	case r.Age >= 40:
		pie.UpdateSliceValue("Age", 5, fmt.Sprintf("Age %d (40-49) slightly raises baseline risk", r.Age))
	}

	if r.Sex == record.SexMale {
		pie.UpdateSliceValue("Male Sex", 3, "Male sex carries higher baseline risk")
	}

	if r.TotalChol != nil {
		switch chol := *r.TotalChol; {
		case chol >= 240:
			pie.UpdateSliceValue("Total Cholesterol", 10, fmt.Sprintf("High total cholesterol (%.0f mg/dL)", chol))
		case chol >= 200:
			pie.UpdateSliceValue("Total Cholesterol", 5, fmt.Sprintf("Borderline total cholesterol (%.0f mg/dL)", chol))
		}
	}
	if r.LDL != nil {
		switch ldl := *r.LDL; {
		case ldl >= 190:
			pie.UpdateSliceValue("LDL Cholesterol", 8, fmt.Sprintf("Very high LDL (%.0f mg/dL)", ldl))
		case ldl >= 160:
			pie.UpdateSliceValue("LDL Cholesterol", 6, fmt.Sprintf("High LDL (%.0f mg/dL)", ldl))
		case ldl >= 130:
			pie.UpdateSliceValue("LDL Cholesterol", 3, fmt.Sprintf("Borderline LDL (%.0f mg/dL)", ldl))
		}
	}
	if r.HDL != nil && *r.HDL < 40 {
		pie.UpdateSliceValue("Low HDL", 6, fmt.Sprintf("Low HDL (%.0f mg/dL)", *r.HDL))
	}
	if r.Triglyceride != nil {
		switch tg := *r.Triglyceride; {
		case tg >= 200:
			pie.UpdateSliceValue("Triglycerides", 4, fmt.Sprintf("High triglycerides (%.0f mg/dL)", tg))
		case tg >= 150:
			pie.UpdateSliceValue("Triglycerides", 2, fmt.Sprintf("Borderline triglycerides (%.0f mg/dL)", tg))
		}
	}

	if points, reason := pressureStage(r); points > 0 {
		pie.UpdateSliceValue("Blood Pressure", points, reason)
	}

	switch r.Smoking {
	case record.HabitCurrent:
		pie.UpdateSliceValue("Smoking", 15, "Current smoker")
	case record.HabitFormer:
		pie.UpdateSliceValue("Smoking", 5, "Former smoker")
	}
	switch r.BetelNut {
	case record.HabitCurrent:
		pie.UpdateSliceValue("Betel Nut", 5, "Current betel quid use")
	case record.HabitFormer:
		pie.UpdateSliceValue("Betel Nut", 2, "Former betel quid use")
	}

	if points, reason := glycaemia(r); points > 0 {
		pie.UpdateSliceValue("Diabetes", points, reason)
	}

	if r.FamilyHistory {
		pie.UpdateSliceValue("Family History", 8, "Family history of premature heart disease")
	}

	switch {
	case r.PriorMI:
		pie.UpdateSliceValue("Prior Events", 20, "Previous myocardial infarction")
	case r.PriorStroke:
		pie.UpdateSliceValue("Prior Events", 20, "Previous stroke")
	case r.HeartFailure:
		pie.UpdateSliceValue("Prior Events", 15, "Heart failure")
	}

	if points, reason := biomarkers(r); points > 0 {
		pie.UpdateSliceValue("Biomarkers", points, reason)
	}

	if points, reason := adiposity(r); points > 0 {
		pie.UpdateSliceValue("Adiposity", points, reason)
	}

	if r.Activity == record.ActivitySedentary {
		pie.UpdateSliceValue("Sedentary Lifestyle", 4, "Sedentary lifestyle")
	}

	score := plugin.Clamp(pie.TotalValues(), baselineMin, baselineMax)
	return cfg.NewEstimate(score, pie)
}

// pressureStage grades blood pressure into stage points. A hypertension
// diagnosis counts as at least stage 1 unless treatment has brought readings
// under 130/80.
func pressureStage(r *record.PatientRecord) (float64, string) {
	sys, dia := record.Value(r.Systolic), record.Value(r.Diastolic)
	reading := fmt.Sprintf("%.0f/%.0f mmHg", sys, dia)
	switch {
	case sys >= 160 || dia >= 100:
		return 15, "Stage 2 hypertension (" + reading + ")"
	case sys >= 140 || dia >= 90:
		return 10, "Stage 1 hypertension (" + reading + ")"
	case r.Hypertension && r.HypertensionTreated && (r.Systolic != nil || r.Diastolic != nil) && sys < 130 && dia < 80:
		return 5, "Treated hypertension, controlled"
	case r.Hypertension:
		return 10, "Diagnosed hypertension"
	case sys >= 130 || dia >= 80:
		return 5, "Elevated blood pressure (" + reading + ")"
	}
	return 0, ""
}

// glycaemia scores the diabetes diagnosis, falling back to laboratory values
// when no diagnosis was recorded.
func glycaemia(r *record.PatientRecord) (float64, string) {
	switch r.Diabetes {
	case record.DiabetesDiabetic:
		return 15, "Diabetes"
	case record.DiabetesPrediabetic:
		return 6, "Prediabetes"
	}
	a1c, glucose := record.Value(r.HbA1c), record.Value(r.Glucose)
	switch {
	case a1c >= 6.5 || glucose >= 126:
		return 10, "Glucose values in the diabetic range without a diagnosis"
	case a1c >= 5.7 || glucose >= 100:
		return 4, "Glucose values in the prediabetic range"
	}
	return 0, ""
}

func biomarkers(r *record.PatientRecord) (float64, string) {
	var points float64
	var reasons []string
	if record.Value(r.CRP) > 3 {
		points += 4
		reasons = append(reasons, fmt.Sprintf("hs-CRP %.1f mg/L", *r.CRP))
	}
	if record.Value(r.LpA) > 50 {
		points += 4
		reasons = append(reasons, fmt.Sprintf("Lp(a) %.0f mg/dL", *r.LpA))
	}
	if record.Value(r.Homocysteine) > 15 {
		points += 3
		reasons = append(reasons, fmt.Sprintf("homocysteine %.1f µmol/L", *r.Homocysteine))
	}
	if points == 0 {
		return 0, ""
	}
	return points, "Elevated biomarkers: " + joinList(reasons)
}

// adiposity scores BMI and adds a point for abdominal obesity by waist
// circumference.
func adiposity(r *record.PatientRecord) (float64, string) {
	var points float64
	var reason string
	if bmi := r.BMI(); bmi != nil {
		switch {
		case *bmi >= 30:
			points, reason = 5, fmt.Sprintf("Obesity (BMI %.1f)", *bmi)
		case *bmi >= 25:
			points, reason = 3, fmt.Sprintf("Overweight (BMI %.1f)", *bmi)
		}
	}
	if abdominalObesity(r) {
		points++
		if reason == "" {
			reason = fmt.Sprintf("Abdominal obesity (waist %.0f cm)", *r.Waist)
		} else {
			reason += fmt.Sprintf(" with waist %.0f cm", *r.Waist)
		}
	}
	return points, reason
}

// abdominalObesity applies sex-specific waist thresholds; without a recorded
// sex the lower one is used.
func abdominalObesity(r *record.PatientRecord) bool {
	if r.Waist == nil {
		return false
	}
	limit := 88.0
	if r.Sex == record.SexMale {
		limit = 102
	}
	return *r.Waist >= limit
}

func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	out := items[0]
	for _, item := range items[1 : len(items)-1] {
		out += ", " + item
	}
	return out + " and " + items[len(items)-1]
}
