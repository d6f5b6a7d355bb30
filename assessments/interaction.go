package assessments

import (
	"fmt"
	"math"

	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// InteractionEstimator adds second-order terms to a simple linear base: risk
// factors that amplify each other, a metabolic syndrome bonus, and protective
// combinations that subtract from the total.
type InteractionEstimator struct {
}

// NewInteractionEstimator returns a new InteractionEstimator
func NewInteractionEstimator() *InteractionEstimator {
	return &InteractionEstimator{}
}

// Config provides the configuration parameters for the InteractionEstimator
func (e *InteractionEstimator) Config() plugin.EstimatorConfig {
	return plugin.EstimatorConfig{
		Name:   "Interaction-aware score",
		Method: "interaction",
		DefaultPieSlices: []plugin.Slice{
			{Name: "Age", MaxValue: 25},
			{Name: "Total Cholesterol", MaxValue: 10},
			{Name: "Smoking", MaxValue: 12},
			{Name: "Diabetes", MaxValue: 12},
			{Name: "Blood Pressure", MaxValue: 10},
			{Name: "Family History", MaxValue: 6},
			{Name: "Prior Events", MaxValue: 20},
			{Name: "Adiposity", MaxValue: 5},
			{Name: "Age x Cholesterol", MaxValue: 10},
			{Name: "Age x Smoking", MaxValue: 8},
			{Name: "Diabetes x Smoking", MaxValue: 5},
			{Name: "Metabolic Syndrome", MaxValue: 10},
			{Name: "Active With Healthy Lipids"},
			{Name: "Healthy Diet And Weight"},
		},
		ConfidenceFloor: 0.55,
		ConfidenceSpan:  0.4,
	}
}

// Estimate scores the record, including interaction terms, clamped to [0,100].
func (e *InteractionEstimator) Estimate(r *record.PatientRecord) plugin.ScoreEstimate {
	cfg := e.Config()
	pie := plugin.NewPie(cfg.Method, r.SubjectID, cfg.DefaultPieSlices)

	if r.Age > 30 {
		pie.UpdateSliceValue("Age", float64(r.Age-30)*0.5, fmt.Sprintf("Age %d", r.Age))
	}
	chol := record.Value(r.TotalChol)
	if chol > 200 {
		pie.UpdateSliceValue("Total Cholesterol", (chol-200)*0.1, fmt.Sprintf("Total cholesterol %.0f mg/dL", chol))
	}
	switch r.Smoking {
	case record.HabitCurrent:
		pie.UpdateSliceValue("Smoking", 12, "Current smoker")
	case record.HabitFormer:
		pie.UpdateSliceValue("Smoking", 4, "Former smoker")
	}
	switch r.Diabetes {
	case record.DiabetesDiabetic:
		pie.UpdateSliceValue("Diabetes", 12, "Diabetes")
	case record.DiabetesPrediabetic:
		pie.UpdateSliceValue("Diabetes", 5, "Prediabetes")
	}
	switch {
	case r.Hypertension || record.Value(r.Systolic) >= 140 || record.Value(r.Diastolic) >= 90:
		pie.UpdateSliceValue("Blood Pressure", 10, "Hypertension")
	case r.ElevatedPressure():
		pie.UpdateSliceValue("Blood Pressure", 6, "Elevated blood pressure")
	}
	if r.FamilyHistory {
		pie.UpdateSliceValue("Family History", 6, "Family history of heart disease")
	}
	if r.PriorEvent() {
		pie.UpdateSliceValue("Prior Events", 20, "Previous cardiovascular event")
	}
	bmi := r.BMI()
	if bmi != nil {
		switch {
		case *bmi >= 30:
			pie.UpdateSliceValue("Adiposity", 5, fmt.Sprintf("Obesity (BMI %.1f)", *bmi))
		case *bmi >= 25:
			pie.UpdateSliceValue("Adiposity", 2, fmt.Sprintf("Overweight (BMI %.1f)", *bmi))
		}
	}

	// Second-order terms
	if r.Age > 50 && chol > 200 {
		v := float64(r.Age-50) / 10 * (chol - 200) / 40 * 2
		pie.UpdateSliceValue("Age x Cholesterol", v, fmt.Sprintf("Raised cholesterol at age %d compounds risk", r.Age))
	}
	if r.CurrentSmoker() && r.Age > 50 {
		pie.UpdateSliceValue("Age x Smoking", float64(r.Age-50)*0.3, fmt.Sprintf("Smoking at age %d compounds risk", r.Age))
	}
	if r.CurrentSmoker() && r.Diabetic() {
		pie.UpdateSliceValue("Diabetes x Smoking", 5, "Smoking with diabetes compounds vascular damage")
	}
	if n := metabolicCount(r); n >= 3 {
		pie.UpdateSliceValue("Metabolic Syndrome", 10, fmt.Sprintf("Metabolic syndrome pattern (%d of 4 criteria)", n))
	}

	// Protective combinations
	if r.Activity.High() && r.HealthyLipids() {
		pie.UpdateSliceValue("Active With Healthy Lipids", -8, "High activity with healthy lipids")
	}
	if r.Diet.Healthy() && bmi != nil && *bmi >= 18.5 && *bmi < 25 {
		pie.UpdateSliceValue("Healthy Diet And Weight", -4, "Heart-healthy diet with normal weight")
	}

	return cfg.NewEstimate(math.Max(0, pie.TotalValues()), pie)
}

// metabolicCount counts the metabolic syndrome criteria present: diabetes or
// prediabetes, elevated pressure, elevated cholesterol, and elevated BMI or
// abdominal obesity.
func metabolicCount(r *record.PatientRecord) int {
	count := 0
	if r.Diabetes != record.DiabetesNone {
		count++
	}
	if r.ElevatedPressure() {
		count++
	}
	if r.ElevatedCholesterol() || (r.HDL != nil && *r.HDL < 40) {
		count++
	}
	if bmi := r.BMI(); (bmi != nil && *bmi >= 30) || abdominalObesity(r) {
		count++
	}
	return count
}
