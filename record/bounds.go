package record

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Bound is one entry of the plausibility table: a measurement accessor and the
// range it must fall in when present.
type Bound struct {
	Field string
	Min   float64
	Max   float64
	Unit  string
	value func(r *PatientRecord) *float64
}

// Violation describes a value that is present but outside its plausible range,
// or a categorical value that is not one of the known constants.
type Violation struct {
	Field   string  `json:"field"`
	Value   float64 `json:"value,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Unit    string  `json:"unit,omitempty"`
	Message string  `json:"message"`
}

func (v Violation) String() string {
	return v.Message
}

// Bounds is the single source of plausible ranges for every numeric field.
var Bounds = []Bound{
	{Field: "age", Min: 1, Max: 130, Unit: "years", value: func(r *PatientRecord) *float64 {
		age := float64(r.Age)
		return &age
	}},
	{Field: "systolic", Min: 60, Max: 260, Unit: "mmHg", value: func(r *PatientRecord) *float64 { return r.Systolic }},
	{Field: "diastolic", Min: 30, Max: 160, Unit: "mmHg", value: func(r *PatientRecord) *float64 { return r.Diastolic }},
	{Field: "heartRate", Min: 25, Max: 250, Unit: "bpm", value: func(r *PatientRecord) *float64 { return r.HeartRate }},
	{Field: "totalCholesterol", Min: 70, Max: 600, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.TotalChol }},
	{Field: "ldl", Min: 20, Max: 400, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.LDL }},
	{Field: "hdl", Min: 10, Max: 150, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.HDL }},
	{Field: "triglycerides", Min: 20, Max: 2000, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.Triglyceride }},
	{Field: "lpa", Min: 0, Max: 500, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.LpA }},
	{Field: "crp", Min: 0, Max: 300, Unit: "mg/L", value: func(r *PatientRecord) *float64 { return r.CRP }},
	{Field: "homocysteine", Min: 0, Max: 100, Unit: "µmol/L", value: func(r *PatientRecord) *float64 { return r.Homocysteine }},
	{Field: "glucose", Min: 30, Max: 600, Unit: "mg/dL", value: func(r *PatientRecord) *float64 { return r.Glucose }},
	{Field: "hba1c", Min: 3, Max: 20, Unit: "%", value: func(r *PatientRecord) *float64 { return r.HbA1c }},
	{Field: "waist", Min: 40, Max: 200, Unit: "cm", value: func(r *PatientRecord) *float64 { return r.Waist }},
	{Field: "height", Min: 50, Max: 250, Unit: "cm", value: func(r *PatientRecord) *float64 { return r.Height }},
	{Field: "weight", Min: 10, Max: 350, Unit: "kg", value: func(r *PatientRecord) *float64 { return r.Weight }},
	{Field: "sleepHours", Min: 0, Max: 24, Unit: "h", value: func(r *PatientRecord) *float64 { return r.SleepHours }},
	{Field: "stressLevel", Min: 1, Max: 10, Unit: "", value: func(r *PatientRecord) *float64 {
		if r.StressLevel == nil {
			return nil
		}
		s := float64(*r.StressLevel)
		return &s
	}},
}

var validate = validator.New()

// Check runs every bound in the table against the record and reports each
// value that falls outside it, plus any unknown categorical value. It never
// alters the record.
func Check(r *PatientRecord) []Violation {
	var violations []Violation
	for _, b := range Bounds {
		v := b.value(r)
		if v == nil {
			continue
		}
		if err := validate.Var(*v, fmt.Sprintf("gte=%g,lte=%g", b.Min, b.Max)); err != nil {
			violations = append(violations, Violation{
				Field:   b.Field,
				Value:   *v,
				Min:     b.Min,
				Max:     b.Max,
				Unit:    b.Unit,
				Message: fmt.Sprintf("%s %g is outside the plausible range %g-%g %s", b.Field, *v, b.Min, b.Max, b.Unit),
			})
		}
	}

	enums := []struct {
		field string
		value string
		valid bool
	}{
		{"sex", string(r.Sex), r.Sex.Valid()},
		{"population", string(r.Population), r.Population.Valid()},
		{"smoking", string(r.Smoking), r.Smoking.Valid()},
		{"betelNut", string(r.BetelNut), r.BetelNut.Valid()},
		{"alcohol", string(r.Alcohol), r.Alcohol.Valid()},
		{"activity", string(r.Activity), r.Activity.Valid()},
		{"diet", string(r.Diet), r.Diet.Valid()},
		{"sleepQuality", string(r.SleepQuality), r.SleepQuality.Valid()},
		{"diabetes", string(r.Diabetes), r.Diabetes.Valid()},
	}
	for _, e := range enums {
		if !e.valid {
			violations = append(violations, Violation{
				Field:   e.field,
				Message: fmt.Sprintf("%s has unknown value %q", e.field, e.value),
			})
		}
	}
	return violations
}
