package assessments

import "github.com/intervention-engine/cvrisk/record"

// HighRiskRecord is an older smoker with diabetes and very high cholesterol.
func HighRiskRecord() *record.PatientRecord {
	return &record.PatientRecord{
		SubjectID: "high",
		Age:       70,
		TotalChol: record.Float(300),
		Smoking:   record.HabitCurrent,
		Diabetes:  record.DiabetesDiabetic,
	}
}

// LowRiskRecord is an active 30-year-old with normal cholesterol.
func LowRiskRecord() *record.PatientRecord {
	return &record.PatientRecord{
		SubjectID: "low",
		Age:       30,
		TotalChol: record.Float(160),
		Activity:  record.ActivityActive,
	}
}
