package record

import "math"

// Sex is the patient's recorded sex.
type Sex string

const (
	SexUnknown Sex = ""
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// Valid reports whether s is a known value (the zero value counts as known).
func (s Sex) Valid() bool {
	switch s {
	case SexUnknown, SexMale, SexFemale:
		return true
	}
	return false
}

// Population is the demographic group tag used to select a calibration profile.
type Population string

const (
	PopulationGeneral    Population = ""
	PopulationSouthAsian Population = "south_asian"
	PopulationEastAsian  Population = "east_asian"
)

func (p Population) Valid() bool {
	switch p {
	case PopulationGeneral, PopulationSouthAsian, PopulationEastAsian:
		return true
	}
	return false
}

// HabitStatus describes a habit such as tobacco smoking or betel quid chewing.
type HabitStatus string

const (
	HabitUnknown HabitStatus = ""
	HabitNever   HabitStatus = "never"
	HabitFormer  HabitStatus = "former"
	HabitCurrent HabitStatus = "current"
)

func (h HabitStatus) Valid() bool {
	switch h {
	case HabitUnknown, HabitNever, HabitFormer, HabitCurrent:
		return true
	}
	return false
}

// AlcoholUse is the patient's drinking pattern.
type AlcoholUse string

const (
	AlcoholUnknown  AlcoholUse = ""
	AlcoholNone     AlcoholUse = "none"
	AlcoholModerate AlcoholUse = "moderate"
	AlcoholHeavy    AlcoholUse = "heavy"
)

func (a AlcoholUse) Valid() bool {
	switch a {
	case AlcoholUnknown, AlcoholNone, AlcoholModerate, AlcoholHeavy:
		return true
	}
	return false
}

// ActivityLevel is the patient's self-reported physical activity.
type ActivityLevel string

const (
	ActivityUnknown    ActivityLevel = ""
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

func (a ActivityLevel) Valid() bool {
	switch a {
	case ActivityUnknown, ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive:
		return true
	}
	return false
}

// High reports whether the activity level counts as highly active.
func (a ActivityLevel) High() bool {
	return a == ActivityActive || a == ActivityVeryActive
}

// DietPattern is the patient's predominant eating pattern.
type DietPattern string

const (
	DietUnknown       DietPattern = ""
	DietMediterranean DietPattern = "mediterranean"
	DietPlantBased    DietPattern = "plant_based"
	DietBalanced      DietPattern = "balanced"
	DietHighSodium    DietPattern = "high_sodium"
	DietWestern       DietPattern = "western"
	DietProcessed     DietPattern = "processed"
)

func (d DietPattern) Valid() bool {
	switch d {
	case DietUnknown, DietMediterranean, DietPlantBased, DietBalanced, DietHighSodium, DietWestern, DietProcessed:
		return true
	}
	return false
}

// Healthy reports whether the pattern is considered heart-healthy.
func (d DietPattern) Healthy() bool {
	return d == DietMediterranean || d == DietPlantBased
}

// SleepQuality is the patient's self-reported sleep quality.
type SleepQuality string

const (
	SleepUnknown SleepQuality = ""
	SleepGood    SleepQuality = "good"
	SleepFair    SleepQuality = "fair"
	SleepPoor    SleepQuality = "poor"
)

func (s SleepQuality) Valid() bool {
	switch s {
	case SleepUnknown, SleepGood, SleepFair, SleepPoor:
		return true
	}
	return false
}

// DiabetesStatus is the glycaemic diagnosis.
type DiabetesStatus string

const (
	DiabetesNone        DiabetesStatus = ""
	DiabetesPrediabetic DiabetesStatus = "prediabetic"
	DiabetesDiabetic    DiabetesStatus = "diabetic"
)

func (d DiabetesStatus) Valid() bool {
	switch d {
	case DiabetesNone, DiabetesPrediabetic, DiabetesDiabetic:
		return true
	}
	return false
}

// PatientRecord is the validated input handed to the scoring pipeline. Numeric
// measurements are pointers; nil means the value was not collected. The record
// is never modified by the pipeline.
type PatientRecord struct {
	SubjectID  string     `json:"subjectId,omitempty" bson:"subjectId,omitempty"`
	Age        int        `json:"age" bson:"age"`
	Sex        Sex        `json:"sex,omitempty" bson:"sex,omitempty"`
	Population Population `json:"population,omitempty" bson:"population,omitempty"`

	Systolic     *float64 `json:"systolic,omitempty" bson:"systolic,omitempty"`
	Diastolic    *float64 `json:"diastolic,omitempty" bson:"diastolic,omitempty"`
	HeartRate    *float64 `json:"heartRate,omitempty" bson:"heartRate,omitempty"`
	TotalChol    *float64 `json:"totalCholesterol,omitempty" bson:"totalCholesterol,omitempty"`
	LDL          *float64 `json:"ldl,omitempty" bson:"ldl,omitempty"`
	HDL          *float64 `json:"hdl,omitempty" bson:"hdl,omitempty"`
	Triglyceride *float64 `json:"triglycerides,omitempty" bson:"triglycerides,omitempty"`
	LpA          *float64 `json:"lpa,omitempty" bson:"lpa,omitempty"`
	CRP          *float64 `json:"crp,omitempty" bson:"crp,omitempty"`
	Homocysteine *float64 `json:"homocysteine,omitempty" bson:"homocysteine,omitempty"`
	Glucose      *float64 `json:"glucose,omitempty" bson:"glucose,omitempty"`
	HbA1c        *float64 `json:"hba1c,omitempty" bson:"hba1c,omitempty"`
	Waist        *float64 `json:"waist,omitempty" bson:"waist,omitempty"`
	Height       *float64 `json:"height,omitempty" bson:"height,omitempty"`
	Weight       *float64 `json:"weight,omitempty" bson:"weight,omitempty"`

	PriorMI             bool           `json:"priorMI,omitempty" bson:"priorMI,omitempty"`
	PriorStroke         bool           `json:"priorStroke,omitempty" bson:"priorStroke,omitempty"`
	HeartFailure        bool           `json:"heartFailure,omitempty" bson:"heartFailure,omitempty"`
	FamilyHistory       bool           `json:"familyHistory,omitempty" bson:"familyHistory,omitempty"`
	Hypertension        bool           `json:"hypertension,omitempty" bson:"hypertension,omitempty"`
	HypertensionTreated bool           `json:"hypertensionTreated,omitempty" bson:"hypertensionTreated,omitempty"`
	Diabetes            DiabetesStatus `json:"diabetes,omitempty" bson:"diabetes,omitempty"`
	DiabetesTreated     bool           `json:"diabetesTreated,omitempty" bson:"diabetesTreated,omitempty"`

	Smoking      HabitStatus   `json:"smoking,omitempty" bson:"smoking,omitempty"`
	BetelNut     HabitStatus   `json:"betelNut,omitempty" bson:"betelNut,omitempty"`
	Alcohol      AlcoholUse    `json:"alcohol,omitempty" bson:"alcohol,omitempty"`
	Activity     ActivityLevel `json:"activity,omitempty" bson:"activity,omitempty"`
	Diet         DietPattern   `json:"diet,omitempty" bson:"diet,omitempty"`
	SleepHours   *float64      `json:"sleepHours,omitempty" bson:"sleepHours,omitempty"`
	SleepQuality SleepQuality  `json:"sleepQuality,omitempty" bson:"sleepQuality,omitempty"`
	StressLevel  *int          `json:"stressLevel,omitempty" bson:"stressLevel,omitempty"`

	Medications string `json:"medications,omitempty" bson:"medications,omitempty"`
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}

// Value returns the measurement, or 0 when it is missing.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// BMI derives body-mass index from height (cm) and weight (kg). It returns nil
// when either value is missing or the height is zero.
func (r *PatientRecord) BMI() *float64 {
	if r.Height == nil || r.Weight == nil || *r.Height <= 0 {
		return nil
	}
	m := *r.Height / 100
	bmi := math.Round(*r.Weight/(m*m)*10) / 10
	return &bmi
}

// CurrentSmoker reports whether the patient smokes now.
func (r *PatientRecord) CurrentSmoker() bool {
	return r.Smoking == HabitCurrent
}

// Diabetic reports a confirmed diabetes diagnosis.
func (r *PatientRecord) Diabetic() bool {
	return r.Diabetes == DiabetesDiabetic
}

// PriorEvent reports any previous infarction, stroke or heart failure.
func (r *PatientRecord) PriorEvent() bool {
	return r.PriorMI || r.PriorStroke || r.HeartFailure
}

// ElevatedPressure is true for a hypertension diagnosis or a reading at or
// above 130/80.
func (r *PatientRecord) ElevatedPressure() bool {
	return r.Hypertension || Value(r.Systolic) >= 130 || Value(r.Diastolic) >= 80
}

// ElevatedCholesterol is true for total cholesterol of 200 or more, LDL of 130
// or more, or triglycerides of 150 or more.
func (r *PatientRecord) ElevatedCholesterol() bool {
	return Value(r.TotalChol) >= 200 || Value(r.LDL) >= 130 || Value(r.Triglyceride) >= 150
}

// HealthyLipids requires at least one measured lipid value and no unhealthy one.
func (r *PatientRecord) HealthyLipids() bool {
	if r.TotalChol == nil && r.LDL == nil && r.HDL == nil {
		return false
	}
	if r.ElevatedCholesterol() {
		return false
	}
	return r.HDL == nil || *r.HDL >= 40
}
