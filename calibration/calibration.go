package calibration

import (
	"math"

	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// Stage says where in the pipeline a profile is applied.
type Stage string

const (
	// StagePre replaces the baseline estimate before aggregation.
	StagePre Stage = "pre"
	// StagePost adjusts the ensemble score after aggregation.
	StagePost Stage = "post"
)

// Reference model coefficients. Each sub-term is beta * x, where x is the
// measurement centred on a reference value and scaled to a clinical unit.
const (
	ageBeta   = 0.065 // per year over 50
	tgBeta    = 0.15  // per 50 mg/dL over 150
	waistBeta = 0.20  // per 10 cm over 90
	hdlBeta   = -0.25 // per 10 mg/dL over 50
)

// Scores are kept off 0 and 100 before taking the logit.
const (
	minScore = 0.5
	maxScore = 99.5
)

// Profile holds the adjustment coefficients for one population group. Ratios
// are adjusted/reference coefficient ratios; multipliers are odds ratios.
type Profile struct {
	Name                  string            `json:"name"`
	Population            record.Population `json:"population"`
	Stage                 Stage             `json:"stage"`
	AgeRatio              float64           `json:"ageRatio"`
	TriglycerideRatio     float64           `json:"triglycerideRatio"`
	WaistRatio            float64           `json:"waistRatio"`
	HDLRatio              float64           `json:"hdlRatio"`
	PrediabetesMultiplier float64           `json:"prediabetesMultiplier"`
	DiabetesMultiplier    float64           `json:"diabetesMultiplier"`
	BetelMultiplier       float64           `json:"betelMultiplier"`
}

var profiles = []Profile{
	{
		Name:                  "South Asian",
		Population:            record.PopulationSouthAsian,
		Stage:                 StagePre,
		AgeRatio:              1.10,
		TriglycerideRatio:     1.35,
		WaistRatio:            1.40,
		HDLRatio:              1.25,
		PrediabetesMultiplier: 1.8,
		DiabetesMultiplier:    3.2,
		BetelMultiplier:       1.4,
	},
	{
		Name:                  "East Asian",
		Population:            record.PopulationEastAsian,
		Stage:                 StagePost,
		AgeRatio:              1.05,
		TriglycerideRatio:     1.15,
		WaistRatio:            1.20,
		HDLRatio:              1.10,
		PrediabetesMultiplier: 1.3,
		DiabetesMultiplier:    1.9,
		BetelMultiplier:       1.4,
	},
}

// Lookup returns the profile for a population. The default population has
// none.
func Lookup(p record.Population) (Profile, bool) {
	for _, prof := range profiles {
		if prof.Population == p {
			return prof, true
		}
	}
	return Profile{}, false
}

// Profiles returns a copy of the static profile table.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Term is one sub-term's contribution to the logit shift.
type Term struct {
	Name  string  `json:"name"`
	Shift float64 `json:"shift"`
}

// Adjustment is the outcome of calibrating one score.
type Adjustment struct {
	Profile       string  `json:"profile"`
	Stage         Stage   `json:"stage"`
	InputScore    float64 `json:"inputScore"`
	AdjustedScore float64 `json:"adjustedScore"`
	LogitShift    float64 `json:"logitShift"`
	Terms         []Term  `json:"terms,omitempty"`
}

// Calibrate adjusts a baseline logit for the record's population. It is the
// identity for the default population.
func Calibrate(rec *record.PatientRecord, logit float64) float64 {
	prof, ok := Lookup(rec.Population)
	if !ok {
		return logit
	}
	shift, _ := prof.shift(rec)
	return logit + shift
}

// CalibrateScore converts a 0-100 score to a logit, adjusts it with the
// profile and converts it back. ok is false for the default population, in
// which case the score is returned unchanged.
func CalibrateScore(rec *record.PatientRecord, score float64) (Adjustment, bool) {
	prof, ok := Lookup(rec.Population)
	if !ok {
		return Adjustment{InputScore: score, AdjustedScore: score}, false
	}
	return prof.Apply(rec, score), true
}

// Apply calibrates a score with this profile.
func (p Profile) Apply(rec *record.PatientRecord, score float64) Adjustment {
	shift, terms := p.shift(rec)
	adjusted := Logistic(Logit(score) + shift)
	return Adjustment{
		Profile:       p.Name,
		Stage:         p.Stage,
		InputScore:    score,
		AdjustedScore: plugin.Round(adjusted),
		LogitShift:    plugin.Round(shift),
		Terms:         terms,
	}
}

// shift sums (ratio-1)*beta*x over the sub-terms, then adds the log odds of
// the diabetes and betel quid multipliers. Missing measurements add nothing.
func (p Profile) shift(rec *record.PatientRecord) (float64, []Term) {
	var terms []Term
	total := 0.0
	add := func(name string, v float64) {
		if v != 0 {
			total += v
			terms = append(terms, Term{Name: name, Shift: plugin.Round(v)})
		}
	}

	if rec.Age > 0 {
		add("Age", (p.AgeRatio-1)*ageBeta*float64(rec.Age-50))
	}
	if rec.Triglyceride != nil {
		add("Triglycerides", (p.TriglycerideRatio-1)*tgBeta*(*rec.Triglyceride-150)/50)
	}
	if rec.Waist != nil {
		add("Waist Circumference", (p.WaistRatio-1)*waistBeta*(*rec.Waist-90)/10)
	}
	if rec.HDL != nil {
		add("HDL Cholesterol", (p.HDLRatio-1)*hdlBeta*(*rec.HDL-50)/10)
	}

	switch rec.Diabetes {
	case record.DiabetesPrediabetic:
		add("Prediabetes", logOdds(p.PrediabetesMultiplier))
	case record.DiabetesDiabetic:
		add("Diabetes", logOdds(p.DiabetesMultiplier))
	}
	if rec.BetelNut == record.HabitCurrent {
		add("Betel Quid", logOdds(p.BetelMultiplier))
	}

	return total, terms
}

func logOdds(multiplier float64) float64 {
	if multiplier <= 0 {
		return 0
	}
	return math.Log(multiplier)
}

// Logit maps a 0-100 score to log odds. The score is first kept within
// [0.5, 99.5].
func Logit(score float64) float64 {
	p := plugin.Clamp(score, minScore, maxScore) / 100
	return math.Log(p / (1 - p))
}

// Logistic maps log odds back to a 0-100 score.
func Logistic(logit float64) float64 {
	return 100 / (1 + math.Exp(-logit))
}
