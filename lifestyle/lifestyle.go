package lifestyle

import (
	"fmt"

	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// Sub-score names, in reporting order.
const (
	Sleep    = "sleep"
	Stress   = "stress"
	Activity = "activity"
	Diet     = "diet"
)

// NeutralScore is used for a sub-score whose inputs are missing.
const NeutralScore = 65.0

// MaxContribution is the most the lifestyle term can add to the risk surface.
const MaxContribution = 40.0

const contributionFactor = MaxContribution / 100

// SubScore is one 0-100 lifestyle score; higher is healthier.
type SubScore struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Missing bool    `json:"missing,omitempty"`
	Detail  string  `json:"detail,omitempty"`
}

// Assessment is the lifestyle scorer's output.
type Assessment struct {
	Sleep           SubScore                `json:"sleep"`
	Stress          SubScore                `json:"stress"`
	Activity        SubScore                `json:"activity"`
	Diet            SubScore                `json:"diet"`
	Overall         float64                 `json:"overall"`
	Contribution    float64                 `json:"contribution"`
	Missing         []string                `json:"missing,omitempty"`
	Recommendations []plugin.Recommendation `json:"recommendations,omitempty"`
}

// SubScores returns the four sub-scores in reporting order.
func (a Assessment) SubScores() []SubScore {
	return []SubScore{a.Sleep, a.Stress, a.Activity, a.Diet}
}

// Provided reports whether the record carries any lifestyle input at all.
func Provided(rec *record.PatientRecord) bool {
	return rec.SleepHours != nil || rec.SleepQuality != record.SleepUnknown ||
		rec.StressLevel != nil || rec.Activity != record.ActivityUnknown ||
		rec.Diet != record.DietUnknown || rec.Alcohol != record.AlcoholUnknown
}

// Score computes the four sub-scores, their equal-weighted mean and the
// resulting risk contribution, (100 - overall) * 0.4.
func Score(rec *record.PatientRecord) Assessment {
	a := Assessment{
		Sleep:    SleepScore(rec.SleepHours, rec.SleepQuality),
		Stress:   StressScore(rec.StressLevel),
		Activity: ActivityScore(rec.Activity),
		Diet:     DietScore(rec.Diet, rec.Alcohol),
	}
	total := 0.0
	for _, s := range a.SubScores() {
		total += s.Score
		if s.Missing {
			a.Missing = append(a.Missing, s.Name)
		}
	}
	a.Overall = plugin.Round(total / 4)
	a.Contribution = plugin.Round((100 - a.Overall) * contributionFactor)
	a.Recommendations = Recommend(rec, a)
	return a
}

// SleepScore grades sleep duration and applies the quality multiplier.
func SleepScore(hours *float64, quality record.SleepQuality) SubScore {
	s := SubScore{Name: Sleep}
	if hours == nil {
		s.Score, s.Missing, s.Detail = NeutralScore, true, "sleep duration not reported"
		return s
	}
	h := *hours
	switch {
	case h >= 7 && h <= 9:
		s.Score = 100
	case h >= 6 && h < 7, h > 9 && h <= 10:
		s.Score = 75
	case h >= 5 && h < 6:
		s.Score = 50
	case h < 5:
		s.Score = 20
	default:
		s.Score = 50
	}
	s.Detail = fmt.Sprintf("%.1f hours per night", h)
	switch quality {
	case record.SleepFair:
		s.Score *= 0.85
		s.Detail += ", fair quality"
	case record.SleepPoor:
		s.Score *= 0.7
		s.Detail += ", poor quality"
	}
	s.Score = plugin.Round(s.Score)
	return s
}

// StressScore grades a 1-10 self-reported stress level.
func StressScore(level *int) SubScore {
	s := SubScore{Name: Stress}
	if level == nil {
		s.Score, s.Missing, s.Detail = NeutralScore, true, "stress level not reported"
		return s
	}
	switch l := *level; {
	case l <= 3:
		s.Score = 100
	case l <= 5:
		s.Score = 80
	case l <= 7:
		s.Score = 55
	case l <= 8:
		s.Score = 35
	default:
		s.Score = 15
	}
	s.Detail = fmt.Sprintf("stress level %d/10", *level)
	return s
}

var activityScores = map[record.ActivityLevel]float64{
	record.ActivitySedentary:  20,
	record.ActivityLight:      50,
	record.ActivityModerate:   75,
	record.ActivityActive:     90,
	record.ActivityVeryActive: 100,
}

// ActivityScore grades the activity level.
func ActivityScore(level record.ActivityLevel) SubScore {
	s := SubScore{Name: Activity}
	v, ok := activityScores[level]
	if !ok {
		s.Score, s.Missing, s.Detail = NeutralScore, true, "activity level not reported"
		return s
	}
	s.Score, s.Detail = v, string(level)
	return s
}

var dietScores = map[record.DietPattern]float64{
	record.DietMediterranean: 95,
	record.DietPlantBased:    90,
	record.DietBalanced:      75,
	record.DietHighSodium:    40,
	record.DietWestern:       40,
	record.DietProcessed:     25,
}

const heavyAlcoholPenalty = 15.0

// DietScore grades the diet pattern; heavy alcohol use is subtracted even
// when the diet itself was not reported.
func DietScore(diet record.DietPattern, alcohol record.AlcoholUse) SubScore {
	s := SubScore{Name: Diet}
	v, ok := dietScores[diet]
	if ok {
		s.Score, s.Detail = v, string(diet)
	} else {
		s.Score, s.Missing, s.Detail = NeutralScore, true, "diet not reported"
	}
	if alcohol == record.AlcoholHeavy {
		s.Score = plugin.Clamp(s.Score-heavyAlcoholPenalty, 0, 100)
		s.Detail += ", heavy alcohol use"
	}
	return s
}
