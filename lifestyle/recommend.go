package lifestyle

import (
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
)

// Sub-score bands. Scores at or above goodBand get no advice.
const (
	goodBand = 80.0
	poorBand = 50.0
)

type advice struct {
	poor, fair string
}

var areaAdvice = map[string]advice{
	Sleep: {
		poor: "Aim for 7-9 hours of sleep with a fixed bedtime; persistent short sleep is worth raising with your doctor.",
		fair: "Small changes such as a regular wake time and less screen use before bed can improve sleep.",
	},
	Stress: {
		poor: "High stress raises blood pressure; consider structured stress management such as counselling, mindfulness or regular breaks.",
		fair: "Build short relaxation routines into the day to keep stress in check.",
	},
	Activity: {
		poor: "Start with 10-15 minute walks most days and build towards 150 minutes of moderate activity per week.",
		fair: "Increase activity towards 150 minutes of moderate exercise per week, adding two strength sessions.",
	},
	Diet: {
		poor: "Replace processed and fried foods with vegetables, whole grains, legumes and fish; limit alcohol.",
		fair: "Shift towards a Mediterranean-style pattern with more vegetables, nuts and olive oil.",
	},
}

// Recommend produces advice for each sub-score below the good band, then
// population-specific and mental-health additions. Missing sub-scores get
// no band advice.
func Recommend(rec *record.PatientRecord, a Assessment) []plugin.Recommendation {
	var recs []plugin.Recommendation
	for _, s := range a.SubScores() {
		if s.Missing || s.Score >= goodBand {
			continue
		}
		adv := areaAdvice[s.Name]
		if s.Score < poorBand {
			recs = append(recs, plugin.Recommendation{Area: s.Name, Priority: plugin.PriorityHigh, Text: adv.poor})
		} else {
			recs = append(recs, plugin.Recommendation{Area: s.Name, Priority: plugin.PriorityMedium, Text: adv.fair})
		}
	}

	if rec.BetelNut == record.HabitCurrent {
		recs = append(recs, plugin.Recommendation{
			Area:     "betel quid",
			Priority: plugin.PriorityHigh,
			Text:     "Stopping betel quid lowers both heart and oral cancer risk; local cessation services can help.",
		})
	}
	if rec.Diet == record.DietHighSodium || (rec.Population == record.PopulationEastAsian && rec.ElevatedPressure()) {
		recs = append(recs, plugin.Recommendation{
			Area:     "sodium",
			Priority: plugin.PriorityMedium,
			Text:     "Keep salt under 5 g a day; watch soy sauce, pickled foods and instant noodles.",
		})
	}

	if rec.StressLevel != nil {
		switch {
		case *rec.StressLevel >= 8:
			recs = append(recs, plugin.Recommendation{
				Area:     "mental health",
				Priority: plugin.PriorityHigh,
				Text:     "Very high stress is a risk in itself; talking to a mental health professional is recommended.",
			})
		case *rec.StressLevel >= 6 && rec.SleepQuality == record.SleepPoor:
			recs = append(recs, plugin.Recommendation{
				Area:     "mental health",
				Priority: plugin.PriorityMedium,
				Text:     "Poor sleep and stress feed each other; addressing one usually helps the other.",
			})
		}
	}
	return recs
}
