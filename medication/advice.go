package medication

import (
	"fmt"

	"github.com/intervention-engine/cvrisk/plugin"
)

// AdherenceRisk grades how likely a regimen is to be taken as prescribed.
type AdherenceRisk string

const (
	AdherenceLow      AdherenceRisk = "low"
	AdherenceModerate AdherenceRisk = "moderate"
	AdherenceHigh     AdherenceRisk = "high"
)

// Adherence scores regimen complexity from the number of distinct entries:
// recognised classes plus unrecognised residue.
func Adherence(p Profile) (AdherenceRisk, int) {
	n := len(p.Active()) + len(p.Residue)
	switch {
	case n >= 5:
		return AdherenceHigh, n
	case n >= 3:
		return AdherenceModerate, n
	}
	return AdherenceLow, n
}

// Rule flags a known concern with the active classes. Every class in Classes
// must be active; when Terms is set, one of those drugs must have been named
// for the last class. MinAge and SkipPriorMI narrow the rule to a population.
type Rule struct {
	ID          string
	Severity    plugin.Priority
	Classes     []Class
	Terms       []string
	MinAge      int
	SkipPriorMI bool
	Note        string
}

var ruleDB = []Rule{
	{ID: "beta+nondhp-ccb", Severity: plugin.PriorityHigh, Classes: []Class{BetaBlocker, CalciumChannelBlocker}, Terms: []string{"verapamil", "diltiazem"}, Note: "Beta-blocker with verapamil or diltiazem risks bradycardia and heart block; review with your prescriber."},
	{ID: "ace+k-sparing", Severity: plugin.PriorityMedium, Classes: []Class{ACEInhibitor, Diuretic}, Terms: []string{"spironolactone", "eplerenone"}, Note: "ACE inhibitor with a potassium-sparing diuretic needs regular potassium checks."},
	{ID: "aspirin-elderly", Severity: plugin.PriorityLow, Classes: []Class{Aspirin}, MinAge: 70, SkipPriorMI: true, Note: "Discuss whether daily aspirin is still appropriate given bleeding risk."},
}

// Interactions returns the rules triggered by the profile and conditions.
func Interactions(p Profile, cond Conditions) []Rule {
	var hits []Rule
	for _, rule := range ruleDB {
		if !rule.matches(p, cond) {
			continue
		}
		hits = append(hits, rule)
	}
	return hits
}

func (rule Rule) matches(p Profile, cond Conditions) bool {
	for _, c := range rule.Classes {
		if !p.Has(c) {
			return false
		}
	}
	if len(rule.Terms) > 0 && !p.Uses(rule.Classes[len(rule.Classes)-1], rule.Terms...) {
		return false
	}
	if cond.Age < rule.MinAge {
		return false
	}
	return !(rule.SkipPriorMI && cond.PriorMI)
}

// Recommendations turns the impact, adherence grade and interactions into
// advice. None of it changes the numeric reduction.
func Recommendations(impact Impact, p Profile, cond Conditions) []plugin.Recommendation {
	var recs []plugin.Recommendation
	if len(impact.Contributions) > 0 {
		recs = append(recs, plugin.Recommendation{
			Area:     "medication",
			Priority: plugin.PriorityMedium,
			Text: fmt.Sprintf("Your current medications are estimated to lower your risk by %.0f%% (from about %.0f to %.0f). Keep taking them as prescribed.",
				impact.TotalReduction, impact.RiskWithoutMeds, impact.CurrentRisk),
		})
	}
	if impact.Capped {
		recs = append(recs, plugin.Recommendation{
			Area:     "medication",
			Priority: plugin.PriorityLow,
			Text:     "Additional drugs add little further benefit at this point; lifestyle changes matter most.",
		})
	}
	if !p.Statin && (cond.Diabetic || cond.PriorMI) {
		recs = append(recs, plugin.Recommendation{
			Area:     "medication",
			Priority: plugin.PriorityHigh,
			Text:     "Ask your doctor whether a statin is indicated for you.",
		})
	}

	switch risk, n := Adherence(p); risk {
	case AdherenceHigh:
		recs = append(recs, plugin.Recommendation{
			Area:     "adherence",
			Priority: plugin.PriorityHigh,
			Text:     fmt.Sprintf("With %d medications, a pill organiser or pharmacist review can help you stay on track.", n),
		})
	case AdherenceModerate:
		recs = append(recs, plugin.Recommendation{
			Area:     "adherence",
			Priority: plugin.PriorityMedium,
			Text:     "Set daily reminders so doses are not missed.",
		})
	}

	for _, rule := range Interactions(p, cond) {
		recs = append(recs, plugin.Recommendation{Area: "interaction", Priority: rule.Severity, Text: rule.Note})
	}
	return recs
}
