package medication

import (
	"testing"

	. "gopkg.in/check.v1"
)

type MedicationSuite struct{}

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&MedicationSuite{})

func (m *MedicationSuite) TestParse(c *C) {
	p := Parse("Atorvastatin 20mg daily, metoprolol 50 mg; Lisinopril and aspirin 81mg\nvitamin D")
	c.Assert(p.Statin, Equals, true)
	c.Assert(p.BetaBlocker, Equals, true)
	c.Assert(p.ACEInhibitor, Equals, true)
	c.Assert(p.Aspirin, Equals, true)
	c.Assert(p.Diuretic, Equals, false)
	c.Assert(p.CalciumChannelBlocker, Equals, false)
	c.Assert(p.Residue, DeepEquals, []string{"vitamin D"})
	c.Assert(p.Matched[Statin], DeepEquals, []string{"atorvastatin"})
	c.Assert(p.Active(), DeepEquals, []Class{Statin, BetaBlocker, ACEInhibitor, Aspirin})
}

func (m *MedicationSuite) TestParseSuffixesAndCombinations(c *C) {
	p := Parse("amlodipine/benazepril + HCTZ, bisoprolol")
	c.Assert(p.CalciumChannelBlocker, Equals, true)
	c.Assert(p.ACEInhibitor, Equals, true)
	c.Assert(p.Diuretic, Equals, true)
	c.Assert(p.BetaBlocker, Equals, true)
	c.Assert(p.Residue, HasLen, 0)
}

func (m *MedicationSuite) TestParseClassNames(c *C) {
	p := Parse("Beta blocker, ACE inhibitor; calcium channel blocker")
	c.Assert(p.Active(), DeepEquals, []Class{BetaBlocker, ACEInhibitor, CalciumChannelBlocker})
	c.Assert(p.Matched[BetaBlocker], DeepEquals, []string{"beta blocker"})
	c.Assert(p.Matched[ACEInhibitor], DeepEquals, []string{"ace inhibitor"})
	c.Assert(p.Residue, HasLen, 0)

	p = Parse("a water pill every morning")
	c.Assert(p.Active(), DeepEquals, []Class{Diuretic})

	// a supplement is not a class
	p = Parse("calcium supplement")
	c.Assert(p.Any(), Equals, false)
}

func (m *MedicationSuite) TestParseIgnoresLookalikes(c *C) {
	p := Parse("nystatin, cilastatin, somatostatin")
	c.Assert(p.Any(), Equals, false)
	c.Assert(p.Residue, DeepEquals, []string{"nystatin", "cilastatin", "somatostatin"})

	// too short a stem in front of the suffix
	p = Parse("april")
	c.Assert(p.ACEInhibitor, Equals, false)

	p = Parse("pitavastatin, timolol")
	c.Assert(p.Active(), DeepEquals, []Class{Statin, BetaBlocker})
}

func (m *MedicationSuite) TestParseEmpty(c *C) {
	p := Parse("   ")
	c.Assert(p.Any(), Equals, false)
	c.Assert(p.Residue, HasLen, 0)
}

func (m *MedicationSuite) TestStatinAndBetaBlocker(c *C) {
	impact := Combine(40, Profile{Statin: true, BetaBlocker: true}, Conditions{Age: 55})
	c.Assert(impact.TotalReduction, Equals, 37.0)
	c.Assert(impact.Contributions, HasLen, 2)
	c.Assert(impact.Contributions[0].Class, Equals, Statin)
	c.Assert(impact.Contributions[0].Effective, Equals, 25.0)
	c.Assert(impact.Contributions[1].Class, Equals, BetaBlocker)
	c.Assert(impact.Contributions[1].Weight, Equals, 0.8)
	c.Assert(impact.Contributions[1].Effective, Equals, 12.0)
	c.Assert(impact.CurrentRisk, Equals, 40.0)
	c.Assert(impact.RiskWithoutMeds, Equals, 63.49)
	c.Assert(impact.Capped, Equals, false)
}

func (m *MedicationSuite) TestNoMedications(c *C) {
	impact := Combine(70, Profile{}, Conditions{Age: 70, Diabetic: true, Smoking: true})
	c.Assert(impact.TotalReduction, Equals, 0.0)
	c.Assert(impact.RiskWithoutMeds, Equals, 70.0)
	c.Assert(impact.Contributions, HasLen, 0)
}

func (m *MedicationSuite) TestConditionOverrides(c *C) {
	pct, _ := Reduction(Statin, Conditions{Diabetic: true})
	c.Assert(pct, Equals, 35.0)
	pct, _ = Reduction(BetaBlocker, Conditions{PriorMI: true})
	c.Assert(pct, Equals, 25.0)
	pct, _ = Reduction(Aspirin, Conditions{Age: 75})
	c.Assert(pct, Equals, 5.0)
	pct, _ = Reduction(Aspirin, Conditions{Age: 75, PriorMI: true})
	c.Assert(pct, Equals, 20.0)
	pct, _ = Reduction(Statin, Conditions{Smoking: true})
	c.Assert(pct, Equals, 22.5)
}

func (m *MedicationSuite) TestAllClassesCapped(c *C) {
	all := Profile{Statin: true, BetaBlocker: true, ACEInhibitor: true, Aspirin: true, Diuretic: true, CalciumChannelBlocker: true}
	impact := Combine(30, all, Conditions{Age: 60, Diabetic: true, PriorMI: true})
	// 35 + 25*.8 + 25*.6 + 20*.4 + 12*.2 + 10*.2 = 82.4, capped
	c.Assert(impact.TotalReduction, Equals, MaxReduction)
	c.Assert(impact.Capped, Equals, true)
	c.Assert(impact.RiskWithoutMeds, Equals, 60.0)
	c.Assert(impact.Contributions[4].Weight, Equals, 0.2)
	c.Assert(impact.Contributions[5].Weight, Equals, 0.2)
}

func (m *MedicationSuite) TestTiesKeepDeclarationOrder(c *C) {
	// diuretic and primary-prevention aspirin both reduce by 10
	impact := Combine(50, Profile{Diuretic: true, Aspirin: true}, Conditions{Age: 50})
	c.Assert(impact.Contributions[0].Class, Equals, Aspirin)
	c.Assert(impact.Contributions[1].Class, Equals, Diuretic)
	c.Assert(impact.TotalReduction, Equals, 18.0)
}

func (m *MedicationSuite) TestCombineReductionsProperties(c *C) {
	sets := [][]float64{
		{},
		{25},
		{25, 15},
		{10, 10, 10},
		{35, 25, 25, 20, 12, 10, 10},
		{50, 50, 50},
	}
	for _, set := range sets {
		total := CombineReductions(set)
		c.Assert(total <= MaxReduction, Equals, true)

		// a zero-reduction drug never changes the total
		c.Assert(CombineReductions(append(append([]float64{}, set...), 0)), Equals, total)

		// reordering gives the same total
		reversed := make([]float64, len(set))
		for i := range set {
			reversed[len(set)-1-i] = set[i]
		}
		c.Assert(CombineReductions(reversed), Equals, total)
	}
	c.Assert(CombineReductions([]float64{25, 15}), Equals, 37.0)
	c.Assert(CombineReductions([]float64{10, 10, 10}), Equals, 24.0)
}

func (m *MedicationSuite) TestAdherence(c *C) {
	risk, n := Adherence(Parse("atorvastatin"))
	c.Assert(risk, Equals, AdherenceLow)
	c.Assert(n, Equals, 1)

	risk, _ = Adherence(Parse("atorvastatin, metoprolol, metformin"))
	c.Assert(risk, Equals, AdherenceModerate)

	risk, n = Adherence(Parse("atorvastatin, metoprolol, metformin, lisinopril, aspirin, omeprazole"))
	c.Assert(risk, Equals, AdherenceHigh)
	c.Assert(n, Equals, 6)
}

func (m *MedicationSuite) TestInteractions(c *C) {
	hits := Interactions(Parse("metoprolol, verapamil"), Conditions{Age: 60})
	c.Assert(hits, HasLen, 1)
	c.Assert(hits[0].ID, Equals, "beta+nondhp-ccb")

	// dihydropyridines do not trigger the rule
	c.Assert(Interactions(Parse("metoprolol, amlodipine"), Conditions{Age: 60}), HasLen, 0)

	hits = Interactions(Parse("aspirin"), Conditions{Age: 72})
	c.Assert(hits, HasLen, 1)
	c.Assert(hits[0].ID, Equals, "aspirin-elderly")
	c.Assert(Interactions(Parse("aspirin"), Conditions{Age: 72, PriorMI: true}), HasLen, 0)
}

func (m *MedicationSuite) TestRecommendationsDoNotChangeReduction(c *C) {
	p := Parse("atorvastatin, metoprolol, metformin, lisinopril, aspirin, omeprazole")
	cond := Conditions{Age: 64, Diabetic: true}
	before := Combine(55, p, cond)
	recs := Recommendations(before, p, cond)
	after := Combine(55, p, cond)
	c.Assert(after, DeepEquals, before)

	var areas []string
	for _, r := range recs {
		areas = append(areas, r.Area)
	}
	c.Assert(areas, DeepEquals, []string{"medication", "medication", "adherence"})
}
