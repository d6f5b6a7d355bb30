package assessments

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
	. "gopkg.in/check.v1"
)

type AssessmentsSuite struct {
	Baseline    *BaselineEstimator
	Interaction *InteractionEstimator
	Calibrated  *CalibratedEstimator
}

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&AssessmentsSuite{})

func (a *AssessmentsSuite) SetUpSuite(c *C) {
	a.Baseline = NewBaselineEstimator()
	a.Interaction = NewInteractionEstimator()
	a.Calibrated = NewCalibratedEstimator()
}

func (a *AssessmentsSuite) TestDefaultsOrder(c *C) {
	var methods []string
	for _, e := range Defaults() {
		methods = append(methods, e.Config().Method)
	}
	c.Assert(methods, DeepEquals, []string{"baseline", "interaction", "calibrated"})
}

func (a *AssessmentsSuite) TestHighRiskBaseline(c *C) {
	est := a.Baseline.Estimate(HighRiskRecord())
	c.Assert(est.Method, Equals, "baseline")
	c.Assert(est.Score, Equals, 60.0)
	c.Assert(est.Category, Equals, plugin.CategoryHigh)
	c.Assert(est.Confidence, Equals, 0.67)
	c.Assert(est.Factors, HasLen, 4)
	c.Assert(est.Factors[0].Name, Equals, "Age")
	c.Assert(est.Factors[0].Magnitude, Equals, 20.0)
	// Diabetes and Smoking tie at 15 and are ordered by name
	c.Assert(est.Factors[1].Name, Equals, "Diabetes")
	c.Assert(est.Factors[2].Name, Equals, "Smoking")
	c.Assert(est.Factors[3].Name, Equals, "Total Cholesterol")
	c.Assert(est.Pie.Subject, Equals, "high")
}

func (a *AssessmentsSuite) TestHighRiskInteraction(c *C) {
	est := a.Interaction.Estimate(HighRiskRecord())
	c.Assert(est.Score, Equals, 75.0, Commentf("%s", spew.Sdump(est.Pie)))
	c.Assert(est.Category, Equals, plugin.CategoryHigh)
	c.Assert(est.Pie.SliceValue("Age x Cholesterol"), Equals, 10.0)
	c.Assert(est.Pie.SliceValue("Age x Smoking"), Equals, 6.0)
	c.Assert(est.Pie.SliceValue("Diabetes x Smoking"), Equals, 5.0)
	c.Assert(est.Pie.SliceValue("Metabolic Syndrome"), Equals, 0.0)
}

func (a *AssessmentsSuite) TestHighRiskCalibrated(c *C) {
	est := a.Calibrated.Estimate(HighRiskRecord())
	c.Assert(est.Score, Equals, 72.45)
	c.Assert(est.Category, Equals, plugin.CategoryHigh)
	c.Assert(est.Notes, DeepEquals, []string{
		"Age band 65-74 (x1.15)",
		"Population baseline uplift (x1.05)",
	})
}

func (a *AssessmentsSuite) TestLowRiskScenario(c *C) {
	rec := LowRiskRecord()

	base := a.Baseline.Estimate(rec)
	c.Assert(base.Score, Equals, 5.0)
	c.Assert(base.Category, Equals, plugin.CategoryLow)
	c.Assert(base.Factors, HasLen, 0)

	inter := a.Interaction.Estimate(rec)
	c.Assert(inter.Score, Equals, 0.0)
	c.Assert(inter.Pie.SliceValue("Active With Healthy Lipids"), Equals, -8.0)
	c.Assert(inter.Confidence, Equals, 0.95)

	cal := a.Calibrated.Estimate(rec)
	c.Assert(cal.Score, Equals, 4.02)
	c.Assert(cal.Category, Equals, plugin.CategoryLow)
	c.Assert(cal.Notes, HasLen, 3)
}

func (a *AssessmentsSuite) TestMissingFieldsContributeNothing(c *C) {
	rec := &record.PatientRecord{Age: 45}
	base := a.Baseline.Estimate(rec)
	c.Assert(base.Score, Equals, 5.0)
	c.Assert(base.Pie.SliceValue("Age"), Equals, 5.0)

	inter := a.Interaction.Estimate(rec)
	c.Assert(inter.Score, Equals, 7.5)
}

func (a *AssessmentsSuite) TestBaselineClampsToRange(c *C) {
	rec := HighRiskRecord()
	rec.Sex = record.SexMale
	rec.LDL = record.Float(200)
	rec.HDL = record.Float(30)
	rec.Triglyceride = record.Float(250)
	rec.Systolic = record.Float(170)
	rec.FamilyHistory = true
	rec.PriorMI = true
	rec.CRP = record.Float(5)
	est := a.Baseline.Estimate(rec)
	c.Assert(est.Score, Equals, 95.0)
	c.Assert(est.Category, Equals, plugin.CategoryHigh)
}

func (a *AssessmentsSuite) TestTreatedControlledHypertension(c *C) {
	rec := &record.PatientRecord{
		Age:                 50,
		Systolic:            record.Float(124),
		Diastolic:           record.Float(76),
		Hypertension:        true,
		HypertensionTreated: true,
	}
	est := a.Baseline.Estimate(rec)
	c.Assert(est.Pie.SliceValue("Blood Pressure"), Equals, 5.0)

	rec.HypertensionTreated = false
	est = a.Baseline.Estimate(rec)
	c.Assert(est.Pie.SliceValue("Blood Pressure"), Equals, 10.0)
}

func (a *AssessmentsSuite) TestMetabolicSyndromeBonus(c *C) {
	rec := &record.PatientRecord{
		Age:       50,
		Sex:       record.SexMale,
		Systolic:  record.Float(135),
		TotalChol: record.Float(180),
		HDL:       record.Float(35),
		Waist:     record.Float(110),
		Diabetes:  record.DiabetesPrediabetic,
	}
	est := a.Interaction.Estimate(rec)
	c.Assert(est.Pie.SliceValue("Metabolic Syndrome"), Equals, 10.0)
}

func (a *AssessmentsSuite) TestMedicationDiscount(c *C) {
	rec := HighRiskRecord()
	rec.Medications = "atorvastatin 40mg"
	est := a.Calibrated.Estimate(rec)
	c.Assert(est.Notes[1], Equals, "Active cardiovascular medication (x0.85)")
	c.Assert(est.Score < 72.45, Equals, true)
}

func (a *AssessmentsSuite) TestEstimatorsAreDeterministic(c *C) {
	for _, e := range Defaults() {
		first := e.Estimate(HighRiskRecord())
		second := e.Estimate(HighRiskRecord())
		c.Assert(second, DeepEquals, first)
	}
}

func (a *AssessmentsSuite) TestEstimatesStayInRange(c *C) {
	records := []*record.PatientRecord{{}, LowRiskRecord(), HighRiskRecord(), {Age: 130, PriorMI: true, Smoking: record.HabitCurrent}}
	for _, rec := range records {
		for _, e := range Defaults() {
			est := e.Estimate(rec)
			c.Assert(est.Score >= 0 && est.Score <= 100, Equals, true)
			c.Assert(est.Confidence >= 0 && est.Confidence <= 1, Equals, true)
			c.Assert(len(est.Factors) <= plugin.MaxFactors, Equals, true)
		}
	}
}
