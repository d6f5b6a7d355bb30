package calibration

import (
	"math"
	"testing"

	"github.com/intervention-engine/cvrisk/record"
	. "gopkg.in/check.v1"
)

type CalibrationSuite struct{}

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&CalibrationSuite{})

func (s *CalibrationSuite) TestDefaultPopulationIsIdentity(c *C) {
	rec := &record.PatientRecord{Age: 64, Diabetes: record.DiabetesDiabetic, Triglyceride: record.Float(300)}
	c.Assert(Calibrate(rec, 0.7), Equals, 0.7)

	res, ok := CalibrateScore(rec, 42.5)
	c.Assert(ok, Equals, false)
	c.Assert(res.AdjustedScore, Equals, 42.5)
	c.Assert(res.Terms, HasLen, 0)
}

func (s *CalibrationSuite) TestStages(c *C) {
	south, ok := Lookup(record.PopulationSouthAsian)
	c.Assert(ok, Equals, true)
	c.Assert(south.Stage, Equals, StagePre)
	c.Assert(south.DiabetesMultiplier, Equals, 3.2)
	c.Assert(south.PrediabetesMultiplier, Equals, 1.8)
	c.Assert(south.BetelMultiplier, Equals, 1.4)

	east, ok := Lookup(record.PopulationEastAsian)
	c.Assert(ok, Equals, true)
	c.Assert(east.Stage, Equals, StagePost)

	_, ok = Lookup(record.PopulationGeneral)
	c.Assert(ok, Equals, false)
}

func (s *CalibrationSuite) TestDiabetesMultiplier(c *C) {
	// at the reference age the only shift is ln(3.2), so the odds triple and a bit
	rec := &record.PatientRecord{Age: 50, Population: record.PopulationSouthAsian, Diabetes: record.DiabetesDiabetic}
	res, ok := CalibrateScore(rec, 50)
	c.Assert(ok, Equals, true)
	c.Assert(res.AdjustedScore, Equals, 76.19)
	c.Assert(res.Terms, HasLen, 1)
	c.Assert(res.Terms[0].Name, Equals, "Diabetes")
	c.Assert(math.Abs(Calibrate(rec, 0)-math.Log(3.2)) < 1e-12, Equals, true)
}

func (s *CalibrationSuite) TestPrediabetesAndBetelQuid(c *C) {
	rec := &record.PatientRecord{
		Age:        50,
		Population: record.PopulationSouthAsian,
		Diabetes:   record.DiabetesPrediabetic,
		BetelNut:   record.HabitCurrent,
	}
	res, _ := CalibrateScore(rec, 50)
	// odds 1.8 * 1.4 = 2.52
	c.Assert(res.AdjustedScore, Equals, 71.59)
	c.Assert(res.Terms[0].Name, Equals, "Prediabetes")
	c.Assert(res.Terms[1].Name, Equals, "Betel Quid")

	rec.BetelNut = record.HabitFormer
	res, _ = CalibrateScore(rec, 50)
	c.Assert(res.Terms, HasLen, 1)
}

func (s *CalibrationSuite) TestSubTermDirections(c *C) {
	rec := &record.PatientRecord{Age: 50, Population: record.PopulationSouthAsian}

	rec.Triglyceride = record.Float(250)
	up, _ := CalibrateScore(rec, 30)
	c.Assert(up.AdjustedScore > 30, Equals, true)

	rec.Triglyceride = nil
	rec.HDL = record.Float(70)
	down, _ := CalibrateScore(rec, 30)
	c.Assert(down.AdjustedScore < 30, Equals, true)
	c.Assert(down.Terms[0].Name, Equals, "HDL Cholesterol")
	c.Assert(down.Terms[0].Shift, Equals, -0.13)

	rec.HDL = nil
	rec.Waist = record.Float(110)
	rec.Age = 60
	res, _ := CalibrateScore(rec, 30)
	c.Assert(res.Terms, HasLen, 2)
	c.Assert(res.Terms[0].Name, Equals, "Age")
	c.Assert(res.Terms[1].Name, Equals, "Waist Circumference")
	c.Assert(res.LogitShift > 0, Equals, true)
}

func (s *CalibrationSuite) TestMissingValuesAddNothing(c *C) {
	rec := &record.PatientRecord{Population: record.PopulationEastAsian}
	res, ok := CalibrateScore(rec, 20)
	c.Assert(ok, Equals, true)
	c.Assert(res.Terms, HasLen, 0)
	c.Assert(res.LogitShift, Equals, 0.0)
	c.Assert(res.AdjustedScore, Equals, 20.0)
}

func (s *CalibrationSuite) TestLogitRoundTrip(c *C) {
	for _, score := range []float64{0.5, 5, 30, 50, 72.45, 99.5} {
		c.Assert(math.Abs(Logistic(Logit(score))-score) < 1e-9, Equals, true)
	}
	// extremes are kept finite
	c.Assert(Logit(0), Equals, Logit(0.5))
	c.Assert(Logit(100), Equals, Logit(99.5))
	c.Assert(math.IsInf(Logit(0), 0), Equals, false)
}

func (s *CalibrationSuite) TestProfilesIsACopy(c *C) {
	table := Profiles()
	table[0].DiabetesMultiplier = 99
	prof, _ := Lookup(record.PopulationSouthAsian)
	c.Assert(prof.DiabetesMultiplier, Equals, 3.2)
}
