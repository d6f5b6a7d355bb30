package ensemble

import (
	"math"
	"testing"

	"github.com/intervention-engine/cvrisk/assessments"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
	. "gopkg.in/check.v1"
)

type EnsembleSuite struct{}

func Test(t *testing.T) { TestingT(t) }

var _ = Suite(&EnsembleSuite{})

func estimate(method string, score, confidence float64, factors ...plugin.Factor) plugin.ScoreEstimate {
	return plugin.ScoreEstimate{
		Method:     method,
		Score:      score,
		Confidence: confidence,
		Category:   plugin.CategoryForScore(score),
		Factors:    factors,
	}
}

func run(rec *record.PatientRecord) []plugin.ScoreEstimate {
	var out []plugin.ScoreEstimate
	for _, e := range assessments.Defaults() {
		out = append(out, e.Estimate(rec))
	}
	return out
}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func (e *EnsembleSuite) TestEqualScoresAgreeFully(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 40, 0.6),
		estimate("interaction", 40, 0.6),
		estimate("calibrated", 40, 0.6),
	}, DefaultWeights())
	c.Assert(res.Agreement, Equals, 1.0)
	c.Assert(res.StdDev, Equals, 0.0)
	c.Assert(res.Conflict, Equals, ConflictLow)
	c.Assert(res.Score, Equals, 40.0)
	c.Assert(res.Confidence, Equals, 0.7)
	c.Assert(res.Category, Equals, plugin.CategoryMedium)
	c.Assert(res.CategoryConsensus, Equals, true)
}

func (e *EnsembleSuite) TestNearlyEqualScoresAgreeLessThanFully(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 50, 0.6),
		estimate("interaction", 50, 0.6),
		estimate("calibrated", 50.1, 0.6),
	}, DefaultWeights())
	c.Assert(res.Agreement < 1, Equals, true)
	c.Assert(near(res.Agreement, 0.99906, 0.00001), Equals, true)
	c.Assert(res.Conflict, Equals, ConflictLow)
}

func (e *EnsembleSuite) TestAgreementFallsWithDispersion(c *C) {
	prev := 2.0
	for _, spread := range []float64{0, 2, 5, 10, 20, 40, 60} {
		res := Aggregate([]plugin.ScoreEstimate{
			estimate("baseline", 50-spread/2, 0.6),
			estimate("interaction", 50+spread/2, 0.6),
			estimate("calibrated", 50, 0.6),
		}, DefaultWeights())
		c.Assert(res.Agreement < prev || (spread > 0 && res.Agreement == 0), Equals, true)
		c.Assert(res.Agreement >= 0, Equals, true)
		prev = res.Agreement
	}
}

func (e *EnsembleSuite) TestConflictBuckets(c *C) {
	c.Assert(ConflictLevel(0), Equals, ConflictLow)
	c.Assert(ConflictLevel(7.99), Equals, ConflictLow)
	c.Assert(ConflictLevel(8), Equals, ConflictMedium)
	c.Assert(ConflictLevel(14.99), Equals, ConflictMedium)
	c.Assert(ConflictLevel(15), Equals, ConflictHigh)

	c.Assert(Agreement(50), Equals, 0.0)
	c.Assert(Agreement(80), Equals, 0.0)
	c.Assert(Agreement(25), Equals, 0.5)
}

func (e *EnsembleSuite) TestScoreIsConvexCombination(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 20, 0.7),
		estimate("interaction", 80, 0.7),
		estimate("calibrated", 50, 0.7),
	}, DefaultWeights())
	// 0.35*20 + 0.35*80 + 0.30*50
	c.Assert(near(res.Score, 50, 0.01), Equals, true)
	c.Assert(res.Score >= 20 && res.Score <= 80, Equals, true)
	c.Assert(res.Conflict, Equals, ConflictHigh)
	c.Assert(res.CategoryConsensus, Equals, false)
	c.Assert(res.Members, HasLen, 3)
	c.Assert(res.Members[0].Weight, Equals, 0.35)
	c.Assert(res.Members[2].Weight, Equals, 0.3)
	c.Assert(near(res.Members[1].Deviation, 30, 0.01), Equals, true)
}

func (e *EnsembleSuite) TestWeightsAreNormalised(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 30, 0.6),
		estimate("interaction", 60, 0.6),
	}, Weights{"baseline": 1, "interaction": 3})
	c.Assert(res.Score, Equals, 52.5)
	c.Assert(res.Members[0].Weight, Equals, 0.25)

	// no known weights at all means an equal vote
	res = Aggregate([]plugin.ScoreEstimate{
		estimate("a", 30, 0.6),
		estimate("b", 60, 0.6),
	}, DefaultWeights())
	c.Assert(res.Score, Equals, 45.0)
}

func (e *EnsembleSuite) TestConfidenceIsCapped(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 95, 0.95),
		estimate("interaction", 95, 0.95),
		estimate("calibrated", 95, 0.95),
	}, DefaultWeights())
	c.Assert(res.Confidence, Equals, 1.0)
}

func (e *EnsembleSuite) TestTopFactorsDeduplicated(c *C) {
	res := Aggregate([]plugin.ScoreEstimate{
		estimate("baseline", 50, 0.6,
			plugin.Factor{Name: "Smoking", Magnitude: 15, Reason: "baseline"},
			plugin.Factor{Name: "Age", Magnitude: 10}),
		estimate("interaction", 50, 0.6,
			plugin.Factor{Name: "Smoking", Magnitude: 12},
			plugin.Factor{Name: "Diabetes", Magnitude: 10},
			plugin.Factor{Name: "Blood Pressure", Magnitude: 6}),
	}, DefaultWeights())
	c.Assert(res.TopFactors, HasLen, 3)
	c.Assert(res.TopFactors[0].Name, Equals, "Smoking")
	c.Assert(res.TopFactors[0].Reason, Equals, "baseline")
	c.Assert(res.TopFactors[1].Name, Equals, "Age")
	c.Assert(res.TopFactors[2].Name, Equals, "Diabetes")
}

func (e *EnsembleSuite) TestHighRiskScenario(c *C) {
	res := Aggregate(run(assessments.HighRiskRecord()), DefaultWeights())
	c.Assert(res.Category, Equals, plugin.CategoryHigh)
	c.Assert(near(res.Score, 68.99, 0.011), Equals, true)
	c.Assert(res.StdDev, Equals, 6.55)
	c.Assert(near(res.Agreement, 0.8689, 0.0001), Equals, true)
	c.Assert(res.Conflict, Equals, ConflictLow)
	c.Assert(res.Confidence, Equals, 0.82)
	c.Assert(res.CategoryConsensus, Equals, true)

	var names []string
	for _, f := range res.TopFactors {
		names = append(names, f.Name)
	}
	c.Assert(names, DeepEquals, []string{"Age", "Diabetes", "Smoking"})
}

func (e *EnsembleSuite) TestLowRiskScenario(c *C) {
	res := Aggregate(run(assessments.LowRiskRecord()), DefaultWeights())
	c.Assert(res.Category, Equals, plugin.CategoryLow)
	c.Assert(res.Score < 5, Equals, true)
	c.Assert(res.Conflict, Equals, ConflictLow)
}

func (e *EnsembleSuite) TestDeterministic(c *C) {
	first := Aggregate(run(assessments.HighRiskRecord()), DefaultWeights())
	second := Aggregate(run(assessments.HighRiskRecord()), DefaultWeights())
	c.Assert(second, DeepEquals, first)
}

func (e *EnsembleSuite) TestEmpty(c *C) {
	res := Aggregate(nil, DefaultWeights())
	c.Assert(res.Score, Equals, 0.0)
	c.Assert(res.Category, Equals, plugin.CategoryLow)
	c.Assert(res.Members, HasLen, 0)
}
