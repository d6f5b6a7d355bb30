package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/intervention-engine/cvrisk/calibration"
	"github.com/intervention-engine/cvrisk/ensemble"
	"github.com/intervention-engine/cvrisk/lifestyle"
	"github.com/intervention-engine/cvrisk/medication"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/trend"
)

// ModelBreakdown exposes the ensemble and the estimates it was built from.
type ModelBreakdown struct {
	Ensemble  ensemble.Outcome       `json:"ensemble"`
	Estimates []plugin.ScoreEstimate `json:"estimates"`
}

// RiskResult is the outcome of one assessment. The service keeps no reference
// to it once returned.
type RiskResult struct {
	ID              uuid.UUID               `json:"id"`
	SubjectID       string                  `json:"subjectId,omitempty"`
	AsOf            time.Time               `json:"asOf"`
	Score           float64                 `json:"score"`
	Category        plugin.Category         `json:"category"`
	Confidence      float64                 `json:"confidence"`
	Explanation     string                  `json:"explanation"`
	Recommendations []plugin.Recommendation `json:"recommendations"`
	ModelBreakdown  ModelBreakdown          `json:"modelBreakdown"`
	Calibration     *calibration.Adjustment `json:"calibration,omitempty"`
	Lifestyle       *lifestyle.Assessment   `json:"lifestyle,omitempty"`
	Medication      *medication.Impact      `json:"medication,omitempty"`
	Trend           *trend.Analysis         `json:"trend,omitempty"`
	// Flags lists validation findings and stages that failed and were left
	// out.
	Flags []string `json:"flags,omitempty"`
}

// ToSnapshot converts the result into the history entry recorded for its
// subject.
func (r *RiskResult) ToSnapshot() trend.Snapshot {
	factors := make([]string, len(r.ModelBreakdown.Ensemble.TopFactors))
	for i, f := range r.ModelBreakdown.Ensemble.TopFactors {
		factors[i] = f.Name
	}
	return trend.Snapshot{
		AsOf:       r.AsOf,
		Score:      r.Score,
		Category:   r.Category,
		Confidence: r.Confidence,
		KeyFactors: factors,
	}
}
