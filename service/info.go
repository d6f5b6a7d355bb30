package service

import (
	"github.com/intervention-engine/cvrisk/calibration"
	"github.com/intervention-engine/cvrisk/ensemble"
	"github.com/intervention-engine/cvrisk/plugin"
)

// EstimatorInfo describes one registered estimator and its share of the
// ensemble vote.
type EstimatorInfo struct {
	Name   string  `json:"name"`
	Method string  `json:"method"`
	Weight float64 `json:"weight"`
}

// PopulationInfo names a calibration profile and where it is applied.
type PopulationInfo struct {
	Name  string            `json:"name"`
	Stage calibration.Stage `json:"stage"`
}

// ModelInfo reports how the service combines its estimators.
type ModelInfo struct {
	Estimators      []EstimatorInfo  `json:"estimators"`
	LifestyleWeight float64          `json:"lifestyleWeight"`
	Populations     []PopulationInfo `json:"populations"`
}

// ModelInfo lists the registered estimators in registration order with their
// normalised weights.
func (rs *ReferenceRiskService) ModelInfo() ModelInfo {
	methods := make([]string, len(rs.estimators))
	for i, est := range rs.estimators {
		methods[i] = est.Config().Method
	}
	weights := ensemble.Normalise(methods, rs.weights)

	info := ModelInfo{
		Estimators:      make([]EstimatorInfo, 0, len(rs.estimators)),
		LifestyleWeight: rs.lifestyleWeight,
	}
	for i, est := range rs.estimators {
		cfg := est.Config()
		info.Estimators = append(info.Estimators, EstimatorInfo{
			Name:   cfg.Name,
			Method: cfg.Method,
			Weight: plugin.Round(weights[i]),
		})
	}
	for _, prof := range calibration.Profiles() {
		info.Populations = append(info.Populations, PopulationInfo{Name: prof.Name, Stage: prof.Stage})
	}
	return info
}
