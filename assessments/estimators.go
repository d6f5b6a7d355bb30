package assessments

import "github.com/intervention-engine/cvrisk/plugin"

// Defaults returns the three estimators in ensemble order: baseline,
// interaction, calibrated.
func Defaults() []plugin.Estimator {
	return []plugin.Estimator{
		NewBaselineEstimator(),
		NewInteractionEstimator(),
		NewCalibratedEstimator(),
	}
}
