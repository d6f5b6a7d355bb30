package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/intervention-engine/cvrisk/calibration"
	"github.com/intervention-engine/cvrisk/ensemble"
	"github.com/intervention-engine/cvrisk/explain"
	"github.com/intervention-engine/cvrisk/history"
	"github.com/intervention-engine/cvrisk/lifestyle"
	"github.com/intervention-engine/cvrisk/medication"
	"github.com/intervention-engine/cvrisk/plugin"
	"github.com/intervention-engine/cvrisk/record"
	"github.com/intervention-engine/cvrisk/trend"
)

// Names of the optional stages, as used in flags, logs and metrics.
const (
	StageCalibration = "calibration"
	StageLifestyle   = "lifestyle"
	StageMedication  = "medication"
	StageTrend       = "trend"
	StageExplanation = "explanation"
)

// DefaultLifestyleWeight scales the lifestyle contribution before it is added
// to the score.
const DefaultLifestyleWeight = 0.25

// baselineMethod is the estimate pre-aggregation calibration replaces.
const baselineMethod = "baseline"

// ErrNoEstimators is returned by Assess when no estimator has been registered.
var ErrNoEstimators = errors.New("service: no estimators registered")

// RiskService is an interface for the functions that must be supported by a
// risk service used by the server.
type RiskService interface {
	Assess(ctx context.Context, rec *record.PatientRecord) (*RiskResult, error)
	AssessWithHistory(ctx context.Context, rec *record.PatientRecord, series *trend.Series) (*RiskResult, error)
}

// ReferenceRiskService is a container for estimators that runs them against a
// record and carries the result through calibration, lifestyle, medication,
// trend and explanation stages.
type ReferenceRiskService struct {
	estimators      []plugin.Estimator
	weights         ensemble.Weights
	lifestyleWeight float64
	repo            history.Repository
	metrics         *Metrics
	logger          *zap.Logger
	now             func() time.Time
}

// Option configures a ReferenceRiskService.
type Option func(*ReferenceRiskService)

// WithWeights sets the ensemble weights, keyed by estimator method.
func WithWeights(w ensemble.Weights) Option {
	return func(rs *ReferenceRiskService) { rs.weights = w }
}

// WithLifestyleWeight sets the factor applied to the lifestyle contribution.
func WithLifestyleWeight(w float64) Option {
	return func(rs *ReferenceRiskService) { rs.lifestyleWeight = w }
}

// WithRepository sets the history repository used by Record.
func WithRepository(repo history.Repository) Option {
	return func(rs *ReferenceRiskService) { rs.repo = repo }
}

// WithMetrics sets the collectors updated after every assessment.
func WithMetrics(m *Metrics) Option {
	return func(rs *ReferenceRiskService) { rs.metrics = m }
}

// WithClock replaces time.Now for stamping results.
func WithClock(now func() time.Time) Option {
	return func(rs *ReferenceRiskService) { rs.now = now }
}

// NewReferenceRiskService creates a new risk service with no estimators. A nil
// logger discards everything.
func NewReferenceRiskService(logger *zap.Logger, opts ...Option) *ReferenceRiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	rs := &ReferenceRiskService{
		weights:         ensemble.DefaultWeights(),
		lifestyleWeight: DefaultLifestyleWeight,
		logger:          logger,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

// RegisterPlugin registers an estimator for use by the risk service
func (rs *ReferenceRiskService) RegisterPlugin(est plugin.Estimator) {
	rs.estimators = append(rs.estimators, est)
}

// Assess scores a record without history.
func (rs *ReferenceRiskService) Assess(ctx context.Context, rec *record.PatientRecord) (*RiskResult, error) {
	return rs.AssessWithHistory(ctx, rec, nil)
}

// AssessWithHistory scores a record and, when the series holds at least two
// snapshots, analyses its trend. Neither the record nor the series is
// modified. Only a missing estimator set, a cancelled context or a failing
// estimator produce an error; failing optional stages are flagged and left
// out of the result.
func (rs *ReferenceRiskService) AssessWithHistory(ctx context.Context, rec *record.PatientRecord, series *trend.Series) (*RiskResult, error) {
	start := time.Now()
	if len(rs.estimators) == 0 {
		return nil, ErrNoEstimators
	}

	res := &RiskResult{
		ID:        uuid.New(),
		SubjectID: rec.SubjectID,
		AsOf:      rs.now().UTC(),
	}
	for _, v := range record.Check(rec) {
		res.Flags = append(res.Flags, v.String())
	}

	estimates, err := rs.estimate(ctx, rec)
	if err != nil {
		return nil, err
	}

	prof, calibrated := calibration.Lookup(rec.Population)
	if calibrated && prof.Stage == calibration.StagePre {
		rs.runStage(res, StageCalibration, func() {
			cal, err := rs.calibrateBaseline(rec, prof, estimates)
			if err != nil {
				res.Flags = append(res.Flags, err.Error())
				return
			}
			res.Calibration = cal
		})
	}

	agg := ensemble.Aggregate(estimates, rs.weights)
	res.ModelBreakdown = ModelBreakdown{Ensemble: agg, Estimates: estimates}
	score := agg.Score

	if calibrated && prof.Stage == calibration.StagePost {
		rs.runStage(res, StageCalibration, func() {
			cal := prof.Apply(rec, score)
			score = cal.AdjustedScore
			res.Calibration = &cal
		})
	}

	if lifestyle.Provided(rec) {
		rs.runStage(res, StageLifestyle, func() {
			a := lifestyle.Score(rec)
			score = plugin.Round(plugin.Clamp(score+a.Contribution*rs.lifestyleWeight, 0, 100))
			res.Lifestyle = &a
			res.Recommendations = append(res.Recommendations, a.Recommendations...)
		})
	}

	rs.runStage(res, StageMedication, func() {
		meds := medication.Parse(rec.Medications)
		cond := medication.Conditions{
			Age:      rec.Age,
			Diabetic: rec.Diabetic(),
			Smoking:  rec.CurrentSmoker(),
			PriorMI:  rec.PriorMI,
		}
		impact := medication.Combine(score, meds, cond)
		res.Medication = &impact
		res.Recommendations = append(res.Recommendations, medication.Recommendations(impact, meds, cond)...)
	})

	if series != nil && series.Len() >= 2 {
		rs.runStage(res, StageTrend, func() {
			a := trend.Analyze(series.Snapshots)
			res.Trend = &a
		})
	}

	res.Score = score
	res.Category = plugin.CategoryForScore(score)
	res.Confidence = agg.Confidence

	rs.runStage(res, StageExplanation, func() {
		res.Explanation = explain.Compose(explain.Input{
			Score:       score,
			Ensemble:    agg,
			Calibration: res.Calibration,
			Lifestyle:   res.Lifestyle,
			Medication:  res.Medication,
			Trend:       res.Trend,

			Recommendations: res.Recommendations,
		})
	})

	rs.metrics.observe(res, time.Since(start).Seconds())
	rs.logger.Debug("assessment complete",
		zap.String("subject", res.SubjectID),
		zap.Float64("score", res.Score),
		zap.String("category", string(res.Category)),
		zap.String("conflict", string(agg.Conflict)),
		zap.Int("flags", len(res.Flags)))
	return res, nil
}

// estimate runs every estimator concurrently. The returned slice is in
// registration order.
func (rs *ReferenceRiskService) estimate(ctx context.Context, rec *record.PatientRecord) ([]plugin.ScoreEstimate, error) {
	estimates := make([]plugin.ScoreEstimate, len(rs.estimators))
	g, gctx := errgroup.WithContext(ctx)
	for i, est := range rs.estimators {
		i, est := i, est
		g.Go(func() (err error) {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("service: estimator %s failed: %v", est.Config().Method, r)
				}
			}()
			estimates[i] = est.Estimate(rec)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return estimates, nil
}

// calibrateBaseline replaces the baseline estimate with its calibrated score
// and recomputes its category and confidence. The estimate is rebuilt as a
// copy and only stored once complete.
func (rs *ReferenceRiskService) calibrateBaseline(rec *record.PatientRecord, prof calibration.Profile, estimates []plugin.ScoreEstimate) (*calibration.Adjustment, error) {
	for i := range estimates {
		if estimates[i].Method != baselineMethod {
			continue
		}
		cal := prof.Apply(rec, estimates[i].Score)
		est := estimates[i]
		est.Score = cal.AdjustedScore
		est.Category = plugin.CategoryForScore(est.Score)
		cfg := rs.estimators[i].Config()
		est.Confidence = plugin.ExtremityConfidence(est.Score, cfg.ConfidenceFloor, cfg.ConfidenceSpan)
		notes := make([]string, len(est.Notes), len(est.Notes)+1)
		copy(notes, est.Notes)
		est.Notes = append(notes, fmt.Sprintf("%s calibration (%.2f to %.2f)", prof.Name, cal.InputScore, cal.AdjustedScore))
		estimates[i] = est
		return &cal, nil
	}
	return nil, fmt.Errorf("%s calibration skipped: no %s estimate", prof.Name, baselineMethod)
}

// runStage runs an optional stage. A panic is logged, counted and flagged, and
// whatever the stage had not yet set stays unset.
func (rs *ReferenceRiskService) runStage(res *RiskResult, stage string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rs.logger.Error("assessment stage failed",
				zap.String("stage", stage),
				zap.String("subject", res.SubjectID),
				zap.Any("panic", r))
			rs.metrics.stageFailed(stage)
			res.Flags = append(res.Flags, fmt.Sprintf("%s stage failed and was omitted: %v", stage, r))
			ok = false
		}
	}()
	fn()
	return true
}

// Record appends the result to its subject's history.
func (rs *ReferenceRiskService) Record(ctx context.Context, subject string, res *RiskResult) error {
	if rs.repo == nil {
		return errors.New("service: no history repository configured")
	}
	if err := rs.repo.Append(ctx, subject, res.ToSnapshot()); err != nil {
		rs.logger.Error("recording snapshot failed", zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}

// History loads up to limit of the subject's most recent snapshots. A subject
// with no history gives an empty series.
func (rs *ReferenceRiskService) History(ctx context.Context, subject string, limit int) (*trend.Series, error) {
	if rs.repo == nil {
		return nil, errors.New("service: no history repository configured")
	}
	series, err := rs.repo.Get(ctx, subject, limit)
	if errors.Is(err, history.ErrNotFound) {
		return trend.NewSeries(subject, 0), nil
	}
	return series, err
}
