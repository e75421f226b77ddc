package automl

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/core/parallel"
	"github.com/YuminosukeSato/automl/metrics"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/preprocessing"
	"github.com/YuminosukeSato/automl/training"
)

// Searcher runs a model search for a validated request.
type Searcher interface {
	Search(ctx context.Context, req *training.Request) (*Result, error)
}

// Engine is the default Searcher.
type Engine struct {
	randomState int64
	maxClasses  int
	maxIter     int
	parallel    bool
	logger      log.Logger
	now         func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRandomState sets the seed of the split and of the iterative solvers.
func WithRandomState(seed int64) Option {
	return func(e *Engine) { e.randomState = seed }
}

// WithMaxClasses sets the largest number of distinct target values treated as classes.
func WithMaxClasses(n int) Option {
	return func(e *Engine) { e.maxClasses = n }
}

// WithMaxIter sets the iteration limit of the logistic regression solver.
func WithMaxIter(n int) Option {
	return func(e *Engine) { e.maxIter = n }
}

// WithParallel enables concurrent candidate fitting.
func WithParallel(enabled bool) Option {
	return func(e *Engine) { e.parallel = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine returns an Engine with defaults: seed 42, 20 classes, 200 solver
// iterations and concurrent fitting.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		randomState: 42,
		maxClasses:  20,
		maxIter:     200,
		parallel:    true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("automl")
	}
	return e
}

// prepared holds the encoded data shared by every kind of one search.
type prepared struct {
	target     string
	values     []string
	trainRows  []int
	testRows   []int
	encodings  []FeatureEncoding
	XTrain     *mat.Dense
	XTest      *mat.Dense
	targetInfo TargetEncoding
}

// Search encodes the request, fits every eligible candidate and ranks them.
func (e *Engine) Search(ctx context.Context, req *training.Request) (*Result, error) {
	if req == nil {
		return nil, errors.NewValueError("Search", "request is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "automl: search cancelled")
	}

	runID := uuid.NewString()
	logger := e.logger.With(log.RunIDKey, runID, log.TargetKey, req.Target())
	start := time.Now()

	data, dropped, err := e.prepare(req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:         runID,
		Target:        req.Target(),
		Features:      req.Features(),
		Ignored:       req.IgnoreList(),
		TrainFraction: req.TrainFraction(),
		TestFraction:  req.TestFraction(),
		TrainRows:     len(data.trainRows),
		TestRows:      len(data.testRows),
		DroppedRows:   dropped,
		CreatedAt:     e.now(),
	}
	logger.Info("Model search started",
		log.FeaturesKey, len(data.encodings),
		log.SamplesKey, len(data.trainRows)+len(data.testRows),
		log.RandomSeedKey, e.randomState,
	)

	for _, kind := range Kinds {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "automl: search cancelled")
		}
		kr, err := e.runKind(ctx, kind, data, res, logger)
		if err != nil {
			return nil, err
		}
		res.Kinds = append(res.Kinds, kr)
	}

	if len(res.Artifacts()) == 0 {
		reasons := ""
		for _, kr := range res.Kinds {
			if reasons != "" {
				reasons += "; "
			}
			if kr.Skipped {
				reasons += fmt.Sprintf("%s: %s", kr.Kind, kr.Reason)
			} else {
				reasons += fmt.Sprintf("%s: every candidate failed", kr.Kind)
			}
		}
		return nil, errors.NewModelError("Search", "no model", errors.Newf("no candidate could be fitted (%s)", reasons))
	}

	logger.Info("Model search finished", log.DurationMsKey, time.Since(start).Milliseconds())
	return res, nil
}

// prepare drops rows without a target, splits the rest and encodes both partitions.
func (e *Engine) prepare(req *training.Request) (*prepared, int, error) {
	table := req.Table()
	targetCol, ok := table.Column(req.Target())
	if !ok {
		return nil, 0, errors.NewInvalidTargetError(req.Target(), "not a column of the dataset")
	}

	keep := make([]int, 0, table.NumRows())
	for i, v := range targetCol.Values {
		if !isMissing(v) {
			keep = append(keep, i)
		}
	}
	dropped := table.NumRows() - len(keep)
	if len(keep) < 2 {
		return nil, dropped, errors.NewValueError("Search", "at least 2 rows with a target value are required")
	}

	trainIdx, testIdx, err := Split(len(keep), req.TrainFraction(), e.randomState)
	if err != nil {
		return nil, dropped, err
	}
	data := &prepared{
		target:     req.Target(),
		values:     targetCol.Values,
		trainRows:  pick(keep, trainIdx),
		testRows:   pick(keep, testIdx),
		targetInfo: analyzeTarget(targetCol.Values, keep),
	}

	for _, name := range req.Features() {
		col, _ := table.Column(name)
		data.encodings = append(data.encodings, fitFeature(name, col.Values, data.trainRows))
	}
	if data.XTrain, err = encodeTable(table, data.encodings, data.trainRows); err != nil {
		return nil, dropped, err
	}
	if data.XTest, err = encodeTable(table, data.encodings, data.testRows); err != nil {
		return nil, dropped, err
	}
	return data, dropped, nil
}

func pick(rows, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

// eligible reports whether kind can run on the target and why not.
func (e *Engine) eligible(kind Kind, t TargetEncoding) (bool, string) {
	n := len(t.Levels)
	switch kind {
	case Classification:
		if t.Numeric && !t.Integral {
			return false, "target has non-integer numeric values"
		}
		if n < 2 {
			return false, "target has fewer than 2 classes"
		}
		if n > e.maxClasses {
			return false, fmt.Sprintf("target has %d distinct values, more than %d classes", n, e.maxClasses)
		}
		return true, ""
	case Regression:
		if !t.Numeric {
			return false, "target is not numeric"
		}
		if n < 2 {
			return false, "target is constant"
		}
		return true, ""
	default:
		return false, "unknown kind"
	}
}

func (d *prepared) targetVector(kind Kind, rows []int) *mat.VecDense {
	y := mat.NewVecDense(len(rows), nil)
	for i, r := range rows {
		if kind == Classification {
			code, _ := d.targetInfo.Code(d.values[r])
			y.SetVec(i, float64(code))
			continue
		}
		x, _ := parseFloat(d.values[r])
		y.SetVec(i, x)
	}
	return y
}

// fitted is what a successful candidate leaves behind for its artifact.
type fitted struct {
	weights     *model.ModelWeights
	scalerMean  []float64
	scalerScale []float64
}

func (e *Engine) runKind(ctx context.Context, kind Kind, data *prepared, res *Result, logger log.Logger) (KindResult, error) {
	kr := KindResult{Kind: kind}
	logger = logger.With(log.ModelKindKey, kind.String())

	if ok, reason := e.eligible(kind, data.targetInfo); !ok {
		kr.Skipped = true
		kr.Reason = reason
		logger.Info("Model kind skipped", "reason", reason)
		return kr, nil
	}

	yTrain := data.targetVector(kind, data.trainRows)
	yTest := data.targetVector(kind, data.testRows)
	kr.Metric = primaryMetric(kind, yTest)

	cands := e.candidates(kind)
	entries := make([]Entry, len(cands))
	models := make([]*fitted, len(cands))
	parallel.Each(len(cands), e.parallel, func(i int) {
		entries[i], models[i] = e.evaluate(cands[i], kind, kr.Metric, data, yTrain, yTest, logger)
	})
	if err := ctx.Err(); err != nil {
		return kr, errors.Wrap(err, "automl: search cancelled")
	}

	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := entries[order[a]], entries[order[b]]
		if ea.Failed != eb.Failed {
			return !ea.Failed
		}
		return ea.Score > eb.Score
	})

	kr.Leaderboard = make([]Entry, len(order))
	for rank, i := range order {
		entry := entries[i]
		entry.Rank = rank + 1
		kr.Leaderboard[rank] = entry
	}

	top := order[0]
	if entries[top].Failed {
		logger.Warn("Every candidate failed")
		return kr, nil
	}
	best := models[top]
	kr.Best = &Artifact{
		RunID:       res.RunID,
		Kind:        kind,
		ModelName:   entries[top].Model,
		Target:      data.target,
		Features:    data.encodings,
		TargetInfo:  data.targetInfo,
		ScalerMean:  best.scalerMean,
		ScalerScale: best.scalerScale,
		Weights:     best.weights,
		Metric:      kr.Metric,
		Score:       entries[top].Score,
		CreatedAt:   res.CreatedAt,
	}
	logger.Info("Best model selected",
		log.ModelNameKey, kr.Best.ModelName,
		log.MetricKey, kr.Metric,
		log.ScoreKey, kr.Best.Score,
	)
	return kr, nil
}

// evaluate fits one candidate on the training rows and scores it on the test rows.
// Errors and panics are recorded on the entry.
func (e *Engine) evaluate(c candidate, kind Kind, metric string, data *prepared, yTrain, yTest *mat.VecDense, logger log.Logger) (Entry, *fitted) {
	entry := Entry{Model: c.name}
	result := &fitted{}
	start := time.Now()

	err := errors.SafeExecute("fit "+c.name, func() error {
		var XTrain, XTest mat.Matrix = data.XTrain, data.XTest
		if c.scaled {
			scaler := preprocessing.NewStandardScalerDefault()
			var err error
			if XTrain, err = scaler.FitTransform(data.XTrain); err != nil {
				return err
			}
			if XTest, err = scaler.Transform(data.XTest); err != nil {
				return err
			}
			result.scalerMean = scaler.Mean
			result.scalerScale = scaler.Scale
		}

		est := c.build(logger.With(log.ModelNameKey, c.name))
		if err := est.Fit(XTrain, yTrain); err != nil {
			return err
		}
		pred, err := est.Predict(XTest)
		if err != nil {
			return err
		}
		n, _ := pred.Dims()
		yPred := mat.NewVecDense(n, mat.Col(nil, 0, pred))
		if err := errors.CheckNumericalStability("predict "+c.name, yPred.RawVector().Data, 0); err != nil {
			return err
		}

		scores, err := score(kind, yTest, yPred)
		if err != nil {
			return err
		}
		entry.Metrics = scores
		entry.Score = scores[metric]

		result.weights, err = est.ExportWeights()
		return err
	})
	entry.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		entry.Failed = true
		entry.Error = err.Error()
		entry.Metrics = nil
		entry.Score = 0
		logger.Warn("Candidate failed", err, log.ModelNameKey, c.name)
		return entry, nil
	}
	logger.Debug("Candidate evaluated",
		log.ModelNameKey, c.name,
		log.MetricKey, metric,
		log.ScoreKey, entry.Score,
		log.DurationMsKey, entry.DurationMs,
	)
	return entry, result
}

// primaryMetric is accuracy for classification and r2 for regression. R² is
// undefined on a constant test target, so regression falls back to the
// negated mean squared error.
func primaryMetric(kind Kind, yTest *mat.VecDense) string {
	if kind == Classification {
		return "accuracy"
	}
	first := yTest.AtVec(0)
	for i := 1; i < yTest.Len(); i++ {
		if yTest.AtVec(i) != first {
			return "r2"
		}
	}
	return "neg_mse"
}

func score(kind Kind, yTrue, yPred *mat.VecDense) (map[string]float64, error) {
	if kind == Classification {
		acc, err := metrics.Accuracy(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		rate, err := metrics.ClassificationError(yTrue, yPred)
		if err != nil {
			return nil, err
		}
		return map[string]float64{"accuracy": acc, "error_rate": rate}, nil
	}

	mse, err := metrics.MSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	rmse, err := metrics.RMSE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	mae, err := metrics.MAE(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{"mse": mse, "rmse": rmse, "mae": mae, "neg_mse": -mse}
	if r2, err := metrics.R2Score(yTrue, yPred); err == nil {
		out["r2"] = r2
	}
	return out, nil
}
