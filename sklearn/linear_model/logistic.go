package linear_model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/automl/core/model"
	"github.com/YuminosukeSato/automl/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LogisticRegression implements logistic regression for classification
// Binary problems fit a single weight vector; more than two classes are fit one-vs-rest.
type LogisticRegression struct {
	state     model.BaseEstimator
	nFeatures int // features seen during Fit

	// Hyperparameters
	penalty      string  // Regularization: "l2", "none"
	C            float64 // Inverse regularization strength (1/alpha)
	fitIntercept bool    // Whether to fit intercept
	randomState  int64   // Random seed
	maxIter      int     // Maximum iterations
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      [][]float64 // Coefficients (n_classes x n_features or 1 x n_features for binary)
	intercept_ []float64   // Intercept terms
	classes_   []int       // Unique class labels
	nIter_     []int       // Actual iterations per class

	// Internal state
	rand *rand.Rand
	warn func(error) // nil uses errors.Warn
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		penalty:      "l2",
		C:            1.0,
		fitIntercept: true,
		randomState:  -1,
		maxIter:      100,
		tol:          1e-4,
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRWarnFunc routes convergence warnings to fn instead of errors.Warn
func WithLRWarnFunc(fn func(error)) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.warn = fn
	}
}

// Name returns the label used on leaderboards.
func (lr *LogisticRegression) Name() string {
	return fmt.Sprintf("LogisticRegression(C=%g)", lr.C)
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}
	if lr.C <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.C)
	}
	if lr.penalty != "l2" && lr.penalty != "none" {
		return errors.NewValidationError("penalty", "must be l2 or none", lr.penalty)
	}

	lr.extractClasses(y)
	if len(lr.classes_) < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "needs samples of at least 2 classes")
	}
	lr.nFeatures = nFeatures
	lr.initializeWeights(nFeatures)

	// Binary classification trains the positive class only; otherwise one-vs-rest
	targets := lr.classes_
	if len(lr.classes_) == 2 {
		targets = lr.classes_[1:]
	}

	converged := true
	for classIdx, class := range targets {
		yBinary := make([]float64, nSamples)
		for i := 0; i < nSamples; i++ {
			if int(y.At(i, 0)) == class {
				yBinary[i] = 1.0
			}
		}
		if !lr.fitBinaryForClass(X, yBinary, classIdx) {
			converged = false
		}
		if err := errors.CheckNumericalStability("LogisticRegression.Fit", lr.coef_[classIdx], lr.nIter_[classIdx]); err != nil {
			return err
		}
	}
	if !converged {
		w := errors.NewConvergenceWarning("LogisticRegression", lr.maxIter, "")
		if lr.warn != nil {
			lr.warn(w)
		} else {
			errors.Warn(w)
		}
	}

	lr.state.SetFitted()
	return nil
}

// extractClasses identifies unique class labels
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}

	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)
}

// initializeWeights initializes model weights
func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	// Reseed on every Fit so a fixed random_state gives identical weights
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else if lr.rand == nil {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}

	rows := len(lr.classes_)
	if rows == 2 {
		rows = 1
	}
	lr.coef_ = make([][]float64, rows)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
	lr.intercept_ = make([]float64, rows)
	lr.nIter_ = make([]int, rows)
}

// fitBinaryForClass runs gradient descent on one weight row and reports
// whether the largest gradient component fell below tol.
func (lr *LogisticRegression) fitBinaryForClass(X mat.Matrix, yBinary []float64, classIdx int) bool {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[classIdx]
	intercept := &lr.intercept_[classIdx]

	baseLearningRate := 1.0
	gradWeights := make([]float64, nFeatures)

	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - yBinary[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		if lr.penalty == "l2" {
			lambda := 1.0 / (lr.C * float64(nSamples))
			for j := range weights {
				gradWeights[j] += lambda * weights[j]
			}
		}

		// Adaptive learning rate
		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))

		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		lr.nIter_[classIdx] = iter + 1

		maxGrad := 0.0
		if lr.fitIntercept {
			maxGrad = math.Abs(gradIntercept)
		}
		for _, g := range gradWeights {
			maxGrad = math.Max(maxGrad, math.Abs(g))
		}
		if maxGrad < lr.tol {
			return true
		}
	}
	return false
}

// decision returns the linear score of row i for weight row k.
func (lr *LogisticRegression) decision(X mat.Matrix, i, k int) float64 {
	z := lr.intercept_[k]
	for j, w := range lr.coef_[k] {
		z += X.At(i, j) * w
	}
	return z
}

func (lr *LogisticRegression) checkPredict(op string, X mat.Matrix) error {
	if err := lr.state.RequireFitted("LogisticRegression", op); err != nil {
		return err
	}
	nFeatures := lr.nFeatures
	if _, c := X.Dims(); c != nFeatures {
		return errors.NewDimensionError("LogisticRegression."+op, nFeatures, c, 1)
	}
	return nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict("Predict", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)

	for i := 0; i < nSamples; i++ {
		if len(lr.classes_) == 2 {
			if sigmoid(lr.decision(X, i, 0)) >= 0.5 {
				predictions.Set(i, 0, float64(lr.classes_[1]))
			} else {
				predictions.Set(i, 0, float64(lr.classes_[0]))
			}
			continue
		}

		maxScore := math.Inf(-1)
		bestClass := 0
		for k := range lr.classes_ {
			if score := lr.decision(X, i, k); score > maxScore {
				maxScore = score
				bestClass = k
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[bestClass]))
	}

	return predictions, nil
}

// PredictProba returns probability estimates for each class
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}

	nSamples, _ := X.Dims()
	nClasses := len(lr.classes_)
	probas := mat.NewDense(nSamples, nClasses, nil)

	for i := 0; i < nSamples; i++ {
		if nClasses == 2 {
			prob1 := sigmoid(lr.decision(X, i, 0))
			probas.Set(i, 0, 1.0-prob1)
			probas.Set(i, 1, prob1)
			continue
		}

		// Multiclass using softmax over the one-vs-rest scores
		scores := make([]float64, nClasses)
		maxScore := math.Inf(-1)
		for k := range scores {
			scores[k] = lr.decision(X, i, k)
			maxScore = math.Max(maxScore, scores[k])
		}
		sum := 0.0
		for k := range scores {
			scores[k] = errors.StabilizeExp(scores[k] - maxScore)
			sum += scores[k]
		}
		for k := range scores {
			probas.Set(i, k, scores[k]/sum)
		}
	}

	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the sorted class labels seen during Fit.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// NIter returns the iterations run for each weight row.
func (lr *LogisticRegression) NIter() []int {
	return append([]int(nil), lr.nIter_...)
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "penalty":
			lr.penalty, ok = value.(string)
		case "C":
			lr.C, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "random_state":
			lr.randomState, ok = value.(int64)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, "wrong type", value)
		}
	}
	return nil
}

// ExportWeights returns the fitted coefficients as ModelWeights.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "ExportWeights"); err != nil {
		return nil, err
	}
	coef := make([][]float64, len(lr.coef_))
	for i, row := range lr.coef_ {
		coef[i] = append([]float64(nil), row...)
	}
	return &model.ModelWeights{
		ModelType:         "LogisticRegression",
		Version:           model.WeightsVersion,
		Classes:           lr.Classes(),
		ClassCoefficients: coef,
		ClassIntercepts:   append([]float64(nil), lr.intercept_...),
		Hyperparameters: map[string]interface{}{
			"C":       lr.C,
			"penalty": lr.penalty,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights restores a fitted model from ModelWeights.
func (lr *LogisticRegression) ImportWeights(w *model.ModelWeights) error {
	if w == nil {
		return errors.NewValueError("LogisticRegression.ImportWeights", "weights are nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}
	if w.ModelType != "LogisticRegression" {
		return errors.NewValueError("LogisticRegression.ImportWeights", "weights belong to "+w.ModelType)
	}
	wantRows := len(w.Classes)
	if wantRows == 2 {
		wantRows = 1
	}
	if len(w.Classes) < 2 || len(w.ClassCoefficients) != wantRows {
		return errors.NewValueError("LogisticRegression.ImportWeights", "coefficient rows do not match classes")
	}

	if c, ok := w.Hyperparameters["C"].(float64); ok {
		lr.C = c
	}
	if p, ok := w.Hyperparameters["penalty"].(string); ok {
		lr.penalty = p
	}
	lr.classes_ = append([]int(nil), w.Classes...)
	lr.coef_ = make([][]float64, len(w.ClassCoefficients))
	for i, row := range w.ClassCoefficients {
		lr.coef_[i] = append([]float64(nil), row...)
	}
	lr.intercept_ = append([]float64(nil), w.ClassIntercepts...)
	lr.nIter_ = make([]int, len(lr.coef_))
	lr.nFeatures = w.NumFeatures()
	lr.state.SetFitted()
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
