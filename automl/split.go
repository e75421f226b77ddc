package automl

import (
	"math"
	"math/rand"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Split shuffles the row indices [0, n) with seed and returns the training
// and test partitions. The training size is round(n * trainFraction) clamped
// to [1, n-1] so neither side is empty.
func Split(n int, trainFraction float64, seed int64) (train, test []int, err error) {
	if n < 2 {
		return nil, nil, errors.NewValueError("Split", "at least 2 rows are required to split")
	}
	if math.IsNaN(trainFraction) || trainFraction <= 0 || trainFraction >= 1 {
		return nil, nil, errors.NewInvalidSplitError(trainFraction)
	}

	nTrain := int(math.Round(float64(n) * trainFraction))
	if nTrain < 1 {
		nTrain = 1
	}
	if nTrain > n-1 {
		nTrain = n - 1
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[:nTrain], perm[nTrain:], nil
}
