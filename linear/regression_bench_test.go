package linear

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// linearData は y = 1 + Σ 0.5*(j+1)*x_j + 小さなノイズ のデータを生成する
func linearData(rows, cols int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(42, 42))

	X := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			X.Set(i, j, rng.Float64()*2.0-1.0)
		}
	}

	y := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sum := 1.0
		for j := 0; j < cols; j++ {
			sum += X.At(i, j) * float64(j+1) * 0.5
		}
		sum += (rng.Float64() - 0.5) * 0.1
		y.Set(i, 0, sum)
	}
	return X, y
}

func BenchmarkFit(b *testing.B) {
	for _, size := range []struct{ rows, cols int }{{100, 5}, {1000, 10}, {5000, 20}} {
		X, y := linearData(size.rows, size.cols)

		b.Run(fmt.Sprintf("OLS_%dx%d", size.rows, size.cols), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := NewLinearRegression().Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
		b.Run(fmt.Sprintf("Ridge_%dx%d", size.rows, size.cols), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := NewRidge(WithAlpha(1)).Fit(X, y); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
