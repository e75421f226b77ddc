package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/automl/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	if math.Abs(s.Mean[0]-2.5) > 1e-12 {
		t.Errorf("Mean[0] = %v, want 2.5", s.Mean[0])
	}
	if math.Abs(s.Scale[0]-math.Sqrt(1.25)) > 1e-12 {
		t.Errorf("Scale[0] = %v, want population std %v", s.Scale[0], math.Sqrt(1.25))
	}
	// 定数列はスケール1のまま
	if s.Scale[1] != 1 {
		t.Errorf("Scale[1] = %v, want 1 for a constant column", s.Scale[1])
	}

	var sum float64
	for i := 0; i < 4; i++ {
		sum += Xs.At(i, 0)
		if Xs.At(i, 1) != 0 {
			t.Errorf("constant column should transform to 0, got %v", Xs.At(i, 1))
		}
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("transformed column mean = %v, want 0", sum/4)
	}

	back, err := s.InverseTransform(Xs)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Error("InverseTransform did not restore the input")
	}
}

func TestStandardScalerWithoutCentering(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{2, 4})
	s := NewStandardScaler(false, true)
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if s.Mean[0] != 0 || s.Scale[0] != 1 {
		t.Errorf("Mean/Scale = %v/%v, want 0/1", s.Mean[0], s.Scale[0])
	}
	if Xs.At(1, 0) != 4 {
		t.Errorf("Xs[1] = %v, want 4", Xs.At(1, 0))
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()

	var notFitted *errors.NotFittedError
	if _, err := s.Transform(mat.NewDense(1, 1, nil)); !errors.As(err, &notFitted) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	if err := s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	var dimErr *errors.DimensionError
	if _, err := s.Transform(mat.NewDense(1, 3, nil)); !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestNewStandardScalerFromParams(t *testing.T) {
	s, err := NewStandardScalerFromParams([]float64{1, 2}, []float64{2, 4})
	if err != nil {
		t.Fatalf("NewStandardScalerFromParams: %v", err)
	}
	Xs, err := s.Transform(mat.NewDense(1, 2, []float64{3, 10}))
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if Xs.At(0, 0) != 1 || Xs.At(0, 1) != 2 {
		t.Errorf("Transform = %v", mat.Formatted(Xs))
	}

	if _, err := NewStandardScalerFromParams([]float64{1}, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := NewStandardScalerFromParams([]float64{1}, []float64{0}); err == nil {
		t.Error("expected error for zero scale")
	}
}
