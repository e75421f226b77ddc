package linear

// RidgeOption is a function that configures Ridge
type RidgeOption func(*Ridge)

// WithAlpha sets the L2 regularization strength. Must be positive.
func WithAlpha(alpha float64) RidgeOption {
	return func(r *Ridge) {
		r.Alpha = alpha
	}
}

// WithFitIntercept sets whether to calculate the intercept
func WithFitIntercept(fit bool) RidgeOption {
	return func(r *Ridge) {
		r.FitIntercept = fit
	}
}
