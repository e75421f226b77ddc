package automl

import (
	"strings"

	"github.com/YuminosukeSato/automl/pkg/errors"
)

// Kind is the family of a model search.
type Kind string

const (
	Classification Kind = "classification"
	Regression     Kind = "regression"
)

// Kinds lists every kind in search order.
var Kinds = []Kind{Classification, Regression}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Classification:
		return Classification, nil
	case Regression:
		return Regression, nil
	default:
		return "", errors.NewValidationError("kind", "must be classification or regression", s)
	}
}

func (k Kind) String() string { return string(k) }
