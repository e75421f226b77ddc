package automl

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// FeatureEncoding describes how one column becomes one matrix column.
//
// Numeric columns parse each cell as a float and use Fill (the training mean)
// for missing or unparsable cells. Categorical columns use the index of the
// cell in Levels; a value never seen during fitting encodes as -1. The empty
// string is an ordinary level for categorical columns.
type FeatureEncoding struct {
	Name    string
	Numeric bool
	Fill    float64
	Levels  []string
}

func (f FeatureEncoding) encode(v string) float64 {
	if f.Numeric {
		if x, ok := parseFloat(v); ok {
			return x
		}
		return f.Fill
	}
	i := sort.SearchStrings(f.Levels, v)
	if i < len(f.Levels) && f.Levels[i] == v {
		return float64(i)
	}
	return -1
}

// TargetEncoding describes the target column of a search.
type TargetEncoding struct {
	Numeric  bool
	Integral bool
	// Levels are the distinct present values, sorted numerically for numeric
	// targets. Numeric levels are in canonical form ("1.0" becomes "1").
	Levels []string
}

// Code returns the class code of v, or false if v is not a known level.
func (t TargetEncoding) Code(v string) (int, bool) {
	key, ok := t.key(v)
	if !ok {
		return 0, false
	}
	for i, l := range t.Levels {
		if l == key {
			return i, true
		}
	}
	return 0, false
}

// Label returns the level for a class code.
func (t TargetEncoding) Label(code int) (string, bool) {
	if code < 0 || code >= len(t.Levels) {
		return "", false
	}
	return t.Levels[code], true
}

func (t TargetEncoding) key(v string) (string, bool) {
	if isMissing(v) {
		return "", false
	}
	if !t.Numeric {
		return v, true
	}
	x, ok := parseFloat(v)
	if !ok {
		return "", false
	}
	return canonicalFloat(x), true
}

func isMissing(v string) bool { return strings.TrimSpace(v) == "" }

func parseFloat(v string) (float64, bool) {
	x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func canonicalFloat(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

// fitFeature learns the encoding of one column from the given rows.
func fitFeature(name string, values []string, rows []int) FeatureEncoding {
	numeric := true
	var sum float64
	var count int
	for _, r := range rows {
		v := values[r]
		if isMissing(v) {
			continue
		}
		x, ok := parseFloat(v)
		if !ok {
			numeric = false
			break
		}
		sum += x
		count++
	}

	if numeric {
		fill := 0.0
		if count > 0 {
			fill = sum / float64(count)
		}
		return FeatureEncoding{Name: name, Numeric: true, Fill: fill}
	}

	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[values[r]] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)
	return FeatureEncoding{Name: name, Levels: levels}
}

// analyzeTarget inspects the present target values of rows.
func analyzeTarget(values []string, rows []int) TargetEncoding {
	t := TargetEncoding{Numeric: true, Integral: true}
	nums := make(map[string]float64)
	for _, r := range rows {
		x, ok := parseFloat(values[r])
		if !ok {
			t.Numeric = false
			t.Integral = false
			break
		}
		if x != math.Trunc(x) {
			t.Integral = false
		}
		nums[canonicalFloat(x)] = x
	}

	if t.Numeric {
		t.Levels = make([]string, 0, len(nums))
		for k := range nums {
			t.Levels = append(t.Levels, k)
		}
		sort.Slice(t.Levels, func(i, j int) bool { return nums[t.Levels[i]] < nums[t.Levels[j]] })
		return t
	}

	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[values[r]] = struct{}{}
	}
	for v := range seen {
		t.Levels = append(t.Levels, v)
	}
	sort.Strings(t.Levels)
	return t
}

// encodeTable builds the design matrix of rows (all rows when rows is nil).
func encodeTable(table *dataset.Table, encs []FeatureEncoding, rows []int) (*mat.Dense, error) {
	var missing []string
	cols := make([][]string, len(encs))
	for j, enc := range encs {
		c, ok := table.Column(enc.Name)
		if !ok {
			missing = append(missing, enc.Name)
			continue
		}
		cols[j] = c.Values
	}
	if len(missing) > 0 {
		return nil, errors.NewUnknownColumnError("predict", missing...)
	}

	if rows == nil {
		rows = make([]int, table.NumRows())
		for i := range rows {
			rows[i] = i
		}
	}
	if len(rows) == 0 || len(encs) == 0 {
		return nil, errors.NewModelError("encode", "empty data", errors.ErrEmptyData)
	}

	X := mat.NewDense(len(rows), len(encs), nil)
	for i, r := range rows {
		for j, enc := range encs {
			X.Set(i, j, enc.encode(cols[j][r]))
		}
	}
	return X, nil
}
