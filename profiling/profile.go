// Package profiling produces descriptive reports of a dataset.
package profiling

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/automl/dataset"
	"github.com/YuminosukeSato/automl/pkg/errors"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	Numeric     ColumnType = "numeric"
	Categorical ColumnType = "categorical"
	Empty       ColumnType = "empty"
)

// Warning kinds.
const (
	WarnConstant    = "constant"
	WarnHighMissing = "high_missing"
	WarnUnique      = "unique"
	WarnEmpty       = "empty"
)

// NumericSummary holds the statistics of a numeric column.
type NumericSummary struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// CategoricalSummary holds the most frequent value of a categorical column.
type CategoricalSummary struct {
	Top  string `json:"top"`
	Freq int    `json:"freq"`
}

// ColumnProfile describes one column.
type ColumnProfile struct {
	Name           string              `json:"name"`
	Type           ColumnType          `json:"type"`
	Count          int                 `json:"count"`
	Missing        int                 `json:"missing"`
	MissingPercent float64             `json:"missing_percent"`
	Distinct       int                 `json:"distinct"`
	Numeric        *NumericSummary     `json:"numeric,omitempty"`
	Categorical    *CategoricalSummary `json:"categorical,omitempty"`
}

// Warning flags a column that is likely a poor feature.
type Warning struct {
	Column  string `json:"column"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Report is the descriptive report of a table.
type Report struct {
	Rows           int             `json:"rows"`
	Columns        int             `json:"columns"`
	MissingCells   int             `json:"missing_cells"`
	MissingPercent float64         `json:"missing_percent"`
	DuplicateRows  int             `json:"duplicate_rows"`
	Profiles       []ColumnProfile `json:"profiles"`
	Warnings       []Warning       `json:"warnings"`
}

// Profile returns the profile of the named column, or nil.
func (r *Report) Profile(name string) *ColumnProfile {
	for i := range r.Profiles {
		if r.Profiles[i].Name == name {
			return &r.Profiles[i]
		}
	}
	return nil
}

// Profiler builds reports and histograms.
type Profiler struct {
	// HighMissingRatio is the missing ratio above which a column is flagged.
	HighMissingRatio float64
	// Bins is the default histogram bin count.
	Bins int
	// Width and Height are the histogram image size.
	Width, Height vg.Length
}

// New returns a Profiler with a 50% missing threshold, 20 bins and a 6x4 inch image.
func New() *Profiler {
	return &Profiler{
		HighMissingRatio: 0.5,
		Bins:             20,
		Width:            6 * vg.Inch,
		Height:           4 * vg.Inch,
	}
}

// Profile builds the report of t.
func (p *Profiler) Profile(t *dataset.Table) (*Report, error) {
	if t == nil || t.NumColumns() == 0 {
		return nil, errors.NewEmptyDatasetError("profile")
	}

	rows, cols := t.Shape()
	rep := &Report{
		Rows:          rows,
		Columns:       cols,
		DuplicateRows: duplicateRows(t),
		Profiles:      make([]ColumnProfile, 0, cols),
		Warnings:      []Warning{},
	}

	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		prof := profileColumn(col)
		rep.MissingCells += prof.Missing
		rep.Profiles = append(rep.Profiles, prof)
		rep.Warnings = append(rep.Warnings, p.warnings(prof)...)
	}
	if rows > 0 {
		rep.MissingPercent = 100 * float64(rep.MissingCells) / float64(rows*cols)
	}
	return rep, nil
}

func (p *Profiler) warnings(prof ColumnProfile) []Warning {
	var out []Warning
	if prof.Type == Empty {
		return append(out, Warning{Column: prof.Name, Kind: WarnEmpty, Message: "column has no values"})
	}
	if prof.Distinct == 1 {
		out = append(out, Warning{Column: prof.Name, Kind: WarnConstant, Message: "column has a single distinct value"})
	}
	if total := prof.Count + prof.Missing; total > 0 && float64(prof.Missing)/float64(total) > p.HighMissingRatio {
		out = append(out, Warning{
			Column:  prof.Name,
			Kind:    WarnHighMissing,
			Message: fmt.Sprintf("%.1f%% of values are missing", prof.MissingPercent),
		})
	}
	if prof.Type == Categorical && prof.Count > 1 && prof.Distinct == prof.Count {
		out = append(out, Warning{Column: prof.Name, Kind: WarnUnique, Message: "every value is distinct, column looks like an identifier"})
	}
	return out
}

func profileColumn(col dataset.Column) ColumnProfile {
	prof := ColumnProfile{Name: col.Name}
	present := make([]string, 0, len(col.Values))
	for _, v := range col.Values {
		if strings.TrimSpace(v) == "" {
			prof.Missing++
			continue
		}
		present = append(present, v)
	}
	prof.Count = len(present)
	if n := len(col.Values); n > 0 {
		prof.MissingPercent = 100 * float64(prof.Missing) / float64(n)
	}
	if prof.Count == 0 {
		prof.Type = Empty
		return prof
	}

	if nums, ok := parseAll(present); ok {
		prof.Type = Numeric
		prof.Numeric = summarize(nums)
		distinct := make(map[float64]struct{}, len(nums))
		for _, x := range nums {
			distinct[x] = struct{}{}
		}
		prof.Distinct = len(distinct)
		return prof
	}

	prof.Type = Categorical
	freq := make(map[string]int)
	for _, v := range present {
		freq[v]++
	}
	prof.Distinct = len(freq)
	top := &CategoricalSummary{}
	for v, n := range freq {
		if n > top.Freq || (n == top.Freq && v < top.Top) {
			top.Top, top.Freq = v, n
		}
	}
	prof.Categorical = top
	return prof
}

func parseAll(values []string) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, false
		}
		out[i] = x
	}
	return out, true
}

func summarize(x []float64) *NumericSummary {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	s := &NumericSummary{
		Min: floats.Min(sorted),
		Max: floats.Max(sorted),
	}
	if len(sorted) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		s.Median = sorted[mid]
	}
	return s
}

func duplicateRows(t *dataset.Table) int {
	seen := make(map[string]struct{}, t.NumRows())
	dups := 0
	for i := 0; i < t.NumRows(); i++ {
		key := strings.Join(t.Row(i), "\x1f")
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}

// Histogram renders a PNG histogram of a numeric column to w. Missing values
// are skipped. bins <= 0 uses the profiler default.
func (p *Profiler) Histogram(t *dataset.Table, column string, bins int, w io.Writer) error {
	if t == nil {
		return errors.NewEmptyDatasetError("histogram")
	}
	col, ok := t.Column(column)
	if !ok {
		return errors.NewUnknownColumnError("histogram", column)
	}

	var present []string
	for _, v := range col.Values {
		if strings.TrimSpace(v) != "" {
			present = append(present, v)
		}
	}
	values, numeric := parseAll(present)
	if !numeric {
		return errors.NewValueError("Histogram", fmt.Sprintf("column %q is not numeric", column))
	}
	if len(values) == 0 {
		return errors.NewValueError("Histogram", fmt.Sprintf("column %q has no values", column))
	}
	if bins <= 0 {
		bins = p.Bins
	}

	plt := plot.New()
	plt.Title.Text = column
	plt.X.Label.Text = column
	plt.Y.Label.Text = "count"

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return errors.Wrapf(err, "automl: failed to build histogram of %s", column)
	}
	plt.Add(hist)

	wt, err := plt.WriterTo(p.Width, p.Height, "png")
	if err != nil {
		return errors.Wrap(err, "automl: failed to render histogram")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "automl: failed to write histogram")
	}
	return nil
}
