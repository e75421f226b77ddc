package automl

import (
	"time"
)

// Entry is one row of a leaderboard.
type Entry struct {
	Rank       int                `json:"rank"`
	Model      string             `json:"model"`
	Score      float64            `json:"score"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Failed     bool               `json:"failed"`
	Error      string             `json:"error,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// KindResult is the outcome of the search for one kind.
type KindResult struct {
	Kind        Kind      `json:"kind"`
	Skipped     bool      `json:"skipped"`
	Reason      string    `json:"reason,omitempty"`
	Metric      string    `json:"metric,omitempty"`
	Leaderboard []Entry   `json:"leaderboard,omitempty"`
	Best        *Artifact `json:"-"`
}

// Result is the outcome of one search.
type Result struct {
	RunID         string       `json:"run_id"`
	Target        string       `json:"target"`
	Features      []string     `json:"features"`
	Ignored       []string     `json:"ignored"`
	TrainFraction float64      `json:"train_fraction"`
	TestFraction  float64      `json:"test_fraction"`
	TrainRows     int          `json:"train_rows"`
	TestRows      int          `json:"test_rows"`
	DroppedRows   int          `json:"dropped_rows"`
	Kinds         []KindResult `json:"kinds"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Kind returns the result for k, or nil.
func (r *Result) Kind(k Kind) *KindResult {
	for i := range r.Kinds {
		if r.Kinds[i].Kind == k {
			return &r.Kinds[i]
		}
	}
	return nil
}

// Best returns the best artifact of k, or nil if k was skipped or every candidate failed.
func (r *Result) Best(k Kind) *Artifact {
	if kr := r.Kind(k); kr != nil {
		return kr.Best
	}
	return nil
}

// Artifacts returns the best artifact of every kind that produced one.
func (r *Result) Artifacts() []*Artifact {
	var out []*Artifact
	for _, kr := range r.Kinds {
		if kr.Best != nil {
			out = append(out, kr.Best)
		}
	}
	return out
}
