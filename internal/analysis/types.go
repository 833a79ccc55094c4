package analysis

import (
	"errors"

	"github.com/lilRK/PERT-Analysis/internal/cpm"
	"github.com/lilRK/PERT-Analysis/internal/graph"
	"github.com/lilRK/PERT-Analysis/internal/render"
)

// ErrInternal is returned when the computed schedule is inconsistent. The
// cause is logged; callers should show a generic failure.
var ErrInternal = errors.New("internal analysis failure")

// ValidationError is implemented by every request-level validation failure:
// duplicate names, unknown precedents, cycles, invalid estimates, blank names
// and empty projects.
type ValidationError interface {
	error
	Kind() string
	ActivityName() string
}

// AsValidation extracts the validation failure from err, if any.
func AsValidation(err error) (ValidationError, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Report is the complete result of one analysis request.
type Report struct {
	TotalDuration         float64          `json:"total_duration"`
	CriticalPath          []string         `json:"critical_path"`
	CriticalActivities    []string         `json:"critical_activities"`
	StdDev                float64          `json:"standard_deviation"`
	Deadline              *float64         `json:"deadline,omitempty"`
	CompletionProbability *float64         `json:"completion_probability,omitempty"`
	Activities            []ActivityReport `json:"activities"`
	Waves                 []cpm.Wave       `json:"waves"`
	Warnings              []string         `json:"warnings,omitempty"`

	Diagrams []render.Diagram `json:"-"`
	Graph    *graph.Graph     `json:"-"`
	Result   *cpm.Result      `json:"-"`
}

// ActivityReport combines an activity's estimate with its schedule.
type ActivityReport struct {
	Name        string  `json:"name"`
	Optimistic  float64 `json:"optimistic"`
	MostLikely  float64 `json:"most_likely"`
	Pessimistic float64 `json:"pessimistic"`
	Expected    float64 `json:"expected"`
	Variance    float64 `json:"variance"`
	ES          float64 `json:"es"`
	EF          float64 `json:"ef"`
	LS          float64 `json:"ls"`
	LF          float64 `json:"lf"`
	Slack       float64 `json:"slack"`
	Critical    bool    `json:"critical"`
	OnPath      bool    `json:"on_critical_path"`
	Wave        int     `json:"wave"`
}

// Diagram returns the PNG of kind, or nil if it was not rendered.
func (r *Report) Diagram(kind render.Kind) []byte {
	for _, d := range r.Diagrams {
		if d.Kind == kind {
			return d.PNG
		}
	}
	return nil
}

// RenderErrors returns the failed diagrams.
func (r *Report) RenderErrors() map[render.Kind]error {
	out := make(map[render.Kind]error)
	for _, d := range r.Diagrams {
		if d.Err != nil {
			out[d.Kind] = d.Err
		}
	}
	return out
}

// Partial reports whether any diagram failed to render.
func (r *Report) Partial() bool {
	return len(r.RenderErrors()) > 0
}
