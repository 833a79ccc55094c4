// Package estimate turns three-point activity estimates into PERT expected
// durations and variances.
package estimate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lilRK/PERT-Analysis/internal/intake"
)

// Estimate is a parsed three-point estimate with its PERT statistics.
type Estimate struct {
	Optimistic  float64 `json:"optimistic"`
	MostLikely  float64 `json:"most_likely"`
	Pessimistic float64 `json:"pessimistic"`
	Expected    float64 `json:"expected"`
	Variance    float64 `json:"variance"`
}

// InvalidEstimateError reports a time that is missing, non-numeric or not
// positive, or estimates whose durations overflow float64.
type InvalidEstimateError struct {
	Activity string
	Field    string // "optimistic", "most likely" or "pessimistic"; empty when Reason is set
	Value    string
	Reason   string
}

func (e *InvalidEstimateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("activity %q: %s", e.Activity, e.Reason)
	}
	return fmt.Sprintf("activity %q: %s time %q must be a positive number", e.Activity, e.Field, e.Value)
}

func (e *InvalidEstimateError) Kind() string         { return "InvalidEstimateError" }
func (e *InvalidEstimateError) ActivityName() string { return e.Activity }

// Compute applies E = (O + 4M + P) / 6 and V = ((P - O) / 6)^2.
func Compute(o, m, p float64) Estimate {
	spread := (p - o) / 6
	return Estimate{
		Optimistic:  o,
		MostLikely:  m,
		Pessimistic: p,
		Expected:    (o + 4*m + p) / 6,
		Variance:    spread * spread,
	}
}

// Parse validates the submitted times of one activity and computes its estimate.
func Parse(activity, o, m, p string) (Estimate, error) {
	var vals [3]float64
	for i, f := range []struct{ name, raw string }{
		{"optimistic", o},
		{"most likely", m},
		{"pessimistic", p},
	} {
		v, err := parsePositive(f.raw)
		if err != nil {
			return Estimate{}, &InvalidEstimateError{Activity: activity, Field: f.name, Value: f.raw}
		}
		vals[i] = v
	}
	est := Compute(vals[0], vals[1], vals[2])
	if !finite(est.Expected) || !finite(est.Variance) {
		return Estimate{}, &InvalidEstimateError{
			Activity: activity,
			Reason:   fmt.Sprintf("estimates (%s, %s, %s) overflow the expected duration or variance", o, m, p),
		}
	}
	return est, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parsePositive(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) || v <= 0 {
		return 0, fmt.Errorf("out of range: %v", v)
	}
	return v, nil
}

// StdDev is (P - O) / 6.
func (e Estimate) StdDev() float64 {
	return math.Sqrt(e.Variance)
}

// Ordered reports whether O <= M <= P. Unordered estimates are accepted.
func (e Estimate) Ordered() bool {
	return e.Optimistic <= e.MostLikely && e.MostLikely <= e.Pessimistic
}

// ForActivities parses every activity's estimate, indexed like the input.
func ForActivities(acts []intake.Activity) ([]Estimate, error) {
	out := make([]Estimate, len(acts))
	for i, a := range acts {
		est, err := Parse(a.Name, a.Optimistic, a.MostLikely, a.Pessimistic)
		if err != nil {
			return nil, err
		}
		out[i] = est
	}
	return out, nil
}
