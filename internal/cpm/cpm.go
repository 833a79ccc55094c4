package cpm

import (
	"fmt"
	"math"
	"sort"

	"github.com/lilRK/PERT-Analysis/internal/estimate"
	"github.com/lilRK/PERT-Analysis/internal/graph"
)

// Analyze performs critical path method analysis on an activity graph.
// ests[i] is the estimate of node i.
func Analyze(g *graph.Graph, ests []estimate.Estimate) (*Result, error) {
	if len(ests) != g.NodeCount() {
		return nil, fmt.Errorf("cpm: %d estimates for %d activities", len(ests), g.NodeCount())
	}

	result := &Result{
		Schedules: make([]*Schedule, g.NodeCount()),
		TopoOrder: make([]string, 0, len(g.Order)),
		index:     g.Index,
	}
	for i, name := range g.Names {
		result.Schedules[i] = &Schedule{
			Activity: name,
			Duration: ests[i].Expected,
			Variance: ests[i].Variance,
		}
	}
	for _, node := range g.Order {
		result.TopoOrder = append(result.TopoOrder, g.Names[node])
	}

	// Forward pass: ES = max(EF of all predecessors)
	for _, node := range g.Order {
		ts := result.Schedules[node]
		es := 0.0
		for _, pred := range g.Pred[node] {
			if ef := result.Schedules[pred].EF; ef > es {
				es = ef
			}
		}
		ts.ES = es
		ts.EF = es + ts.Duration
		if math.IsInf(ts.EF, 0) {
			return nil, &estimate.InvalidEstimateError{
				Activity: ts.Activity,
				Reason:   "earliest finish overflows the representable range",
			}
		}
	}

	// Total project duration
	total := 0.0
	for _, node := range g.Sinks {
		if ef := result.Schedules[node].EF; ef > total {
			total = ef
		}
	}
	result.TotalDuration = total
	tol := Epsilon * math.Max(1, total)

	// Backward pass: sinks finish with the project, others before their earliest successor
	for i := len(g.Order) - 1; i >= 0; i-- {
		node := g.Order[i]
		ts := result.Schedules[node]

		lf := total
		for _, succ := range g.Succ[node] {
			if ls := result.Schedules[succ].LS; ls < lf {
				lf = ls
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Duration

		ts.Slack = ts.LS - ts.ES
		if ts.Slack < -tol {
			return nil, &ConsistencyError{
				Activity: ts.Activity,
				Reason:   fmt.Sprintf("negative slack %g (ES=%g, LS=%g)", ts.Slack, ts.ES, ts.LS),
			}
		}
		if math.Abs(ts.Slack) <= tol {
			ts.Slack = 0
			ts.LS = ts.ES
			ts.LF = ts.EF
			ts.IsCritical = true
		}
	}

	maxLF := 0.0
	for _, ts := range result.Schedules {
		maxLF = math.Max(maxLF, ts.LF)
	}
	if math.Abs(maxLF-total) > tol {
		return nil, &ConsistencyError{Reason: fmt.Sprintf("backward pass ends at %g, forward pass at %g", maxLF, total)}
	}

	for _, node := range g.Order {
		if result.Schedules[node].IsCritical {
			result.CriticalActivities = append(result.CriticalActivities, g.Names[node])
		}
	}

	path, err := selectCriticalPath(g, result, tol)
	if err != nil {
		return nil, err
	}
	for _, node := range path {
		result.CriticalPath = append(result.CriticalPath, g.Names[node])
		result.PathVariance += result.Schedules[node].Variance
	}
	if math.IsInf(result.PathVariance, 0) {
		return nil, &estimate.InvalidEstimateError{
			Activity: result.CriticalPath[len(result.CriticalPath)-1],
			Reason:   "critical path variance overflows the representable range",
		}
	}

	result.Waves = computeWaves(g, result, tol)

	return result, nil
}

// selectCriticalPath walks one zero-slack chain from a source to a sink.
// At every branch the earliest submitted critical activity wins; only
// successors that start exactly when the current activity finishes qualify.
func selectCriticalPath(g *graph.Graph, result *Result, tol float64) ([]int, error) {
	cur := -1
	for _, src := range g.Sources {
		if result.Schedules[src].IsCritical {
			cur = src
			break
		}
	}
	if cur < 0 {
		return nil, &ConsistencyError{Reason: "no source activity has zero slack"}
	}

	path := []int{cur}
	for len(g.Succ[cur]) > 0 {
		next := -1
		for _, succ := range g.Succ[cur] {
			ss := result.Schedules[succ]
			if ss.IsCritical && math.Abs(ss.ES-result.Schedules[cur].EF) <= tol {
				next = succ
				break
			}
		}
		if next < 0 {
			return nil, &ConsistencyError{Activity: g.Names[cur], Reason: "critical activity has no critical successor"}
		}
		path = append(path, next)
		cur = next
	}

	if end := result.Schedules[cur].EF; math.Abs(end-result.TotalDuration) > tol {
		return nil, &ConsistencyError{
			Activity: g.Names[cur],
			Reason:   fmt.Sprintf("critical path ends at %g, project duration is %g", end, result.TotalDuration),
		}
	}
	return path, nil
}

// computeWaves groups activities by their earliest start time.
func computeWaves(g *graph.Graph, result *Result, tol float64) []Wave {
	nodes := append([]int(nil), g.Order...)
	sort.SliceStable(nodes, func(a, b int) bool {
		return result.Schedules[nodes[a]].ES < result.Schedules[nodes[b]].ES
	})

	var groups [][]int
	for i, node := range nodes {
		if i == 0 || result.Schedules[node].ES-result.Schedules[nodes[i-1]].ES > tol {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], node)
	}

	waves := make([]Wave, len(groups))
	for i, members := range groups {
		sort.Ints(members)
		// Critical activities first within a wave
		sort.SliceStable(members, func(a, b int) bool {
			return result.Schedules[members[a]].IsCritical && !result.Schedules[members[b]].IsCritical
		})

		w := Wave{Index: i, Start: result.Schedules[members[0]].ES}
		for _, node := range members {
			ts := result.Schedules[node]
			ts.Wave = i
			w.Activities = append(w.Activities, ts.Activity)
			if ts.IsCritical {
				w.IsCritical = true
			}
		}
		waves[i] = w
	}
	return waves
}

// Schedule returns the schedule of the named activity, or nil.
func (r *Result) Schedule(name string) *Schedule {
	i, ok := r.index[name]
	if !ok {
		return nil
	}
	return r.Schedules[i]
}

// OnCriticalPath reports whether name is part of the selected critical path.
func (r *Result) OnCriticalPath(name string) bool {
	for _, n := range r.CriticalPath {
		if n == name {
			return true
		}
	}
	return false
}

// PathStdDev is the standard deviation of the project duration along the
// selected critical path.
func (r *Result) PathStdDev() float64 {
	return math.Sqrt(r.PathVariance)
}

// CompletionProbability estimates the chance of finishing by deadline,
// treating the critical path duration as normally distributed.
func (r *Result) CompletionProbability(deadline float64) float64 {
	sigma := r.PathStdDev()
	if sigma == 0 {
		if deadline >= r.TotalDuration-Epsilon*math.Max(1, r.TotalDuration) {
			return 1
		}
		return 0
	}
	z := (deadline - r.TotalDuration) / sigma
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}
