package cpm

import "fmt"

// Epsilon is the relative tolerance used when comparing computed times.
const Epsilon = 1e-9

// Result holds the complete critical path analysis.
type Result struct {
	Schedules          []*Schedule // indexed like graph.Graph.Names
	CriticalPath       []string    // one complete source-to-sink path, in execution order
	CriticalActivities []string    // every zero-slack activity, topological order
	TotalDuration      float64
	PathVariance       float64 // sum of variances along CriticalPath
	Waves              []Wave  // activities grouped by earliest start
	TopoOrder          []string

	index map[string]int
}

// Schedule holds the timing window of a single activity.
type Schedule struct {
	Activity   string  `json:"name"`
	Duration   float64 `json:"expected"`
	Variance   float64 `json:"variance"`
	ES         float64 `json:"es"` // earliest start
	EF         float64 `json:"ef"` // earliest finish
	LS         float64 `json:"ls"` // latest start
	LF         float64 `json:"lf"` // latest finish
	Slack      float64 `json:"slack"`
	IsCritical bool    `json:"critical"`
	Wave       int     `json:"wave"`
}

// Wave is a group of activities that can all start at the same earliest time.
type Wave struct {
	Index      int      `json:"index"`
	Start      float64  `json:"start"`
	Activities []string `json:"activities"`
	IsCritical bool     `json:"is_critical"` // true if the wave contains critical activities
}

// ConsistencyError means the pass results contradict each other. It points
// at a defect in the pass logic, never at the caller's data.
type ConsistencyError struct {
	Activity string
	Reason   string
}

func (e *ConsistencyError) Error() string {
	if e.Activity == "" {
		return "cpm consistency failure: " + e.Reason
	}
	return fmt.Sprintf("cpm consistency failure at %q: %s", e.Activity, e.Reason)
}
