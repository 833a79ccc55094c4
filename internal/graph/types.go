package graph

import (
	"fmt"
	"strings"
)

// Graph is a directed acyclic graph of activities stored as an arena.
// Node i is the i-th submitted activity; edges are index lists.
type Graph struct {
	Names   []string       // node index -> activity name
	Index   map[string]int // activity name -> node index
	Succ    [][]int        // node -> nodes that depend on it, ascending
	Pred    [][]int        // node -> nodes it depends on, ascending
	Order   []int          // topological order, predecessors first
	Sources []int          // nodes with no predecessors, ascending
	Sinks   []int          // nodes with no successors, ascending
}

// ErrEmptyProject is returned when no activities were submitted.
var ErrEmptyProject error = emptyProjectError{}

type emptyProjectError struct{}

func (emptyProjectError) Error() string        { return "no activities submitted" }
func (emptyProjectError) Kind() string         { return "EmptyProjectError" }
func (emptyProjectError) ActivityName() string { return "" }

// DuplicateActivityNameError reports a name submitted more than once.
type DuplicateActivityNameError struct {
	Activity string
}

func (e *DuplicateActivityNameError) Error() string {
	return fmt.Sprintf("duplicate activity name %q", e.Activity)
}

func (e *DuplicateActivityNameError) Kind() string         { return "DuplicateActivityNameError" }
func (e *DuplicateActivityNameError) ActivityName() string { return e.Activity }

// InvalidActivityNameError reports a blank activity name.
type InvalidActivityNameError struct {
	Position int // 1-based submission position
}

func (e *InvalidActivityNameError) Error() string {
	return fmt.Sprintf("activity #%d has a blank name", e.Position)
}

func (e *InvalidActivityNameError) Kind() string         { return "InvalidActivityNameError" }
func (e *InvalidActivityNameError) ActivityName() string { return "" }

// UnknownPrecedentError reports a precedent that names no submitted activity.
type UnknownPrecedentError struct {
	Activity  string
	Precedent string
}

func (e *UnknownPrecedentError) Error() string {
	return fmt.Sprintf("activity %q depends on unknown activity %q", e.Activity, e.Precedent)
}

func (e *UnknownPrecedentError) Kind() string         { return "UnknownPrecedentError" }
func (e *UnknownPrecedentError) ActivityName() string { return e.Activity }

// CyclicDependencyError reports a dependency cycle. Cycle starts and ends
// with the same activity.
type CyclicDependencyError struct {
	Activity string
	Cycle    []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Kind() string         { return "CyclicDependencyError" }
func (e *CyclicDependencyError) ActivityName() string { return e.Activity }
