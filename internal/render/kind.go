package render

import (
	"fmt"
	"strings"

	"github.com/lilRK/PERT-Analysis/internal/cpm"
)

// Kind selects which annotations and highlighting a diagram gets.
type Kind int

const (
	ForwardPass Kind = iota
	BackwardPass
	CriticalPath
)

// Kinds lists every diagram kind in response order.
var Kinds = []Kind{ForwardPass, BackwardPass, CriticalPath}

// style is the per-kind part of a diagram; the graph and layout are shared.
type style struct {
	key      string
	title    string
	fill     string // node fill for ordinary nodes
	edge     string
	label    func(ts *cpm.Schedule) string
	emphasis bool // highlight the critical path
}

var styles = map[Kind]style{
	ForwardPass: {
		key:   "forwardPassGraph",
		title: "Forward Pass",
		fill:  "#87ceeb",
		edge:  "#333333",
		label: func(ts *cpm.Schedule) string {
			return fmt.Sprintf("ES %s / EF %s", formatNum(ts.ES), formatNum(ts.EF))
		},
	},
	BackwardPass: {
		key:   "backwardPassGraph",
		title: "Backward Pass",
		fill:  "#90ee90",
		edge:  "#333333",
		label: func(ts *cpm.Schedule) string {
			return fmt.Sprintf("LS %s / LF %s", formatNum(ts.LS), formatNum(ts.LF))
		},
	},
	CriticalPath: {
		key:   "criticalPathGraph",
		title: "Critical Path",
		fill:  "#d3d3d3",
		edge:  "#9a9a9a",
		label: func(ts *cpm.Schedule) string {
			return "slack " + formatNum(ts.Slack)
		},
		emphasis: true,
	},
}

const (
	pathFill     = "#e74c3c" // nodes on the reported critical path
	parallelFill = "#f5b7b1" // zero-slack nodes off the reported path
	pathEdge     = "#e74c3c"
)

// Key is the response field name of the diagram.
func (k Kind) Key() string { return styles[k].key }

// Title is the caption drawn on the diagram.
func (k Kind) Title() string { return styles[k].title }

func (k Kind) String() string {
	switch k {
	case ForwardPass:
		return "forward"
	case BackwardPass:
		return "backward"
	case CriticalPath:
		return "critical"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "forward", "backward", "critical" or a response key.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) || s == k.Key() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown diagram kind %q (use forward, backward or critical)", s)
}
