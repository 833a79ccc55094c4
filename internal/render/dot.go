package render

import (
	"bufio"
	"fmt"
	"io"

	"github.com/lilRK/PERT-Analysis/internal/cpm"
	"github.com/lilRK/PERT-Analysis/internal/graph"
)

// WriteDOT writes the annotated graph as Graphviz DOT using the same labels
// and highlighting as the raster diagram of kind.
func WriteDOT(w io.Writer, kind Kind, g *graph.Graph, res *cpm.Result) error {
	st, ok := styles[kind]
	if !ok {
		return fmt.Errorf("unknown diagram kind %d", int(kind))
	}

	onPath := make(map[int]bool)
	pathEdges := make(map[[2]int]bool)
	for i, name := range res.CriticalPath {
		onPath[g.Index[name]] = true
		if i > 0 {
			pathEdges[[2]int{g.Index[res.CriticalPath[i-1]], g.Index[name]}] = true
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %q {\n", st.title)
	fmt.Fprintln(bw, "  rankdir=LR;")
	fmt.Fprintf(bw, "  node [shape=circle, style=filled, fillcolor=%q];\n", st.fill)
	fmt.Fprintln(bw)

	for node, name := range g.Names {
		ts := res.Schedules[node]
		attrs := fmt.Sprintf(`label="%s\n%s"`, escapeDOT(name), st.label(ts))
		if st.emphasis {
			switch {
			case onPath[node]:
				attrs += fmt.Sprintf(`, fillcolor=%q, penwidth=2`, pathFill)
			case ts.IsCritical:
				attrs += fmt.Sprintf(`, fillcolor=%q`, parallelFill)
			}
		}
		fmt.Fprintf(bw, "  %q [%s];\n", name, attrs)
	}

	fmt.Fprintln(bw)

	for u, succ := range g.Succ {
		for _, v := range succ {
			attrs := fmt.Sprintf(`label=%q`, formatNum(res.Schedules[u].Duration))
			if st.emphasis && pathEdges[[2]int{u, v}] {
				attrs += fmt.Sprintf(`, color=%q, penwidth=2`, pathEdge)
			}
			fmt.Fprintf(bw, "  %q -> %q [%s];\n", g.Names[u], g.Names[v], attrs)
		}
	}

	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func escapeDOT(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
