// Package render draws the forward pass, backward pass and critical path
// diagrams of an analyzed activity graph as PNG images.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/sync/errgroup"

	"github.com/lilRK/PERT-Analysis/internal/cpm"
	"github.com/lilRK/PERT-Analysis/internal/graph"
)

// ErrTooLarge is wrapped by RenderError when a graph exceeds the size limits.
var ErrTooLarge = errors.New("graph too large to render")

// RenderError reports that one diagram could not be produced. The numeric
// analysis is unaffected.
type RenderError struct {
	Kind Kind
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s diagram: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Options controls diagram geometry and limits.
type Options struct {
	MaxNodes     int     // refuse graphs with more activities
	MaxDimension int     // refuse images wider or taller than this, in pixels
	NodeRadius   float64 // circle radius
	ColumnGap    float64 // horizontal distance between dependency levels
	RowGap       float64 // vertical distance between nodes of one level
}

// DefaultOptions returns the limits used when none are configured.
func DefaultOptions() Options {
	return Options{
		MaxNodes:     200,
		MaxDimension: 8192,
		NodeRadius:   32,
		ColumnGap:    170,
		RowGap:       120,
	}
}

const (
	margin      = 40.0
	titleHeight = 30.0
	labelHeight = 22.0
	arrowLength = 10.0
	arrowWidth  = 5.0
)

// Renderer draws diagrams. It holds only configuration and is safe for
// concurrent use.
type Renderer struct {
	opts Options
}

// New creates a Renderer; zero fields of opts take their defaults.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = def.NodeRadius
	}
	if opts.ColumnGap <= 0 {
		opts.ColumnGap = def.ColumnGap
	}
	if opts.RowGap <= 0 {
		opts.RowGap = def.RowGap
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opts }

// Diagram is one rendered image. PNG is empty when Err is set.
type Diagram struct {
	Kind Kind
	PNG  []byte
	Err  error
}

// RenderAll renders every kind concurrently. g and res are only read, and
// diagrams are returned in Kinds order, so the output matches calling Render
// once per kind. Per-diagram failures are reported in Diagram.Err; the
// returned error is only set on cancellation.
func (r *Renderer) RenderAll(ctx context.Context, g *graph.Graph, res *cpm.Result) ([]Diagram, error) {
	out := make([]Diagram, len(Kinds))
	eg, ctx := errgroup.WithContext(ctx)
	for i, kind := range Kinds {
		i, kind := i, kind
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			png, err := r.Render(kind, g, res)
			out[i] = Diagram{Kind: kind, PNG: png, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Render draws one diagram and encodes it as PNG.
func (r *Renderer) Render(kind Kind, g *graph.Graph, res *cpm.Result) ([]byte, error) {
	st, ok := styles[kind]
	if !ok {
		return nil, &RenderError{Kind: kind, Err: errors.New("unknown diagram kind")}
	}
	if g.NodeCount() > r.opts.MaxNodes {
		return nil, &RenderError{Kind: kind, Err: fmt.Errorf("%w: %d activities (limit %d)", ErrTooLarge, g.NodeCount(), r.opts.MaxNodes)}
	}

	lay := r.layout(g)
	if lay.width > r.opts.MaxDimension || lay.height > r.opts.MaxDimension {
		return nil, &RenderError{Kind: kind, Err: fmt.Errorf("%w: %dx%d pixels (limit %d)", ErrTooLarge, lay.width, lay.height, r.opts.MaxDimension)}
	}

	dc := r.draw(st, lay, g, res)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, &RenderError{Kind: kind, Err: fmt.Errorf("encode png: %w", err)}
	}
	return buf.Bytes(), nil
}

type point struct{ x, y float64 }

type layout struct {
	pos           []point
	width, height int
}

// layout places nodes in columns by dependency depth; within a column nodes
// follow topological order and the column is centered vertically.
func (r *Renderer) layout(g *graph.Graph) layout {
	depth := g.Depths()

	columns := 0
	for _, d := range depth {
		columns = max(columns, d+1)
	}
	perColumn := make([][]int, columns)
	for _, node := range g.Order {
		perColumn[depth[node]] = append(perColumn[depth[node]], node)
	}
	rows := 0
	for _, col := range perColumn {
		rows = max(rows, len(col))
	}

	rad := r.opts.NodeRadius
	lay := layout{pos: make([]point, g.NodeCount())}
	for c, col := range perColumn {
		offset := float64(rows-len(col)) * r.opts.RowGap / 2
		for row, node := range col {
			lay.pos[node] = point{
				x: margin + rad + float64(c)*r.opts.ColumnGap,
				y: margin + titleHeight + rad + offset + float64(row)*r.opts.RowGap,
			}
		}
	}

	lay.width = int(math.Ceil(2*margin + 2*rad + float64(max(columns-1, 0))*r.opts.ColumnGap))
	lay.height = int(math.Ceil(2*margin + titleHeight + 2*rad + labelHeight + float64(max(rows-1, 0))*r.opts.RowGap))
	return lay
}

func (r *Renderer) draw(st style, lay layout, g *graph.Graph, res *cpm.Result) *gg.Context {
	rad := r.opts.NodeRadius

	onPath := make(map[int]bool, len(res.CriticalPath))
	pathEdges := make(map[[2]int]bool, len(res.CriticalPath))
	for i, name := range res.CriticalPath {
		node := g.Index[name]
		onPath[node] = true
		if i > 0 {
			pathEdges[[2]int{g.Index[res.CriticalPath[i-1]], node}] = true
		}
	}

	dc := gg.NewContext(lay.width, lay.height)
	dc.SetHexColor("#ffffff")
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetHexColor("#000000")
	dc.DrawStringAnchored(fmt.Sprintf("%s (duration %s)", st.title, formatNum(res.TotalDuration)), float64(lay.width)/2, margin/2+titleHeight/2, 0.5, 0.5)

	// Edges first so nodes cover the line ends
	for u := range g.Names {
		for _, v := range g.Succ[u] {
			color, width := st.edge, 1.5
			if st.emphasis && pathEdges[[2]int{u, v}] {
				color, width = pathEdge, 3
			}
			dc.SetHexColor(color)
			dc.SetLineWidth(width)
			drawArrow(dc, lay.pos[u], lay.pos[v], rad)

			mid := point{(lay.pos[u].x + lay.pos[v].x) / 2, (lay.pos[u].y + lay.pos[v].y) / 2}
			dc.SetHexColor("#555555")
			dc.DrawStringAnchored(formatNum(res.Schedules[u].Duration), mid.x, mid.y-8, 0.5, 0.5)
		}
	}

	for node, name := range g.Names {
		p := lay.pos[node]
		ts := res.Schedules[node]

		fill := st.fill
		if st.emphasis {
			switch {
			case onPath[node]:
				fill = pathFill
			case ts.IsCritical:
				fill = parallelFill
			}
		}
		dc.DrawCircle(p.x, p.y, rad)
		dc.SetHexColor(fill)
		dc.FillPreserve()
		dc.SetHexColor("#333333")
		dc.SetLineWidth(1.5)
		dc.Stroke()

		dc.SetHexColor("#000000")
		dc.DrawStringAnchored(truncate(name, int(2*rad/7)), p.x, p.y, 0.5, 0.5)
		dc.DrawStringAnchored(st.label(ts), p.x, p.y+rad+labelHeight/2, 0.5, 0.5)
	}

	return dc
}

// drawArrow strokes a line between two node circles and fills an arrowhead
// at the target, using the current color.
func drawArrow(dc *gg.Context, from, to point, rad float64) {
	dx, dy := to.x-from.x, to.y-from.y
	dist := math.Hypot(dx, dy)
	if dist <= 2*rad {
		return
	}
	ux, uy := dx/dist, dy/dist
	start := point{from.x + ux*rad, from.y + uy*rad}
	end := point{to.x - ux*rad, to.y - uy*rad}

	dc.DrawLine(start.x, start.y, end.x, end.y)
	dc.Stroke()

	base := point{end.x - ux*arrowLength, end.y - uy*arrowLength}
	dc.MoveTo(end.x, end.y)
	dc.LineTo(base.x-uy*arrowWidth, base.y+ux*arrowWidth)
	dc.LineTo(base.x+uy*arrowWidth, base.y-ux*arrowWidth)
	dc.ClosePath()
	dc.Fill()
}

// formatNum prints a time with at most two decimals.
func formatNum(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
