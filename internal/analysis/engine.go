// Package analysis runs the full PERT/CPM pipeline for one request: graph
// construction, estimates, forward and backward passes, critical path
// selection and diagram rendering.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lilRK/PERT-Analysis/internal/cpm"
	"github.com/lilRK/PERT-Analysis/internal/estimate"
	"github.com/lilRK/PERT-Analysis/internal/graph"
	"github.com/lilRK/PERT-Analysis/internal/intake"
	"github.com/lilRK/PERT-Analysis/internal/render"
)

// Engine analyzes activity networks. It keeps no per-request state, so one
// Engine can serve concurrent requests.
type Engine struct {
	logger   *zap.Logger
	renderer *render.Renderer
}

// New creates an Engine. A nil logger disables logging.
func New(logger *zap.Logger, renderer *render.Renderer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = render.New(render.DefaultOptions())
	}
	return &Engine{logger: logger, renderer: renderer}
}

// Analyze computes the schedule and renders all three diagrams. Diagram
// failures leave the numeric report intact.
func (e *Engine) Analyze(ctx context.Context, req *intake.Request) (*Report, error) {
	report, err := e.Schedule(ctx, req)
	if err != nil {
		return nil, err
	}

	diagrams, err := e.renderer.RenderAll(ctx, report.Graph, report.Result)
	if err != nil {
		return nil, fmt.Errorf("render diagrams: %w", err)
	}
	for _, d := range diagrams {
		if d.Err != nil {
			e.logger.Warn("diagram not rendered",
				zap.String("diagram", d.Kind.Key()),
				zap.Int("activities", report.Graph.NodeCount()),
				zap.Error(d.Err))
		}
	}
	report.Diagrams = diagrams

	return report, nil
}

// Schedule runs every step except rendering.
func (e *Engine) Schedule(ctx context.Context, req *intake.Request) (*Report, error) {
	g, err := graph.Build(req.Activities)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ests, err := estimate.ForActivities(req.Activities)
	if err != nil {
		return nil, err
	}

	var warnings []string
	for i, est := range ests {
		if !est.Ordered() {
			msg := fmt.Sprintf("activity %q: estimates are not ordered optimistic <= most likely <= pessimistic (%g, %g, %g)",
				g.Names[i], est.Optimistic, est.MostLikely, est.Pessimistic)
			warnings = append(warnings, msg)
			e.logger.Debug("unordered estimate accepted", zap.String("activity", g.Names[i]))
		}
	}

	result, err := cpm.Analyze(g, ests)
	if err != nil {
		if _, ok := AsValidation(err); ok {
			return nil, err
		}
		var ce *cpm.ConsistencyError
		if errors.As(err, &ce) {
			e.logger.Error("schedule consistency check failed",
				zap.String("activity", ce.Activity),
				zap.Int("activities", g.NodeCount()),
				zap.Int("edges", g.EdgeCount()),
				zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		TotalDuration:      result.TotalDuration,
		CriticalPath:       result.CriticalPath,
		CriticalActivities: result.CriticalActivities,
		StdDev:             result.PathStdDev(),
		Deadline:           req.Deadline,
		Waves:              result.Waves,
		Warnings:           warnings,
		Graph:              g,
		Result:             result,
	}
	if req.Deadline != nil {
		p := result.CompletionProbability(*req.Deadline)
		report.CompletionProbability = &p
	}

	for i, ts := range result.Schedules {
		report.Activities = append(report.Activities, ActivityReport{
			Name:        ts.Activity,
			Optimistic:  ests[i].Optimistic,
			MostLikely:  ests[i].MostLikely,
			Pessimistic: ests[i].Pessimistic,
			Expected:    ests[i].Expected,
			Variance:    ests[i].Variance,
			ES:          ts.ES,
			EF:          ts.EF,
			LS:          ts.LS,
			LF:          ts.LF,
			Slack:       ts.Slack,
			Critical:    ts.IsCritical,
			OnPath:      result.OnCriticalPath(ts.Activity),
			Wave:        ts.Wave,
		})
	}

	e.logger.Debug("schedule computed",
		zap.Int("activities", g.NodeCount()),
		zap.Float64("duration", result.TotalDuration),
		zap.Strings("critical_path", result.CriticalPath))

	return report, nil
}
