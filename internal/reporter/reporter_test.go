package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lilRK/PERT-Analysis/internal/analysis"
	"github.com/lilRK/PERT-Analysis/internal/intake"
	"github.com/lilRK/PERT-Analysis/internal/render"
)

func makeReport(t *testing.T) *analysis.Report {
	t.Helper()
	deadline := 12.0
	req := &intake.Request{
		Activities: []intake.Activity{
			{Name: "A", Optimistic: "5", MostLikely: "5", Pessimistic: "5"},
			{Name: "B", Optimistic: "4", MostLikely: "5", Pessimistic: "6", Precedents: []string{"A"}},
			{Name: "C", Optimistic: "2", MostLikely: "2", Pessimistic: "2", Precedents: []string{"A"}},
		},
		Deadline: &deadline,
	}
	report, err := analysis.New(nil, nil).Schedule(context.Background(), req)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return report
}

func TestPrintSummary(t *testing.T) {
	rpt := New(makeReport(t), "project.yaml")

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	output := buf.String()

	for _, want := range []string{"PERT Analysis", "project.yaml", "completed", "Duration:", "10", "Wave", "Deadline:"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if !strings.Contains(output, "A → B") {
		t.Error("expected critical path A → B")
	}
}

func TestPrintSummary_RenderErrors(t *testing.T) {
	report := makeReport(t)
	report.Diagrams = []render.Diagram{
		{Kind: render.ForwardPass, PNG: []byte{1}},
		{Kind: render.CriticalPath, Err: errors.New("boom")},
	}
	rpt := New(report, "x")

	if rpt.Status() != "partial" {
		t.Errorf("expected partial status, got %q", rpt.Status())
	}

	var buf bytes.Buffer
	rpt.PrintSummary(&buf)
	if !strings.Contains(buf.String(), "Diagrams not rendered") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected render failure in output:\n%s", buf.String())
	}
}

func TestJSON(t *testing.T) {
	rpt := New(makeReport(t), "x")

	data, err := rpt.JSON()
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result["status"] != "completed" {
		t.Errorf("expected status 'completed', got %v", result["status"])
	}
	if result["total_duration"] != 10.0 {
		t.Errorf("expected total_duration 10, got %v", result["total_duration"])
	}
	if _, ok := result["render_errors"]; ok {
		t.Error("expected no render_errors for a clean report")
	}

	acts, ok := result["activities"].([]interface{})
	if !ok || len(acts) != 3 {
		t.Fatalf("expected 3 activities, got %v", result["activities"])
	}
	c := acts[2].(map[string]interface{})
	if c["slack"] != 3.0 || c["critical"] != false {
		t.Errorf("unexpected activity C: %v", c)
	}
}

func TestNum(t *testing.T) {
	tests := map[float64]string{
		3:        "3",
		10:       "10",
		0.5:      "0.5",
		16.0 / 9: "1.78",
		-0.001:   "0",
	}
	for in, want := range tests {
		if got := Num(in); got != want {
			t.Errorf("Num(%v) = %q, want %q", in, got, want)
		}
	}
}
