package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lilRK/PERT-Analysis/internal/analysis"
	"github.com/lilRK/PERT-Analysis/internal/ui"
)

// Reporter provides terminal and JSON display of an analysis report.
type Reporter struct {
	Report *analysis.Report
	Source string // project file or other label shown in the header
}

// New creates a new Reporter.
func New(report *analysis.Report, source string) *Reporter {
	return &Reporter{Report: report, Source: source}
}

// Status is "partial" when some diagram failed to render.
func (r *Reporter) Status() string {
	if r.Report.Partial() {
		return "partial"
	}
	return "completed"
}

// PrintSummary writes a terminal-friendly schedule table.
func (r *Reporter) PrintSummary(w io.Writer) {
	rep := r.Report

	fmt.Fprintf(w, "%s %s\n", ui.BoldCyan("PERT Analysis"), ui.Dim(r.Source))
	fmt.Fprintf(w, "%s\n", ui.Cyan("══════════════════════════"))
	fmt.Fprintf(w, "Status:    %s\n", ui.Status(r.Status()))
	fmt.Fprintf(w, "Duration:  %s\n", ui.Bold(Num(rep.TotalDuration)))
	fmt.Fprintf(w, "Std dev:   %s\n", Num(rep.StdDev))
	if rep.Deadline != nil && rep.CompletionProbability != nil {
		fmt.Fprintf(w, "Deadline:  %s  (P(finish) = %s)\n",
			Num(*rep.Deadline), ui.Bold(fmt.Sprintf("%.1f%%", *rep.CompletionProbability*100)))
	}
	fmt.Fprintf(w, "Critical:  %s\n\n", ui.BoldRed(strings.Join(rep.CriticalPath, " → ")))

	fmt.Fprintf(w, "  %s %-20s %8s %8s %8s %8s %8s %8s\n",
		" ", ui.BoldWhite("ACTIVITY"), "EXPECTED", "ES", "EF", "LS", "LF", "SLACK")
	for _, a := range rep.Activities {
		name := a.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		slack := fmt.Sprintf("%8s", Num(a.Slack))
		fmt.Fprintf(w, "  %s %-20s %8s %8s %8s %8s %8s %s\n",
			ui.CriticalMark(a.OnPath, a.Critical), name,
			Num(a.Expected), Num(a.ES), Num(a.EF), Num(a.LS), Num(a.LF),
			ui.Slack(slack, a.Critical))
	}
	fmt.Fprintln(w)

	for _, wave := range rep.Waves {
		marker := " "
		if wave.IsCritical {
			marker = ui.BoldRed("!")
		}
		fmt.Fprintf(w, "  %s %s %d  t=%s  %s\n",
			marker, ui.BoldWhite("Wave"), wave.Index+1, Num(wave.Start),
			strings.Join(wave.Activities, ", "))
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldYellow("Warnings:"))
		for _, msg := range rep.Warnings {
			fmt.Fprintf(w, "  %s %s\n", ui.Yellow("!"), msg)
		}
	}

	if errs := rep.RenderErrors(); len(errs) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldRed("Diagrams not rendered:"))
		for _, d := range rep.Diagrams {
			if d.Err != nil {
				fmt.Fprintf(w, "  %s %s  %s\n", ui.Red("✗"), d.Kind.Title(), ui.Dim(d.Err.Error()))
			}
		}
	}
}

// JSON returns the machine-readable report.
func (r *Reporter) JSON() ([]byte, error) {
	type output struct {
		Status string `json:"status"`
		*analysis.Report
		RenderErrors map[string]string `json:"render_errors,omitempty"`
	}

	o := output{Status: r.Status(), Report: r.Report}
	for kind, err := range r.Report.RenderErrors() {
		if o.RenderErrors == nil {
			o.RenderErrors = make(map[string]string)
		}
		o.RenderErrors[kind.Key()] = err.Error()
	}
	return json.MarshalIndent(o, "", "  ")
}

// Num formats a time value rounded to two decimals, without trailing zeros.
func Num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}
