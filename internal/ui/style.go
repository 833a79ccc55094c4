package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintBanner renders the colored tool banner to w.
func PrintBanner(w io.Writer) {
	frame := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	path := color.New(color.FgRed)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +----------------------------+")
	path.Fprintln(w, "   |  o---o---o       o---o     |")
	frame.Fprintln(w, "   |       \\___o---o/          |")
	brand.Fprintln(w, "   |   P  E  R  T  /  C  P  M   |")
	frame.Fprintln(w, "   +----------------------------+")
	fmt.Fprintf(w, "   %s\n", Dim("Project schedule analysis"))
	fmt.Fprintln(w)
}

// CriticalMark marks an activity by its place in the schedule: on the
// reported critical path, critical but off that path, or neither.
func CriticalMark(onPath, critical bool) string {
	switch {
	case onPath:
		return BoldRed("●")
	case critical:
		return Red("○")
	default:
		return Dim("·")
	}
}

// Slack returns the slack value colored by severity.
func Slack(s string, zero bool) string {
	if zero {
		return BoldRed(s)
	}
	return Green(s)
}

// Status returns a colored analysis status string.
func Status(status string) string {
	switch status {
	case "completed":
		return BoldGreen("completed")
	case "partial":
		return BoldYellow("partial")
	default:
		return BoldRed(status)
	}
}
