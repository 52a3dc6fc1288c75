package runlog

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Viewer displays run journals
type Viewer struct{}

// NewViewer creates a viewer
func NewViewer() *Viewer {
	return &Viewer{}
}

// ViewFull displays the complete journal
func (v *Viewer) ViewFull(w io.Writer, r *Record) error {
	v.writeHeader(w, r)

	for _, e := range r.Events {
		v.writeEvent(w, e)
	}

	return nil
}

// ViewSummary displays a brief summary
func (v *Viewer) ViewSummary(w io.Writer, r *Record) error {
	v.writeHeader(w, r)

	fmt.Fprintln(w, "\nNode Summary:")
	for _, e := range r.Events {
		detail := e.Message
		if detail == "" {
			detail = e.Cause
		}
		if len(detail) > 100 {
			detail = detail[:100] + "..."
		}
		detail = strings.ReplaceAll(detail, "\n", " ")
		fmt.Fprintf(w, "  [%d] %s: %s %s\n", e.Seq, e.Node, e.Class, detail)
	}

	return nil
}

// ViewFailures displays only fatal events
func (v *Viewer) ViewFailures(w io.Writer, r *Record) error {
	v.writeHeader(w, r)

	for _, e := range r.Failures() {
		v.writeEvent(w, e)
	}

	return nil
}

func (v *Viewer) writeHeader(w io.Writer, r *Record) {
	sep := strings.Repeat("=", 60)

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Graph: %s | Status: %s\n", r.Meta.Graph, r.Meta.Status)

	duration := r.Duration()
	fmt.Fprintf(w, "Started: %s | Duration: %s\n",
		r.Meta.StartedAt.Format("2006-01-02 15:04:05"),
		duration.Round(time.Second))

	fmt.Fprintf(w, "Nodes: %d | Failed: %d | Retries: %d\n",
		r.Meta.EventCount,
		r.Meta.FailedSteps,
		r.Meta.Retries)

	if r.Meta.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Meta.Error)
	}

	fmt.Fprintln(w, sep)
}

func (v *Viewer) writeEvent(w io.Writer, e Event) {
	fmt.Fprintln(w)

	header := fmt.Sprintf("[%d] %s (%s) %s",
		e.Seq,
		e.Node,
		e.Timestamp.Format("15:04:05"),
		strings.ToUpper(e.Class))

	if e.Attempts > 1 {
		header += fmt.Sprintf(" [%d attempts]", e.Attempts)
	}
	if e.DurationMs > 0 {
		header += fmt.Sprintf(" [%dms]", e.DurationMs)
	}

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", 60))

	if e.Message != "" {
		fmt.Fprintln(w, e.Message)
	}
	if e.Cause != "" {
		fmt.Fprintf(w, "Cause: %s\n", e.Cause)
	}
	if len(e.Next) > 0 {
		fmt.Fprintf(w, "Next: %s\n", strings.Join(e.Next, ", "))
	}
}

// ExportMarkdown exports to markdown format
func (v *Viewer) ExportMarkdown(w io.Writer, r *Record) error {
	fmt.Fprintf(w, "# Run: %s\n\n", r.RunID)

	// Metadata
	fmt.Fprintf(w, "## Metadata\n\n")
	fmt.Fprintf(w, "| Field | Value |\n")
	fmt.Fprintf(w, "|-------|-------|\n")
	fmt.Fprintf(w, "| Graph | %s |\n", r.Meta.Graph)
	fmt.Fprintf(w, "| Status | %s |\n", r.Meta.Status)
	fmt.Fprintf(w, "| Started | %s |\n", r.Meta.StartedAt.Format(time.RFC3339))
	if !r.Meta.EndedAt.IsZero() {
		fmt.Fprintf(w, "| Ended | %s |\n", r.Meta.EndedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "| Duration | %s |\n", r.Duration().Round(time.Second))
	fmt.Fprintf(w, "| Nodes | %d |\n", r.Meta.EventCount)
	fmt.Fprintf(w, "| Failed | %d |\n", r.Meta.FailedSteps)
	fmt.Fprintf(w, "| Retries | %d |\n", r.Meta.Retries)
	if r.Meta.Error != "" {
		fmt.Fprintf(w, "| Error | %s |\n", r.Meta.Error)
	}
	fmt.Fprintln(w)

	// Execution log
	fmt.Fprintf(w, "## Execution Log\n\n")

	for _, e := range r.Events {
		fmt.Fprintf(w, "### %s (Event %d)\n\n", e.Node, e.Seq)
		fmt.Fprintf(w, "*%s", e.Class)
		if e.Attempts > 1 {
			fmt.Fprintf(w, ", %d attempts", e.Attempts)
		}
		fmt.Fprintf(w, "*\n\n")

		if e.Message != "" {
			fmt.Fprintf(w, "%s\n\n", e.Message)
		}
		if e.Cause != "" {
			fmt.Fprintf(w, "**Cause:** %s\n\n", e.Cause)
		}
		if len(e.Next) > 0 {
			fmt.Fprintf(w, "**Next:** %s\n\n", strings.Join(e.Next, ", "))
		}
	}

	return nil
}

// ExportJSON exports to JSON format
func (v *Viewer) ExportJSON(w io.Writer, r *Record) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

// Diff compares two run journals
func (v *Viewer) Diff(w io.Writer, a, b *Record) error {
	fmt.Fprintln(w, "Comparing runs:")
	fmt.Fprintf(w, "  A: %s (%s)\n", a.RunID, a.Meta.Status)
	fmt.Fprintf(w, "  B: %s (%s)\n", b.RunID, b.Meta.Status)
	fmt.Fprintln(w)

	// Compare metadata
	fmt.Fprintln(w, "Metadata Comparison:")
	fmt.Fprintf(w, "  Nodes:    %d vs %d\n", len(a.Events), len(b.Events))
	fmt.Fprintf(w, "  Failed:   %d vs %d\n", a.Meta.FailedSteps, b.Meta.FailedSteps)
	fmt.Fprintf(w, "  Retries:  %d vs %d\n", a.Meta.Retries, b.Meta.Retries)
	fmt.Fprintf(w, "  Duration: %s vs %s\n", a.Duration().Round(time.Second), b.Duration().Round(time.Second))
	fmt.Fprintln(w)

	// Compare event sequences
	fmt.Fprintln(w, "Event Comparison:")

	maxEvents := len(a.Events)
	if len(b.Events) > maxEvents {
		maxEvents = len(b.Events)
	}

	for i := 0; i < maxEvents; i++ {
		var eventA, eventB *Event
		if i < len(a.Events) {
			eventA = &a.Events[i]
		}
		if i < len(b.Events) {
			eventB = &b.Events[i]
		}

		if eventA == nil {
			fmt.Fprintf(w, "  Event %d: [missing] vs %s (%s)\n", i+1, eventB.Node, eventB.Class)
		} else if eventB == nil {
			fmt.Fprintf(w, "  Event %d: %s (%s) vs [missing]\n", i+1, eventA.Node, eventA.Class)
		} else if eventA.Node != eventB.Node {
			fmt.Fprintf(w, "  Event %d: %s vs %s (different nodes)\n", i+1, eventA.Node, eventB.Node)
		} else if eventA.Class == eventB.Class {
			fmt.Fprintf(w, "  Event %d: %s - identical (%s)\n", i+1, eventA.Node, eventA.Class)
		} else {
			fmt.Fprintf(w, "  Event %d: %s - %s vs %s\n", i+1, eventA.Node, eventA.Class, eventB.Class)
		}
	}

	return nil
}

// FormatMetaList formats a list of metadata for display
func (v *Viewer) FormatMetaList(w io.Writer, metas []Meta) error {
	if len(metas) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	// Header
	fmt.Fprintf(w, "%-40s %-12s %-20s %8s %8s %8s\n",
		"RUN ID", "STATUS", "STARTED", "NODES", "FAILED", "RETRIES")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, m := range metas {
		fmt.Fprintf(w, "%-40s %-12s %-20s %8d %8d %8d\n",
			truncate(m.RunID, 40),
			m.Status,
			m.StartedAt.Format("2006-01-02 15:04"),
			m.EventCount,
			m.FailedSteps,
			m.Retries)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(metas))
	return nil
}

// FormatStats formats statistics for display
func (v *Viewer) FormatStats(w io.Writer, stats *Statistics) error {
	fmt.Fprintln(w, "Run Statistics:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total Runs:      %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "  Succeeded:     %d\n", stats.SucceededRuns)
	fmt.Fprintf(w, "  Partial:       %d\n", stats.PartialRuns)
	fmt.Fprintf(w, "  Failed:        %d\n", stats.FailedRuns)
	fmt.Fprintf(w, "  Canceled:      %d\n", stats.CanceledRuns)
	fmt.Fprintf(w, "  Active:        %d\n", stats.ActiveRuns)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Events:    %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Avg Events/Run:  %d\n", stats.AvgEvents)
	fmt.Fprintf(w, "Total Retries:   %d\n", stats.TotalRetries)

	return nil
}

// truncate shortens a string to max length
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
