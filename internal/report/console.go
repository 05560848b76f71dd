package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"campus-counseling-gap-analysis/internal/analysis"
)

const topGapRows = 10

// Print renders the run summary and the headline tables to w.
func Print(r *Report, w io.Writer) {
	fmt.Fprintln(w, "Campus Counseling Gap Analysis")
	fmt.Fprintln(w, strings.Repeat("=", 38))
	fmt.Fprintf(w, "Run: %s\n", r.Summary.RunID)
	fmt.Fprintf(w, "Generated: %s\n", r.Summary.GeneratedAt.Format("2006-01-02 15:04:05"))
	if r.Summary.SourcePath != "" {
		fmt.Fprintf(w, "Input: %s\n", r.Summary.SourcePath)
	}
	fmt.Fprintf(w, "Records analyzed: %d (invalid %d, dropped %d, duplicates %d)\n",
		r.Summary.TotalRecords, r.Summary.InvalidRows, r.Summary.DroppedRows, r.Summary.DuplicateRows)
	fmt.Fprintf(w, "High gap segments: %d | Moderate: %d | Peak periods: %d | Critical services: %d\n",
		r.Summary.HighGapSegments, r.Summary.ModerateGapSegments, r.Summary.PeakPeriods, r.Summary.CriticalServices)
	fmt.Fprintf(w, "Underserved populations: %d | Additional counselors needed: %d\n",
		r.Summary.UnderservedPopulations, r.Summary.TotalAdditionalCounselors)

	skipped := 0
	for _, stage := range r.Summary.Stages {
		skipped += stage.Skipped
	}
	if skipped > 0 {
		fmt.Fprintf(w, "Rows skipped for undefined ratios: %d\n", skipped)
		for _, stage := range r.Summary.Stages {
			if stage.Skipped > 0 {
				fmt.Fprintf(w, "  %s: %d\n", stage.Stage, stage.Skipped)
			}
		}
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRecommendations")
		fmt.Fprintln(w, strings.Repeat("-", 38))
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Priority", "Category", "Issue", "Recommendation"})
		for _, rec := range r.Recommendations {
			t.AppendRow(table.Row{rec.Priority, rec.Category, rec.Issue, rec.Recommendation})
		}
		t.Render()
	}

	if len(r.Demographics) > 0 {
		fmt.Fprintln(w, "\nLargest demographic gaps")
		fmt.Fprintln(w, strings.Repeat("-", 38))
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Year", "College", "Intl", "First Gen", "Visits", "Avg Wait", "Utilization", "Gap"})
		shown := 0
		for _, row := range r.Demographics {
			if row.ServiceGap == analysis.GapAdequate {
				continue
			}
			t.AppendRow(table.Row{
				row.StudentYear, row.College, row.International, row.FirstGeneration,
				row.TotalVisits, f1(row.AvgWaitDays), f2(row.UtilizationRate), string(row.ServiceGap),
			})
			shown++
			if shown >= topGapRows {
				break
			}
		}
		t.Render()
	}

	if len(r.Resources) > 0 {
		fmt.Fprintln(w, "\nResource needs")
		fmt.Fprintln(w, strings.Repeat("-", 38))
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Service", "Counselors", "Avg Wait", "P75 Wait", "Additional Needed", "Increase"})
		for _, row := range r.Resources {
			t.AppendRow(table.Row{
				row.ServiceCategory, row.CurrentCounselors, f1(row.AvgWaitDays), f1(row.P75WaitDays),
				row.AdditionalCounselorsNeeded, f1(row.PctIncreaseNeeded) + "%",
			})
		}
		t.Render()
	}
}
