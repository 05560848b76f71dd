// Package report assembles the analysis outputs into named result
// tables and writes them to CSV, JSON, the console and Postgres.
package report

import (
	"time"

	"campus-counseling-gap-analysis/internal/analysis"
	"campus-counseling-gap-analysis/internal/recommend"
	"campus-counseling-gap-analysis/internal/warehouse"
)

// StageSummary records row and skip counts for one scoring stage.
// Skipped rows are those excluded for undefined ratios; they are
// reported, never silently dropped.
type StageSummary struct {
	Stage   string `json:"stage"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

type Summary struct {
	RunID                     string         `json:"run_id"`
	GeneratedAt               time.Time      `json:"generated_at"`
	SourcePath                string         `json:"source_path"`
	TotalRecords              int            `json:"total_records"`
	InvalidRows               int            `json:"invalid_rows"`
	DroppedRows               int            `json:"dropped_rows"`
	DuplicateRows             int            `json:"duplicate_rows"`
	Stages                    []StageSummary `json:"stages"`
	HighGapSegments           int            `json:"high_gap_segments"`
	ModerateGapSegments       int            `json:"moderate_gap_segments"`
	PeakPeriods               int            `json:"peak_periods"`
	CriticalServices          int            `json:"critical_services"`
	UnderservedPopulations    int            `json:"underserved_populations"`
	TotalAdditionalCounselors int            `json:"total_additional_counselors"`
}

// Report is the complete output of one analysis run.
type Report struct {
	Summary         Summary                       `json:"summary"`
	Demographics    []analysis.DemographicGap     `json:"demographic_gaps"`
	Temporal        []analysis.TemporalPeak       `json:"temporal_demand"`
	ServiceTypes    []analysis.ServiceAdequacy    `json:"service_adequacy"`
	Equity          []analysis.PopulationEquity   `json:"population_equity"`
	Resources       []analysis.ResourceNeed       `json:"resource_needs"`
	Recommendations []recommend.Recommendation    `json:"recommendations"`
	MonthlyTrends   []warehouse.MonthlyTrend      `json:"monthly_trends"`
	Workloads       []warehouse.CounselorWorkload `json:"counselor_workloads"`
}

// Finalize fills the summary's derived counts from the scored tables.
func (r *Report) Finalize() {
	r.Summary.HighGapSegments = 0
	r.Summary.ModerateGapSegments = 0
	for _, row := range r.Demographics {
		switch row.ServiceGap {
		case analysis.GapHigh:
			r.Summary.HighGapSegments++
		case analysis.GapModerate:
			r.Summary.ModerateGapSegments++
		}
	}
	r.Summary.PeakPeriods = 0
	for _, row := range r.Temporal {
		if row.PeakDemand {
			r.Summary.PeakPeriods++
		}
	}
	r.Summary.CriticalServices = 0
	for _, row := range r.ServiceTypes {
		if row.AdequacyRating == analysis.AdequacyCritical {
			r.Summary.CriticalServices++
		}
	}
	r.Summary.UnderservedPopulations = 0
	for _, row := range r.Equity {
		if row.Underserved {
			r.Summary.UnderservedPopulations++
		}
	}
	r.Summary.TotalAdditionalCounselors = 0
	for _, row := range r.Resources {
		r.Summary.TotalAdditionalCounselors += row.AdditionalCounselorsNeeded
	}
}
