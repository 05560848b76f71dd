package report

import (
	"strconv"

	"campus-counseling-gap-analysis/internal/analysis"
	"campus-counseling-gap-analysis/internal/recommend"
	"campus-counseling-gap-analysis/internal/warehouse"
)

// Table is a named rectangular result set: a header plus rows of
// stringified cells, ready for the report writer.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Tables converts every result set in the report to a named table, in
// the order the analyses ran.
func (r *Report) Tables() []Table {
	return []Table{
		demographicTable(r.Demographics),
		temporalTable(r.Temporal),
		serviceTypeTable(r.ServiceTypes),
		equityTable(r.Equity),
		resourceTable(r.Resources),
		recommendationTable(r.Recommendations),
		monthlyTrendTable(r.MonthlyTrends),
		workloadTable(r.Workloads),
	}
}

func demographicTable(rows []analysis.DemographicGap) Table {
	t := Table{
		Name: "demographic_gaps",
		Columns: []string{
			"student_year", "student_college", "international_student", "first_generation",
			"total_visits", "avg_wait_days", "unique_students", "no_shows",
			"utilization_rate", "service_gap",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.StudentYear,
			row.College,
			strconv.FormatBool(row.International),
			strconv.FormatBool(row.FirstGeneration),
			strconv.Itoa(row.TotalVisits),
			f2(row.AvgWaitDays),
			strconv.Itoa(row.UniqueStudents),
			strconv.Itoa(row.NoShows),
			f2(row.UtilizationRate),
			string(row.ServiceGap),
		})
	}
	return t
}

func temporalTable(rows []analysis.TemporalPeak) Table {
	t := Table{
		Name: "temporal_demand",
		Columns: []string{
			"year", "month", "day_of_week", "day_name", "service_category",
			"appointment_count", "avg_wait_days", "available_counselors",
			"demand_per_counselor", "peak_demand",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.DayOfWeek),
			row.DayName,
			row.ServiceCategory,
			strconv.Itoa(row.AppointmentCount),
			f2(row.AvgWaitDays),
			strconv.Itoa(row.AvailableCounselors),
			f2(row.DemandPerCounselor),
			strconv.FormatBool(row.PeakDemand),
		})
	}
	return t
}

func serviceTypeTable(rows []analysis.ServiceAdequacy) Table {
	t := Table{
		Name: "service_adequacy",
		Columns: []string{
			"service_category", "student_college", "demand", "avg_wait",
			"extended_wait_count", "counselor_count", "pct_extended_wait",
			"demand_per_counselor", "adequacy_rating",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.ServiceCategory,
			row.College,
			strconv.Itoa(row.Demand),
			f2(row.AvgWait),
			strconv.Itoa(row.ExtendedWaitCount),
			strconv.Itoa(row.CounselorCount),
			f2(row.PctExtendedWait),
			f2(row.DemandPerCounselor),
			string(row.AdequacyRating),
		})
	}
	return t
}

func equityTable(rows []analysis.PopulationEquity) Table {
	t := Table{
		Name: "population_equity",
		Columns: []string{
			"student_year", "international_student", "first_generation",
			"student_count", "avg_visits_per_student", "avg_wait_days",
			"visit_ratio", "wait_ratio", "equity_score", "underserved",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.StudentYear,
			strconv.FormatBool(row.International),
			strconv.FormatBool(row.FirstGeneration),
			strconv.Itoa(row.StudentCount),
			f2(row.AvgVisitsPerStudent),
			f2(row.AvgWaitDays),
			f4(row.VisitRatio),
			f4(row.WaitRatio),
			f4(row.EquityScore),
			strconv.FormatBool(row.Underserved),
		})
	}
	return t
}

func resourceTable(rows []analysis.ResourceNeed) Table {
	t := Table{
		Name: "resource_needs",
		Columns: []string{
			"service_category", "current_counselors", "total_appointments",
			"total_minutes", "avg_wait_days", "p75_wait_days",
			"avg_appointments_per_counselor", "avg_hours_per_counselor",
			"wait_reduction_factor", "additional_counselors_needed", "pct_increase_needed",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.ServiceCategory,
			strconv.Itoa(row.CurrentCounselors),
			strconv.Itoa(row.TotalAppointments),
			strconv.Itoa(row.TotalMinutes),
			f2(row.AvgWaitDays),
			f2(row.P75WaitDays),
			f2(row.AvgAppointmentsPerCounselor),
			f2(row.AvgHoursPerCounselor),
			f2(row.WaitReductionFactor),
			strconv.Itoa(row.AdditionalCounselorsNeeded),
			f1(row.PctIncreaseNeeded),
		})
	}
	return t
}

func recommendationTable(rows []recommend.Recommendation) Table {
	t := Table{
		Name:    "recommendations",
		Columns: []string{"priority", "category", "issue", "recommendation", "expected_impact"},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			string(row.Priority),
			row.Category,
			row.Issue,
			row.Recommendation,
			row.ExpectedImpact,
		})
	}
	return t
}

func monthlyTrendTable(rows []warehouse.MonthlyTrend) Table {
	t := Table{
		Name: "monthly_trends",
		Columns: []string{
			"year", "month", "service_category", "visit_count",
			"avg_wait_days", "unique_students",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			row.ServiceCategory,
			strconv.Itoa(row.VisitCount),
			f2(row.AvgWaitDays),
			strconv.Itoa(row.UniqueStudents),
		})
	}
	return t
}

func workloadTable(rows []warehouse.CounselorWorkload) Table {
	t := Table{
		Name: "counselor_workloads",
		Columns: []string{
			"counselor_id", "year", "month", "appointments",
			"total_minutes", "unique_students",
		},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{
			row.CounselorID,
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Month),
			strconv.Itoa(row.Appointments),
			strconv.Itoa(row.TotalMinutes),
			strconv.Itoa(row.UniqueStudents),
		})
	}
	return t
}

func f1(value float64) string { return strconv.FormatFloat(value, 'f', 1, 64) }
func f2(value float64) string { return strconv.FormatFloat(value, 'f', 2, 64) }
func f4(value float64) string { return strconv.FormatFloat(value, 'f', 4, 64) }
