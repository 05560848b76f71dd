package warehouse

import (
	"context"
	"database/sql"

	"campus-counseling-gap-analysis/internal/analysis"
	"campus-counseling-gap-analysis/internal/dataset"
)

// MonthlyTrend is one row of the supplementary month-over-month demand
// aggregate.
type MonthlyTrend struct {
	Year            int
	Month           int
	ServiceCategory string
	VisitCount      int
	AvgWaitDays     float64
	UniqueStudents  int
}

// CounselorWorkload is one row of the supplementary per-counselor
// workload aggregate.
type CounselorWorkload struct {
	CounselorID    string
	Year           int
	Month          int
	Appointments   int
	TotalMinutes   int
	UniqueStudents int
}

// DemographicSegments aggregates visits by demographic grouping,
// keeping segments with more than minVisits total visits.
func (w *Warehouse) DemographicSegments(ctx context.Context, minVisits int) ([]analysis.DemographicSegment, error) {
	const name = "demographic_segments"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			student_year,
			student_college,
			international_student,
			first_generation,
			COUNT(*) AS total_visits,
			AVG(wait_days) AS avg_wait_days,
			COUNT(DISTINCT student_id) AS unique_students,
			SUM(no_show) AS no_shows
		FROM service_records
		GROUP BY student_year, student_college, international_student, first_generation
		HAVING COUNT(*) > ?
		ORDER BY avg_wait_days DESC`, minVisits)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []analysis.DemographicSegment
	for rows.Next() {
		var seg analysis.DemographicSegment
		var intl, firstGen int
		var avgWait sql.NullFloat64
		if err := rows.Scan(&seg.StudentYear, &seg.College, &intl, &firstGen,
			&seg.TotalVisits, &avgWait, &seg.UniqueStudents, &seg.NoShows); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		seg.International = intl != 0
		seg.FirstGeneration = firstGen != 0
		seg.AvgWaitDays = avgWait.Float64
		out = append(out, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}

// TemporalDemand aggregates appointment volume by calendar period and
// service category.
func (w *Warehouse) TemporalDemand(ctx context.Context) ([]analysis.TemporalDemand, error) {
	const name = "temporal_demand"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			year,
			month,
			day_of_week,
			service_category,
			COUNT(*) AS appointment_count,
			AVG(wait_days) AS avg_wait_days,
			COUNT(DISTINCT counselor_id) AS available_counselors
		FROM service_records
		GROUP BY year, month, day_of_week, service_category
		ORDER BY year, month, day_of_week`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []analysis.TemporalDemand
	for rows.Next() {
		var row analysis.TemporalDemand
		var avgWait sql.NullFloat64
		if err := rows.Scan(&row.Year, &row.Month, &row.DayOfWeek, &row.ServiceCategory,
			&row.AppointmentCount, &avgWait, &row.AvailableCounselors); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		row.AvgWaitDays = avgWait.Float64
		row.DayName = dataset.DayName(row.DayOfWeek)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}

// ServiceTypeStats aggregates demand and extended waits by service
// category and college.
func (w *Warehouse) ServiceTypeStats(ctx context.Context) ([]analysis.ServiceTypeStat, error) {
	const name = "service_type_stats"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			service_category,
			student_college,
			COUNT(*) AS demand,
			AVG(wait_days) AS avg_wait,
			SUM(CASE WHEN wait_days > 7 THEN 1 ELSE 0 END) AS extended_wait_count,
			COUNT(DISTINCT counselor_id) AS counselor_count
		FROM service_records
		GROUP BY service_category, student_college`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []analysis.ServiceTypeStat
	for rows.Next() {
		var row analysis.ServiceTypeStat
		var avgWait sql.NullFloat64
		if err := rows.Scan(&row.ServiceCategory, &row.College, &row.Demand,
			&avgWait, &row.ExtendedWaitCount, &row.CounselorCount); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		row.AvgWait = avgWait.Float64
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}

// PopulationStats aggregates per-student usage into population cohorts:
// an inner per-student pass feeds an outer per-cohort average.
func (w *Warehouse) PopulationStats(ctx context.Context) ([]analysis.PopulationStat, error) {
	const name = "population_stats"
	rows, err := w.db.QueryContext(ctx, `
		WITH student_stats AS (
			SELECT
				student_id,
				student_year,
				international_student,
				first_generation,
				COUNT(*) AS total_visits,
				AVG(wait_days) AS avg_wait
			FROM service_records
			GROUP BY student_id, student_year, international_student, first_generation
		)
		SELECT
			student_year,
			international_student,
			first_generation,
			COUNT(*) AS student_count,
			AVG(total_visits) AS avg_visits_per_student,
			AVG(avg_wait) AS avg_wait_days
		FROM student_stats
		GROUP BY student_year, international_student, first_generation
		ORDER BY avg_wait_days DESC`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []analysis.PopulationStat
	for rows.Next() {
		var row analysis.PopulationStat
		var intl, firstGen int
		var avgVisits, avgWait sql.NullFloat64
		if err := rows.Scan(&row.StudentYear, &intl, &firstGen,
			&row.StudentCount, &avgVisits, &avgWait); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		row.International = intl != 0
		row.FirstGeneration = firstGen != 0
		row.AvgVisitsPerStudent = avgVisits.Float64
		row.AvgWaitDays = avgWait.Float64
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}

// ResourceCapacity aggregates current staffing per service category and
// attaches the 75th percentile wait computed over each category's
// non-null waits.
func (w *Warehouse) ResourceCapacity(ctx context.Context) ([]analysis.ResourceCapacity, error) {
	const name = "resource_capacity"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			service_category,
			COUNT(DISTINCT counselor_id) AS current_counselors,
			COUNT(*) AS total_appointments,
			COALESCE(SUM(duration_minutes), 0) AS total_minutes,
			AVG(wait_days) AS avg_wait_days
		FROM service_records
		GROUP BY service_category`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []analysis.ResourceCapacity
	for rows.Next() {
		var row analysis.ResourceCapacity
		var avgWait sql.NullFloat64
		if err := rows.Scan(&row.ServiceCategory, &row.CurrentCounselors,
			&row.TotalAppointments, &row.TotalMinutes, &avgWait); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		row.AvgWaitDays = avgWait.Float64
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}

	waits, err := w.waitsByCategory(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].P75WaitDays = analysis.Percentile(waits[out[i].ServiceCategory], 75)
	}
	return out, nil
}

func (w *Warehouse) waitsByCategory(ctx context.Context) (map[string][]float64, error) {
	const name = "waits_by_category"
	rows, err := w.db.QueryContext(ctx, `
		SELECT service_category, wait_days
		FROM service_records
		WHERE wait_days IS NOT NULL`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	waits := map[string][]float64{}
	for rows.Next() {
		var category string
		var wait float64
		if err := rows.Scan(&category, &wait); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		waits[category] = append(waits[category], wait)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return waits, nil
}

// MonthlyTrends aggregates visit volume by month and service category.
func (w *Warehouse) MonthlyTrends(ctx context.Context) ([]MonthlyTrend, error) {
	const name = "monthly_trends"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			year,
			month,
			service_category,
			COUNT(*) AS visit_count,
			AVG(wait_days) AS avg_wait_days,
			COUNT(DISTINCT student_id) AS unique_students
		FROM service_records
		GROUP BY year, month, service_category
		ORDER BY year, month`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []MonthlyTrend
	for rows.Next() {
		var row MonthlyTrend
		var avgWait sql.NullFloat64
		if err := rows.Scan(&row.Year, &row.Month, &row.ServiceCategory,
			&row.VisitCount, &avgWait, &row.UniqueStudents); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		row.AvgWaitDays = avgWait.Float64
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}

// CounselorWorkloads aggregates appointment load per counselor per
// month.
func (w *Warehouse) CounselorWorkloads(ctx context.Context) ([]CounselorWorkload, error) {
	const name = "counselor_workloads"
	rows, err := w.db.QueryContext(ctx, `
		SELECT
			counselor_id,
			year,
			month,
			COUNT(*) AS appointments,
			COALESCE(SUM(duration_minutes), 0) AS total_minutes,
			COUNT(DISTINCT student_id) AS unique_students
		FROM service_records
		GROUP BY counselor_id, year, month
		ORDER BY counselor_id, year, month`)
	if err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	defer rows.Close()

	var out []CounselorWorkload
	for rows.Next() {
		var row CounselorWorkload
		if err := rows.Scan(&row.CounselorID, &row.Year, &row.Month,
			&row.Appointments, &row.TotalMinutes, &row.UniqueStudents); err != nil {
			return nil, &QueryError{Query: name, Err: err}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: name, Err: err}
	}
	return out, nil
}
