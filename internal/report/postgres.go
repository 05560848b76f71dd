package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBConfig configures the optional Postgres audit store.
type DBConfig struct {
	URL    string
	Schema string
	Tag    string
}

var validSchema = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !validSchema.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// Store persists the full report as one analysis run in Postgres,
// bootstrapping the schema if needed. Returns the run id.
func Store(ctx context.Context, r *Report, cfg DBConfig) (string, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return "", err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		return "", err
	}
	return storeTx(ctx, db, r, schema, cfg.Tag)
}

func storeTx(ctx context.Context, db *sql.DB, r *Report, schema string, tag string) (string, error) {
	runID := uuid.New()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.analysis_runs (
			id, generated_at, total_records, invalid_rows, dropped_rows,
			duplicate_rows, high_gap_segments, moderate_gap_segments,
			peak_periods, critical_services, underserved_populations,
			total_additional_counselors, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,
			$9,$10,$11,
			$12,$13
		)`, schema),
		runID,
		r.Summary.GeneratedAt,
		r.Summary.TotalRecords,
		r.Summary.InvalidRows,
		r.Summary.DroppedRows,
		r.Summary.DuplicateRows,
		r.Summary.HighGapSegments,
		r.Summary.ModerateGapSegments,
		r.Summary.PeakPeriods,
		r.Summary.CriticalServices,
		r.Summary.UnderservedPopulations,
		r.Summary.TotalAdditionalCounselors,
		nullString(tag),
	)
	if err != nil {
		return "", err
	}

	insertDemographicSQL := fmt.Sprintf(`
		INSERT INTO %s.demographic_gaps (
			id, run_id, student_year, student_college, international_student,
			first_generation, total_visits, avg_wait_days, unique_students,
			no_shows, utilization_rate, service_gap
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, schema)
	for _, row := range r.Demographics {
		if _, err = tx.ExecContext(ctx, insertDemographicSQL,
			uuid.New(), runID, row.StudentYear, row.College, row.International,
			row.FirstGeneration, row.TotalVisits, row.AvgWaitDays, row.UniqueStudents,
			row.NoShows, row.UtilizationRate, string(row.ServiceGap),
		); err != nil {
			return "", err
		}
	}

	insertTemporalSQL := fmt.Sprintf(`
		INSERT INTO %s.temporal_demand (
			id, run_id, year, month, day_of_week, day_name, service_category,
			appointment_count, avg_wait_days, available_counselors,
			demand_per_counselor, peak_demand
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, schema)
	for _, row := range r.Temporal {
		if _, err = tx.ExecContext(ctx, insertTemporalSQL,
			uuid.New(), runID, row.Year, row.Month, row.DayOfWeek, row.DayName,
			row.ServiceCategory, row.AppointmentCount, row.AvgWaitDays,
			row.AvailableCounselors, row.DemandPerCounselor, row.PeakDemand,
		); err != nil {
			return "", err
		}
	}

	insertAdequacySQL := fmt.Sprintf(`
		INSERT INTO %s.service_adequacy (
			id, run_id, service_category, student_college, demand, avg_wait,
			extended_wait_count, counselor_count, pct_extended_wait,
			demand_per_counselor, adequacy_rating
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, schema)
	for _, row := range r.ServiceTypes {
		if _, err = tx.ExecContext(ctx, insertAdequacySQL,
			uuid.New(), runID, row.ServiceCategory, row.College, row.Demand,
			row.AvgWait, row.ExtendedWaitCount, row.CounselorCount,
			row.PctExtendedWait, row.DemandPerCounselor, nullString(string(row.AdequacyRating)),
		); err != nil {
			return "", err
		}
	}

	insertEquitySQL := fmt.Sprintf(`
		INSERT INTO %s.population_equity (
			id, run_id, student_year, international_student, first_generation,
			student_count, avg_visits_per_student, avg_wait_days,
			visit_ratio, wait_ratio, equity_score, underserved
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`, schema)
	for _, row := range r.Equity {
		if _, err = tx.ExecContext(ctx, insertEquitySQL,
			uuid.New(), runID, row.StudentYear, row.International, row.FirstGeneration,
			row.StudentCount, row.AvgVisitsPerStudent, row.AvgWaitDays,
			row.VisitRatio, row.WaitRatio, row.EquityScore, row.Underserved,
		); err != nil {
			return "", err
		}
	}

	insertResourceSQL := fmt.Sprintf(`
		INSERT INTO %s.resource_needs (
			id, run_id, service_category, current_counselors, total_appointments,
			total_minutes, avg_wait_days, p75_wait_days, wait_reduction_factor,
			additional_counselors_needed, pct_increase_needed
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`, schema)
	for _, row := range r.Resources {
		if _, err = tx.ExecContext(ctx, insertResourceSQL,
			uuid.New(), runID, row.ServiceCategory, row.CurrentCounselors,
			row.TotalAppointments, row.TotalMinutes, row.AvgWaitDays,
			row.P75WaitDays, row.WaitReductionFactor,
			row.AdditionalCounselorsNeeded, row.PctIncreaseNeeded,
		); err != nil {
			return "", err
		}
	}

	insertRecommendationSQL := fmt.Sprintf(`
		INSERT INTO %s.recommendations (
			id, run_id, position, priority, category, issue, recommendation, expected_impact
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`, schema)
	for i, row := range r.Recommendations {
		if _, err = tx.ExecContext(ctx, insertRecommendationSQL,
			uuid.New(), runID, i+1, string(row.Priority), row.Category,
			row.Issue, row.Recommendation, row.ExpectedImpact,
		); err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return runID.String(), nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return err
	}

	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.analysis_runs (
				id uuid PRIMARY KEY,
				generated_at timestamptz NOT NULL,
				total_records integer NOT NULL,
				invalid_rows integer NOT NULL,
				dropped_rows integer NOT NULL,
				duplicate_rows integer NOT NULL,
				high_gap_segments integer NOT NULL,
				moderate_gap_segments integer NOT NULL,
				peak_periods integer NOT NULL,
				critical_services integer NOT NULL,
				underserved_populations integer NOT NULL,
				total_additional_counselors integer NOT NULL,
				run_tag text,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.demographic_gaps (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				student_year text NOT NULL,
				student_college text NOT NULL,
				international_student boolean NOT NULL,
				first_generation boolean NOT NULL,
				total_visits integer NOT NULL,
				avg_wait_days numeric(8,2) NOT NULL,
				unique_students integer NOT NULL,
				no_shows integer NOT NULL,
				utilization_rate numeric(8,2) NOT NULL,
				service_gap text NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.temporal_demand (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				year integer NOT NULL,
				month integer NOT NULL,
				day_of_week integer NOT NULL,
				day_name text NOT NULL,
				service_category text NOT NULL,
				appointment_count integer NOT NULL,
				avg_wait_days numeric(8,2) NOT NULL,
				available_counselors integer NOT NULL,
				demand_per_counselor numeric(8,2) NOT NULL,
				peak_demand boolean NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.service_adequacy (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				service_category text NOT NULL,
				student_college text NOT NULL,
				demand integer NOT NULL,
				avg_wait numeric(8,2) NOT NULL,
				extended_wait_count integer NOT NULL,
				counselor_count integer NOT NULL,
				pct_extended_wait numeric(8,2) NOT NULL,
				demand_per_counselor numeric(8,2) NOT NULL,
				adequacy_rating text,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.population_equity (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				student_year text NOT NULL,
				international_student boolean NOT NULL,
				first_generation boolean NOT NULL,
				student_count integer NOT NULL,
				avg_visits_per_student numeric(8,2) NOT NULL,
				avg_wait_days numeric(8,2) NOT NULL,
				visit_ratio numeric(10,4) NOT NULL,
				wait_ratio numeric(10,4) NOT NULL,
				equity_score numeric(10,4) NOT NULL,
				underserved boolean NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.resource_needs (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				service_category text NOT NULL,
				current_counselors integer NOT NULL,
				total_appointments integer NOT NULL,
				total_minutes integer NOT NULL,
				avg_wait_days numeric(8,2) NOT NULL,
				p75_wait_days numeric(8,2) NOT NULL,
				wait_reduction_factor numeric(8,2) NOT NULL,
				additional_counselors_needed integer NOT NULL,
				pct_increase_needed numeric(8,1) NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s.recommendations (
				id uuid PRIMARY KEY,
				run_id uuid NOT NULL REFERENCES %s.analysis_runs(id) ON DELETE CASCADE,
				position integer NOT NULL,
				priority text NOT NULL,
				category text NOT NULL,
				issue text NOT NULL,
				recommendation text NOT NULL,
				expected_impact text NOT NULL,
				created_at timestamptz NOT NULL DEFAULT now()
			)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_demographic_gaps_run_idx ON %s.demographic_gaps (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_temporal_demand_run_idx ON %s.temporal_demand (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_service_adequacy_run_idx ON %s.service_adequacy (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_population_equity_run_idx ON %s.population_equity (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_resource_needs_run_idx ON %s.resource_needs (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_recommendations_run_idx ON %s.recommendations (run_id)`, schema, schema),
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
