// Package warehouse is the tabular query provider: it loads enriched
// appointment records into an embedded SQLite database and serves the
// aggregate result sets the scoring engine consumes.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"campus-counseling-gap-analysis/internal/dataset"
)

// QueryError identifies the aggregate request that failed. A query
// failure is fatal to the stage that issued it; the core never retries.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type Warehouse struct {
	db  *sql.DB
	log *zap.Logger
}

// Open creates or opens the warehouse database at path. An empty path
// opens an in-memory database.
func Open(path string, log *zap.Logger) (*Warehouse, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	// The modernc driver does not support concurrent writers on one
	// connection pool; the pipeline is single-threaded anyway.
	db.SetMaxOpenConns(1)

	w := &Warehouse{db: db, log: log}
	if err := w.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Warehouse) Close() error { return w.db.Close() }

func (w *Warehouse) ensureSchema(ctx context.Context) error {
	_, err := w.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS service_records (
			student_id TEXT NOT NULL,
			appointment_date TEXT NOT NULL,
			service_type TEXT,
			counselor_id TEXT,
			duration_minutes INTEGER,
			student_year TEXT,
			student_college TEXT,
			student_status TEXT,
			international_student INTEGER NOT NULL,
			first_generation INTEGER NOT NULL,
			referral_source TEXT,
			wait_days INTEGER,
			no_show INTEGER NOT NULL,
			follow_up_scheduled INTEGER NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			day_of_week INTEGER NOT NULL,
			is_weekend INTEGER NOT NULL,
			service_category TEXT NOT NULL,
			visit_number INTEGER NOT NULL,
			days_since_last_visit INTEGER,
			high_risk INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create service_records: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS service_records_category_idx ON service_records (service_category)`,
		`CREATE INDEX IF NOT EXISTS service_records_student_idx ON service_records (student_id)`,
		`CREATE INDEX IF NOT EXISTS service_records_period_idx ON service_records (year, month)`,
	} {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Load replaces the service_records table with the given rows in one
// transaction.
func (w *Warehouse) Load(ctx context.Context, records []dataset.EnrichedRecord) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin load: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM service_records`); err != nil {
		return fmt.Errorf("truncate service_records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO service_records (
			student_id, appointment_date, service_type, counselor_id,
			duration_minutes, student_year, student_college, student_status,
			international_student, first_generation, referral_source,
			wait_days, no_show, follow_up_scheduled,
			year, month, day_of_week, is_weekend, service_category,
			visit_number, days_since_last_visit, high_risk
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.ExecContext(ctx,
			record.StudentID,
			record.AppointmentDate.Format("2006-01-02"),
			record.ServiceType,
			record.CounselorID,
			nullInt(record.DurationMinutes),
			record.StudentYear,
			record.StudentCollege,
			record.StudentStatus,
			boolToInt(record.InternationalStudent),
			boolToInt(record.FirstGeneration),
			record.ReferralSource,
			nullInt(record.WaitDays),
			boolToInt(record.NoShow),
			boolToInt(record.FollowUpScheduled),
			record.Year,
			record.Month,
			record.DayOfWeek,
			boolToInt(record.IsWeekend),
			record.ServiceCategory,
			record.VisitNumber,
			nullInt(record.DaysSinceLastVisit),
			boolToInt(record.HighRisk),
		)
		if err != nil {
			return fmt.Errorf("insert service record: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit load: %w", err)
	}
	w.log.Info("loaded warehouse", zap.Int("records", len(records)))
	return nil
}

func nullInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
