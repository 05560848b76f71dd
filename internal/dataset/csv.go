package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"student_id",
	"appointment_date",
	"service_type",
	"counselor_id",
	"duration_minutes",
	"student_year",
	"student_college",
	"student_status",
	"international_student",
	"first_generation",
	"referral_source",
	"wait_days",
	"no_show",
	"follow_up_scheduled",
}

// ReadCSV loads appointment records from path. Rows missing a student id
// or a parseable appointment date are skipped and counted, not fatal.
func ReadCSV(path string) ([]Record, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("unable to read header: %w", err)
	}

	colMap := normalizeHeaders(headers)
	idIdx, ok := findColumn(colMap, []string{"student_id", "studentid", "student"})
	if !ok {
		return nil, 0, errors.New("missing student_id column")
	}
	dateIdx, ok := findColumn(colMap, []string{"appointment_date", "appointmentdate", "date"})
	if !ok {
		return nil, 0, errors.New("missing appointment_date column")
	}
	serviceIdx, _ := findColumn(colMap, []string{"service_type", "servicetype", "service"})
	counselorIdx, _ := findColumn(colMap, []string{"counselor_id", "counselorid", "counselor"})
	durationIdx, _ := findColumn(colMap, []string{"duration_minutes", "duration"})
	yearIdx, _ := findColumn(colMap, []string{"student_year", "year", "class"})
	collegeIdx, _ := findColumn(colMap, []string{"student_college", "college"})
	statusIdx, _ := findColumn(colMap, []string{"student_status", "status"})
	intlIdx, _ := findColumn(colMap, []string{"international_student", "international"})
	firstGenIdx, _ := findColumn(colMap, []string{"first_generation", "firstgen"})
	referralIdx, _ := findColumn(colMap, []string{"referral_source", "referral"})
	waitIdx, _ := findColumn(colMap, []string{"wait_days", "wait"})
	noShowIdx, _ := findColumn(colMap, []string{"no_show", "noshow"})
	followUpIdx, _ := findColumn(colMap, []string{"follow_up_scheduled", "followup"})

	var records []Record
	invalidRows := 0
	for {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, 0, fmt.Errorf("unable to read CSV: %w", err)
		}
		if len(row) == 0 {
			continue
		}

		studentID := getValue(row, idIdx)
		if studentID == "" {
			invalidRows++
			continue
		}
		date, err := parseDate(getValue(row, dateIdx))
		if err != nil {
			invalidRows++
			continue
		}

		records = append(records, Record{
			StudentID:            studentID,
			AppointmentDate:      date,
			ServiceType:          getValue(row, serviceIdx),
			CounselorID:          getValue(row, counselorIdx),
			DurationMinutes:      parseOptionalInt(getValue(row, durationIdx)),
			StudentYear:          getValue(row, yearIdx),
			StudentCollege:       getValue(row, collegeIdx),
			StudentStatus:        getValue(row, statusIdx),
			InternationalStudent: parseBool(getValue(row, intlIdx)),
			FirstGeneration:      parseBool(getValue(row, firstGenIdx)),
			ReferralSource:       getValue(row, referralIdx),
			WaitDays:             parseOptionalInt(getValue(row, waitIdx)),
			NoShow:               parseBool(getValue(row, noShowIdx)),
			FollowUpScheduled:    parseBool(getValue(row, followUpIdx)),
		})
	}
	return records, invalidRows, nil
}

// WriteCSV writes records to path as a self-describing header+rows file,
// creating parent directories as needed.
func WriteCSV(records []Record, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.StudentID,
			record.AppointmentDate.Format("2006-01-02"),
			record.ServiceType,
			record.CounselorID,
			formatOptionalInt(record.DurationMinutes),
			record.StudentYear,
			record.StudentCollege,
			record.StudentStatus,
			strconv.FormatBool(record.InternationalStudent),
			strconv.FormatBool(record.FirstGeneration),
			record.ReferralSource,
			formatOptionalInt(record.WaitDays),
			strconv.FormatBool(record.NoShow),
			strconv.FormatBool(record.FollowUpScheduled),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05Z07:00",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func parseOptionalInt(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &parsed
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func findColumn(headers map[string]int, names []string) (int, bool) {
	for _, name := range names {
		if idx, ok := headers[normalizeHeader(name)]; ok {
			return idx, true
		}
	}
	return -1, false
}

func getValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
