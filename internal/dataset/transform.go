package dataset

import (
	"fmt"
	"sort"
)

const highRiskWaitDays = 14

// TransformStats reports what the cleaning pass removed.
type TransformStats struct {
	Input      int
	Dropped    int
	Duplicates int
	Output     int
}

// Transform cleans and enriches raw records for warehouse load. Rows
// missing a student id or date are dropped; duplicates on
// (student, date, service type) keep the first occurrence. Engagement
// features are computed per student in appointment order.
func Transform(records []Record) ([]EnrichedRecord, TransformStats) {
	stats := TransformStats{Input: len(records)}

	seen := make(map[string]bool, len(records))
	byStudent := make(map[string][]Record)
	for _, record := range records {
		if record.StudentID == "" || record.AppointmentDate.IsZero() {
			stats.Dropped++
			continue
		}
		key := fmt.Sprintf("%s|%s|%s", record.StudentID, record.AppointmentDate.Format("2006-01-02"), record.ServiceType)
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
	}

	students := make([]string, 0, len(byStudent))
	for student := range byStudent {
		students = append(students, student)
	}
	sort.Strings(students)

	var out []EnrichedRecord
	for _, student := range students {
		visits := byStudent[student]
		sort.Slice(visits, func(i, j int) bool {
			return visits[i].AppointmentDate.Before(visits[j].AppointmentDate)
		})
		for i, record := range visits {
			enriched := enrich(record)
			enriched.VisitNumber = i + 1
			if i > 0 {
				gap := int(record.AppointmentDate.Sub(visits[i-1].AppointmentDate).Hours() / 24)
				enriched.DaysSinceLastVisit = &gap
			}
			out = append(out, enriched)
		}
	}

	stats.Output = len(out)
	return out, stats
}

func enrich(record Record) EnrichedRecord {
	date := record.AppointmentDate
	dayOfWeek := int(date.Weekday()) + 1
	category := ServiceCategory(record.ServiceType)

	highRisk := category == "Crisis" || record.NoShow
	if record.WaitDays != nil && *record.WaitDays > highRiskWaitDays {
		highRisk = true
	}

	return EnrichedRecord{
		Record:          record,
		Year:            date.Year(),
		Month:           int(date.Month()),
		DayOfWeek:       dayOfWeek,
		IsWeekend:       dayOfWeek == 1 || dayOfWeek == 7,
		ServiceCategory: category,
		HighRisk:        highRisk,
	}
}
