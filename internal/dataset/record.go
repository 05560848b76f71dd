// Package dataset holds the appointment record model, its CSV codec and
// the cleaning/enrichment transform applied before warehouse load.
package dataset

import "time"

// Record is one raw appointment row. DurationMinutes and WaitDays are
// pointers because the source data carries missing values for both.
type Record struct {
	StudentID            string
	AppointmentDate      time.Time
	ServiceType          string
	CounselorID          string
	DurationMinutes      *int
	StudentYear          string
	StudentCollege       string
	StudentStatus        string
	InternationalStudent bool
	FirstGeneration      bool
	ReferralSource       string
	WaitDays             *int
	NoShow               bool
	FollowUpScheduled    bool
}

// EnrichedRecord is a cleaned record decorated with the temporal and
// engagement features the aggregate queries group on.
type EnrichedRecord struct {
	Record
	Year               int
	Month              int
	DayOfWeek          int // 1=Sunday .. 7=Saturday
	IsWeekend          bool
	ServiceCategory    string
	VisitNumber        int
	DaysSinceLastVisit *int
	HighRisk           bool
}

var dayNames = map[int]string{
	1: "Sunday",
	2: "Monday",
	3: "Tuesday",
	4: "Wednesday",
	5: "Thursday",
	6: "Friday",
	7: "Saturday",
}

// DayName maps the 1=Sunday..7=Saturday convention to its English name.
func DayName(dayOfWeek int) string {
	return dayNames[dayOfWeek]
}

// ServiceCategory maps a raw service type to its reporting category.
func ServiceCategory(serviceType string) string {
	switch serviceType {
	case "Individual Counseling", "Therapy Session":
		return "Counseling"
	case "Crisis Support", "Emergency":
		return "Crisis"
	case "Group Therapy", "Workshop":
		return "Group"
	default:
		return "Other"
	}
}
