package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func writeFile(path string, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCSVRoundTrip(t *testing.T) {
	records := []Record{
		{
			StudentID:            "STU000001",
			AppointmentDate:      date(2024, time.March, 5),
			ServiceType:          "Crisis Support",
			CounselorID:          "CNS001",
			DurationMinutes:      intPtr(60),
			StudentYear:          "Freshman",
			StudentCollege:       "College of Music",
			StudentStatus:        "Full-time",
			InternationalStudent: true,
			ReferralSource:       "Self-referral",
			WaitDays:             intPtr(2),
			NoShow:               false,
			FollowUpScheduled:    true,
		},
		{
			StudentID:       "STU000002",
			AppointmentDate: date(2024, time.March, 6),
			ServiceType:     "Workshop",
			CounselorID:     "CNS002",
			StudentYear:     "Senior",
			// DurationMinutes and WaitDays missing on purpose.
		},
	}

	path := filepath.Join(t.TempDir(), "records.csv")
	require.NoError(t, WriteCSV(records, path))

	loaded, invalid, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 0, invalid)
	require.Len(t, loaded, 2)
	assert.Equal(t, records[0], loaded[0])
	assert.Nil(t, loaded[1].DurationMinutes)
	assert.Nil(t, loaded[1].WaitDays)
}

func TestReadCSVCountsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	csvData := "student_id,appointment_date,service_type\n" +
		"STU1,2024-01-05,Workshop\n" +
		",2024-01-06,Workshop\n" +
		"STU2,not-a-date,Workshop\n"
	require.NoError(t, writeFile(path, csvData))

	records, invalid, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, invalid)
}

func TestTransformDedupeAndDrop(t *testing.T) {
	records := []Record{
		{StudentID: "STU1", AppointmentDate: date(2024, time.January, 5), ServiceType: "Workshop"},
		{StudentID: "STU1", AppointmentDate: date(2024, time.January, 5), ServiceType: "Workshop"}, // duplicate
		{StudentID: "STU1", AppointmentDate: date(2024, time.January, 5), ServiceType: "Assessment"},
		{StudentID: "", AppointmentDate: date(2024, time.January, 5), ServiceType: "Workshop"}, // missing id
	}

	out, stats := Transform(records)
	assert.Len(t, out, 2)
	assert.Equal(t, 4, stats.Input)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 2, stats.Output)
}

func TestTransformEnrichment(t *testing.T) {
	wait := 20
	records := []Record{
		// 2024-03-02 is a Saturday.
		{StudentID: "STU1", AppointmentDate: date(2024, time.March, 2), ServiceType: "Individual Counseling", WaitDays: &wait},
		{StudentID: "STU1", AppointmentDate: date(2024, time.March, 12), ServiceType: "Crisis Support"},
	}

	out, _ := Transform(records)
	require.Len(t, out, 2)

	first, second := out[0], out[1]
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, 3, first.Month)
	assert.Equal(t, 7, first.DayOfWeek)
	assert.True(t, first.IsWeekend)
	assert.Equal(t, "Counseling", first.ServiceCategory)
	assert.Equal(t, 1, first.VisitNumber)
	assert.Nil(t, first.DaysSinceLastVisit)
	assert.True(t, first.HighRisk) // wait > 14

	assert.Equal(t, "Crisis", second.ServiceCategory)
	assert.Equal(t, 2, second.VisitNumber)
	require.NotNil(t, second.DaysSinceLastVisit)
	assert.Equal(t, 10, *second.DaysSinceLastVisit)
	assert.True(t, second.HighRisk) // crisis category
	assert.False(t, second.IsWeekend)
}

func TestServiceCategoryMapping(t *testing.T) {
	cases := map[string]string{
		"Individual Counseling": "Counseling",
		"Therapy Session":       "Counseling",
		"Crisis Support":        "Crisis",
		"Emergency":             "Crisis",
		"Group Therapy":         "Group",
		"Workshop":              "Group",
		"Assessment":            "Other",
		"Follow-up":             "Other",
	}
	for serviceType, want := range cases {
		assert.Equal(t, want, ServiceCategory(serviceType), serviceType)
	}
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Sunday", DayName(1))
	assert.Equal(t, "Saturday", DayName(7))
	assert.Equal(t, "", DayName(0))
}
