package generator

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campus-counseling-gap-analysis/internal/dataset"
)

func testConfig() Config {
	return Config{
		NumStudents:   500,
		NumCounselors: 10,
		StartDate:     time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first := New(testConfig(), rand.New(rand.NewSource(42)), zap.NewNop()).Generate()
	second := New(testConfig(), rand.New(rand.NewSource(42)), zap.NewNop()).Generate()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)

	other := New(testConfig(), rand.New(rand.NewSource(7)), zap.NewNop()).Generate()
	assert.NotEqual(t, first, other)
}

func TestGenerateFieldDomains(t *testing.T) {
	records := New(testConfig(), rand.New(rand.NewSource(1)), zap.NewNop()).Generate()
	require.NotEmpty(t, records)

	validService := map[string]bool{}
	for _, s := range serviceTypes {
		validService[s] = true
	}
	validYear := map[string]bool{}
	for _, y := range studentYears {
		validYear[y] = true
	}

	visitsPerStudent := map[string]int{}
	prev := time.Time{}
	for _, record := range records {
		assert.True(t, validService[record.ServiceType], "unknown service type %q", record.ServiceType)
		assert.True(t, validYear[record.StudentYear], "unknown student year %q", record.StudentYear)
		assert.False(t, record.AppointmentDate.Before(testConfig().StartDate))
		assert.False(t, record.AppointmentDate.After(testConfig().EndDate))
		assert.False(t, record.AppointmentDate.Before(prev), "records not sorted by date")
		prev = record.AppointmentDate

		if record.WaitDays != nil {
			assert.GreaterOrEqual(t, *record.WaitDays, 0)
			assert.LessOrEqual(t, *record.WaitDays, 21)
			if record.ServiceType == "Crisis Support" {
				assert.LessOrEqual(t, *record.WaitDays, 3)
			}
		}
		if record.DurationMinutes != nil {
			assert.GreaterOrEqual(t, *record.DurationMinutes, 30)
			assert.LessOrEqual(t, *record.DurationMinutes, 120)
		}
		visitsPerStudent[record.StudentID]++
	}

	for student, visits := range visitsPerStudent {
		assert.LessOrEqual(t, visits, maxVisitsPerStudent, "student %s", student)
	}
}

func TestGenerateMissingValues(t *testing.T) {
	records := New(testConfig(), rand.New(rand.NewSource(3)), zap.NewNop()).Generate()
	require.NotEmpty(t, records)

	missingWait, missingDuration := 0, 0
	for _, record := range records {
		if record.WaitDays == nil {
			missingWait++
		}
		if record.DurationMinutes == nil {
			missingDuration++
		}
	}
	// ~2% of each column is blanked; allow a generous band.
	assert.Greater(t, missingWait, 0)
	assert.Greater(t, missingDuration, 0)
	assert.Less(t, float64(missingWait)/float64(len(records)), 0.06)
	assert.Less(t, float64(missingDuration)/float64(len(records)), 0.06)
}

func TestGenerateRecordsTransformCleanly(t *testing.T) {
	records := New(testConfig(), rand.New(rand.NewSource(9)), zap.NewNop()).Generate()
	enriched, stats := dataset.Transform(records)
	assert.Equal(t, len(records)-stats.Duplicates, len(enriched))
	assert.Equal(t, 0, stats.Dropped)
}
