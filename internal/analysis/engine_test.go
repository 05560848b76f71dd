package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop(), Config{})
}

func TestClassifyDemographicsTiers(t *testing.T) {
	cases := []struct {
		name     string
		visits   int
		students int
		wait     float64
		want     GapLabel
	}{
		{"high via wait", 30, 10, 7.5, GapHigh},
		{"high via utilization", 19, 10, 2, GapHigh},
		{"moderate via wait", 40, 10, 3.5, GapModerate},
		{"moderate via utilization", 29, 10, 2, GapModerate},
		{"asymmetric boundary wait in (3,7] util in [2,3)", 25, 10, 5, GapModerate},
		{"wait exactly 7 with healthy utilization", 40, 10, 7, GapModerate},
		{"adequate", 30, 10, 2, GapAdequate},
		{"adequate boundary wait 3 util 3", 30, 10, 3, GapAdequate},
	}

	engine := newTestEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := []DemographicSegment{{
				StudentYear:    "Junior",
				College:        "College of Business",
				TotalVisits:    tc.visits,
				UniqueStudents: tc.students,
				AvgWaitDays:    tc.wait,
			}}
			scored, skipped := engine.ClassifyDemographics(rows)
			require.Len(t, scored, 1)
			assert.Equal(t, 0, skipped)
			assert.Equal(t, tc.want, scored[0].ServiceGap)
			assert.InDelta(t, float64(tc.visits)/float64(tc.students), scored[0].UtilizationRate, 1e-9)
		})
	}
}

func TestClassifyDemographicsHighWaitOverridesUtilization(t *testing.T) {
	// visits=10, students=3 gives utilization 3.33; wait 9 still forces High Gap.
	engine := newTestEngine()
	scored, skipped := engine.ClassifyDemographics([]DemographicSegment{{
		StudentYear:    "Freshman",
		TotalVisits:    10,
		UniqueStudents: 3,
		AvgWaitDays:    9,
	}})
	require.Len(t, scored, 1)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, GapHigh, scored[0].ServiceGap)
	assert.InDelta(t, 3.33, scored[0].UtilizationRate, 0.01)
}

func TestClassifyDemographicsSkipsZeroStudents(t *testing.T) {
	engine := newTestEngine()
	scored, skipped := engine.ClassifyDemographics([]DemographicSegment{
		{StudentYear: "Senior", TotalVisits: 12, UniqueStudents: 0, AvgWaitDays: 4},
		{StudentYear: "Senior", TotalVisits: 12, UniqueStudents: 4, AvgWaitDays: 1},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, GapAdequate, scored[0].ServiceGap)
}

func temporalRow(count int, counselors int) TemporalDemand {
	return TemporalDemand{Year: 2024, Month: 3, DayOfWeek: 2, ServiceCategory: "Counseling", AppointmentCount: count, AvailableCounselors: counselors}
}

func TestFlagPeakDemand(t *testing.T) {
	engine := newTestEngine()
	rows := []TemporalDemand{
		temporalRow(10, 10), // 1.0
		temporalRow(20, 10), // 2.0
		temporalRow(30, 10), // 3.0
		temporalRow(40, 10), // 4.0
	}
	scored, skipped := engine.FlagPeakDemand(rows)
	require.Len(t, scored, 4)
	assert.Equal(t, 0, skipped)

	// p75 of {1,2,3,4} is 3.25; only the last row is strictly above it.
	assert.False(t, scored[0].PeakDemand)
	assert.False(t, scored[1].PeakDemand)
	assert.False(t, scored[2].PeakDemand)
	assert.True(t, scored[3].PeakDemand)
}

func TestFlagPeakDemandMonotonic(t *testing.T) {
	engine := newTestEngine()
	base := []TemporalDemand{
		temporalRow(10, 10),
		temporalRow(20, 10),
		temporalRow(30, 10),
		temporalRow(40, 10),
	}
	scored, _ := engine.FlagPeakDemand(base)

	// Raising one row's demand while holding the others fixed must never
	// flip that row's peak flag from true to false.
	for i := range base {
		bumped := append([]TemporalDemand{}, base...)
		bumped[i].AppointmentCount += 50
		rescored, _ := engine.FlagPeakDemand(bumped)
		if scored[i].PeakDemand {
			assert.True(t, rescored[i].PeakDemand, "row %d lost its peak flag after demand increased", i)
		}
	}
}

func TestFlagPeakDemandSkipsZeroCounselors(t *testing.T) {
	engine := newTestEngine()
	scored, skipped := engine.FlagPeakDemand([]TemporalDemand{
		temporalRow(10, 0),
		temporalRow(10, 5),
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 1, skipped)
}

func TestRateServiceAdequacyBuckets(t *testing.T) {
	cases := []struct {
		pct  float64
		want AdequacyLabel
	}{
		{0, ""},
		{0.1, AdequacyExcellent},
		{10, AdequacyExcellent},
		{10.1, AdequacyGood},
		{25, AdequacyGood},
		{25.1, AdequacyNeedsImprovement},
		{50, AdequacyNeedsImprovement},
		{50.1, AdequacyCritical},
		{100, AdequacyCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rateServiceAdequacy(tc.pct), "pct=%v", tc.pct)
	}
}

func TestRateServiceAdequacyRows(t *testing.T) {
	engine := newTestEngine()
	scored, skipped := engine.RateServiceAdequacy([]ServiceTypeStat{
		{ServiceCategory: "Crisis", College: "College of Music", Demand: 100, ExtendedWaitCount: 60, CounselorCount: 4},
		{ServiceCategory: "Group", College: "College of Music", Demand: 0, ExtendedWaitCount: 0, CounselorCount: 4},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, AdequacyCritical, scored[0].AdequacyRating)
	assert.InDelta(t, 60.0, scored[0].PctExtendedWait, 1e-9)
	assert.InDelta(t, 25.0, scored[0].DemandPerCounselor, 1e-9)
}

func TestScoreEquityBalancedPopulation(t *testing.T) {
	engine := newTestEngine()
	// Every population matches the overall means exactly.
	rows := []PopulationStat{
		{StudentYear: "Freshman", AvgVisitsPerStudent: 4, AvgWaitDays: 5, StudentCount: 100},
		{StudentYear: "Senior", AvgVisitsPerStudent: 4, AvgWaitDays: 5, StudentCount: 40},
	}
	scored, skipped := engine.ScoreEquity(rows)
	require.Len(t, scored, 2)
	assert.Equal(t, 0, skipped)
	for _, row := range scored {
		assert.InDelta(t, 1.0, row.EquityScore, 1e-9)
		assert.False(t, row.Underserved)
	}
}

func TestScoreEquityUnderserved(t *testing.T) {
	engine := newTestEngine()
	rows := []PopulationStat{
		{StudentYear: "Freshman", AvgVisitsPerStudent: 6, AvgWaitDays: 3},
		{StudentYear: "Graduate", AvgVisitsPerStudent: 2, AvgWaitDays: 9},
	}
	scored, skipped := engine.ScoreEquity(rows)
	require.Len(t, scored, 2)
	assert.Equal(t, 0, skipped)

	// Overall means: visits 4, wait 6.
	// Graduate: visit_ratio 0.5, wait_ratio 6/9=0.667 -> score 0.583.
	assert.InDelta(t, 0.5833, scored[1].EquityScore, 0.001)
	assert.True(t, scored[1].Underserved)
	assert.False(t, scored[0].Underserved)
}

func TestScoreEquitySkipsZeroWait(t *testing.T) {
	engine := newTestEngine()
	scored, skipped := engine.ScoreEquity([]PopulationStat{
		{StudentYear: "Junior", AvgVisitsPerStudent: 4, AvgWaitDays: 0},
		{StudentYear: "Senior", AvgVisitsPerStudent: 4, AvgWaitDays: 6},
	})
	require.Len(t, scored, 1)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "Senior", scored[0].StudentYear)
}

func TestProjectResourceNeeds(t *testing.T) {
	engine := newTestEngine()

	atTarget := ResourceCapacity{ServiceCategory: "Counseling", CurrentCounselors: 4, AvgWaitDays: 3, TotalAppointments: 800, TotalMinutes: 48000}
	tripleWait := ResourceCapacity{ServiceCategory: "Crisis", CurrentCounselors: 4, AvgWaitDays: 9}
	belowTarget := ResourceCapacity{ServiceCategory: "Group", CurrentCounselors: 6, AvgWaitDays: 1.5}

	scored, skipped := engine.ProjectResourceNeeds([]ResourceCapacity{atTarget, tripleWait, belowTarget})
	require.Len(t, scored, 3)
	assert.Equal(t, 0, skipped)

	assert.InDelta(t, 1.0, scored[0].WaitReductionFactor, 1e-9)
	assert.Equal(t, 0, scored[0].AdditionalCounselorsNeeded)
	assert.InDelta(t, 0.0, scored[0].PctIncreaseNeeded, 1e-9)
	assert.InDelta(t, 200.0, scored[0].AvgAppointmentsPerCounselor, 1e-9)
	assert.InDelta(t, 200.0, scored[0].AvgHoursPerCounselor, 1e-9)

	assert.InDelta(t, 3.0, scored[1].WaitReductionFactor, 1e-9)
	assert.Equal(t, 8, scored[1].AdditionalCounselorsNeeded)
	assert.InDelta(t, 200.0, scored[1].PctIncreaseNeeded, 1e-9)

	// Waits already under target clamp to zero, never negative.
	assert.Equal(t, 0, scored[2].AdditionalCounselorsNeeded)
}

func TestProjectResourceNeedsDeterministic(t *testing.T) {
	engine := newTestEngine()
	rows := []ResourceCapacity{
		{ServiceCategory: "Counseling", CurrentCounselors: 7, AvgWaitDays: 5.5, TotalAppointments: 1400, TotalMinutes: 70000},
	}
	first, _ := engine.ProjectResourceNeeds(rows)
	second, _ := engine.ProjectResourceNeeds(rows)
	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first[0].AdditionalCounselorsNeeded, 0)
}

func TestProjectResourceNeedsSkipsZeroCounselors(t *testing.T) {
	engine := newTestEngine()
	scored, skipped := engine.ProjectResourceNeeds([]ResourceCapacity{
		{ServiceCategory: "Other", CurrentCounselors: 0, AvgWaitDays: 5},
	})
	assert.Empty(t, scored)
	assert.Equal(t, 1, skipped)
}

func TestPercentile(t *testing.T) {
	assert.InDelta(t, 3.25, Percentile([]float64{1, 2, 3, 4}, 75), 1e-9)
	assert.InDelta(t, 2.5, Percentile([]float64{1, 2, 3, 4}, 50), 1e-9)
	assert.InDelta(t, 1, Percentile([]float64{4, 3, 2, 1}, 0), 1e-9)
	assert.InDelta(t, 4, Percentile([]float64{4, 3, 2, 1}, 100), 1e-9)
	assert.InDelta(t, 7, Percentile([]float64{7}, 75), 1e-9)
	assert.InDelta(t, 0, Percentile(nil, 75), 1e-9)
}
