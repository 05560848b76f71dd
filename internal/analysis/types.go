package analysis

// GapLabel classifies how well a demographic segment is served.
type GapLabel string

const (
	GapHigh     GapLabel = "High Gap"
	GapModerate GapLabel = "Moderate Gap"
	GapAdequate GapLabel = "Adequate"
)

// AdequacyLabel rates staffing adequacy for a service/college combination.
// The empty label means the row fell outside every bucket (extended-wait
// percentage of exactly zero).
type AdequacyLabel string

const (
	AdequacyExcellent        AdequacyLabel = "Excellent"
	AdequacyGood             AdequacyLabel = "Good"
	AdequacyNeedsImprovement AdequacyLabel = "Needs Improvement"
	AdequacyCritical         AdequacyLabel = "Critical"
)

// DemographicSegment is one aggregate row grouped by student demographics.
type DemographicSegment struct {
	StudentYear     string
	College         string
	International   bool
	FirstGeneration bool
	TotalVisits     int
	AvgWaitDays     float64
	UniqueStudents  int
	NoShows         int
}

// DemographicGap decorates a segment with utilization and its gap label.
type DemographicGap struct {
	DemographicSegment
	UtilizationRate float64
	ServiceGap      GapLabel
}

// TemporalDemand is one aggregate row grouped by calendar period and
// service category.
type TemporalDemand struct {
	Year                int
	Month               int
	DayOfWeek           int
	DayName             string
	ServiceCategory     string
	AppointmentCount    int
	AvgWaitDays         float64
	AvailableCounselors int
}

// TemporalPeak decorates a temporal row with demand ratio and peak flag.
type TemporalPeak struct {
	TemporalDemand
	DemandPerCounselor float64
	PeakDemand         bool
}

// ServiceTypeStat is one aggregate row grouped by service category and
// college.
type ServiceTypeStat struct {
	ServiceCategory   string
	College           string
	Demand            int
	AvgWait           float64
	ExtendedWaitCount int
	CounselorCount    int
}

// ServiceAdequacy decorates a service-type row with derived ratios and
// its adequacy rating.
type ServiceAdequacy struct {
	ServiceTypeStat
	PctExtendedWait    float64
	DemandPerCounselor float64
	AdequacyRating     AdequacyLabel
}

// PopulationStat is one aggregate row over a student population cohort.
type PopulationStat struct {
	StudentYear         string
	International       bool
	FirstGeneration     bool
	StudentCount        int
	AvgVisitsPerStudent float64
	AvgWaitDays         float64
}

// PopulationEquity decorates a population row with its equity score.
type PopulationEquity struct {
	PopulationStat
	VisitRatio  float64
	WaitRatio   float64
	EquityScore float64
	Underserved bool
}

// ResourceCapacity is one aggregate row of current staffing per service
// category.
type ResourceCapacity struct {
	ServiceCategory   string
	CurrentCounselors int
	TotalAppointments int
	TotalMinutes      int
	AvgWaitDays       float64
	P75WaitDays       float64
}

// ResourceNeed decorates a capacity row with workload metrics and the
// projected staffing increase.
type ResourceNeed struct {
	ResourceCapacity
	AvgAppointmentsPerCounselor float64
	AvgHoursPerCounselor        float64
	WaitReductionFactor         float64
	AdditionalCounselorsNeeded  int
	PctIncreaseNeeded           float64
}
