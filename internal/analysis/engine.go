package analysis

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// ErrDivisionUndefined marks a row whose derived ratio has a zero
// denominator. Affected rows are excluded from the scored output and
// counted in the stage summary rather than silently dropped.
var ErrDivisionUndefined = errors.New("division undefined: zero denominator")

const (
	defaultTargetWaitDays             = 3.0
	defaultStandardWeeklyAppointments = 40
	underservedThreshold              = 0.7
	extendedWaitThresholdDays         = 7
	peakDemandPercentile              = 75.0
)

// Config carries the tunable projection parameters.
// StandardWeeklyAppointments is accepted for compatibility with the
// projection's documented inputs but does not enter the current formula.
type Config struct {
	TargetWaitDays             float64
	StandardWeeklyAppointments int
}

// Engine scores aggregate stat tables. All methods are pure with respect
// to their inputs: rows are never mutated, a new slice is returned.
type Engine struct {
	log *zap.Logger
	cfg Config
}

func NewEngine(log *zap.Logger, cfg Config) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TargetWaitDays <= 0 {
		cfg.TargetWaitDays = defaultTargetWaitDays
	}
	if cfg.StandardWeeklyAppointments <= 0 {
		cfg.StandardWeeklyAppointments = defaultStandardWeeklyAppointments
	}
	return &Engine{log: log, cfg: cfg}
}

// classifyDemographicGap applies the three-tier rule, first match wins.
// The High Gap utilization clause (<2) is intentionally looser than the
// Moderate clause (<3) while the wait clause is tighter (7 vs 3); the
// tiers are independent or-clauses, not nested refinements, so a row with
// wait in (3,7] and utilization in [2,3) lands in Moderate Gap.
func classifyDemographicGap(row DemographicSegment) (float64, GapLabel, error) {
	if row.UniqueStudents == 0 {
		return 0, "", fmt.Errorf("segment %s/%s: utilization rate: %w", row.StudentYear, row.College, ErrDivisionUndefined)
	}
	utilization := float64(row.TotalVisits) / float64(row.UniqueStudents)
	switch {
	case row.AvgWaitDays > 7 || utilization < 2:
		return utilization, GapHigh, nil
	case row.AvgWaitDays > 3 || utilization < 3:
		return utilization, GapModerate, nil
	default:
		return utilization, GapAdequate, nil
	}
}

// ClassifyDemographics labels each segment with its service gap tier.
// Returns the scored rows and the number of rows skipped because their
// utilization rate was undefined.
func (e *Engine) ClassifyDemographics(rows []DemographicSegment) ([]DemographicGap, int) {
	out := make([]DemographicGap, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		utilization, label, err := classifyDemographicGap(row)
		if err != nil {
			skipped++
			e.log.Warn("skipping demographic segment", zap.Error(err))
			continue
		}
		out = append(out, DemographicGap{
			DemographicSegment: row,
			UtilizationRate:    utilization,
			ServiceGap:         label,
		})
	}
	return out, skipped
}

// FlagPeakDemand computes demand per counselor for every row, then marks
// rows strictly above the 75th percentile of that ratio. The percentile
// is recomputed over whatever row set is passed, never cached.
func (e *Engine) FlagPeakDemand(rows []TemporalDemand) ([]TemporalPeak, int) {
	out := make([]TemporalPeak, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.AvailableCounselors == 0 {
			skipped++
			e.log.Warn("skipping temporal row",
				zap.Int("year", row.Year),
				zap.Int("month", row.Month),
				zap.String("service_category", row.ServiceCategory),
				zap.Error(ErrDivisionUndefined))
			continue
		}
		out = append(out, TemporalPeak{
			TemporalDemand:     row,
			DemandPerCounselor: float64(row.AppointmentCount) / float64(row.AvailableCounselors),
		})
	}

	demands := make([]float64, len(out))
	for i, row := range out {
		demands[i] = row.DemandPerCounselor
	}
	threshold := Percentile(demands, peakDemandPercentile)
	for i := range out {
		out[i].PeakDemand = out[i].DemandPerCounselor > threshold
	}
	return out, skipped
}

// rateServiceAdequacy buckets the extended-wait percentage into the
// half-open intervals (0,10], (10,25], (25,50], (50,100]. A value of
// exactly zero falls outside every bucket and is left unrated.
func rateServiceAdequacy(pctExtendedWait float64) AdequacyLabel {
	switch {
	case pctExtendedWait > 0 && pctExtendedWait <= 10:
		return AdequacyExcellent
	case pctExtendedWait > 10 && pctExtendedWait <= 25:
		return AdequacyGood
	case pctExtendedWait > 25 && pctExtendedWait <= 50:
		return AdequacyNeedsImprovement
	case pctExtendedWait > 50 && pctExtendedWait <= 100:
		return AdequacyCritical
	default:
		return ""
	}
}

// RateServiceAdequacy derives extended-wait percentage and demand per
// counselor, then attaches the adequacy rating.
func (e *Engine) RateServiceAdequacy(rows []ServiceTypeStat) ([]ServiceAdequacy, int) {
	out := make([]ServiceAdequacy, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.Demand == 0 || row.CounselorCount == 0 {
			skipped++
			e.log.Warn("skipping service type row",
				zap.String("service_category", row.ServiceCategory),
				zap.String("college", row.College),
				zap.Error(ErrDivisionUndefined))
			continue
		}
		pct := float64(row.ExtendedWaitCount) / float64(row.Demand) * 100
		out = append(out, ServiceAdequacy{
			ServiceTypeStat:    row,
			PctExtendedWait:    pct,
			DemandPerCounselor: float64(row.Demand) / float64(row.CounselorCount),
			AdequacyRating:     rateServiceAdequacy(pct),
		})
	}
	return out, skipped
}

// ScoreEquity computes each population's equity score against the simple
// (unweighted) means of the whole row set. A population matching both
// overall means scores exactly 1.0.
func (e *Engine) ScoreEquity(rows []PopulationStat) ([]PopulationEquity, int) {
	if len(rows) == 0 {
		return nil, 0
	}

	visits := make([]float64, len(rows))
	waits := make([]float64, len(rows))
	for i, row := range rows {
		visits[i] = row.AvgVisitsPerStudent
		waits[i] = row.AvgWaitDays
	}
	overallAvgVisits := average(visits)
	overallAvgWait := average(waits)

	out := make([]PopulationEquity, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.AvgWaitDays == 0 || overallAvgVisits == 0 {
			skipped++
			e.log.Warn("skipping population row",
				zap.String("student_year", row.StudentYear),
				zap.Bool("international", row.International),
				zap.Bool("first_generation", row.FirstGeneration),
				zap.Error(ErrDivisionUndefined))
			continue
		}
		visitRatio := row.AvgVisitsPerStudent / overallAvgVisits
		waitRatio := overallAvgWait / row.AvgWaitDays
		score := (visitRatio + waitRatio) / 2
		out = append(out, PopulationEquity{
			PopulationStat: row,
			VisitRatio:     visitRatio,
			WaitRatio:      waitRatio,
			EquityScore:    score,
			Underserved:    score < underservedThreshold,
		})
	}
	return out, skipped
}

// ProjectResourceNeeds estimates the additional counselors required to
// bring average wait down to the target. The projection is deterministic:
// identical inputs always produce identical outputs.
func (e *Engine) ProjectResourceNeeds(rows []ResourceCapacity) ([]ResourceNeed, int) {
	out := make([]ResourceNeed, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if row.CurrentCounselors == 0 {
			skipped++
			e.log.Warn("skipping resource row",
				zap.String("service_category", row.ServiceCategory),
				zap.Error(ErrDivisionUndefined))
			continue
		}
		counselors := float64(row.CurrentCounselors)
		factor := row.AvgWaitDays / e.cfg.TargetWaitDays
		additional := int(math.Ceil(counselors * (factor - 1)))
		if additional < 0 {
			additional = 0
		}
		out = append(out, ResourceNeed{
			ResourceCapacity:            row,
			AvgAppointmentsPerCounselor: float64(row.TotalAppointments) / counselors,
			AvgHoursPerCounselor:        float64(row.TotalMinutes) / counselors / 60,
			WaitReductionFactor:         factor,
			AdditionalCounselorsNeeded:  additional,
			PctIncreaseNeeded:           round1(float64(additional) / counselors * 100),
		})
	}
	return out, skipped
}
