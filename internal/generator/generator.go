// Package generator produces an anonymized, realistic sample of
// counseling appointment records for pipeline runs without real data.
// All randomness flows through an injected *rand.Rand so a fixed seed
// reproduces the dataset exactly.
package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"

	"campus-counseling-gap-analysis/internal/dataset"
)

var (
	serviceTypes = []string{
		"Individual Counseling", "Crisis Support", "Group Therapy",
		"Therapy Session", "Workshop", "Assessment", "Follow-up",
	}
	serviceTypeWeights = []float64{35, 10, 15, 25, 8, 5, 2}

	colleges = []string{
		"College of Business", "College of Engineering", "College of Arts and Sciences",
		"College of Education", "College of Health", "College of Liberal Arts",
		"College of Music", "College of Visual Arts",
	}

	studentYears = []string{"Freshman", "Sophomore", "Junior", "Senior", "Graduate"}

	referralSources = []string{
		"Self-referral", "Faculty", "Advisor", "Peer", "Health Services",
		"Residence Life", "Athletics", "Online", "Emergency",
	}
	crisisReferralWeights  = []float64{20, 10, 5, 5, 15, 10, 5, 5, 25}
	defaultReferralWeights = []float64{40, 15, 10, 10, 10, 5, 3, 5, 2}
)

const (
	defaultNumStudents   = 20000
	defaultNumCounselors = 50
	utilizationProb      = 0.15
	missingRate          = 0.02
	maxVisitsPerStudent  = 20
	firstVisitCrisisProb = 0.15
	sameCounselorProb    = 0.7
)

type Config struct {
	NumStudents   int
	NumCounselors int
	StartDate     time.Time
	EndDate       time.Time
}

type Generator struct {
	cfg Config
	rng *rand.Rand
	log *zap.Logger
}

func New(cfg Config, rng *rand.Rand, log *zap.Logger) *Generator {
	if cfg.NumStudents <= 0 {
		cfg.NumStudents = defaultNumStudents
	}
	if cfg.NumCounselors <= 0 {
		cfg.NumCounselors = defaultNumCounselors
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{cfg: cfg, rng: rng, log: log}
}

// Generate builds the full appointment dataset, sorted by appointment
// date. Roughly 15% of students use services; visit counts follow a
// gamma(2,2) distribution capped at 20; waits are heavier during the
// October/November and April/May stress periods; about 2% of duration
// and wait values are blanked to mimic source data quality.
func (g *Generator) Generate() []dataset.Record {
	dates := g.dateRange()
	counselors := make([]string, g.cfg.NumCounselors)
	for i := range counselors {
		counselors[i] = fmt.Sprintf("CNS%03d", i+1)
	}

	var records []dataset.Record
	for s := 1; s <= g.cfg.NumStudents; s++ {
		if g.rng.Float64() > utilizationProb {
			continue
		}
		studentID := fmt.Sprintf("STU%06d", s)

		studentYear := studentYears[g.rng.Intn(len(studentYears))]
		college := colleges[g.rng.Intn(len(colleges))]
		status := "Full-time"
		if g.rng.Float64() < 0.15 {
			status = "Part-time"
		}
		international := g.rng.Float64() < 0.12
		firstGeneration := g.rng.Float64() < 0.20

		numVisits := int(g.gamma22()) + 1
		if numVisits > maxVisitsPerStudent {
			numVisits = maxVisitsPerStudent
		}
		if numVisits > len(dates) {
			numVisits = len(dates)
		}
		visitDates := g.sampleDates(dates, numVisits)

		prevCounselor := ""
		for i, appointmentDate := range visitDates {
			serviceType := g.pickServiceType(i)

			counselor := counselors[g.rng.Intn(len(counselors))]
			if i > 0 && g.rng.Float64() < sameCounselorProb {
				counselor = prevCounselor
			}
			prevCounselor = counselor

			duration := g.duration(serviceType)
			wait := g.waitDays(serviceType, appointmentDate)
			noShow := g.rng.Float64() < 0.05+float64(wait)*0.01
			referral := g.referralSource(i, serviceType)
			followUp := i < len(visitDates)-1 || g.rng.Float64() < 0.4

			record := dataset.Record{
				StudentID:            studentID,
				AppointmentDate:      appointmentDate,
				ServiceType:          serviceType,
				CounselorID:          counselor,
				DurationMinutes:      &duration,
				StudentYear:          studentYear,
				StudentCollege:       college,
				StudentStatus:        status,
				InternationalStudent: international,
				FirstGeneration:      firstGeneration,
				ReferralSource:       referral,
				WaitDays:             &wait,
				NoShow:               noShow,
				FollowUpScheduled:    followUp,
			}
			if g.rng.Float64() < missingRate {
				record.DurationMinutes = nil
			}
			if g.rng.Float64() < missingRate {
				record.WaitDays = nil
			}
			records = append(records, record)
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AppointmentDate.Before(records[j].AppointmentDate)
	})

	g.log.Info("generated sample dataset",
		zap.Int("records", len(records)),
		zap.Int("target_students", g.cfg.NumStudents))
	return records
}

func (g *Generator) dateRange() []time.Time {
	var dates []time.Time
	for d := g.cfg.StartDate; !d.After(g.cfg.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

func (g *Generator) sampleDates(dates []time.Time, n int) []time.Time {
	picked := make(map[int]bool, n)
	out := make([]time.Time, 0, n)
	for len(out) < n {
		idx := g.rng.Intn(len(dates))
		if picked[idx] {
			continue
		}
		picked[idx] = true
		out = append(out, dates[idx])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (g *Generator) pickServiceType(visitIdx int) string {
	if visitIdx == 0 && g.rng.Float64() < firstVisitCrisisProb {
		return "Crisis Support"
	}
	return weightedChoice(g.rng, serviceTypes, serviceTypeWeights)
}

func (g *Generator) duration(serviceType string) int {
	switch serviceType {
	case "Workshop":
		return g.randInt(90, 120)
	case "Group Therapy":
		return g.randInt(60, 90)
	case "Crisis Support":
		return g.randInt(45, 90)
	default:
		return g.randInt(30, 60)
	}
}

func (g *Generator) waitDays(serviceType string, date time.Time) int {
	if serviceType == "Crisis Support" {
		return g.randInt(0, 3)
	}
	switch date.Month() {
	case time.October, time.November, time.April, time.May:
		return g.randInt(7, 21)
	default:
		return g.randInt(2, 10)
	}
}

func (g *Generator) referralSource(visitIdx int, serviceType string) string {
	if visitIdx > 0 {
		return "Follow-up"
	}
	if serviceType == "Crisis Support" {
		return weightedChoice(g.rng, referralSources, crisisReferralWeights)
	}
	return weightedChoice(g.rng, referralSources, defaultReferralWeights)
}

// gamma22 samples a gamma(shape=2, scale=2) variate as the sum of two
// exponentials.
func (g *Generator) gamma22() float64 {
	return 2 * (g.rng.ExpFloat64() + g.rng.ExpFloat64())
}

// randInt returns an integer in [low, high], both bounds inclusive.
func (g *Generator) randInt(low int, high int) int {
	return low + g.rng.Intn(high-low+1)
}

func weightedChoice(rng *rand.Rand, items []string, weights []float64) string {
	var total float64
	for _, w := range weights {
		total += w
	}
	target := rng.Float64() * total
	for i, w := range weights {
		target -= w
		if target < 0 {
			return items[i]
		}
	}
	return items[len(items)-1]
}
