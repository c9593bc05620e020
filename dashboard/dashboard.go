// Package dashboard aggregates clinic workload and patient status statistics
// over a snapshot of all patients and visits.
package dashboard

import (
	"cmp"
	"slices"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

const (
	DefaultLookbackWeeks = 4
	workloadWindowDays   = 365
	buddhistEraOffset    = 543
	fiscalYearStartMonth = time.October
)

type Snapshot struct {
	Patients []*patients.Patient
	Visits   []*visits.Visit
}

func (s Snapshot) patientsByHN() map[string]*patients.Patient {
	result := make(map[string]*patients.Patient, len(s.Patients))
	for _, p := range s.Patients {
		if p != nil {
			result[p.HN] = p
		}
	}
	return result
}

func (s Snapshot) visitsByHN() map[string][]*visits.Visit {
	result := make(map[string][]*visits.Visit)
	for _, v := range s.Visits {
		if v != nil {
			result[v.HN] = append(result[v.HN], v)
		}
	}
	return result
}

type Dashboard struct {
	Date              time.Time             `json:"date"`
	TodayAppointments []TodayAppointment    `json:"todayAppointments"`
	Daily             DailyCounts           `json:"daily"`
	Workload          MonthlyWorkload       `json:"workload"`
	Weekly            WeeklyLookback        `json:"weekly"`
	ControlLevels     []ControlCount        `json:"controlLevels"`
	Zones             []ZoneCount           `json:"zones"`
	TechniqueByYear   []FiscalYearTechnique `json:"techniqueByFiscalYear"`
	DRPByYear         []FiscalYearCount     `json:"drpByFiscalYear"`
}

// Build computes every dashboard section as of the given time
func Build(snapshot Snapshot, assembler *summary.Assembler, asOf time.Time) Dashboard {
	return Dashboard{
		Date:              visits.Day(asOf),
		TodayAppointments: TodayAppointments(snapshot, asOf),
		Daily:             Daily(snapshot, asOf),
		Workload:          Workload(snapshot, asOf),
		Weekly:            Weekly(snapshot, asOf, DefaultLookbackWeeks),
		ControlLevels:     ControlDistribution(snapshot),
		Zones:             ZoneCounts(snapshot, assembler, asOf),
		TechniqueByYear:   TechniqueByFiscalYear(snapshot),
		DRPByYear:         DRPByFiscalYear(snapshot),
	}
}

type TodayAppointment struct {
	HN        string    `json:"hn"`
	FullName  string    `json:"fullName"`
	DRP       string    `json:"drp,omitempty"`
	HasIssue  bool      `json:"hasIssue"`
	VisitDate time.Time `json:"visitDate"`
}

// TodayAppointments lists patients booked for the day of asOf, patients with an outstanding
// medication related problem first
func TodayAppointments(snapshot Snapshot, asOf time.Time) []TodayAppointment {
	names := snapshot.patientsByHN()
	byHN := make(map[string]*visits.Visit)
	for _, v := range snapshot.Visits {
		if v == nil || summary.VisitAppointment(v, asOf).State != summary.AppointmentToday {
			continue
		}
		// the most recent visit booking the appointment carries the relevant medication notes
		if current, ok := byHN[v.HN]; !ok || !v.Date.Before(current.Date) {
			byHN[v.HN] = v
		}
	}

	result := make([]TodayAppointment, 0, len(byHN))
	for hn, v := range byHN {
		appointment := TodayAppointment{
			HN:        hn,
			HasIssue:  v.HasDRP(),
			VisitDate: v.Date,
		}
		if appointment.HasIssue {
			appointment.DRP = strings.TrimSpace(v.DRP)
		}
		if p, ok := names[hn]; ok {
			appointment.FullName = p.FullName()
		}
		result = append(result, appointment)
	}

	slices.SortFunc(result, func(a, b TodayAppointment) int {
		if a.HasIssue != b.HasIssue {
			if a.HasIssue {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.HN, b.HN)
	})
	return result
}

type DailyCounts struct {
	Visits   int `json:"visits"`
	NewCases int `json:"newCases"`
	// Patients is the number of distinct patients with at least one visit
	Patients int `json:"patients"`
}

func Daily(snapshot Snapshot, asOf time.Time) DailyCounts {
	today := visits.Day(asOf)
	unique := mapset.NewSet[string]()

	var counts DailyCounts
	for _, v := range snapshot.Visits {
		if v == nil {
			continue
		}
		unique.Add(v.HN)
		if v.Date.Equal(today) {
			counts.Visits++
			if v.IsNewCase {
				counts.NewCases++
			}
		}
	}
	counts.Patients = unique.Cardinality()
	return counts
}

type MonthCount struct {
	Month    string `json:"month"`
	Visits   int    `json:"visits"`
	NewCases int    `json:"newCases"`
}

type MonthlyWorkload struct {
	// Trend covers the whole history, oldest month first
	Trend []MonthCount `json:"trend"`
	// LastYear covers visits of the last 365 days, newest month first
	LastYear []MonthCount `json:"lastYear"`
}

func Workload(snapshot Snapshot, asOf time.Time) MonthlyWorkload {
	since := visits.Day(asOf).AddDate(0, 0, -workloadWindowDays)

	trend := monthCounts(snapshot.Visits, func(*visits.Visit) bool { return true })
	// the day exactly a year back falls outside the window, as in Weekly
	lastYear := monthCounts(snapshot.Visits, func(v *visits.Visit) bool { return v.Date.After(since) })
	slices.Reverse(lastYear)

	return MonthlyWorkload{
		Trend:    trend,
		LastYear: lastYear,
	}
}

func monthCounts(all []*visits.Visit, include func(*visits.Visit) bool) []MonthCount {
	byMonth := make(map[string]*MonthCount)
	for _, v := range all {
		if v == nil || !include(v) {
			continue
		}
		month := v.Date.Format("2006-01")
		count, ok := byMonth[month]
		if !ok {
			count = &MonthCount{Month: month}
			byMonth[month] = count
		}
		count.Visits++
		if v.IsNewCase {
			count.NewCases++
		}
	}

	result := make([]MonthCount, 0, len(byMonth))
	for _, count := range byMonth {
		result = append(result, *count)
	}
	slices.SortFunc(result, func(a, b MonthCount) int { return cmp.Compare(a.Month, b.Month) })
	return result
}

type WeekGroup struct {
	Start    time.Time       `json:"start"`
	Visits   int             `json:"visits"`
	NewCases int             `json:"newCases"`
	Records  []*visits.Visit `json:"records"`
}

type WeeklyLookback struct {
	Weeks                  int         `json:"weeks"`
	AverageVisitsPerWeek   float64     `json:"averageVisitsPerWeek"`
	AverageNewCasesPerWeek float64     `json:"averageNewCasesPerWeek"`
	Groups                 []WeekGroup `json:"groups"`
}

// Weekly groups the visits of the last weeks*7 days, including today, by the Monday starting their week
func Weekly(snapshot Snapshot, asOf time.Time, weeks int) WeeklyLookback {
	today := visits.Day(asOf)
	cutoff := today.AddDate(0, 0, -weeks*7)

	byWeek := make(map[time.Time]*WeekGroup)
	var total, newCases int
	for _, v := range snapshot.Visits {
		if v == nil || !v.Date.After(cutoff) || v.Date.After(today) {
			continue
		}
		start := WeekStart(v.Date)
		group, ok := byWeek[start]
		if !ok {
			group = &WeekGroup{Start: start}
			byWeek[start] = group
		}
		group.Visits++
		group.Records = append(group.Records, v)
		total++
		if v.IsNewCase {
			group.NewCases++
			newCases++
		}
	}

	groups := make([]WeekGroup, 0, len(byWeek))
	for _, group := range byWeek {
		slices.SortStableFunc(group.Records, func(a, b *visits.Visit) int { return b.Date.Compare(a.Date) })
		groups = append(groups, *group)
	}
	slices.SortFunc(groups, func(a, b WeekGroup) int { return b.Start.Compare(a.Start) })

	result := WeeklyLookback{
		Weeks:  weeks,
		Groups: groups,
	}
	if weeks > 0 {
		result.AverageVisitsPerWeek = float64(total) / float64(weeks)
		result.AverageNewCasesPerWeek = float64(newCases) / float64(weeks)
	}
	return result
}

// WeekStart returns the Monday of the week of a calendar day
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return visits.Day(day).AddDate(0, 0, -offset)
}

// FiscalYear is the Thai government fiscal year in Buddhist era. It starts in October.
func FiscalYear(t time.Time) int {
	year := t.Year()
	if t.Month() >= fiscalYearStartMonth {
		year++
	}
	return year + buddhistEraOffset
}
