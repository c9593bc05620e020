package dashboard

import (
	"cmp"
	"slices"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/pefr"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

type ControlCount struct {
	Level visits.ControlLevel `json:"level"`
	Count int                 `json:"count"`
}

var controlLevelOrder = []visits.ControlLevel{visits.Controlled, visits.PartlyControlled, visits.Uncontrolled, visits.ControlNotAssessed}

// ControlDistribution counts the control level of each patient's latest visit
func ControlDistribution(snapshot Snapshot) []ControlCount {
	counts := make(map[visits.ControlLevel]int)
	for _, history := range snapshot.visitsByHN() {
		latest := summary.LatestVisit(history)
		level := latest.ControlLevel
		if level == "" {
			level = visits.ControlNotAssessed
		}
		counts[level]++
	}

	result := make([]ControlCount, 0, len(controlLevelOrder))
	for _, level := range controlLevelOrder {
		result = append(result, ControlCount{Level: level, Count: counts[level]})
	}
	return result
}

type ZoneCount struct {
	Zone  pefr.Zone `json:"zone"`
	Color string    `json:"color"`
	Count int       `json:"count"`
}

var zoneOrder = []pefr.Zone{pefr.ZoneGreen, pefr.ZoneYellow, pefr.ZoneRed, pefr.ZoneNotMeasured, pefr.ZoneUnknown}

// ZoneCounts tallies the current zone of every active patient with visit history
func ZoneCounts(snapshot Snapshot, assembler *summary.Assembler, asOf time.Time) []ZoneCount {
	histories := snapshot.visitsByHN()
	counts := make(map[pefr.Zone]int)
	for _, p := range snapshot.Patients {
		if p == nil || p.Status != patients.StatusActive {
			continue
		}
		history, ok := histories[p.HN]
		if !ok {
			continue
		}
		s := assembler.Assemble(*p, history, asOf)
		if s.Zone != nil {
			counts[s.Zone.Zone]++
		}
	}

	result := make([]ZoneCount, 0, len(zoneOrder))
	for _, zone := range zoneOrder {
		result = append(result, ZoneCount{
			Zone:  zone,
			Color: pefr.ClassificationOf(zone).Color,
			Count: counts[zone],
		})
	}
	return result
}

type FiscalYearTechnique struct {
	FiscalYear int `json:"fiscalYear"`
	Sessions   int `json:"sessions"`
	Persons    int `json:"persons"`
}

// TechniqueByFiscalYear counts technique assessment sessions and distinct patients per fiscal year, newest first
func TechniqueByFiscalYear(snapshot Snapshot) []FiscalYearTechnique {
	sessions := make(map[int]int)
	persons := make(map[int]mapset.Set[string])
	for _, v := range snapshot.Visits {
		if v == nil || !v.TechniquePerformed {
			continue
		}
		year := FiscalYear(v.Date)
		sessions[year]++
		if _, ok := persons[year]; !ok {
			persons[year] = mapset.NewSet[string]()
		}
		persons[year].Add(v.HN)
	}

	result := make([]FiscalYearTechnique, 0, len(sessions))
	for year, count := range sessions {
		result = append(result, FiscalYearTechnique{
			FiscalYear: year,
			Sessions:   count,
			Persons:    persons[year].Cardinality(),
		})
	}
	slices.SortFunc(result, func(a, b FiscalYearTechnique) int { return cmp.Compare(b.FiscalYear, a.FiscalYear) })
	return result
}

type FiscalYearCount struct {
	FiscalYear int `json:"fiscalYear"`
	Count      int `json:"count"`
}

// DRPByFiscalYear counts visits documenting a medication related problem per fiscal year, newest first
func DRPByFiscalYear(snapshot Snapshot) []FiscalYearCount {
	counts := make(map[int]int)
	for _, v := range snapshot.Visits {
		if v != nil && v.HasDRP() {
			counts[FiscalYear(v.Date)]++
		}
	}

	result := make([]FiscalYearCount, 0, len(counts))
	for year, count := range counts {
		result = append(result, FiscalYearCount{FiscalYear: year, Count: count})
	}
	slices.SortFunc(result, func(a, b FiscalYearCount) int { return cmp.Compare(b.FiscalYear, a.FiscalYear) })
	return result
}
