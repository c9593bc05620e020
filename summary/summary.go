// Package summary derives the clinical signals shown to staff and patients from
// a snapshot of one patient's record and visit history. Derivations are pure,
// the current time is always passed in explicitly.
package summary

import (
	"time"

	"github.com/asthma-connect/clinic/config"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/pefr"
	"github.com/asthma-connect/clinic/visits"
)

const daysPerYear = 365

type ReferenceSource string

const (
	ReferencePredicted    ReferenceSource = "predicted"
	ReferencePersonalBest ReferenceSource = "personal_best"
	ReferenceNone         ReferenceSource = "none"
)

type Summary struct {
	HN                string          `json:"hn"`
	AsOf              time.Time       `json:"asOf"`
	Age               int             `json:"age"`
	Height            float64         `json:"height"`
	PredictedBaseline float64         `json:"predictedBaseline"`
	Reference         float64         `json:"reference"`
	ReferenceSource   ReferenceSource `json:"referenceSource"`
	VisitCount        int             `json:"visitCount"`

	// HasHistory must be checked before reading the fields below, they are absent without visits
	HasHistory bool `json:"hasHistory"`
	// LatestVisit is the most recent visit. MeasuredVisit is the most recent visit with a
	// peak flow reading and is the one zone and percent are computed from.
	LatestVisit    *visits.Visit        `json:"latestVisit,omitempty"`
	MeasuredVisit  *visits.Visit        `json:"measuredVisit,omitempty"`
	LatestValue    float64              `json:"latestValue"`
	Percent        int                  `json:"percent"`
	Zone           *pefr.Classification `json:"zone,omitempty"`
	Technique      *TechniqueStatus     `json:"technique,omitempty"`
	Appointment    *AppointmentStatus   `json:"appointment,omitempty"`
	ControlLevel   visits.ControlLevel  `json:"controlLevel,omitempty"`
	OutstandingDRP string               `json:"outstandingDrp,omitempty"`
}

type Assembler struct {
	thresholds pefr.Thresholds
}

func NewAssembler(thresholds pefr.Thresholds) *Assembler {
	return &Assembler{thresholds: thresholds}
}

// NewThresholds reads the zone boundaries from the service configuration
func NewThresholds(cfg *config.Config) pefr.Thresholds {
	return pefr.Thresholds{
		Green:  cfg.GreenPercent,
		Yellow: cfg.YellowPercent,
	}
}

func (a *Assembler) Thresholds() pefr.Thresholds {
	return a.thresholds
}

// Assemble derives the summary of a patient from their visit history, given in any order
func (a *Assembler) Assemble(patient patients.Patient, history []*visits.Visit, asOf time.Time) Summary {
	age := AgeInYears(patient.BirthDate, asOf)
	predicted := pefr.PredictBaseline(age, patient.Height, patient.SexCategory())
	reference, source := Reference(predicted, patient.PersonalBestValue())

	summary := Summary{
		HN:                patient.HN,
		AsOf:              asOf,
		Age:               age,
		Height:            patient.Height,
		PredictedBaseline: predicted,
		Reference:         reference,
		ReferenceSource:   source,
	}

	latest := LatestVisit(history)
	if latest == nil {
		return summary
	}
	measured := LatestMeasuredVisit(history)
	if measured == nil {
		measured = latest
	}

	zone := a.thresholds.Classify(measured.PEFR, reference)
	technique := Technique(history, asOf)
	appointment := VisitAppointment(latest, asOf)

	summary.HasHistory = true
	summary.VisitCount = countVisits(history)
	summary.LatestVisit = latest
	summary.MeasuredVisit = measured
	summary.LatestValue = measured.PEFR
	summary.Percent = pefr.PercentOfPredicted(measured.PEFR, reference)
	summary.Zone = &zone
	summary.Technique = &technique
	summary.Appointment = &appointment
	summary.ControlLevel = latest.ControlLevel
	if latest.HasDRP() {
		summary.OutstandingDRP = latest.DRP
	}
	return summary
}

// Reference falls back to the personal best when no baseline could be predicted
func Reference(predicted, personalBest float64) (float64, ReferenceSource) {
	if predicted > 0 {
		return predicted, ReferencePredicted
	}
	if personalBest > 0 {
		return personalBest, ReferencePersonalBest
	}
	return 0, ReferenceNone
}

// AgeInYears counts whole 365 day periods, leap days are deliberately ignored
func AgeInYears(birthDate time.Time, asOf time.Time) int {
	if birthDate.IsZero() {
		return 0
	}
	return max(0, DaysBetween(birthDate, asOf)/daysPerYear)
}

// LatestVisit returns the visit with the latest date. Among visits of the same day the last one given wins.
func LatestVisit(history []*visits.Visit) *visits.Visit {
	return latest(history, func(*visits.Visit) bool { return true })
}

// LatestMeasuredVisit is like LatestVisit but skips visits without a peak flow reading
func LatestMeasuredVisit(history []*visits.Visit) *visits.Visit {
	return latest(history, func(v *visits.Visit) bool { return v.HasMeasurement() })
}

func latest(history []*visits.Visit, include func(*visits.Visit) bool) *visits.Visit {
	var result *visits.Visit
	for _, v := range history {
		if v == nil || !include(v) {
			continue
		}
		if result == nil || !v.Date.Before(result.Date) {
			result = v
		}
	}
	return result
}

func countVisits(history []*visits.Visit) int {
	count := 0
	for _, v := range history {
		if v != nil {
			count++
		}
	}
	return count
}
