package summary

import (
	"time"

	"github.com/asthma-connect/clinic/visits"
)

// TechniqueValidityDays is how long an inhaler technique assessment stays valid
const TechniqueValidityDays = 365

type TechniqueState string

const (
	TechniqueNever   TechniqueState = "never"
	TechniqueOK      TechniqueState = "ok"
	TechniqueOverdue TechniqueState = "overdue"
)

// TechniqueStatus carries both elapsed and remaining days so callers choose what to display
type TechniqueStatus struct {
	State          TechniqueState `json:"state"`
	DaysElapsed    int            `json:"daysElapsed"`
	DaysRemaining  int            `json:"daysRemaining"`
	DaysOverdue    int            `json:"daysOverdue"`
	LastAssessment *time.Time     `json:"lastAssessment,omitempty"`
}

// Days is the figure shown next to the state: days overdue, or days remaining while valid
func (t TechniqueStatus) Days() int {
	switch t.State {
	case TechniqueOverdue:
		return t.DaysOverdue
	case TechniqueOK:
		return t.DaysRemaining
	default:
		return 0
	}
}

// Progress is the remaining share of the validity window in whole percent
func (t TechniqueStatus) Progress() int {
	if t.State != TechniqueOK {
		return 0
	}
	return min(100, max(0, t.DaysRemaining*100/TechniqueValidityDays))
}

// Technique computes the assessment status from a visit history in any order
func Technique(history []*visits.Visit, asOf time.Time) TechniqueStatus {
	var last *time.Time
	for _, v := range history {
		if v == nil || !v.TechniquePerformed {
			continue
		}
		if last == nil || v.Date.After(*last) {
			date := v.Date
			last = &date
		}
	}

	if last == nil {
		return TechniqueStatus{State: TechniqueNever}
	}

	// assessments dated in the future count as done today
	elapsed := max(0, DaysBetween(*last, asOf))
	status := TechniqueStatus{
		State:          TechniqueOK,
		DaysElapsed:    elapsed,
		DaysRemaining:  max(0, TechniqueValidityDays-elapsed),
		LastAssessment: last,
	}
	if elapsed > TechniqueValidityDays {
		status.State = TechniqueOverdue
		status.DaysOverdue = elapsed - TechniqueValidityDays
	}
	return status
}

// DaysBetween counts calendar days from the day of a to the day of b, each in its own location
func DaysBetween(a, b time.Time) int {
	return int(visits.Day(b).Sub(visits.Day(a)).Hours() / 24)
}
