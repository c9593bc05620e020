package summary

import (
	"strings"
	"time"

	"github.com/asthma-connect/clinic/visits"
)

type AppointmentState string

const (
	AppointmentNone     AppointmentState = "none"
	AppointmentOverdue  AppointmentState = "overdue"
	AppointmentToday    AppointmentState = "today"
	AppointmentUpcoming AppointmentState = "upcoming"
	AppointmentUnknown  AppointmentState = "unknown"
)

type AppointmentStatus struct {
	State AppointmentState `json:"state"`
	// Calendar days from today to the appointment: 0 today, negative when missed
	DayOffset int        `json:"dayOffset"`
	Date      *time.Time `json:"date,omitempty"`
	// Raw is the unparsed text of an unknown appointment
	Raw string `json:"raw,omitempty"`
}

// Appointment resolves a parsed next appointment date against the calendar day of asOf
func Appointment(next *time.Time, asOf time.Time) AppointmentStatus {
	if next == nil || next.IsZero() {
		return AppointmentStatus{State: AppointmentNone}
	}

	date := visits.Day(*next)
	offset := DaysBetween(asOf, date)
	status := AppointmentStatus{
		DayOffset: offset,
		Date:      &date,
	}
	switch {
	case offset < 0:
		status.State = AppointmentOverdue
	case offset == 0:
		status.State = AppointmentToday
	default:
		status.State = AppointmentUpcoming
	}
	return status
}

// AppointmentFromText resolves an appointment recorded as free text. Unparseable text is unknown, never an error.
func AppointmentFromText(raw string, asOf time.Time) AppointmentStatus {
	if visits.IsBlank(raw) {
		return AppointmentStatus{State: AppointmentNone}
	}

	date, err := visits.ParseDate(raw)
	if err != nil {
		return AppointmentStatus{State: AppointmentUnknown, Raw: strings.TrimSpace(raw)}
	}
	return Appointment(&date, asOf)
}

func VisitAppointment(visit *visits.Visit, asOf time.Time) AppointmentStatus {
	if visit == nil {
		return AppointmentStatus{State: AppointmentNone}
	}
	if visit.NextAppointment != nil {
		return Appointment(visit.NextAppointment, asOf)
	}
	return AppointmentFromText(visit.NextAppointmentText, asOf)
}
