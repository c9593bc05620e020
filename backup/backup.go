// Package backup exports every patient and visit into a workbook
package backup

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/asthma-connect/clinic/dashboard"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/visits"
)

const (
	SheetNamePatients = "Patients"
	SheetNameVisits   = "Visits"

	DateFormat     = time.DateOnly
	FileNameFormat = "asthma_backup_2006-01-02_15-04.xlsx"
)

var (
	PatientColumns = []string{"HN", "Prefix", "First Name", "Last Name", "Birth Date", "Height", "Best PEFR", "Status", "Created"}
	VisitColumns   = []string{"HN", "Date", "PEFR", "Control Level", "Controllers", "Relievers", "Adherence", "DRP", "Advice", "Technique", "Technique Score", "Next Appointment", "Note", "New Case", "Source"}
)

func FileName(at time.Time) string {
	return at.Format(FileNameFormat)
}

type Report struct {
	snapshot dashboard.Snapshot
}

func NewReport(snapshot dashboard.Snapshot) Report {
	return Report{snapshot: snapshot}
}

func (r Report) Generate() (*xlsx.File, error) {
	report := xlsx.NewFile()

	components := []func(report *xlsx.File) error{
		r.addPatientsSheet,
		r.addVisitsSheet,
	}
	for _, fn := range components {
		if err := fn(report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (r Report) addPatientsSheet(report *xlsx.File) error {
	sh, err := report.AddSheet(SheetNamePatients)
	if err != nil {
		return fmt.Errorf("unable to add patients sheet: %w", err)
	}

	addHeader(sh, PatientColumns)
	for _, p := range r.snapshot.Patients {
		if p != nil {
			addPatient(sh, *p)
		}
	}
	return nil
}

func (r Report) addVisitsSheet(report *xlsx.File) error {
	sh, err := report.AddSheet(SheetNameVisits)
	if err != nil {
		return fmt.Errorf("unable to add visits sheet: %w", err)
	}

	addHeader(sh, VisitColumns)
	for _, v := range r.snapshot.Visits {
		if v != nil {
			addVisit(sh, *v)
		}
	}
	return nil
}

func addHeader(sh *xlsx.Sheet, columns []string) {
	row := sh.AddRow()
	for _, column := range columns {
		row.AddCell().SetValue(column)
	}
}

func addPatient(sh *xlsx.Sheet, p patients.Patient) {
	row := sh.AddRow()
	row.AddCell().SetValue(p.HN)
	row.AddCell().SetValue(p.Prefix)
	row.AddCell().SetValue(p.FirstName)
	row.AddCell().SetValue(p.LastName)
	row.AddCell().SetValue(formatDate(p.BirthDate))
	row.AddCell().SetValue(formatNumber(p.Height))
	if p.PersonalBest != nil {
		row.AddCell().SetValue(formatNumber(*p.PersonalBest))
	} else {
		row.AddCell().SetValue("")
	}
	row.AddCell().SetValue(string(p.Status))
	row.AddCell().SetValue(formatDate(p.CreatedTime))
}

func addVisit(sh *xlsx.Sheet, v visits.Visit) {
	row := sh.AddRow()
	row.AddCell().SetValue(v.HN)
	row.AddCell().SetValue(formatDate(v.Date))
	row.AddCell().SetValue(formatNumber(v.PEFR))
	row.AddCell().SetValue(string(v.ControlLevel))
	row.AddCell().SetValue(v.ControllersText())
	row.AddCell().SetValue(v.RelieversText())
	row.AddCell().SetValue(strconv.Itoa(v.Adherence))
	row.AddCell().SetValue(v.DRP)
	row.AddCell().SetValue(v.Advice)
	row.AddCell().SetValue(strconv.FormatBool(v.TechniquePerformed))
	if v.TechniqueScore != nil {
		row.AddCell().SetValue(strconv.Itoa(*v.TechniqueScore))
	} else {
		row.AddCell().SetValue("")
	}
	row.AddCell().SetValue(nextAppointment(v))
	row.AddCell().SetValue(v.Note)
	row.AddCell().SetValue(strconv.FormatBool(v.IsNewCase))
	row.AddCell().SetValue(v.Source)
}

func nextAppointment(v visits.Visit) string {
	if v.NextAppointment != nil {
		return formatDate(*v.NextAppointment)
	}
	return v.NextAppointmentText
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateFormat)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
