package backup_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/asthma-connect/clinic/backup"
	"github.com/asthma-connect/clinic/dashboard"
	"github.com/asthma-connect/clinic/patients"
	patientsTest "github.com/asthma-connect/clinic/patients/test"
	"github.com/asthma-connect/clinic/pointer"
	"github.com/asthma-connect/clinic/test"
	"github.com/asthma-connect/clinic/visits"
	visitsTest "github.com/asthma-connect/clinic/visits/test"
)

const (
	patientsSheetIdx = 0
	visitsSheetIdx   = 1
)

var _ = Describe("Backup", func() {
	var patient patients.Patient
	var measured visits.Visit
	var imported visits.Visit
	var sheets [][][]string

	BeforeEach(func() {
		patient = patientsTest.RandomPatient()
		patient.Height = 162.5
		patient.PersonalBest = nil
		patient.BirthDate = test.Date(1980, 2, 29)

		measured = visitsTest.RandomVisit(patient.HN, test.Date(2025, 1, 10))
		measured.PEFR = 380
		measured.Controllers = []string{"Seretide", "Symbicort"}
		measured.TechniquePerformed = true
		measured.TechniqueScore = pointer.FromAny(8)
		measured.NextAppointment = pointer.FromAny(test.Date(2025, 3, 10))

		imported = visitsTest.RandomVisit(patient.HN, test.Date(2025, 2, 1))
		imported.NextAppointment = nil
		imported.NextAppointmentText = "after songkran"
		imported.TechniqueScore = nil

		file, err := backup.NewReport(dashboard.Snapshot{
			Patients: []*patients.Patient{&patient},
			Visits:   []*visits.Visit{&measured, &imported},
		}).Generate()
		Expect(err).ToNot(HaveOccurred())

		sheets, err = file.ToSlice()
		Expect(err).ToNot(HaveOccurred())
	})

	It("has a patients and a visits sheet", func() {
		Expect(sheets).To(HaveLen(2))
		Expect(sheets[patientsSheetIdx][0]).To(Equal(backup.PatientColumns))
		Expect(sheets[visitsSheetIdx][0]).To(Equal(backup.VisitColumns))
		Expect(sheets[patientsSheetIdx]).To(HaveLen(2))
		Expect(sheets[visitsSheetIdx]).To(HaveLen(3))
	})

	It("exports patients", func() {
		row := sheets[patientsSheetIdx][1]
		Expect(row[0]).To(Equal(patient.HN))
		Expect(row[2]).To(Equal(patient.FirstName))
		Expect(row[4]).To(Equal("1980-02-29"))
		Expect(row[5]).To(Equal("162.5"))
		Expect(row[6]).To(Equal(""))
		Expect(row[7]).To(Equal("Active"))
	})

	It("exports visits", func() {
		row := sheets[visitsSheetIdx][1]
		Expect(row[1]).To(Equal("2025-01-10"))
		Expect(row[2]).To(Equal("380"))
		Expect(row[4]).To(Equal("Seretide, Symbicort"))
		Expect(row[9]).To(Equal("true"))
		Expect(row[10]).To(Equal("8"))
		Expect(row[11]).To(Equal("2025-03-10"))
	})

	It("keeps appointments recorded as text", func() {
		Expect(sheets[visitsSheetIdx][2][11]).To(Equal("after songkran"))
		Expect(sheets[visitsSheetIdx][2][10]).To(Equal(""))
	})

	It("names the file after the backup time", func() {
		at := time.Date(2025, 6, 11, 14, 5, 0, 0, time.UTC)
		Expect(backup.FileName(at)).To(Equal("asthma_backup_2025-06-11_14-05.xlsx"))
	})
})
