package summary_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/patients"
	patientsTest "github.com/asthma-connect/clinic/patients/test"
	"github.com/asthma-connect/clinic/pefr"
	"github.com/asthma-connect/clinic/pointer"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/test"
	"github.com/asthma-connect/clinic/visits"
	visitsTest "github.com/asthma-connect/clinic/visits/test"
)

var _ = Describe("Summary Service", func() {
	var service summary.Service
	var ctrl *gomock.Controller
	var patientsService *patientsTest.MockService
	var visitsService *visitsTest.MockService
	var bangkok *time.Location
	var now time.Time
	var patient patients.Patient

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		patientsService = patientsTest.NewMockService(ctrl)
		visitsService = visitsTest.NewMockService(ctrl)
		bangkok = time.FixedZone("ICT", 7*60*60)
		// still the 1st in UTC, already the 2nd in the clinic
		now = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
		patient = patientsTest.RandomPatient()

		var err error
		clock := func() time.Time { return now }
		service, err = summary.NewService(patientsService, visitsService, summary.NewAssembler(pefr.DefaultThresholds()), clock, bangkok)
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	It("summarizes as of now in the clinic timezone", func() {
		visit := visitsTest.RandomVisit(patient.HN, test.Date(2025, 5, 1))
		visit.NextAppointment = pointer.FromAny(test.Date(2025, 6, 2))

		patientsService.EXPECT().Get(gomock.Any(), patient.HN).Return(&patient, nil)
		visitsService.EXPECT().ListByPatient(gomock.Any(), patient.HN).Return([]*visits.Visit{&visit}, nil)

		result, err := service.Get(context.Background(), patient.HN, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.HasHistory).To(BeTrue())
		Expect(result.Appointment.State).To(Equal(summary.AppointmentToday))
		Expect(result.AsOf.Location()).To(Equal(bangkok))
	})

	It("summarizes as of an explicit time", func() {
		visit := visitsTest.RandomVisit(patient.HN, test.Date(2025, 5, 1))
		visit.NextAppointment = pointer.FromAny(test.Date(2025, 6, 2))
		asOf := time.Date(2025, 5, 30, 3, 0, 0, 0, time.UTC)

		visitsService.EXPECT().ListByPatient(gomock.Any(), patient.HN).Return([]*visits.Visit{&visit}, nil)

		result, err := service.ForPatient(context.Background(), &patient, &asOf)
		Expect(err).ToNot(HaveOccurred())
		Expect(result.Appointment.State).To(Equal(summary.AppointmentUpcoming))
		Expect(result.Appointment.DayOffset).To(Equal(3))
	})

	It("returns unknown patients as not found", func() {
		patientsService.EXPECT().Get(gomock.Any(), "0000404").Return(nil, patients.ErrNotFound)

		_, err := service.Get(context.Background(), "0000404", nil)
		Expect(err).To(MatchError(errors.NotFound))
	})
})
