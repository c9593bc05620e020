package importer_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/importer"
	"github.com/asthma-connect/clinic/outbox"
	outboxTest "github.com/asthma-connect/clinic/outbox/test"
	"github.com/asthma-connect/clinic/patients"
	patientsTest "github.com/asthma-connect/clinic/patients/test"
	"github.com/asthma-connect/clinic/pointer"
	"github.com/asthma-connect/clinic/test"
	"github.com/asthma-connect/clinic/visits"
	visitsTest "github.com/asthma-connect/clinic/visits/test"
)

var _ = Describe("Importer", func() {
	var ctrl *gomock.Controller
	var patientsService *patientsTest.MockService
	var visitsService *visitsTest.MockService
	var outboxRepository *outboxTest.MockRepository
	var imp *importer.Importer
	var ctx context.Context
	var patient patients.Patient
	var existing visits.Visit

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		patientsService = patientsTest.NewMockService(ctrl)
		visitsService = visitsTest.NewMockService(ctrl)
		outboxRepository = outboxTest.NewMockRepository(ctrl)
		imp = importer.NewImporter(patientsService, visitsService, outboxRepository, zap.NewNop().Sugar())
		ctx = context.Background()

		patient = patientsTest.RandomPatient()
		patient.HN = "0000123"
		existing = visitsTest.RandomVisit(patient.HN, test.Date(2025, 1, 19))
		existing.NextAppointment = nil

		patientsService.EXPECT().
			List(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter *patients.Filter, _ any) ([]*patients.Patient, error) {
				Expect(filter.HNs).To(ContainElement(patient.HN))
				return []*patients.Patient{&patient}, nil
			}).
			AnyTimes()
		visitsService.EXPECT().
			ListByPatient(gomock.Any(), patient.HN).
			Return([]*visits.Visit{&existing}, nil).
			AnyTimes()
	})

	AfterEach(func() {
		ctrl.Finish()
	})

	row := func(line int, hn string, visitDate, next *time.Time) importer.Row {
		return importer.Row{Line: line, RawHN: hn, HN: hn, VisitDate: visitDate, NextAppointment: next}
	}

	Describe("CreatePlan", func() {
		It("reconciles every row", func() {
			rows := []importer.Row{
				row(2, "0009999", pointer.FromAny(test.Date(2025, 1, 19)), nil),
				row(3, patient.HN, nil, pointer.FromAny(test.Date(2025, 3, 1))),
				row(4, patient.HN, pointer.FromAny(test.Date(2025, 1, 19)), pointer.FromAny(test.Date(2025, 3, 1))),
				row(5, patient.HN, pointer.FromAny(test.Date(2025, 2, 1)), pointer.FromAny(test.Date(2025, 4, 1))),
				row(6, patient.HN, pointer.FromAny(test.Date(2025, 2, 2)), nil),
				row(7, patient.HN, pointer.FromAny(test.Date(2025, 2, 1)), pointer.FromAny(test.Date(2025, 4, 8))),
			}

			plan, err := imp.CreatePlan(ctx, rows)
			Expect(err).ToNot(HaveOccurred())

			actions := make([]importer.Action, 0, len(plan.Rows))
			for _, r := range plan.Rows {
				actions = append(actions, r.Action)
			}
			Expect(actions).To(Equal([]importer.Action{
				importer.ActionUnmatched,
				importer.ActionSkipped,
				importer.ActionBackfill,
				importer.ActionCreate,
				importer.ActionCreate,
				importer.ActionDuplicate,
			}))
			Expect(plan.Rows[2].FullName).To(Equal(patient.FullName()))

			Expect(plan.Backfills).To(Equal([]importer.Backfill{{
				HN:              patient.HN,
				VisitDate:       test.Date(2025, 1, 19),
				NextAppointment: test.Date(2025, 3, 1),
			}}))

			Expect(plan.Visits).To(HaveLen(2))
			Expect(plan.Visits[0].Date).To(Equal(test.Date(2025, 2, 1)))
			Expect(*plan.Visits[0].NextAppointment).To(Equal(test.Date(2025, 4, 8)))
			Expect(plan.Visits[0].Source).To(Equal(visits.SourceHOSxP))
			Expect(plan.Visits[0].PEFR).To(BeZero())
			Expect(plan.Visits[0].ControlLevel).To(Equal(visits.ControlNotAssessed))
			Expect(plan.Visits[1].NextAppointment).To(BeNil())
			Expect(plan.Visits[1].NextAppointmentText).To(Equal("-"))

			Expect(plan.Counts()).To(Equal(importer.Counts{
				Created:   2,
				Updated:   1,
				Duplicate: 1,
				Unmatched: 1,
				Skipped:   1,
			}))
		})

		It("leaves visits that already carry the appointment unchanged", func() {
			existing.NextAppointment = pointer.FromAny(test.Date(2025, 3, 1))

			plan, err := imp.CreatePlan(ctx, []importer.Row{
				row(2, patient.HN, pointer.FromAny(test.Date(2025, 1, 19)), pointer.FromAny(test.Date(2025, 3, 1))),
				row(3, patient.HN, pointer.FromAny(test.Date(2025, 1, 19)), nil),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(plan.HasChanges()).To(BeFalse())
			Expect(plan.Counts().Unchanged).To(Equal(2))
		})
	})

	Describe("Import", func() {
		var rows []importer.Row

		BeforeEach(func() {
			rows = []importer.Row{
				row(2, patient.HN, pointer.FromAny(test.Date(2025, 1, 19)), pointer.FromAny(test.Date(2025, 3, 1))),
				row(3, patient.HN, pointer.FromAny(test.Date(2025, 2, 1)), nil),
			}
		})

		It("does not write during a dry run", func() {
			result, err := imp.Import(ctx, rows, true)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.DryRun).To(BeTrue())
			Expect(result.Applied).To(BeFalse())
			Expect(result.Counts.Created).To(Equal(1))
			Expect(result.Counts.Updated).To(Equal(1))
		})

		It("applies the plan", func() {
			visitsService.EXPECT().
				CreateMany(gomock.Any(), gomock.Len(1)).
				Return(1, nil)
			visitsService.EXPECT().
				BackfillAppointment(gomock.Any(), patient.HN, test.Date(2025, 1, 19), test.Date(2025, 3, 1)).
				Return(&existing, nil)
			outboxRepository.EXPECT().
				Create(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, event outbox.Event) error {
					Expect(event.EventType).To(Equal(outbox.EventTypeAppointmentsImported))
					payload, err := outbox.DecodePayload[outbox.AppointmentsImportedPayload](event)
					Expect(err).ToNot(HaveOccurred())
					Expect(payload.Rows).To(Equal(2))
					Expect(payload.Created).To(Equal(1))
					Expect(payload.Updated).To(Equal(1))
					Expect(payload.HNs).To(Equal([]string{patient.HN}))
					return nil
				})

			result, err := imp.Import(ctx, rows, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Applied).To(BeTrue())
			Expect(result.Counts.Created).To(Equal(1))
		})

		It("keeps the import applied when the event cannot be recorded", func() {
			visitsService.EXPECT().
				CreateMany(gomock.Any(), gomock.Len(1)).
				Return(1, nil)
			visitsService.EXPECT().
				BackfillAppointment(gomock.Any(), patient.HN, test.Date(2025, 1, 19), test.Date(2025, 3, 1)).
				Return(&existing, nil)
			outboxRepository.EXPECT().
				Create(gomock.Any(), gomock.Any()).
				Return(errors.New("connection refused"))

			result, err := imp.Import(ctx, rows, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Applied).To(BeTrue())
		})
	})
})
