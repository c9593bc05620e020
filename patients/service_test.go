package patients_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/cache"
	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/patients"
	patientsTest "github.com/asthma-connect/clinic/patients/test"
	"github.com/asthma-connect/clinic/store"
	"github.com/asthma-connect/clinic/test"
)

var _ = Describe("Patients Service", func() {
	var service patients.Service
	var repo *patientsTest.MockRepository
	var repoCtrl *gomock.Controller
	var ctx context.Context

	BeforeEach(func() {
		repoCtrl = gomock.NewController(GinkgoT())
		repo = patientsTest.NewMockRepository(repoCtrl)
		ctx = context.Background()

		lru, err := cache.NewLRU(64, time.Minute)
		Expect(err).ToNot(HaveOccurred())

		service, err = patients.NewService(repo, lru, zap.NewNop().Sugar())
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		repoCtrl.Finish()
	})

	Describe("Create", func() {
		It("normalizes the hn and assigns a view token", func() {
			patient := patientsTest.RandomPatient()
			patient.HN = "123"
			patient.Status = ""
			patient.ViewToken = ""

			repo.EXPECT().
				Create(gomock.Any(), test.Match(func(p patients.Patient) bool {
					return p.HN == "0000123" && p.ViewToken != "" && p.Status == patients.StatusActive
				})).
				DoAndReturn(func(_ context.Context, p patients.Patient) (*patients.Patient, error) {
					return &p, nil
				})

			created, err := service.Create(ctx, patient)
			Expect(err).ToNot(HaveOccurred())
			Expect(created.HN).To(Equal("0000123"))
		})

		It("rejects invalid patients before reaching the repository", func() {
			patient := patientsTest.RandomPatient()
			patient.FirstName = " "

			_, err := service.Create(ctx, patient)
			Expect(err).To(MatchError(errors.BadRequest))
		})

		It("returns duplicates from the repository", func() {
			repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, patients.ErrDuplicate)

			_, err := service.Create(ctx, patientsTest.RandomPatient())
			Expect(err).To(MatchError(errors.Duplicate))
		})
	})

	Describe("Get", func() {
		It("serves repeated reads from the cache", func() {
			patient := patientsTest.RandomPatient()
			repo.EXPECT().Get(gomock.Any(), patient.HN).Return(&patient, nil).Times(1)

			first, err := service.Get(ctx, patient.HN)
			Expect(err).ToNot(HaveOccurred())
			second, err := service.Get(ctx, patient.HN)
			Expect(err).ToNot(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("normalizes the requested hn", func() {
			patient := patientsTest.RandomPatient()
			patient.HN = "0000042"
			repo.EXPECT().Get(gomock.Any(), "0000042").Return(&patient, nil)

			_, err := service.Get(ctx, "42")
			Expect(err).ToNot(HaveOccurred())
		})

		It("returns not found", func() {
			repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, patients.ErrNotFound)

			_, err := service.Get(ctx, "1")
			Expect(err).To(MatchError(errors.NotFound))
		})
	})

	Describe("Writes", func() {
		It("purge cached reads", func() {
			patient := patientsTest.RandomPatient()
			discharged := patient
			discharged.Status = patients.StatusDischarge

			gomock.InOrder(
				repo.EXPECT().Get(gomock.Any(), patient.HN).Return(&patient, nil),
				repo.EXPECT().UpdateStatus(gomock.Any(), patient.HN, patients.StatusDischarge).Return(&discharged, nil),
				repo.EXPECT().Get(gomock.Any(), patient.HN).Return(&discharged, nil),
			)

			_, err := service.Get(ctx, patient.HN)
			Expect(err).ToNot(HaveOccurred())
			_, err = service.UpdateStatus(ctx, patient.HN, "discharge")
			Expect(err).ToNot(HaveOccurred())

			result, err := service.Get(ctx, patient.HN)
			Expect(err).ToNot(HaveOccurred())
			Expect(result.Status).To(Equal(patients.StatusDischarge))
		})

		It("rotate the view token", func() {
			patient := patientsTest.RandomPatient()
			repo.EXPECT().
				UpdateViewToken(gomock.Any(), patient.HN, test.Match(func(token string) bool {
					return token != patient.ViewToken && len(token) == 36
				})).
				Return(&patient, nil)

			_, err := service.RotateViewToken(ctx, patient.HN)
			Expect(err).ToNot(HaveOccurred())
		})

		It("reject unknown statuses", func() {
			_, err := service.UpdateStatus(ctx, "1", "unknown")
			Expect(err).To(MatchError(patients.ErrInvalidStatus))
		})
	})

	Describe("GetByViewToken", func() {
		It("does not query the repository for blank tokens", func() {
			_, err := service.GetByViewToken(ctx, "  ")
			Expect(err).To(MatchError(errors.NotFound))
		})

		It("bypasses the cache", func() {
			patient := patientsTest.RandomPatient()
			repo.EXPECT().GetByViewToken(gomock.Any(), patient.ViewToken).Return(&patient, nil).Times(2)

			for i := 0; i < 2; i++ {
				_, err := service.GetByViewToken(ctx, patient.ViewToken)
				Expect(err).ToNot(HaveOccurred())
			}
		})
	})

	Describe("List", func() {
		It("caches by filter and pagination", func() {
			active := patients.StatusActive
			list := []*patients.Patient{}
			repo.EXPECT().List(gomock.Any(), gomock.Any(), store.DefaultPagination()).Return(list, nil).Times(1)
			repo.EXPECT().List(gomock.Any(), gomock.Any(), store.Unpaginated()).Return(list, nil).Times(1)

			for i := 0; i < 2; i++ {
				_, err := service.List(ctx, &patients.Filter{Status: &active}, store.DefaultPagination())
				Expect(err).ToNot(HaveOccurred())
				_, err = service.List(ctx, &patients.Filter{Status: &active}, store.Unpaginated())
				Expect(err).ToNot(HaveOccurred())
			}
		})
	})
})
