package patients_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/patients"
	patientsTest "github.com/asthma-connect/clinic/patients/test"
	"github.com/asthma-connect/clinic/pointer"
)

var _ = Describe("Patients", func() {
	DescribeTable("NormalizeHN",
		func(raw, expected string) {
			Expect(patients.NormalizeHN(raw)).To(Equal(expected))
		},
		Entry("short numeric", "123", "0000123"),
		Entry("spreadsheet float", "123.0", "0000123"),
		Entry("padded with spaces", "  4567 ", "0004567"),
		Entry("already canonical", "0012345", "0012345"),
		Entry("longer than canonical", "123456789", "123456789"),
		Entry("blank", "  ", ""),
	)

	It("validates hns after normalization", func() {
		Expect(patients.IsValidHN(patients.NormalizeHN("42"))).To(BeTrue())
		Expect(patients.IsValidHN("00AB123")).To(BeFalse())
		Expect(patients.IsValidHN("123")).To(BeFalse())
	})

	DescribeTable("ParseStatus",
		func(raw string, expected patients.Status) {
			status, err := patients.ParseStatus(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(status).To(Equal(expected))
		},
		Entry("blank defaults to active", "", patients.StatusActive),
		Entry("active", "active", patients.StatusActive),
		Entry("discharge", "DISCHARGE", patients.StatusDischarge),
		Entry("copd", "copd", patients.StatusCOPD),
	)

	It("rejects unknown statuses as bad requests", func() {
		_, err := patients.ParseStatus("deceased")
		Expect(err).To(MatchError(errors.BadRequest))
	})

	Describe("Validate", func() {
		var patient patients.Patient

		BeforeEach(func() {
			patient = patientsTest.RandomPatient()
		})

		It("accepts a random patient", func() {
			Expect(patient.Validate()).To(Succeed())
		})

		It("rejects non numeric hns", func() {
			patient.HN = "HN12345"
			Expect(patient.Validate()).To(MatchError(errors.BadRequest))
		})

		It("rejects a missing birth date", func() {
			patient.BirthDate = patients.Patient{}.BirthDate
			Expect(patient.Validate()).To(MatchError(errors.BadRequest))
		})

		It("rejects negative heights", func() {
			patient.Height = -1
			Expect(patient.Validate()).To(MatchError(errors.BadRequest))
		})

		It("rejects negative personal bests", func() {
			patient.PersonalBest = pointer.FromAny(-10.0)
			Expect(patient.Validate()).To(MatchError(errors.BadRequest))
		})
	})

	It("builds the full name from the prefix and names", func() {
		patient := patients.Patient{Prefix: "นาย", FirstName: "สมชาย", LastName: "ใจดี"}
		Expect(patient.FullName()).To(Equal("นายสมชาย ใจดี"))
		Expect(patient.SexCategory()).To(Equal("นาย"))
	})

	It("uses zero for a missing personal best", func() {
		Expect(patients.Patient{}.PersonalBestValue()).To(BeZero())
		Expect(patients.Patient{PersonalBest: pointer.FromAny(320.0)}.PersonalBestValue()).To(Equal(320.0))
	})

	DescribeTable("MaskText",
		func(raw, expected string) {
			Expect(patients.MaskText(raw)).To(Equal(expected))
		},
		Entry("latin", "Somchai", "Soxxxxx"),
		Entry("thai counts runes", "สมชาย", "สมxxx"),
		Entry("two characters", "Bo", "Bx"),
		Entry("two thai characters", "โอ", "โx"),
		Entry("one character", "A", "A"),
		Entry("three characters", "Ann", "Anx"),
		Entry("empty", "", ""),
	)
})
