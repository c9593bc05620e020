package visits_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/test"
	"github.com/asthma-connect/clinic/visits"
)

var _ = Describe("ParseDate", func() {
	DescribeTable("reads clinic record dates",
		func(raw string, expected time.Time) {
			date, err := visits.ParseDate(raw)
			Expect(err).ToNot(HaveOccurred())
			Expect(date).To(Equal(expected))
		},
		Entry("iso", "2025-06-01", test.Date(2025, 6, 1)),
		Entry("iso without padding", "2025-6-1", test.Date(2025, 6, 1)),
		Entry("day first", "01/06/2025", test.Date(2025, 6, 1)),
		Entry("day first without padding", "1/6/2025", test.Date(2025, 6, 1)),
		Entry("day first with a padded day", "19/1/2026", test.Date(2026, 1, 19)),
		Entry("dashed day first", "01-06-2025", test.Date(2025, 6, 1)),
		Entry("dashed day first without padding", "1-6-2025", test.Date(2025, 6, 1)),
		Entry("timestamp", "2025-06-01 14:30:00", test.Date(2025, 6, 1)),
	)

	It("rejects unknown formats", func() {
		_, err := visits.ParseDate("June 1st")
		Expect(err).To(MatchError(errors.BadRequest))
	})

	Describe("ParseDateIn", func() {
		bangkok := time.FixedZone("ICT", 7*60*60)

		It("takes the calendar day of a timestamp in the clinic timezone", func() {
			date, err := visits.ParseDateIn("2025-05-31T17:00:00Z", bangkok)
			Expect(err).ToNot(HaveOccurred())
			Expect(date).To(Equal(test.Date(2025, 6, 1)))
		})

		It("keeps plain calendar days", func() {
			date, err := visits.ParseDateIn("1/6/2025", bangkok)
			Expect(err).ToNot(HaveOccurred())
			Expect(date).To(Equal(test.Date(2025, 6, 1)))
		})

		It("returns nil for blank optional dates", func() {
			date, err := visits.ParseOptionalDateIn("-", bangkok)
			Expect(err).ToNot(HaveOccurred())
			Expect(date).To(BeNil())
		})
	})
})
