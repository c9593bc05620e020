package outbox_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/asthma-connect/clinic/outbox"
)

var _ = Describe("Outbox", func() {
	It("wraps a typed payload in an event", func() {
		payload := outbox.AppointmentsImportedPayload{
			Rows:      4,
			Created:   2,
			Updated:   1,
			Unmatched: 1,
			HNs:       []string{"0000001", "0000002"},
		}

		event, err := outbox.NewEvent(outbox.EventTypeAppointmentsImported, payload)
		Expect(err).ToNot(HaveOccurred())
		Expect(event.EventType).To(Equal(outbox.EventTypeAppointmentsImported))
		Expect(event.CreatedTime).To(BeTemporally("~", time.Now(), time.Minute))

		decoded, err := outbox.DecodePayload[outbox.AppointmentsImportedPayload](event)
		Expect(err).ToNot(HaveOccurred())
		Expect(decoded).To(Equal(payload))
	})

	It("rejects payloads that are not documents", func() {
		_, err := outbox.NewEvent(outbox.EventTypeAppointmentsImported, 42)
		Expect(err).To(HaveOccurred())
	})

	It("indexes events by the patients of their payload", func() {
		var names []string
		for _, index := range outbox.Indexes() {
			names = append(names, *index.Options.Name)
		}
		Expect(names).To(ConsistOf("CreatedTime", "EventTypeCreatedTime", "PayloadHNs"))

		hns := outbox.Indexes()[2]
		Expect(hns.Keys).To(Equal(bson.D{{Key: "payload.hns", Value: 1}}))
		Expect(*hns.Options.Sparse).To(BeTrue())
	})
})
