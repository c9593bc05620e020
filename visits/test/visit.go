package test

import (
	"time"

	"github.com/asthma-connect/clinic/test"
	"github.com/asthma-connect/clinic/visits"
)

func RandomVisit(hn string, date time.Time) visits.Visit {
	next := date.AddDate(0, test.Faker.IntBetween(1, 3), 0)
	return visits.Visit{
		HN:                 hn,
		Date:               visits.Day(date),
		PEFR:               float64(test.Faker.IntBetween(10, 60) * 10),
		ControlLevel:       visits.ControlLevels[test.Rand.Intn(len(visits.ControlLevels))],
		Controllers:        []string{visits.ControllerOptions[test.Rand.Intn(len(visits.ControllerOptions))]},
		Relievers:          []string{visits.RelieverOptions[test.Rand.Intn(len(visits.RelieverOptions))]},
		Adherence:          test.Faker.IntBetween(0, 100),
		DRP:                "-",
		Advice:             test.Faker.Lorem().Sentence(6),
		TechniquePerformed: test.Faker.Bool(),
		NextAppointment:    &next,
		Note:               test.Faker.Lorem().Sentence(4),
		IsNewCase:          false,
		Source:             visits.SourceStaff,
	}
}
