package test

import (
	"time"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/pointer"
	"github.com/asthma-connect/clinic/test"
)

var prefixes = []string{"นาย", "นาง", "นางสาว", "ด.ช.", "ด.ญ.", "Mr.", "Mrs.", "Miss"}

func RandomHN() string {
	return test.Faker.Numerify("#######")
}

func RandomPatient() patients.Patient {
	birthDate := time.Date(test.Faker.IntBetween(1940, 2015), time.Month(test.Faker.IntBetween(1, 12)), test.Faker.IntBetween(1, 28), 0, 0, 0, 0, time.UTC)
	return patients.Patient{
		HN:           RandomHN(),
		Prefix:       prefixes[test.Rand.Intn(len(prefixes))],
		FirstName:    test.Faker.Person().FirstName(),
		LastName:     test.Faker.Person().LastName(),
		BirthDate:    birthDate,
		Height:       float64(test.Faker.IntBetween(100, 190)),
		PersonalBest: pointer.FromAny(float64(test.Faker.IntBetween(150, 600))),
		Status:       patients.StatusActive,
		ViewToken:    test.Faker.UUID().V4(),
	}
}
