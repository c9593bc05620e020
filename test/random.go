package test

import (
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/onsi/ginkgo/v2"
)

var (
	Faker  = faker.NewWithSeed(Source)
	Rand   = rand.New(Source)
	Source = rand.NewSource(ginkgo.GinkgoRandomSeed())
)

// RandomDay returns a random calendar day (midnight UTC) within [from, from+days)
func RandomDay(from time.Time, days int) time.Time {
	d := from.AddDate(0, 0, Rand.Intn(days))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Shuffle returns a shuffled copy of the input
func Shuffle[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	Rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
