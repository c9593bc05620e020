// Package pefr computes predicted peak expiratory flow baselines and classifies
// measurements against them into action plan zones.
package pefr

import (
	"math"
	"strings"
)

const (
	PediatricAgeLimit = 15
	PediatricFloor    = 100.0
)

// Title and sex tokens marking a patient as female. Matching is by substring so that
// honorific variants ("นางสาว", "Mrs. Dr.") resolve the same way.
var femaleTokens = []string{
	"นาง",
	"น.ส.",
	"หญิง",
	"ด.ญ.",
	"miss",
	"mrs.",
	"ms.",
	"female",
	"girl",
}

func IsFemale(sexCategory string) bool {
	category := strings.ToLower(sexCategory)
	for _, token := range femaleTokens {
		if strings.Contains(category, token) {
			return true
		}
	}
	return false
}

// PredictBaseline returns the predicted PEFR in L/min. Zero means no valid baseline could
// be predicted and callers should fall back to the patient's personal best.
func PredictBaseline(ageYears int, heightCm float64, sexCategory string) float64 {
	if heightCm <= 0 {
		return 0
	}

	if ageYears < PediatricAgeLimit {
		return math.Max(PediatricFloor, -425.5714+5.2428*heightCm)
	}

	a := float64(ageYears)
	h := heightCm

	// Adult regressions yield L/s
	var perSecond float64
	if IsFemale(sexCategory) {
		perSecond = -31.355 + 0.162*a - 0.00084*a*a + 0.391*h - 0.00099*h*h - 0.00072*a*h
	} else {
		perSecond = -16.859 + 0.307*a + 0.141*h - 0.0018*a*a - 0.001*a*h
	}

	return math.Max(0, perSecond*60)
}
