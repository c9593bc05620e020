package dashboard

import (
	"slices"
	"time"

	"github.com/asthma-connect/clinic/pefr"
	"github.com/asthma-connect/clinic/visits"
)

// chart headroom above the reference line in L/min
const chartHeadroom = 150

type ChartPoint struct {
	Date    time.Time `json:"date"`
	PEFR    float64   `json:"pefr"`
	Percent int       `json:"percent"`
	Color   string    `json:"color"`
}

type Chart struct {
	Reference  float64      `json:"reference"`
	GreenLine  float64      `json:"greenLine"`
	YellowLine float64      `json:"yellowLine"`
	AxisMax    float64      `json:"axisMax"`
	Points     []ChartPoint `json:"points"`
}

// PEFRChart plots the measured visits of a history, oldest first. Without a reference the
// highest recorded value is used so that points can still be colored.
func PEFRChart(history []*visits.Visit, reference float64, thresholds pefr.Thresholds) Chart {
	measured := make([]*visits.Visit, 0, len(history))
	best := 0.0
	for _, v := range history {
		if v != nil && v.HasMeasurement() {
			measured = append(measured, v)
			best = max(best, v.PEFR)
		}
	}
	if reference <= 0 {
		reference = best
	}
	slices.SortStableFunc(measured, func(a, b *visits.Visit) int { return a.Date.Compare(b.Date) })

	chart := Chart{
		Reference:  reference,
		GreenLine:  thresholds.Line(reference, thresholds.Green),
		YellowLine: thresholds.Line(reference, thresholds.Yellow),
		AxisMax:    reference + chartHeadroom,
		Points:     make([]ChartPoint, 0, len(measured)),
	}
	for _, v := range measured {
		chart.Points = append(chart.Points, ChartPoint{
			Date:    v.Date,
			PEFR:    v.PEFR,
			Percent: pefr.PercentOfPredicted(v.PEFR, reference),
			Color:   thresholds.Color(v.PEFR, reference),
		})
	}
	return chart
}
