package pefr

type Zone string

const (
	ZoneNotMeasured Zone = "not_measured"
	ZoneUnknown     Zone = "unknown"
	ZoneGreen       Zone = "green"
	ZoneYellow      Zone = "yellow"
	ZoneRed         Zone = "red"
)

const (
	DefaultGreenPercent  = 80
	DefaultYellowPercent = 50

	// relative tolerance applied at zone boundaries so that x == 0.8*r is green
	// despite floating point rounding of the caller's multiplication
	boundaryTolerance = 1e-9
)

type Classification struct {
	Zone   Zone   `json:"zone"`
	Label  string `json:"label"`
	Rank   int    `json:"rank"`
	Color  string `json:"color"`
	Advice string `json:"advice"`
}

var classifications = map[Zone]Classification{
	ZoneNotMeasured: {Zone: ZoneNotMeasured, Label: "Not Measured", Rank: 0, Color: "gray", Advice: "No peak flow measurement was recorded"},
	ZoneUnknown:     {Zone: ZoneUnknown, Label: "Unknown", Rank: 0, Color: "gray", Advice: "No reference value to compare against"},
	ZoneGreen:       {Zone: ZoneGreen, Label: "Green Zone", Rank: 1, Color: "green", Advice: "Well controlled, continue the usual controller medication"},
	ZoneYellow:      {Zone: ZoneYellow, Label: "Yellow Zone", Rank: 2, Color: "orange", Advice: "Symptoms starting, use the reliever and follow the action plan"},
	ZoneRed:         {Zone: ZoneRed, Label: "Red Zone", Rank: 3, Color: "red", Advice: "Danger, use the reliever now and seek urgent care"},
}

func ClassificationOf(zone Zone) Classification {
	return classifications[zone]
}

// IsComparable is false for the sentinel zones that carry no severity
func (c Classification) IsComparable() bool {
	return c.Rank > 0
}

// Thresholds are the inclusive lower bounds, in percent of the reference, of the green and yellow zones
type Thresholds struct {
	Green  int `json:"green"`
	Yellow int `json:"yellow"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Green:  DefaultGreenPercent,
		Yellow: DefaultYellowPercent,
	}
}

func (t Thresholds) Classify(current, reference float64) Classification {
	if current <= 0 {
		return classifications[ZoneNotMeasured]
	}
	if reference <= 0 {
		return classifications[ZoneUnknown]
	}
	return classifications[t.zone(current, reference)]
}

func (t Thresholds) zone(current, reference float64) Zone {
	switch {
	case atLeast(current, reference, t.Green):
		return ZoneGreen
	case atLeast(current, reference, t.Yellow):
		return ZoneYellow
	default:
		return ZoneRed
	}
}

// Color returns the display color of a measurement relative to the reference.
// Unlike Classify it never yields a sentinel, it is used for chart points.
func (t Thresholds) Color(current, reference float64) string {
	if reference <= 0 {
		return classifications[ZoneUnknown].Color
	}
	return classifications[t.zone(current, reference)].Color
}

// Line returns the measurement value at the given percent of the reference
func (t Thresholds) Line(reference float64, percent int) float64 {
	return reference * float64(percent) / 100
}

func atLeast(current, reference float64, percent int) bool {
	return current*100-float64(percent)*reference >= -boundaryTolerance*reference*100
}

// ClassifyZone classifies with the default thresholds
func ClassifyZone(current, reference float64) Classification {
	return DefaultThresholds().Classify(current, reference)
}

// PercentOfPredicted is the measurement as a whole percent of the reference, truncated.
// Zero when either value is missing.
func PercentOfPredicted(current, reference float64) int {
	if current <= 0 || reference <= 0 {
		return 0
	}
	return int(current/reference*100 + boundaryTolerance)
}
