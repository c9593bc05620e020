package visits

import (
	"fmt"
	"strings"
	"time"

	"github.com/asthma-connect/clinic/errors"
)

// Day and month accept one or two digits
var dateLayouts = []string{
	"2006-1-2",
	"2/1/2006",
	"2-1-2006",
	time.DateTime,
	time.RFC3339,
}

// ParseDate parses the date formats found in clinic records into a calendar day
func ParseDate(raw string) (time.Time, error) {
	return ParseDateIn(raw, time.UTC)
}

// ParseDateIn is ParseDate for a clinic timezone. Timestamps carrying an offset
// are moved to loc before the calendar day is taken.
func ParseDateIn(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return Day(t.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date %q", errors.BadRequest, raw)
}

// ParseOptionalDate returns nil for blank markers
func ParseOptionalDate(raw string) (*time.Time, error) {
	return ParseOptionalDateIn(raw, time.UTC)
}

func ParseOptionalDateIn(raw string, loc *time.Location) (*time.Time, error) {
	if IsBlank(raw) {
		return nil, nil
	}
	t, err := ParseDateIn(raw, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
