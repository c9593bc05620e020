package visits

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/asthma-connect/clinic/errors"
)

const RelativePickupNotePrefix = "[Relative pickup]"

// Form is a visit as entered by staff
type Form struct {
	Date              time.Time  `json:"date"`
	IsNewCase         bool       `json:"isNewCase"`
	PEFR              float64    `json:"pefr"`
	NotMeasured       bool       `json:"notMeasured"`
	ControlLevel      string     `json:"controlLevel"`
	Controllers       []string   `json:"controllers"`
	Relievers         []string   `json:"relievers"`
	Adherence         int        `json:"adherence"`
	RelativePickup    bool       `json:"relativePickup"`
	TechniqueReviewed bool       `json:"techniqueReviewed"`
	TechniqueScore    *int       `json:"techniqueScore,omitempty"`
	DRP               string     `json:"drp"`
	Advice            string     `json:"advice"`
	Note              string     `json:"note"`
	NextAppointment   *time.Time `json:"nextAppointment,omitempty"`
}

// NewVisit normalizes a staff form into a visit record
func NewVisit(hn string, form Form) (Visit, error) {
	if form.Date.IsZero() {
		return Visit{}, fmt.Errorf("%w: visit date is required", errors.BadRequest)
	}
	if form.PEFR < 0 || form.PEFR > MaxPEFR {
		return Visit{}, fmt.Errorf("%w: pefr must be between 0 and %d", errors.BadRequest, MaxPEFR)
	}
	if form.Adherence < 0 || form.Adherence > MaxAdherence {
		return Visit{}, fmt.Errorf("%w: adherence must be between 0 and %d", errors.BadRequest, MaxAdherence)
	}
	control, err := ParseControlLevel(form.ControlLevel)
	if err != nil {
		return Visit{}, err
	}
	controllers, err := validateMedications(form.Controllers, ControllerOptions)
	if err != nil {
		return Visit{}, err
	}
	relievers, err := validateMedications(form.Relievers, RelieverOptions)
	if err != nil {
		return Visit{}, err
	}

	visit := Visit{
		HN:                 hn,
		Date:               Day(form.Date),
		PEFR:               form.PEFR,
		ControlLevel:       control,
		Controllers:        controllers,
		Relievers:          relievers,
		Adherence:          form.Adherence,
		DRP:                strings.TrimSpace(form.DRP),
		Advice:             strings.TrimSpace(form.Advice),
		TechniquePerformed: form.TechniqueReviewed,
		TechniqueScore:     form.TechniqueScore,
		Note:               strings.TrimSpace(form.Note),
		IsNewCase:          form.IsNewCase,
		Source:             SourceStaff,
	}
	if form.NotMeasured {
		visit.PEFR = 0
	}
	if form.RelativePickup {
		// adherence cannot be assessed when a relative collects the medication
		visit.Adherence = 0
		visit.Note = strings.TrimSpace(RelativePickupNotePrefix + " " + visit.Note)
	}
	if form.NextAppointment != nil {
		next := Day(*form.NextAppointment)
		visit.NextAppointment = &next
	}

	return visit, nil
}

// ParseMedications splits a comma separated medication list and keeps the known options.
// It is used to pre-fill the form from the latest visit.
func ParseMedications(s string, options []string) []string {
	result := make([]string, 0)
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if slices.Contains(options, item) && !slices.Contains(result, item) {
			result = append(result, item)
		}
	}
	return result
}

// Prefill returns the medications of the latest visit for a new form
func Prefill(latest *Visit) Form {
	form := Form{
		Controllers: []string{},
		Relievers:   []string{},
		Adherence:   MaxAdherence,
	}
	if latest != nil {
		form.Controllers = ParseMedications(latest.ControllersText(), ControllerOptions)
		form.Relievers = ParseMedications(latest.RelieversText(), RelieverOptions)
	}
	return form
}

func validateMedications(medications []string, options []string) ([]string, error) {
	result := make([]string, 0, len(medications))
	for _, m := range medications {
		m = strings.TrimSpace(m)
		if m == "" || slices.Contains(result, m) {
			continue
		}
		if !slices.Contains(options, m) {
			return nil, fmt.Errorf("%w: unsupported medication %q", errors.BadRequest, m)
		}
		result = append(result, m)
	}
	return result, nil
}
