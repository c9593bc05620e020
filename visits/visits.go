package visits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/text/cases"

	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/store"
)

var (
	ErrNotFound = fmt.Errorf("visit %w", errors.NotFound)
)

//go:generate mockgen --build_flags=--mod=mod -source=./visits.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	Create(ctx context.Context, visit Visit) (*Visit, error)
	CreateMany(ctx context.Context, newVisits []Visit) (int, error)
	ListByPatient(ctx context.Context, hn string) ([]*Visit, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Visit, error)
	BackfillAppointment(ctx context.Context, hn string, date time.Time, next time.Time) (*Visit, error)
}

type ControlLevel string

const (
	Controlled         ControlLevel = "Controlled"
	PartlyControlled   ControlLevel = "Partly Controlled"
	Uncontrolled       ControlLevel = "Uncontrolled"
	ControlNotAssessed ControlLevel = "-"
)

var ControlLevels = []ControlLevel{Controlled, PartlyControlled, Uncontrolled}

func ParseControlLevel(s string) (ControlLevel, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == string(ControlNotAssessed) {
		return ControlNotAssessed, nil
	}
	folder := cases.Fold()
	for _, level := range ControlLevels {
		if folder.String(string(level)) == folder.String(s) {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported control level %q", errors.BadRequest, s)
}

const (
	SourceStaff  = "staff"
	SourceHOSxP  = "hosxp"
	MaxPEFR      = 900
	MaxAdherence = 100
)

var (
	ControllerOptions = []string{"Seretide", "Budesonide", "Symbicort"}
	RelieverOptions   = []string{"Salbutamol", "Berodual"}
)

type Visit struct {
	Id                 *primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	HN                 string              `json:"hn" bson:"hn"`
	Date               time.Time           `json:"date" bson:"date"`
	PEFR               float64             `json:"pefr" bson:"pefr"`
	ControlLevel       ControlLevel        `json:"controlLevel" bson:"controlLevel"`
	Controllers        []string            `json:"controllers" bson:"controllers"`
	Relievers          []string            `json:"relievers" bson:"relievers"`
	Adherence          int                 `json:"adherence" bson:"adherence"`
	DRP                string              `json:"drp" bson:"drp"`
	Advice             string              `json:"advice" bson:"advice"`
	TechniquePerformed bool                `json:"techniquePerformed" bson:"techniquePerformed"`
	TechniqueScore     *int                `json:"techniqueScore,omitempty" bson:"techniqueScore,omitempty"`
	NextAppointment    *time.Time          `json:"nextAppointment,omitempty" bson:"nextAppointment,omitempty"`
	// Raw appointment text kept when it could not be parsed into a date
	NextAppointmentText string    `json:"nextAppointmentText,omitempty" bson:"nextAppointmentText,omitempty"`
	Note                string    `json:"note" bson:"note"`
	IsNewCase           bool      `json:"isNewCase" bson:"isNewCase"`
	Source              string    `json:"source" bson:"source"`
	CreatedTime         time.Time `json:"createdTime" bson:"createdTime"`
}

// HasMeasurement is false for visits where PEFR was not measured. A zero reading means missing data.
func (v Visit) HasMeasurement() bool {
	return v.PEFR > 0
}

func (v Visit) HasDRP() bool {
	return !IsBlank(v.DRP)
}

func (v Visit) ControllersText() string {
	return strings.Join(v.Controllers, ", ")
}

func (v Visit) RelieversText() string {
	return strings.Join(v.Relievers, ", ")
}

// blankMarkers are the placeholder values spreadsheet data uses for "nothing recorded"
var blankMarkers = map[string]struct{}{
	"":     {},
	"-":    {},
	"nan":  {},
	"none": {},
	"null": {},
	"nat":  {},
}

func IsBlank(s string) bool {
	_, ok := blankMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// IsTechniqueMarker reports whether a stored technique field marks the assessment as performed
func IsTechniqueMarker(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "ไม่") {
		return false
	}
	if strings.Contains(s, "ทำ") {
		return true
	}
	switch s {
	case "performed", "done", "yes", "true", "y":
		return true
	}
	return false
}

type Filter struct {
	HN   *string
	From *time.Time
	To   *time.Time
}

// Day truncates a time to its calendar day in its own location and returns it as midnight UTC
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
