package patients

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

// HNWidth is the canonical width of a hospital number
const HNWidth = 7

var (
	ErrNotFound      = fmt.Errorf("patient %w", errors.NotFound)
	ErrDuplicate     = fmt.Errorf("patient with the same hn %w", errors.Duplicate)
	ErrInvalidStatus = fmt.Errorf("%w: unsupported patient status", errors.BadRequest)
)

//go:generate mockgen --build_flags=--mod=mod -source=./patients.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	Get(ctx context.Context, hn string) (*Patient, error)
	GetByViewToken(ctx context.Context, token string) (*Patient, error)
	List(ctx context.Context, filter *Filter, pagination store.Pagination) ([]*Patient, error)
	Create(ctx context.Context, patient Patient) (*Patient, error)
	UpdateStatus(ctx context.Context, hn string, status Status) (*Patient, error)
	RotateViewToken(ctx context.Context, hn string) (*Patient, error)
}

type Status string

const (
	StatusActive    Status = "Active"
	StatusDischarge Status = "Discharge"
	StatusCOPD      Status = "COPD"
)

var statuses = []Status{StatusActive, StatusDischarge, StatusCOPD}

// ParseStatus matches the input case insensitively. Blank input is Active.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusActive, nil
	}
	folder := cases.Fold()
	folded := folder.String(s)
	for _, status := range statuses {
		if folder.String(string(status)) == folded {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrInvalidStatus, s)
}

type Patient struct {
	Id           *primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	HN           string              `json:"hn" bson:"hn"`
	Prefix       string              `json:"prefix" bson:"prefix"`
	FirstName    string              `json:"firstName" bson:"firstName"`
	LastName     string              `json:"lastName" bson:"lastName"`
	BirthDate    time.Time           `json:"birthDate" bson:"birthDate"`
	Height       float64             `json:"height" bson:"height"`
	PersonalBest *float64            `json:"personalBest,omitempty" bson:"personalBest,omitempty"`
	Status       Status              `json:"status" bson:"status"`
	ViewToken    string              `json:"viewToken,omitempty" bson:"viewToken,omitempty"`
	CreatedTime  time.Time           `json:"createdTime" bson:"createdTime"`
	UpdatedTime  time.Time           `json:"updatedTime" bson:"updatedTime"`
}

// SexCategory is the title prefix, which is what sex is resolved from
func (p Patient) SexCategory() string {
	return p.Prefix
}

func (p Patient) FullName() string {
	return strings.TrimSpace(p.Prefix + p.FirstName + " " + p.LastName)
}

func (p Patient) PersonalBestValue() float64 {
	if p.PersonalBest == nil {
		return 0
	}
	return *p.PersonalBest
}

func (p Patient) Validate() error {
	if !IsValidHN(p.HN) {
		return fmt.Errorf("%w: hn must be numeric", errors.BadRequest)
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return fmt.Errorf("%w: first name is required", errors.BadRequest)
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("%w: birth date is required", errors.BadRequest)
	}
	if p.Height < 0 {
		return fmt.Errorf("%w: height must not be negative", errors.BadRequest)
	}
	if p.PersonalBest != nil && *p.PersonalBest < 0 {
		return fmt.Errorf("%w: personal best must not be negative", errors.BadRequest)
	}
	return nil
}

type Filter struct {
	Status *Status
	Search *string
	HNs    []string
}

// NormalizeHN brings a hospital number to its canonical zero padded form.
// Spreadsheet exports often turn HNs into floats, so a decimal part is dropped.
func NormalizeHN(raw string) string {
	hn := strings.TrimSpace(raw)
	if i := strings.Index(hn, "."); i >= 0 {
		hn = hn[:i]
	}
	hn = strings.TrimSpace(hn)
	if hn == "" || len(hn) >= HNWidth {
		return hn
	}
	return strings.Repeat("0", HNWidth-len(hn)) + hn
}

func IsValidHN(hn string) bool {
	if len(hn) < HNWidth {
		return false
	}
	for _, r := range hn {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MaskText keeps the first two characters and masks the rest. Names of up to
// two characters keep only the first one.
func MaskText(s string) string {
	r := []rune(s)
	switch {
	case len(r) == 0:
		return s
	case len(r) <= 2:
		return string(r[:1]) + strings.Repeat("x", len(r)-1)
	default:
		return string(r[:2]) + strings.Repeat("x", len(r)-2)
	}
}
