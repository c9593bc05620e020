package summary

import (
	"context"
	"time"

	"github.com/asthma-connect/clinic/config"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/visits"
)

// Clock returns the current time
type Clock func() time.Time

func NewClock() Clock {
	return time.Now
}

// NewLocation is the clinic timezone calendar days are counted in
func NewLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Location()
}

//go:generate mockgen --build_flags=--mod=mod -source=./service.go -destination=./test/mock_service.go -package test MockService

type Service interface {
	// Get summarizes a patient as of the given time, or now when asOf is nil
	Get(ctx context.Context, hn string, asOf *time.Time) (*Summary, error)
	ForPatient(ctx context.Context, patient *patients.Patient, asOf *time.Time) (*Summary, error)
	// Now is the current time in the clinic timezone
	Now() time.Time
}

type service struct {
	patients  patients.Service
	visits    visits.Service
	assembler *Assembler
	clock     Clock
	location  *time.Location
}

var _ Service = &service{}

func NewService(patients patients.Service, visits visits.Service, assembler *Assembler, clock Clock, location *time.Location) (Service, error) {
	return &service{
		patients:  patients,
		visits:    visits,
		assembler: assembler,
		clock:     clock,
		location:  location,
	}, nil
}

func (s *service) Now() time.Time {
	return s.clock().In(s.location)
}

func (s *service) Get(ctx context.Context, hn string, asOf *time.Time) (*Summary, error) {
	patient, err := s.patients.Get(ctx, hn)
	if err != nil {
		return nil, err
	}
	return s.ForPatient(ctx, patient, asOf)
}

func (s *service) ForPatient(ctx context.Context, patient *patients.Patient, asOf *time.Time) (*Summary, error) {
	history, err := s.visits.ListByPatient(ctx, patient.HN)
	if err != nil {
		return nil, err
	}

	at := s.Now()
	if asOf != nil {
		at = asOf.In(s.location)
	}

	summary := s.assembler.Assemble(*patient, history, at)
	return &summary, nil
}
