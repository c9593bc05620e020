package dashboard

import (
	"context"
	"time"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

type Service interface {
	// Get builds the dashboard as of the given time, or now when asOf is nil
	Get(ctx context.Context, asOf *time.Time) (*Dashboard, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}

type service struct {
	patients  patients.Service
	visits    visits.Service
	summaries summary.Service
	assembler *summary.Assembler
}

var _ Service = &service{}

func NewService(patients patients.Service, visits visits.Service, summaries summary.Service, assembler *summary.Assembler) (Service, error) {
	return &service{
		patients:  patients,
		visits:    visits,
		summaries: summaries,
		assembler: assembler,
	}, nil
}

func (s *service) Get(ctx context.Context, asOf *time.Time) (*Dashboard, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	at := s.summaries.Now()
	if asOf != nil {
		at = asOf.In(at.Location())
	}

	dashboard := Build(snapshot, s.assembler, at)
	return &dashboard, nil
}

func (s *service) Snapshot(ctx context.Context) (snapshot Snapshot, err error) {
	snapshot.Patients, err = s.patients.List(ctx, nil, store.Unpaginated())
	if err != nil {
		return
	}
	snapshot.Visits, err = s.visits.List(ctx, nil, store.Unpaginated())
	return
}
