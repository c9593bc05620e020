package importer

import (
	"context"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/outbox"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
	"github.com/asthma-connect/clinic/visits"
)

const PlaceholderNote = "Imported from HOSxP"

type Action string

const (
	// ActionCreate records a placeholder visit carrying the appointment
	ActionCreate Action = "create"
	// ActionBackfill sets the next appointment of an existing visit
	ActionBackfill  Action = "backfill"
	ActionUnchanged Action = "unchanged"
	// ActionDuplicate marks a repeated (HN, visit date) pair within the same file
	ActionDuplicate Action = "duplicate"
	ActionUnmatched Action = "unmatched"
	ActionSkipped   Action = "skipped"
)

type RowPlan struct {
	Row      Row    `json:"row"`
	Action   Action `json:"action"`
	FullName string `json:"fullName,omitempty"`
}

type Backfill struct {
	HN              string    `json:"hn"`
	VisitDate       time.Time `json:"visitDate"`
	NextAppointment time.Time `json:"nextAppointment"`
}

type Plan struct {
	Rows      []RowPlan      `json:"rows"`
	Visits    []visits.Visit `json:"visits"`
	Backfills []Backfill     `json:"backfills"`

	CreatedTime time.Time `json:"createdTime"`
}

type Counts struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Duplicate int `json:"duplicate"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
}

func (p Plan) Counts() Counts {
	var counts Counts
	for _, row := range p.Rows {
		switch row.Action {
		case ActionCreate:
			counts.Created++
		case ActionBackfill:
			counts.Updated++
		case ActionUnchanged:
			counts.Unchanged++
		case ActionDuplicate:
			counts.Duplicate++
		case ActionUnmatched:
			counts.Unmatched++
		case ActionSkipped:
			counts.Skipped++
		}
	}
	return counts
}

func (p Plan) HasChanges() bool {
	return len(p.Visits) > 0 || len(p.Backfills) > 0
}

type Result struct {
	Plan    Plan   `json:"plan"`
	Counts  Counts `json:"counts"`
	DryRun  bool   `json:"dryRun"`
	Applied bool   `json:"applied"`
}

type Importer struct {
	patients patients.Service
	visits   visits.Service
	outbox   outbox.Repository
	logger   *zap.SugaredLogger
}

func NewImporter(patients patients.Service, visits visits.Service, outbox outbox.Repository, logger *zap.SugaredLogger) *Importer {
	return &Importer{
		patients: patients,
		visits:   visits,
		outbox:   outbox,
		logger:   logger,
	}
}

type visitKey struct {
	hn   string
	date time.Time
}

// CreatePlan reconciles the rows against registered patients and their visit history without writing anything
func (i *Importer) CreatePlan(ctx context.Context, rows []Row) (plan Plan, err error) {
	hns := mapset.NewSet[string]()
	for _, row := range rows {
		if row.HN != "" {
			hns.Add(row.HN)
		}
	}

	registered := make(map[string]*patients.Patient)
	if hns.Cardinality() > 0 {
		var list []*patients.Patient
		list, err = i.patients.List(ctx, &patients.Filter{HNs: hns.ToSlice()}, store.Unpaginated())
		if err != nil {
			return
		}
		for _, p := range list {
			registered[p.HN] = p
		}
	}

	existing := make(map[visitKey]*visits.Visit)
	for hn := range registered {
		var history []*visits.Visit
		history, err = i.visits.ListByPatient(ctx, hn)
		if err != nil {
			return
		}
		for _, v := range history {
			existing[visitKey{hn: hn, date: visits.Day(v.Date)}] = v
		}
	}

	planned := make(map[visitKey]int)
	backfilled := make(map[visitKey]int)
	plan.Rows = make([]RowPlan, 0, len(rows))
	for _, row := range rows {
		rowPlan := RowPlan{Row: row}
		patient, ok := registered[row.HN]
		if !ok {
			rowPlan.Action = ActionUnmatched
			plan.Rows = append(plan.Rows, rowPlan)
			continue
		}
		rowPlan.FullName = patient.FullName()
		if row.VisitDate == nil {
			rowPlan.Action = ActionSkipped
			plan.Rows = append(plan.Rows, rowPlan)
			continue
		}

		key := visitKey{hn: row.HN, date: visits.Day(*row.VisitDate)}
		switch {
		case hasKey(planned, key):
			rowPlan.Action = ActionDuplicate
			if row.NextAppointment != nil {
				plan.Visits[planned[key]] = PlaceholderVisit(key.hn, key.date, row.NextAppointment)
			}
		case hasKey(backfilled, key):
			rowPlan.Action = ActionDuplicate
			if row.NextAppointment != nil {
				plan.Backfills[backfilled[key]].NextAppointment = visits.Day(*row.NextAppointment)
			}
		case existing[key] != nil:
			if row.NextAppointment == nil || sameDay(existing[key].NextAppointment, row.NextAppointment) {
				rowPlan.Action = ActionUnchanged
				break
			}
			rowPlan.Action = ActionBackfill
			backfilled[key] = len(plan.Backfills)
			plan.Backfills = append(plan.Backfills, Backfill{
				HN:              key.hn,
				VisitDate:       key.date,
				NextAppointment: visits.Day(*row.NextAppointment),
			})
		default:
			rowPlan.Action = ActionCreate
			planned[key] = len(plan.Visits)
			plan.Visits = append(plan.Visits, PlaceholderVisit(key.hn, key.date, row.NextAppointment))
		}
		plan.Rows = append(plan.Rows, rowPlan)
	}

	plan.CreatedTime = time.Now()
	return
}

// Apply performs the writes of a plan
func (i *Importer) Apply(ctx context.Context, plan Plan) (Result, error) {
	result := Result{
		Plan:   plan,
		Counts: plan.Counts(),
	}
	if len(plan.Visits) > 0 {
		if _, err := i.visits.CreateMany(ctx, plan.Visits); err != nil {
			return result, err
		}
	}
	for _, backfill := range plan.Backfills {
		if _, err := i.visits.BackfillAppointment(ctx, backfill.HN, backfill.VisitDate, backfill.NextAppointment); err != nil {
			return result, err
		}
	}

	result.Applied = true
	i.logger.Infow("appointments imported",
		"created", result.Counts.Created,
		"updated", result.Counts.Updated,
		"unmatched", result.Counts.Unmatched,
		"skipped", result.Counts.Skipped,
	)

	// The visits are already written, so a failed event is logged rather than returned
	if err := i.publish(ctx, plan, result.Counts); err != nil {
		i.logger.Warnw("unable to record import event", zap.Error(err))
	}
	return result, nil
}

func (i *Importer) publish(ctx context.Context, plan Plan, counts Counts) error {
	hns := mapset.NewThreadUnsafeSet[string]()
	for _, visit := range plan.Visits {
		hns.Add(visit.HN)
	}
	for _, backfill := range plan.Backfills {
		hns.Add(backfill.HN)
	}
	sorted := hns.ToSlice()
	sort.Strings(sorted)

	event, err := outbox.NewEvent(outbox.EventTypeAppointmentsImported, outbox.AppointmentsImportedPayload{
		Rows:      len(plan.Rows),
		Created:   counts.Created,
		Updated:   counts.Updated,
		Unmatched: counts.Unmatched,
		Skipped:   counts.Skipped,
		HNs:       sorted,
	})
	if err != nil {
		return err
	}
	return i.outbox.Create(ctx, event)
}

// Import plans the rows and applies the plan unless dryRun is set
func (i *Importer) Import(ctx context.Context, rows []Row, dryRun bool) (Result, error) {
	plan, err := i.CreatePlan(ctx, rows)
	if err != nil {
		return Result{}, err
	}
	if dryRun {
		return Result{Plan: plan, Counts: plan.Counts(), DryRun: true}, nil
	}
	return i.Apply(ctx, plan)
}

// PlaceholderVisit records that the patient was seen at the hospital on the given date
// without a clinic assessment
func PlaceholderVisit(hn string, date time.Time, next *time.Time) visits.Visit {
	visit := visits.Visit{
		HN:           hn,
		Date:         visits.Day(date),
		ControlLevel: visits.ControlNotAssessed,
		Controllers:  []string{},
		Relievers:    []string{},
		DRP:          "-",
		Advice:       PlaceholderNote,
		Note:         PlaceholderNote,
		Source:       visits.SourceHOSxP,
	}
	if next != nil {
		day := visits.Day(*next)
		visit.NextAppointment = &day
	} else {
		visit.NextAppointmentText = "-"
	}
	return visit
}

func hasKey(m map[visitKey]int, key visitKey) bool {
	_, ok := m[key]
	return ok
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return visits.Day(*a).Equal(visits.Day(*b))
}
