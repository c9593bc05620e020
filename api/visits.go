package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

type CreateVisitRequest struct {
	Date              string   `json:"date"`
	IsNewCase         bool     `json:"isNewCase"`
	PEFR              float64  `json:"pefr"`
	NotMeasured       bool     `json:"notMeasured"`
	ControlLevel      string   `json:"controlLevel"`
	Controllers       []string `json:"controllers"`
	Relievers         []string `json:"relievers"`
	Adherence         int      `json:"adherence"`
	RelativePickup    bool     `json:"relativePickup"`
	TechniqueReviewed bool     `json:"techniqueReviewed"`
	TechniqueScore    *int     `json:"techniqueScore,omitempty"`
	DRP               string   `json:"drp"`
	Advice            string   `json:"advice"`
	Note              string   `json:"note"`
	NextAppointment   string   `json:"nextAppointment"`
}

// Form reads the request dates as calendar days in the clinic timezone
func (r CreateVisitRequest) Form(loc *time.Location) (visits.Form, error) {
	date, err := visits.ParseDateIn(r.Date, loc)
	if err != nil {
		return visits.Form{}, err
	}
	next, err := visits.ParseOptionalDateIn(r.NextAppointment, loc)
	if err != nil {
		return visits.Form{}, err
	}
	return visits.Form{
		Date:              date,
		IsNewCase:         r.IsNewCase,
		PEFR:              r.PEFR,
		NotMeasured:       r.NotMeasured,
		ControlLevel:      r.ControlLevel,
		Controllers:       r.Controllers,
		Relievers:         r.Relievers,
		Adherence:         r.Adherence,
		RelativePickup:    r.RelativePickup,
		TechniqueReviewed: r.TechniqueReviewed,
		TechniqueScore:    r.TechniqueScore,
		DRP:               r.DRP,
		Advice:            r.Advice,
		Note:              r.Note,
		NextAppointment:   next,
	}, nil
}

func (h *Handler) ListVisits(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.patients.Get(ctx, ec.Param("hn"))
	if err != nil {
		return err
	}

	list, err := h.visits.ListByPatient(ctx, patient.HN)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, list)
}

func (h *Handler) CreateVisit(ec echo.Context) error {
	ctx := ec.Request().Context()
	var req CreateVisitRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	form, err := req.Form(h.summaries.Now().Location())
	if err != nil {
		return err
	}
	visit, err := visits.NewVisit(ec.Param("hn"), form)
	if err != nil {
		return err
	}

	created, err := h.visits.Create(ctx, visit)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusCreated, created)
}

// GetVisitPrefill returns a new visit form carrying over the medications of the latest visit
func (h *Handler) GetVisitPrefill(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.patients.Get(ctx, ec.Param("hn"))
	if err != nil {
		return err
	}
	history, err := h.visits.ListByPatient(ctx, patient.HN)
	if err != nil {
		return err
	}

	form := visits.Prefill(summary.LatestVisit(history))
	form.Date = h.summaries.Now()
	return ec.JSON(http.StatusOK, form)
}
