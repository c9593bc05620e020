package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asthma-connect/clinic/dashboard"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/pefr"
	"github.com/asthma-connect/clinic/summary"
)

// PatientView is what patients see when scanning their card. Identifying details are masked.
type PatientView struct {
	Name              string                     `json:"name"`
	Age               int                        `json:"age"`
	Height            float64                    `json:"height"`
	Reference         float64                    `json:"reference"`
	HasHistory        bool                       `json:"hasHistory"`
	LatestValue       float64                    `json:"latestValue,omitempty"`
	Percent           int                        `json:"percent,omitempty"`
	Zone              *pefr.Classification       `json:"zone,omitempty"`
	Technique         *summary.TechniqueStatus   `json:"technique,omitempty"`
	TechniqueProgress int                        `json:"techniqueProgress"`
	Appointment       *summary.AppointmentStatus `json:"appointment,omitempty"`
	Chart             dashboard.Chart            `json:"chart"`
}

func (h *Handler) GetPatientView(ec echo.Context) error {
	ctx := ec.Request().Context()
	patient, err := h.patients.GetByViewToken(ctx, ec.Param("token"))
	if err != nil {
		return err
	}
	history, err := h.visits.ListByPatient(ctx, patient.HN)
	if err != nil {
		return err
	}

	s := h.assembler.Assemble(*patient, history, h.summaries.Now())
	view := PatientView{
		Name:        maskedName(*patient),
		Age:         s.Age,
		Height:      s.Height,
		Reference:   s.Reference,
		HasHistory:  s.HasHistory,
		LatestValue: s.LatestValue,
		Percent:     s.Percent,
		Zone:        s.Zone,
		Technique:   s.Technique,
		Appointment: s.Appointment,
		Chart:       dashboard.PEFRChart(history, s.Reference, h.assembler.Thresholds()),
	}
	if s.Technique != nil {
		view.TechniqueProgress = s.Technique.Progress()
	}
	return ec.JSON(http.StatusOK, view)
}

func maskedName(p patients.Patient) string {
	return strings.TrimSpace(p.Prefix + patients.MaskText(p.FirstName) + " " + patients.MaskText(p.LastName))
}
