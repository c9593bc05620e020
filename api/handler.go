package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/asthma-connect/clinic/auth"
	"github.com/asthma-connect/clinic/config"
	"github.com/asthma-connect/clinic/dashboard"
	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/importer"
	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/store"
	"github.com/asthma-connect/clinic/summary"
	"github.com/asthma-connect/clinic/visits"
)

type Handler struct {
	config    *config.Config
	patients  patients.Service
	visits    visits.Service
	summaries summary.Service
	dashboard dashboard.Service
	importer  *importer.Importer
	sessions  *auth.Sessions
	assembler *summary.Assembler
	logger    *zap.SugaredLogger
}

type Params struct {
	fx.In

	Config    *config.Config
	Patients  patients.Service
	Visits    visits.Service
	Summaries summary.Service
	Dashboard dashboard.Service
	Importer  *importer.Importer
	Sessions  *auth.Sessions
	Assembler *summary.Assembler
	Logger    *zap.SugaredLogger
}

func NewHandler(p Params) *Handler {
	return &Handler{
		config:    p.Config,
		patients:  p.Patients,
		visits:    p.Visits,
		summaries: p.Summaries,
		dashboard: p.Dashboard,
		importer:  p.Importer,
		sessions:  p.Sessions,
		assembler: p.Assembler,
		logger:    p.Logger,
	}
}

func RegisterHandlers(e *echo.Echo, h *Handler) {
	e.POST("/v1/login", h.Login)

	e.GET("/v1/patients", h.ListPatients)
	e.POST("/v1/patients", h.CreatePatient)
	e.GET("/v1/patients/:hn", h.GetPatient)
	e.PUT("/v1/patients/:hn/status", h.UpdatePatientStatus)
	e.POST("/v1/patients/:hn/token", h.RotateViewToken)

	e.GET("/v1/patients/:hn/visits", h.ListVisits)
	e.POST("/v1/patients/:hn/visits", h.CreateVisit)
	e.GET("/v1/patients/:hn/visits/prefill", h.GetVisitPrefill)

	e.GET("/v1/patients/:hn/summary", h.GetSummary)
	e.GET("/v1/patients/:hn/card", h.GetCard)
	e.GET("/v1/patients/:hn/card.png", h.GetCardQR)

	e.GET("/v1/dashboard", h.GetDashboard)
	e.POST("/v1/imports/appointments", h.ImportAppointments)
	e.GET("/v1/backup", h.GetBackup)

	e.GET("/v1/view/:token", h.GetPatientView)
}

func pagination(ec echo.Context) (store.Pagination, error) {
	page := store.DefaultPagination()
	err := echo.QueryParamsBinder(ec).
		Int("offset", &page.Offset).
		Int("limit", &page.Limit).
		BindError()
	if err != nil {
		return page, fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}
	if page.Offset < 0 || page.Limit < 0 {
		return page, fmt.Errorf("%w: offset and limit must not be negative", errors.BadRequest)
	}
	return page, nil
}

// asOf parses an optional point in time given as a timestamp or as a calendar day in the clinic timezone
func (h *Handler) asOf(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	now := h.summaries.Now()
	day, err := time.ParseInLocation(time.DateOnly, raw, now.Location())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", errors.BadRequest, raw)
	}
	return &day, nil
}

func bind(ec echo.Context, dest any) error {
	if err := ec.Bind(dest); err != nil {
		return fmt.Errorf("%w: %s", errors.BadRequest, err.Error())
	}
	return nil
}
