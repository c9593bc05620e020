package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/asthma-connect/clinic/patients"
	"github.com/asthma-connect/clinic/visits"
)

type CreatePatientRequest struct {
	HN           string   `json:"hn"`
	Prefix       string   `json:"prefix"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	BirthDate    string   `json:"birthDate"`
	Height       float64  `json:"height"`
	PersonalBest *float64 `json:"personalBest,omitempty"`
	Status       string   `json:"status"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) ListPatients(ec echo.Context) error {
	ctx := ec.Request().Context()
	page, err := pagination(ec)
	if err != nil {
		return err
	}

	filter := patients.Filter{}
	if raw := ec.QueryParam("status"); raw != "" {
		status, err := patients.ParseStatus(raw)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	if search := strings.TrimSpace(ec.QueryParam("search")); search != "" {
		filter.Search = &search
	}

	list, err := h.patients.List(ctx, &filter, page)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, list)
}

func (h *Handler) CreatePatient(ec echo.Context) error {
	ctx := ec.Request().Context()
	var req CreatePatientRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	birthDate, err := visits.ParseDate(req.BirthDate)
	if err != nil {
		return err
	}

	created, err := h.patients.Create(ctx, patients.Patient{
		HN:           req.HN,
		Prefix:       strings.TrimSpace(req.Prefix),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		BirthDate:    birthDate,
		Height:       req.Height,
		PersonalBest: req.PersonalBest,
		Status:       patients.Status(req.Status),
	})
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(ec echo.Context) error {
	patient, err := h.patients.Get(ec.Request().Context(), ec.Param("hn"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, patient)
}

func (h *Handler) UpdatePatientStatus(ec echo.Context) error {
	ctx := ec.Request().Context()
	var req UpdateStatusRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	status, err := patients.ParseStatus(req.Status)
	if err != nil {
		return err
	}

	updated, err := h.patients.UpdateStatus(ctx, ec.Param("hn"), status)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, updated)
}

func (h *Handler) RotateViewToken(ec echo.Context) error {
	updated, err := h.patients.RotateViewToken(ec.Request().Context(), ec.Param("hn"))
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, updated)
}
