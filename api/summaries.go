package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asthma-connect/clinic/card"
)

func (h *Handler) GetSummary(ec echo.Context) error {
	ctx := ec.Request().Context()
	asOf, err := h.asOf(ec.QueryParam("asOf"))
	if err != nil {
		return err
	}

	s, err := h.summaries.Get(ctx, ec.Param("hn"), asOf)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, s)
}

func (h *Handler) GetCard(ec echo.Context) error {
	c, err := h.card(ec)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, c)
}

func (h *Handler) GetCardQR(ec echo.Context) error {
	c, err := h.card(ec)
	if err != nil {
		return err
	}
	png, err := card.QR(c.Link)
	if err != nil {
		return err
	}
	return ec.Blob(http.StatusOK, "image/png", png)
}

func (h *Handler) card(ec echo.Context) (*card.Card, error) {
	ctx := ec.Request().Context()
	patient, err := h.patients.Get(ctx, ec.Param("hn"))
	if err != nil {
		return nil, err
	}
	s, err := h.summaries.ForPatient(ctx, patient, nil)
	if err != nil {
		return nil, err
	}
	return card.New(h.config.BaseURL, *patient, *s)
}
