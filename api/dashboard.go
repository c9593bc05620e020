package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/asthma-connect/clinic/backup"
	"github.com/asthma-connect/clinic/errors"
	"github.com/asthma-connect/clinic/importer"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handler) GetDashboard(ec echo.Context) error {
	asOf, err := h.asOf(ec.QueryParam("date"))
	if err != nil {
		return err
	}

	result, err := h.dashboard.Get(ec.Request().Context(), asOf)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, result)
}

func (h *Handler) ImportAppointments(ec echo.Context) error {
	ctx := ec.Request().Context()
	dryRun := false
	if raw := ec.QueryParam("dryRun"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: invalid dryRun value %q", errors.BadRequest, raw)
		}
		dryRun = parsed
	}

	header, err := ec.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", errors.BadRequest)
	}
	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	rows, err := importer.Parse(header.Filename, file)
	if err != nil {
		return err
	}
	result, err := h.importer.Import(ctx, rows, dryRun)
	if err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, result)
}

func (h *Handler) GetBackup(ec echo.Context) error {
	snapshot, err := h.dashboard.Snapshot(ec.Request().Context())
	if err != nil {
		return err
	}
	file, err := backup.NewReport(snapshot).Generate()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return err
	}

	name := backup.FileName(h.summaries.Now())
	ec.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return ec.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
