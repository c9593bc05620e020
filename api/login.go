package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type LoginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Login(ec echo.Context) error {
	var req LoginRequest
	if err := bind(ec, &req); err != nil {
		return err
	}

	session, err := h.sessions.Login(req.Password)
	if err != nil {
		h.logger.Warnw("failed staff login", "ip", ec.RealIP())
		return err
	}
	return ec.JSON(http.StatusOK, session)
}
