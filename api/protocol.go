package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"plansync-api/domain"
)

const (
	crudBodyMaxSize = 64 * 1024        // 64 KiB
	syncBodyMaxSize = 1 * 1024 * 1024 // 1 MiB, offline snapshots batch up
)

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error"`
	Details []domain.FieldError `json:"details,omitempty"`
}

func respondData(c echo.Context, status int, data any) error {
	return c.JSON(status, successResponse{Success: true, Data: data})
}

// respondError maps domain errors to the HTTP status taxonomy: 400 validation
// (with field details), 404 not-found, 409 conflict, 500 internal.
func respondError(c echo.Context, logger *log.Logger, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error(), Details: verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		return c.JSON(http.StatusConflict, errorResponse{Error: "conflict"})
	}
	logger.WithError(err).Error("internal error")
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
