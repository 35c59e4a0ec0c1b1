package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/docupilot-ai/docupilot/pkg/ingest"
	"github.com/docupilot-ai/docupilot/pkg/services"
)

// mapServiceError maps service-layer errors to HTTP error responses.
func mapServiceError(err error) *echo.HTTPError {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return echo.NewHTTPError(http.StatusBadRequest, validErr.Error())
	}
	if errors.Is(err, services.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if errors.Is(err, services.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "resource already exists")
	}

	// Unexpected error
	slog.Error("Unexpected service error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

// mapIngestError maps ingest failures to HTTP error responses.
func mapIngestError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ingest.ErrEmptyDocument):
		return echo.NewHTTPError(http.StatusBadRequest, "document contains no text")
	case errors.Is(err, ingest.ErrTooManyChunks):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "document is too large")
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
