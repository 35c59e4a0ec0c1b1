package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/docupilot-ai/docupilot/pkg/database"
	"github.com/docupilot-ai/docupilot/pkg/version"
)

// healthHandler serves GET /health. The response is 200 while the database
// answers a ping and 503 otherwise; scheduler and registry gauges ride along.
func (s *Server) healthHandler(c *echo.Context) error {
	checks := map[string]HealthCheck{}
	status := "healthy"
	code := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	dbHealth, err := database.Health(ctx, s.db.DB())
	check := HealthCheck{Status: dbHealth.Status, Details: dbHealth}
	if err != nil {
		check.Message = err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	checks["database"] = check

	return c.JSON(code, HealthResponse{
		Status:      status,
		Version:     version.Full(),
		Checks:      checks,
		ActiveTasks: s.sched.ActiveTasks(),
		Connections: s.registry.ActiveConnections(),
	})
}
