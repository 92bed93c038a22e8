package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experiment-server/internal/health"
)

// ReportNotifier receives every report after it has been built.
type ReportNotifier interface {
	Notify(report health.Report)
}

// HealthHandler runs the probe registry for each request.
type HealthHandler struct {
	Registry *health.Registry
	Notifier ReportNotifier // optional
}

// Report answers 200 with an UP report and 503 with a DOWN report.
func (h *HealthHandler) Report(c echo.Context) error {
	report := h.Registry.Run(c.Request().Context())
	if h.Notifier != nil {
		h.Notifier.Notify(report)
	}
	status := http.StatusOK
	if !report.Up() {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
