package router // router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experiment-server/internal/config"
	"github.com/iliyamo/experiment-server/internal/handler"
	"github.com/iliyamo/experiment-server/internal/middleware"
)

var getHead = []string{http.MethodGet, http.MethodHead}

// Route is one entry of the route table.
type Route struct {
	Methods    []string
	Path       string
	Handler    echo.HandlerFunc
	Middleware []echo.MiddlewareFunc
}

// Deps is everything the route table needs.  It is built once at startup
// and never modified afterwards.
type Deps struct {
	Docs        config.DocsConfig
	DocsHandler *handler.DocsHandler
	Health      *handler.HealthHandler
	Swagger     *handler.StaticMount
	Webjars     *handler.StaticMount
	DocsCache   echo.MiddlewareFunc // optional, wraps both api-docs routes
	Logger      *slog.Logger
}

// Routes returns the route table in registration order.
func Routes(d *Deps) []Route {
	var docsMW []echo.MiddlewareFunc
	if d.DocsCache != nil {
		docsMW = append(docsMW, d.DocsCache)
	}
	return []Route{
		{Methods: getHead, Path: "/", Handler: handler.Welcome},
		{Methods: getHead, Path: "/v3/api-docs", Handler: d.DocsHandler.Serve(d.Docs.V3Path), Middleware: docsMW},
		{Methods: getHead, Path: "/v3.1/api-docs", Handler: d.DocsHandler.Serve(d.Docs.V31Path), Middleware: docsMW},
		{Methods: getHead, Path: "/swagger/*", Handler: d.Swagger.Handler()},
		{Methods: getHead, Path: "/webjars/*", Handler: d.Webjars.Handler()},
		{Methods: []string{http.MethodGet}, Path: "/health", Handler: d.Health.Report},
	}
}

// RegisterRoutes installs the connection logger and every route of the table
// on e.  Unmatched paths fall through to echo's 404.
func RegisterRoutes(e *echo.Echo, d *Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e.Use(middleware.LogConnection(logger))
	for _, r := range Routes(d) {
		e.Match(r.Methods, r.Path, r.Handler, r.Middleware...)
	}
}
