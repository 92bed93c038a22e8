package handler // package handler contains the HTTP handlers behind every route

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WelcomeMessage is the fixed greeting served at "/".
const WelcomeMessage = "Welcome to Vertx Experiment"

// Welcome writes {"message": WelcomeMessage} as indented JSON with 200 OK.
func Welcome(c echo.Context) error {
	return c.JSONPretty(http.StatusOK, echo.Map{"message": WelcomeMessage}, "  ")
}
