package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthResponse reports whether the remote classifier answered its probe.
type HealthResponse struct {
	Available bool   `json:"available"`
	Endpoint  string `json:"endpoint"`
}

// GetHealth returns the cached availability of the remote classifier. Pass
// ?refresh=true to bypass the cache and probe again.
func (c *Controller) GetHealth(ctx echo.Context) error {
	var available bool
	if ctx.QueryParam("refresh") == "true" {
		available = c.Health.ForceCheck(ctx.Request().Context())
	} else {
		available = c.Health.EnsureAvailable(ctx.Request().Context())
	}

	code := http.StatusOK
	if !available {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, HealthResponse{
		Available: available,
		Endpoint:  c.Settings.Recognition.Endpoint,
	})
}
