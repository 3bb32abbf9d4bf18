// Package api exposes the recognition pipeline over HTTP. Handlers are a
// thin presentation layer: they invoke the session controller, the history
// ledger, or the availability cache, and render JSON.
package api

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/history"
	"github.com/kuzamma/surah-recognition-go/internal/logging"
	"github.com/kuzamma/surah-recognition-go/internal/observability"
	"github.com/kuzamma/surah-recognition-go/internal/session"
)

// HealthChecker is the availability surface of the classifier client.
type HealthChecker interface {
	EnsureAvailable(ctx context.Context) bool
	ForceCheck(ctx context.Context) bool
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Settings *conf.Settings
	Session  *session.Controller
	Health   HealthChecker
	Ledger   *history.Ledger
	Metrics  *observability.Metrics

	apiLogger *slog.Logger
}

// New creates the API controller and registers its routes on e.
func New(e *echo.Echo, settings *conf.Settings, sess *session.Controller, health HealthChecker, ledger *history.Ledger, metrics *observability.Metrics) *Controller {
	c := &Controller{
		Echo:      e,
		Settings:  settings,
		Session:   sess,
		Health:    health,
		Ledger:    ledger,
		Metrics:   metrics,
		apiLogger: logging.ForService("api"),
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.POST("/recognize", c.Recognize)
	c.Group.GET("/history", c.GetHistory)
	c.Group.DELETE("/history", c.ClearHistory)
	c.Group.GET("/surahs", c.GetSurahs)
	c.Group.GET("/surahs/:id", c.GetSurah)
	c.Group.GET("/health", c.GetHealth)

	if c.Metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.Metrics.Handler()))
	}
}

// ErrorResponse is the uniform error rendering for all handlers.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

// HandleError logs err and renders it with the given status code. The error
// category travels in the body so clients can distinguish a rejected upload
// from a failed one without parsing messages.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	c.apiLogger.Error(message,
		"error", err,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method)

	resp := ErrorResponse{Error: message}
	if category := errors.CategoryOf(err); category != errors.CategoryGeneric {
		resp.Category = string(category)
	}
	return ctx.JSON(code, resp)
}

// NewServer builds an echo instance with the standard middleware applied.
func NewServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return e
}

// Start runs the server on the configured port until the listener fails.
func (c *Controller) Start() error {
	addr := ":" + c.Settings.WebServer.Port
	c.apiLogger.Info("HTTP API listening", "addr", addr)
	return c.Echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (c *Controller) Shutdown(ctx context.Context) error {
	return c.Echo.Shutdown(ctx)
}
