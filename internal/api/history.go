package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kuzamma/surah-recognition-go/internal/history"
)

// HistoryResponse wraps the stored entries with the ledger's bound so
// clients can render "n of 50" without hardcoding the capacity.
type HistoryResponse struct {
	Entries  []history.Entry `json:"entries"`
	Capacity int             `json:"capacity"`
}

// GetHistory returns all stored entries, most recent first.
func (c *Controller) GetHistory(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HistoryResponse{
		Entries:  c.Ledger.All(),
		Capacity: history.Capacity,
	})
}

// ClearHistory empties the ledger and its persisted copy.
func (c *Controller) ClearHistory(ctx echo.Context) error {
	if err := c.Ledger.Clear(); err != nil {
		return c.HandleError(ctx, err, "Failed to clear history", http.StatusInternalServerError)
	}
	return ctx.NoContent(http.StatusNoContent)
}
