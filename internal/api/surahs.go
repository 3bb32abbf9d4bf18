package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/surah"
)

// GetSurahs returns the fixed reference table of recognizable surahs.
func (c *Controller) GetSurahs(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, surah.All())
}

// GetSurah returns a single surah by its numeric id.
func (c *Controller) GetSurah(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx,
			errors.New(err).Component("api").Category(errors.CategoryValidation).Build(),
			"Invalid surah id", http.StatusBadRequest)
	}

	s, ok := surah.ByID(id)
	if !ok {
		return c.HandleError(ctx,
			errors.Newf("no surah with id %d", id).Component("api").Category(errors.CategoryValidation).Build(),
			"Unknown surah id", http.StatusNotFound)
	}
	return ctx.JSON(http.StatusOK, s)
}
