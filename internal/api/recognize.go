package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
	"github.com/kuzamma/surah-recognition-go/internal/session"
)

// audioFormField is the multipart field name recordings arrive under.
const audioFormField = "audio"

// Recognize accepts a WAV recording as multipart form data and runs one full
// recognition cycle: duration gate, upload, normalization or fallback, and
// history append. The session is reset afterwards so the next request finds
// it idle.
func (c *Controller) Recognize(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile(audioFormField)
	if err != nil {
		return c.HandleError(ctx,
			errors.New(err).Component("api").Category(errors.CategoryValidation).Build(),
			"Missing audio file in form field \"audio\"", http.StatusBadRequest)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to open uploaded file", http.StatusBadRequest)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read uploaded file", http.StatusBadRequest)
	}

	info, err := myaudio.ReadWAVInfoBuffer(data)
	if err != nil {
		return c.HandleError(ctx, err, "Uploaded file is not a valid WAV recording", http.StatusBadRequest)
	}
	if formatErr := info.Validate(); formatErr != nil {
		// Accepted anyway; the classifier may still cope.
		c.apiLogger.Warn("Recording format differs from the expected input",
			"file", fileHeader.Filename, "error", formatErr)
	}
	if maxSeconds := float64(c.Settings.Recognition.MaxDuration); maxSeconds > 0 && info.Seconds() > maxSeconds {
		c.apiLogger.Warn("Recording exceeds the advisory maximum duration",
			"file", fileHeader.Filename,
			"duration_seconds", info.Seconds(),
			"max_seconds", maxSeconds)
	}

	if err := c.Session.StartRecording(); err != nil {
		return c.HandleError(ctx, err, "A recognition is already in progress", http.StatusConflict)
	}

	source := myaudio.NewBufferSource(fileHeader.Filename, data)
	result, err := c.Session.FinishRecording(ctx.Request().Context(), source, info.Seconds())
	c.rearmSession()

	if err != nil {
		switch {
		case errors.HasCategory(err, errors.CategoryValidation):
			return c.HandleError(ctx, err, "Recording is too short to recognize", http.StatusBadRequest)
		case errors.HasCategory(err, errors.CategoryState):
			return c.HandleError(ctx, err, "A recognition is already in progress", http.StatusConflict)
		default:
			return c.HandleError(ctx, err, "Recognition failed", http.StatusInternalServerError)
		}
	}

	return ctx.JSON(http.StatusOK, result)
}

// rearmSession resets a terminal session so the controller can serve the
// next request. A validation rejection already left the session idle.
func (c *Controller) rearmSession() {
	switch c.Session.Phase() {
	case session.PhaseCompleted, session.PhaseFailed:
		if err := c.Session.Reset(); err != nil {
			c.apiLogger.Error("Failed to reset session", "error", err)
		}
	}
}
