package conf

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// ValidateSettings checks the loaded settings for obvious misconfiguration.
func ValidateSettings(settings *Settings) error {
	if err := validateRecognitionSettings(&settings.Recognition); err != nil {
		return err
	}
	if err := validateWebServerSettings(&settings.WebServer); err != nil {
		return err
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return errors.Newf("output.sqlite.path must be set when sqlite output is enabled").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

func validateRecognitionSettings(rec *RecognitionSettings) error {
	if rec.Endpoint == "" {
		return errors.Newf("recognition.endpoint must not be empty").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	parsed, err := url.Parse(rec.Endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.Newf("recognition.endpoint %q is not a valid URL", rec.Endpoint).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if rec.UploadTimeout <= 0 {
		return errors.Newf("recognition.uploadtimeout must be positive, got %d", rec.UploadTimeout).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if rec.HealthPath != "" && !strings.HasPrefix(rec.HealthPath, "/") {
		rec.HealthPath = "/" + rec.HealthPath
	}
	return nil
}

func validateWebServerSettings(ws *WebServerSettings) error {
	if !ws.Enabled {
		return nil
	}
	port, err := strconv.Atoi(ws.Port)
	if err != nil || port < 1 || port > 65535 {
		return errors.Newf("webserver.port %q is not a valid port number", ws.Port).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
