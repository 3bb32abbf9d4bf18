// Package classifier implements the HTTP client for the remote surah
// classification service, including the process-wide availability cache.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/logging"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
	"github.com/kuzamma/surah-recognition-go/internal/recognition"
)

const (
	// predictPath is the classification endpoint, relative to the service base URL.
	predictPath = "/predict"
	// audioFieldName is the multipart field the server expects the audio under.
	// Part of the wire contract; the server rejects requests without it.
	audioFieldName = "audio"

	userAgent          = "surah-recognition-go"
	healthProbeTimeout = 10 * time.Second
)

// availabilityKey is the cache key holding the last health probe outcome.
const availabilityKey = "remote-availability"

// Client talks to the remote classification service. A Client performs one
// upload attempt per Classify call; retry is the caller starting a new cycle.
type Client struct {
	settings   *conf.Settings
	httpClient *http.Client
	cache      *cache.Cache
	logger     *slog.Logger
}

// New creates a classifier client from the given settings. The HTTP client
// carries no global timeout; each upload is bounded by its own context
// deadline so an expired upload is actively cancelled.
func New(settings *conf.Settings) *Client {
	return &Client{
		settings:   settings,
		httpClient: &http.Client{},
		cache:      cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:     logging.ForService("classifier"),
	}
}

// UploadTimeout returns the per-upload deadline.
func (c *Client) UploadTimeout() time.Duration {
	return time.Duration(c.settings.Recognition.UploadTimeout) * time.Second
}

// Classify uploads the recording to the remote service and returns its raw
// prediction. The returned error carries a category distinguishing timeout,
// network, server and malformed-response failures so the caller can decide
// whether to fall back.
func (c *Client) Classify(ctx context.Context, source myaudio.Source) (*recognition.RawPrediction, error) {
	if source == nil {
		return nil, errors.Newf("audio source is missing").
			Component("classifier").
			Category(errors.CategoryResource).
			Build()
	}

	audio, err := source.Open()
	if err != nil {
		return nil, err
	}
	defer audio.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(audioFieldName, filepath.Base(source.Name()))
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryGeneric).
			Build()
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryResource).
			Context("source", source.Name()).
			Build()
	}
	if err := writer.Close(); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryGeneric).
			Build()
	}

	uploadCtx, cancel := context.WithTimeout(ctx, c.UploadTimeout())
	defer cancel()

	endpoint := strings.TrimSuffix(c.settings.Recognition.Endpoint, "/") + predictPath
	req, err := http.NewRequestWithContext(uploadCtx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryGeneric).
			Build()
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	c.logger.Info("Uploading recording for classification",
		"endpoint", endpoint, "source", source.Name(), "bytes", body.Len())
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(err, endpoint, time.Since(start))
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryNetwork).
			Context("endpoint", endpoint).
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Classification request rejected",
			"endpoint", endpoint, "status_code", resp.StatusCode)
		return nil, errors.Newf("server responded with %d", resp.StatusCode).
			Component("classifier").
			Category(errors.CategoryServerResponse).
			Context("status_code", resp.StatusCode).
			Context("response", string(responseBody)).
			Build()
	}

	if c.settings.Recognition.Debug {
		c.logger.Debug("Classification response", "body", string(responseBody))
	}

	var raw recognition.RawPrediction
	if err := json.Unmarshal(responseBody, &raw); err != nil {
		return nil, errors.New(err).
			Component("classifier").
			Category(errors.CategoryMalformedResponse).
			Context("endpoint", endpoint).
			Build()
	}

	c.logger.Info("Classification completed",
		"endpoint", endpoint, "duration_ms", time.Since(start).Milliseconds())
	return &raw, nil
}

// classifyTransportError distinguishes deadline expiry from other transport
// failures so the session controller can report the right reason.
func (c *Client) classifyTransportError(err error, endpoint string, elapsed time.Duration) error {
	category := errors.CategoryNetwork

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		category = errors.CategoryTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		category = errors.CategoryTimeout
	}

	if category == errors.CategoryTimeout {
		c.logger.Warn("Classification upload timed out",
			"endpoint", endpoint, "elapsed_ms", elapsed.Milliseconds())
	} else {
		c.logger.Error("Classification upload failed",
			"endpoint", endpoint, "error", err)
	}

	return errors.New(err).
		Component("classifier").
		Category(category).
		Context("endpoint", endpoint).
		Build()
}

// Close releases idle connections held by the HTTP client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
