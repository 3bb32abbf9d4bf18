package classifier

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
)

const testEndpoint = "https://surah-api.test"

func testSettings(t *testing.T) *conf.Settings {
	t.Helper()
	return &conf.Settings{
		Recognition: conf.RecognitionSettings{
			Endpoint:      testEndpoint,
			HealthPath:    "/health",
			UploadTimeout: 40,
			MaxDuration:   45,
		},
	}
}

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	client := New(testSettings(t))
	httpmock.ActivateNonDefault(client.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return client
}

func testSource() myaudio.Source {
	return myaudio.NewBufferSource("recording.wav", []byte("RIFF fake audio payload"))
}

func TestClassifySuccess(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		func(req *http.Request) (*http.Response, error) {
			// The wire contract: one binary part named "audio".
			require.NoError(t, req.ParseMultipartForm(1<<20))
			_, header, err := req.FormFile("audio")
			require.NoError(t, err)
			assert.Equal(t, "recording.wav", header.Filename)
			assert.Equal(t, "application/json", req.Header.Get("Accept"))

			return httpmock.NewStringResponse(http.StatusOK,
				`{"recognized": true, "surahId": 3, "confidence": 0.82}`), nil
		})

	raw, err := client.Classify(context.Background(), testSource())
	require.NoError(t, err)
	require.NotNil(t, raw.Recognized)
	assert.True(t, *raw.Recognized)
	require.NotNil(t, raw.SurahID)
	assert.Equal(t, 3, *raw.SurahID)
	require.NotNil(t, raw.Confidence)
	assert.InDelta(t, 0.82, *raw.Confidence, 0.001)
}

func TestClassifyNameFirstResponse(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		httpmock.NewStringResponder(http.StatusOK,
			`{"surahName": "Surah Al-Ikhlas", "recognized": true, "confidence": 90}`))

	raw, err := client.Classify(context.Background(), testSource())
	require.NoError(t, err)
	require.NotNil(t, raw.SurahName)
	assert.Equal(t, "Surah Al-Ikhlas", *raw.SurahName)
	assert.Nil(t, raw.SurahID)
}

func TestClassifyServerError(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		httpmock.NewStringResponder(http.StatusInternalServerError, "model crashed"))

	raw, err := client.Classify(context.Background(), testSource())
	require.Error(t, err)
	assert.Nil(t, raw)
	assert.True(t, errors.HasCategory(err, errors.CategoryServerResponse))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, http.StatusInternalServerError, ee.GetContext()["status_code"])
	assert.Equal(t, "model crashed", ee.GetContext()["response"])
}

func TestClassifyNetworkError(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		httpmock.NewErrorResponder(errors.NewStd("connection refused")))

	_, err := client.Classify(context.Background(), testSource())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestClassifyTimeout(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	_, err := client.Classify(context.Background(), testSource())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryTimeout))
}

func TestClassifyMalformedResponse(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testEndpoint+"/predict",
		httpmock.NewStringResponder(http.StatusOK, `{not json`))

	_, err := client.Classify(context.Background(), testSource())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryMalformedResponse))
}

func TestClassifyNilSource(t *testing.T) {
	client := newMockedClient(t)

	_, err := client.Classify(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryResource))
	assert.Zero(t, httpmock.GetTotalCallCount(), "no upload should be attempted")
}

func TestUploadTimeoutFromSettings(t *testing.T) {
	client := New(testSettings(t))
	assert.Equal(t, 40*time.Second, client.UploadTimeout())
}

func TestEnsureAvailableCachesOutcome(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, testEndpoint+"/health",
		httpmock.NewStringResponder(http.StatusOK, `{"status":"ok"}`))

	assert.True(t, client.EnsureAvailable(context.Background()))

	// Flip the responder: the cached value must still be served with no I/O.
	httpmock.RegisterResponder(http.MethodGet, testEndpoint+"/health",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, "down"))

	assert.True(t, client.EnsureAvailable(context.Background()))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())

	// An explicit re-check observes the new state.
	assert.False(t, client.ForceCheck(context.Background()))
	assert.False(t, client.EnsureAvailable(context.Background()))
}

func TestEnsureAvailableTreatsErrorsAsUnreachable(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, testEndpoint+"/health",
		httpmock.NewErrorResponder(errors.NewStd("no route to host")))

	assert.False(t, client.EnsureAvailable(context.Background()))
}
