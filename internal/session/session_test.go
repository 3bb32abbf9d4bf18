package session

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kuzamma/surah-recognition-go/internal/datastore"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/history"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
	"github.com/kuzamma/surah-recognition-go/internal/observability"
	"github.com/kuzamma/surah-recognition-go/internal/recognition"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubClassifier returns a canned prediction or error, optionally blocking
// until released so tests can observe the Uploading phase.
type stubClassifier struct {
	raw     *recognition.RawPrediction
	err     error
	entered chan struct{}
	release chan struct{}
}

func (s *stubClassifier) Classify(ctx context.Context, source myaudio.Source) (*recognition.RawPrediction, error) {
	if s.entered != nil {
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	return s.raw, s.err
}

func boolPtr(b bool) *bool        { return &b }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func newTestController(t *testing.T, classifier Classifier) (*Controller, *history.Ledger) {
	t.Helper()
	ledger, err := history.NewLedger(datastore.NewMemStore())
	require.NoError(t, err)
	return NewController(classifier, ledger,
		WithFallbackGenerator(recognition.NewGeneratorWithSeed(1))), ledger
}

func testAudio() myaudio.Source {
	return myaudio.NewBufferSource("recording.wav", []byte("fake audio"))
}

func TestCycleCompletesWithRemoteResult(t *testing.T) {
	t.Parallel()

	// Remote returns shape 1 with a fractional confidence.
	stub := &stubClassifier{raw: &recognition.RawPrediction{
		Recognized: boolPtr(true),
		SurahID:    intPtr(3),
		Confidence: floatPtr(0.82),
	}}
	ctrl, ledger := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	assert.Equal(t, PhaseRecording, ctrl.Phase())

	result, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.NoError(t, err)

	assert.Equal(t, PhaseCompleted, ctrl.Phase())
	assert.True(t, result.Recognized)
	require.NotNil(t, result.SurahID)
	assert.Equal(t, 3, *result.SurahID)
	assert.Equal(t, "Al-Falaq", result.SurahName)
	assert.InDelta(t, 82, result.Confidence, 0.001)
	assert.Equal(t, recognition.SourceRemote, result.Source)

	entries := ledger.All()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Recognized)
	assert.Equal(t, "Al-Falaq", entries[0].SurahName)
	assert.False(t, ctrl.IsProcessing())
}

func TestTooShortRecordingIsRejectedBeforeUpload(t *testing.T) {
	t.Parallel()

	stub := &stubClassifier{err: errors.NewStd("should never be called")}
	ctrl, ledger := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	result, err := ctrl.FinishRecording(context.Background(), testAudio(), 5)

	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.Nil(t, result)
	assert.Equal(t, PhaseIdle, ctrl.Phase(), "rejection re-arms the controller")
	assert.Empty(t, ledger.All(), "no history entry for a rejected recording")
}

func TestDurationGateBoundary(t *testing.T) {
	t.Parallel()

	assert.Error(t, ValidateDuration(12.9))
	assert.NoError(t, ValidateDuration(13))
	assert.NoError(t, ValidateDuration(45))
	err := ValidateDuration(0)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRemoteFailureSubstitutesFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"timeout", errors.Newf("deadline exceeded").Category(errors.CategoryTimeout).Build()},
		{"network", errors.Newf("connection refused").Category(errors.CategoryNetwork).Build()},
		{"server", errors.Newf("status 500").Category(errors.CategoryServerResponse).Build()},
		{"malformed", errors.Newf("bad json").Category(errors.CategoryMalformedResponse).Build()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl, ledger := newTestController(t, &stubClassifier{err: tt.err})
			require.NoError(t, ctrl.StartRecording())

			result, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
			require.NoError(t, err, "remote failures must not surface as cycle errors")

			assert.Equal(t, PhaseCompleted, ctrl.Phase())
			assert.Equal(t, recognition.SourceFallback, result.Source)
			assert.GreaterOrEqual(t, result.Confidence, 20.0)
			assert.LessOrEqual(t, result.Confidence, 95.0)
			require.Len(t, ledger.All(), 1)
		})
	}
}

func TestMalformedShapeFallsBack(t *testing.T) {
	t.Parallel()

	// recognized flag missing entirely.
	stub := &stubClassifier{raw: &recognition.RawPrediction{SurahID: intPtr(2), Confidence: floatPtr(80)}}
	ctrl, ledger := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	result, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.NoError(t, err)
	assert.Equal(t, recognition.SourceFallback, result.Source)
	require.Len(t, ledger.All(), 1)
}

func TestResourceFailureIsTerminal(t *testing.T) {
	t.Parallel()

	stub := &stubClassifier{err: errors.Newf("audio source is missing").
		Category(errors.CategoryResource).Build()}
	ctrl, ledger := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	result, err := ctrl.FinishRecording(context.Background(), nil, 20)

	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryResource))
	assert.Equal(t, PhaseFailed, ctrl.Phase())

	require.NotNil(t, result)
	assert.False(t, result.Recognized)
	assert.Zero(t, result.Confidence)

	// The failure is still recorded, preserving one entry per cycle.
	entries := ledger.All()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Recognized)
	assert.Zero(t, entries[0].Confidence)
}

func TestReentrantFinishIsRejected(t *testing.T) {
	t.Parallel()

	stub := &stubClassifier{
		raw:     &recognition.RawPrediction{Recognized: boolPtr(false), Confidence: floatPtr(10)},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	ctrl, _ := newTestController(t, stub)
	require.NoError(t, ctrl.StartRecording())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
		assert.NoError(t, err)
	}()

	<-stub.entered
	assert.True(t, ctrl.IsProcessing())
	assert.Equal(t, PhaseUploading, ctrl.Phase())

	// A second stop-recording while uploading is a guarded no-op.
	_, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryState))

	// And a new cycle cannot start until this one finishes.
	err = ctrl.StartRecording()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryState))

	close(stub.release)
	<-done
	assert.Equal(t, PhaseCompleted, ctrl.Phase())
}

func TestResetDiscardsResult(t *testing.T) {
	t.Parallel()

	stub := &stubClassifier{raw: &recognition.RawPrediction{
		Recognized: boolPtr(false), Confidence: floatPtr(15),
	}}
	ctrl, ledger := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	_, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.NoError(t, err)
	require.NotNil(t, ctrl.Result())

	require.NoError(t, ctrl.Reset())
	assert.Equal(t, PhaseIdle, ctrl.Phase())
	assert.Nil(t, ctrl.Result())
	assert.Len(t, ledger.All(), 1, "reset does not touch history")

	// Reset is only valid from a terminal phase.
	err = ctrl.Reset()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryState))
}

func TestStartRecordingClearsPreviousResult(t *testing.T) {
	t.Parallel()

	stub := &stubClassifier{raw: &recognition.RawPrediction{
		Recognized: boolPtr(true), SurahID: intPtr(1), Confidence: floatPtr(88),
	}}
	ctrl, _ := newTestController(t, stub)

	require.NoError(t, ctrl.StartRecording())
	_, err := ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.NoError(t, err)
	require.NoError(t, ctrl.Reset())

	require.NoError(t, ctrl.StartRecording())
	assert.Nil(t, ctrl.Result())
}

func TestMetricsAreRecorded(t *testing.T) {
	t.Parallel()

	m := observability.NewMetrics()
	ledger, err := history.NewLedger(datastore.NewMemStore())
	require.NoError(t, err)

	stub := &stubClassifier{err: errors.Newf("down").Category(errors.CategoryNetwork).Build()}
	ctrl := NewController(stub, ledger,
		WithFallbackGenerator(recognition.NewGeneratorWithSeed(1)),
		WithMetrics(m))

	require.NoError(t, ctrl.StartRecording())
	_, err = ctrl.FinishRecording(context.Background(), testAudio(), 20)
	require.NoError(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CyclesTotal.WithLabelValues(observability.OutcomeCompleted)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues(string(errors.CategoryNetwork))), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HistorySize), 0.001)
	assert.Equal(t, 1, ledger.Len())
}
