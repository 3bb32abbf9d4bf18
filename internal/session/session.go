// Package session drives the recognition cycle state machine: Idle →
// Recording → Uploading → Completed|Failed, with an explicit reset back to
// Idle. One controller owns one cycle at a time.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/history"
	"github.com/kuzamma/surah-recognition-go/internal/logging"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
	"github.com/kuzamma/surah-recognition-go/internal/observability"
	"github.com/kuzamma/surah-recognition-go/internal/recognition"
)

// Phase is the lifecycle state of the controller.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRecording Phase = "recording"
	PhaseUploading Phase = "uploading"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
)

// Classifier is the session-facing subset of the remote classifier client.
type Classifier interface {
	Classify(ctx context.Context, source myaudio.Source) (*recognition.RawPrediction, error)
}

// Controller orchestrates one recording-to-result cycle: duration gate,
// upload, normalization or fallback, and exactly one history append per
// cycle that reaches Uploading.
type Controller struct {
	classifier Classifier
	fallback   *recognition.Generator
	ledger     *history.Ledger
	metrics    *observability.Metrics
	logger     *slog.Logger

	mu           sync.Mutex
	phase        Phase
	source       myaudio.Source
	result       *recognition.Result
	isProcessing bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithFallbackGenerator overrides the default fallback generator, mainly so
// tests can seed it.
func WithFallbackGenerator(gen *recognition.Generator) Option {
	return func(c *Controller) { c.fallback = gen }
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates an idle controller.
func NewController(classifier Classifier, ledger *history.Ledger, opts ...Option) *Controller {
	c := &Controller{
		classifier: classifier,
		fallback:   recognition.NewGenerator(),
		ledger:     ledger,
		logger:     logging.ForService("session"),
		phase:      PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Result returns the outcome of the last completed cycle, or nil.
func (c *Controller) Result() *recognition.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// IsProcessing reports whether an upload is in flight.
func (c *Controller) IsProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isProcessing
}

// StartRecording transitions Idle → Recording and clears any prior result.
// It is refused while a cycle is still in progress, which also guarantees the
// previous cycle's history append happened before a new upload can start.
func (c *Controller) StartRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseIdle {
		return errors.Newf("cannot start recording in phase %q", c.phase).
			Component("session").
			Category(errors.CategoryState).
			Build()
	}

	c.phase = PhaseRecording
	c.result = nil
	c.source = nil
	c.logger.Debug("Recording started")
	return nil
}

// FinishRecording handles the stop-recording event for the current cycle:
// the duration gate runs first, then the upload with fallback substitution.
// A cycle that reaches Uploading always terminates in Completed or Failed
// with exactly one history entry; only a validation rejection (no history)
// or a resource failure (history written, error surfaced) return a non-nil
// error alongside the outcome.
func (c *Controller) FinishRecording(ctx context.Context, source myaudio.Source, durationSeconds float64) (*recognition.Result, error) {
	c.mu.Lock()
	if c.isProcessing {
		c.mu.Unlock()
		return nil, errors.Newf("a classification is already in flight").
			Component("session").
			Category(errors.CategoryState).
			Build()
	}
	if c.phase != PhaseRecording {
		c.mu.Unlock()
		return nil, errors.Newf("cannot finish recording in phase %q", c.phase).
			Component("session").
			Category(errors.CategoryState).
			Build()
	}

	if err := ValidateDuration(durationSeconds); err != nil {
		// Too short to submit: back to Idle, nothing written, the caller
		// surfaces the reason and may re-arm.
		c.phase = PhaseIdle
		c.mu.Unlock()
		c.countCycle(observability.OutcomeRejected)
		c.logger.Info("Recording rejected by duration gate", "duration_seconds", durationSeconds)
		return nil, err
	}

	c.phase = PhaseUploading
	c.isProcessing = true
	c.source = source
	c.mu.Unlock()

	result, err := c.classify(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.result = result
	c.isProcessing = false
	// The audio source is released once the upload attempt is over.
	c.source = nil

	if err != nil {
		c.phase = PhaseFailed
	} else {
		c.phase = PhaseCompleted
	}

	// Exactly one history entry per cycle that reached Uploading, written
	// after the result is finalized and before a new cycle can begin.
	if _, appendErr := c.ledger.Append(history.FromResult(result)); appendErr != nil {
		c.logger.Error("History append failed", "error", appendErr)
	}
	if c.metrics != nil {
		c.metrics.HistorySize.Set(float64(c.ledger.Len()))
	}

	if err != nil {
		c.countCycle(observability.OutcomeFailed)
		return result, err
	}
	c.countCycle(observability.OutcomeCompleted)
	return result, nil
}

// classify runs the upload and produces a final result. Remote failures of
// any kind except a missing/unreadable audio source are absorbed by the
// fallback generator; a resource failure is terminal for the cycle and
// returns the error with a zeroed result.
func (c *Controller) classify(ctx context.Context, source myaudio.Source) (*recognition.Result, error) {
	start := time.Now()
	raw, err := c.classifier.Classify(ctx, source)
	if c.metrics != nil {
		c.metrics.UploadDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		if errors.HasCategory(err, errors.CategoryResource) {
			c.logger.Error("Audio source unusable, cycle failed", "error", err)
			return &recognition.Result{
				Recognized: false,
				Confidence: 0,
				Source:     recognition.SourceFallback,
			}, err
		}
		return c.substituteFallback(err), nil
	}

	result, normErr := recognition.Normalize(raw, recognition.SourceRemote)
	if normErr != nil {
		return c.substituteFallback(normErr), nil
	}
	return result, nil
}

func (c *Controller) substituteFallback(cause error) *recognition.Result {
	reason := string(errors.CategoryOf(cause))
	c.logger.Warn("Remote classification failed, substituting fallback",
		"reason", reason, "error", cause)
	if c.metrics != nil {
		c.metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	}
	return c.fallback.Generate()
}

// Reset transitions Completed|Failed → Idle, discarding the result and any
// remaining audio source. History is not touched.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseCompleted && c.phase != PhaseFailed {
		return errors.Newf("cannot reset in phase %q", c.phase).
			Component("session").
			Category(errors.CategoryState).
			Build()
	}

	c.phase = PhaseIdle
	c.result = nil
	c.source = nil
	c.logger.Debug("Session reset")
	return nil
}

func (c *Controller) countCycle(outcome string) {
	if c.metrics != nil {
		c.metrics.CyclesTotal.WithLabelValues(outcome).Inc()
	}
}
