package session

import "github.com/kuzamma/surah-recognition-go/internal/errors"

// The remote service analyzes a 5-second segment starting 8 seconds into the
// recording, so anything shorter than 13 seconds cannot be classified.
const (
	analysisOffsetSeconds  = 8
	analysisWindowSeconds  = 5
	MinRecordingSeconds    = analysisOffsetSeconds + analysisWindowSeconds
)

// ValidateDuration checks a recording's length against the minimum the remote
// service can analyze. Pure; rejection mutates nothing.
func ValidateDuration(seconds float64) error {
	if seconds < MinRecordingSeconds {
		return errors.Newf("recording too short: %.1fs, need at least %ds", seconds, MinRecordingSeconds).
			Component("session").
			Category(errors.CategoryValidation).
			Context("duration_seconds", seconds).
			Build()
	}
	return nil
}
