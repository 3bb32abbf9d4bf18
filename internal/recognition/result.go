// Package recognition defines the canonical recognition result and the
// normalization of the remote classifier's response shapes into it.
package recognition

import "github.com/kuzamma/surah-recognition-go/internal/surah"

// Source tags the provenance of a result.
type Source string

const (
	// SourceRemote marks a result produced by the remote classifier.
	SourceRemote Source = "remote"
	// SourceFallback marks a locally synthesized result substituted when the
	// remote classifier was unreachable, slow, or returned unparseable data.
	SourceFallback Source = "fallback"
)

// Result is the canonical outcome of one recognition cycle. Immutable once
// produced. When Recognized is true, SurahID is non-nil and resolves in the
// surah table; otherwise SurahID is nil and SurahName is empty.
type Result struct {
	Recognized bool    `json:"recognized"`
	SurahID    *int    `json:"surahId,omitempty"`
	SurahName  string  `json:"surahName,omitempty"`
	Confidence float64 `json:"confidence"` // percent in [0,100]
	Source     Source  `json:"source"`
}

// Surah returns the full reference entry for a recognized result.
func (r *Result) Surah() (surah.Surah, bool) {
	if !r.Recognized || r.SurahID == nil {
		return surah.Surah{}, false
	}
	return surah.ByID(*r.SurahID)
}

// RawPrediction is the wire-level response of the remote classifier. The
// service's response shape has changed over time, so every field is optional
// and shape detection happens in Normalize.
type RawPrediction struct {
	Recognized *bool    `json:"recognized"`
	SurahID    *int     `json:"surahId"`
	SurahName  *string  `json:"surahName"`
	Confidence *float64 `json:"confidence"`
}
